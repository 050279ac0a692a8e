package model

import "time"

// Account represents a player account.
type Account struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string `gorm:"size:64;not null" json:"-"`
	// CharacterID is nil until the account's character is created,
	// then set exactly once.
	CharacterID *int64     `json:"character_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}
