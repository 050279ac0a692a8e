package model

import "time"

// NoAlliance is the AllianceID value of a character that belongs to no alliance.
const NoAlliance int64 = -1

// Character represents a player's in-game character.
type Character struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID    int64     `gorm:"index:idx_account;not null" json:"account_id"`
	Name         string    `gorm:"size:32;not null" json:"name"`
	Caste        string    `gorm:"size:32" json:"caste"`
	Race         string    `gorm:"size:32" json:"race"`
	Strength     int       `gorm:"not null" json:"strength"`
	Dexterity    int       `gorm:"not null" json:"dexterity"`
	Intelligence int       `gorm:"not null" json:"intelligence"`
	MaxHealth    int       `gorm:"not null" json:"max_health"`
	MaxEnergy    int       `gorm:"not null" json:"max_energy"`
	Exp          int64     `gorm:"default:0" json:"exp"`
	Level        int       `gorm:"default:1" json:"level"`
	AllianceID   int64     `gorm:"default:-1" json:"alliance_id"` // -1 = none
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Inventory is loaded explicitly by the character service; it is
	// never written through this field.
	Inventory []Item `gorm:"-" json:"inventory,omitempty"`
}
