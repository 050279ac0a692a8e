package model

import "time"

// MarketOffer is a standing proposal to trade one owned item for any
// item whose name matches RequestedName. The (ItemID, CharID) unique
// index enforces that a character cannot list the same item twice.
type MarketOffer struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID        int64     `gorm:"uniqueIndex:idx_offer_item_char;not null" json:"item_id"`
	CharID        int64     `gorm:"uniqueIndex:idx_offer_item_char;not null" json:"char_id"`
	RequestedName string    `gorm:"size:64;not null" json:"requested_name"`
	OfferedName   string    `gorm:"size:64;not null" json:"offered_name"` // denormalized display name
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
