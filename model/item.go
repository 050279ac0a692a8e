package model

// ModOp is how an item modifier is applied to a character stat.
type ModOp int

const (
	OpAdd      ModOp = 1
	OpMultiply ModOp = 2
	OpSet      ModOp = 3
)

// Item is a single inventory item with its five stat modifiers.
// CharID is the ownership column: it is the single source of truth for
// who holds the item, and the exchange coordinator is the only code
// allowed to move it between characters.
type Item struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CharID int64  `gorm:"index:idx_char_items;not null" json:"char_id"`
	Name   string `gorm:"size:64;not null" json:"name"`

	HealthValue       int   `gorm:"default:0" json:"health_value"`
	HealthOp          ModOp `gorm:"default:1" json:"health_op"`
	StrengthValue     int   `gorm:"default:0" json:"strength_value"`
	StrengthOp        ModOp `gorm:"default:1" json:"strength_op"`
	DexterityValue    int   `gorm:"default:0" json:"dexterity_value"`
	DexterityOp       ModOp `gorm:"default:1" json:"dexterity_op"`
	IntelligenceValue int   `gorm:"default:0" json:"intelligence_value"`
	IntelligenceOp    ModOp `gorm:"default:1" json:"intelligence_op"`
	EnergyValue       int   `gorm:"default:0" json:"energy_value"`
	EnergyOp          ModOp `gorm:"default:1" json:"energy_op"`
}
