package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one economy-relevant action for later inspection.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"size:64;index" json:"trace_id"`
	AccountID  *int64         `json:"account_id"`
	CharID     *int64         `json:"char_id"`
	Action     string         `gorm:"size:64;index" json:"action"`
	Detail     datatypes.JSON `json:"detail"`
	Error      string         `gorm:"size:255" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
