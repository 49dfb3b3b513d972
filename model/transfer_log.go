package model

import (
	"time"

	"gorm.io/datatypes"
)

// TransferLog records one remote mutation issued by the client.
type TransferLog struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID           string         `gorm:"index:idx_transfer_run;size:36;not null" json:"run_id"`
	Action          string         `gorm:"size:16;not null" json:"action"` // to_vault, from_vault, equip
	ItemHash        uint32         `gorm:"index:idx_transfer_item" json:"item_hash"`
	InstanceID      string         `gorm:"size:32" json:"instance_id"`
	ItemName        string         `gorm:"size:128" json:"item_name"`
	FromCharacterID string         `gorm:"size:32" json:"from_character_id"`
	ToCharacterID   string         `gorm:"size:32" json:"to_character_id"`
	Count           int            `json:"count"`
	Error           string         `gorm:"type:text" json:"error"`
	Detail          datatypes.JSON `json:"detail"`
	DurationMs      int            `json:"duration_ms"`
	CreatedAt       time.Time      `gorm:"index:idx_transfer_created;autoCreateTime:milli" json:"created_at"`
}
