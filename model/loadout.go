package model

import (
	"time"

	"gorm.io/datatypes"
)

// Loadout is a saved set of items for one character.
type Loadout struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CharacterID string         `gorm:"size:32" json:"character_id"` // character it was saved from
	ClassType   int            `json:"class_type"`
	Items       []LoadoutItem  `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Meta        datatypes.JSON `json:"meta"` // free-form, e.g. {"notes": "..."}
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoadoutItem is one entry of a Loadout. InstanceID is empty for stackables.
type LoadoutItem struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	LoadoutID  int64  `gorm:"index:idx_loadout_item;not null" json:"loadout_id"`
	ItemHash   uint32 `gorm:"not null" json:"item_hash"`
	InstanceID string `gorm:"size:32" json:"instance_id"`
	BucketHash uint32 `json:"bucket_hash"`
	Equipped   bool   `json:"equipped"`
}
