package model

import "time"

// ItemTag is a user tag on an item, keyed by its instance id or hash key.
type ItemTag struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemKey   string    `gorm:"uniqueIndex:idx_item_tag;size:32;not null" json:"item_key"`
	Tag       string    `gorm:"uniqueIndex:idx_item_tag;index:idx_tag;size:64;not null" json:"tag"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ItemNote is a free-form note on an item. One per item.
type ItemNote struct {
	ItemKey   string    `gorm:"primaryKey;size:32" json:"item_key"`
	Note      string    `gorm:"type:text" json:"note"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SavedSearch is a named search query.
type SavedSearch struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Query     string    `gorm:"type:text;not null" json:"query"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
