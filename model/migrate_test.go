package model_test

import (
	"testing"

	"github.com/kasuganosora/vaultctl/model"
	"github.com/kasuganosora/vaultctl/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Tags
	require.NoError(t, db.Create(&model.ItemTag{ItemKey: "6917529", Tag: "keep"}).Error)
	require.Error(t, db.Create(&model.ItemTag{ItemKey: "6917529", Tag: "keep"}).Error, "duplicate tag")

	// Note
	require.NoError(t, db.Create(&model.ItemNote{ItemKey: "hash:300", Note: "glimmer"}).Error)

	// Saved search
	ss := &model.SavedSearch{Name: "trash", Query: "is:weapon -tag:keep"}
	require.NoError(t, db.Create(ss).Error)
	assert.Greater(t, ss.ID, int64(0))

	// Loadout with items
	lo := &model.Loadout{
		Name:        "raid",
		CharacterID: "c1",
		ClassType:   2,
		Meta:        datatypes.JSON(`{"notes":"dps"}`),
		Items: []model.LoadoutItem{
			{ItemHash: 1001, InstanceID: "i-1", Equipped: true},
			{ItemHash: 300, Equipped: false},
		},
	}
	require.NoError(t, db.Create(lo).Error)

	var found model.Loadout
	require.NoError(t, db.Preload("Items").First(&found, lo.ID).Error)
	assert.Equal(t, "raid", found.Name)
	require.Len(t, found.Items, 2)
	assert.Equal(t, uint32(1001), found.Items[0].ItemHash)

	// Transfer log
	tl := &model.TransferLog{RunID: "run-1", Action: "to_vault", ItemHash: 1001, Count: 1}
	require.NoError(t, db.Create(tl).Error)
	assert.False(t, tl.CreatedAt.IsZero())
}
