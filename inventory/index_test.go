package inventory

import (
	"encoding/json"
	"testing"

	"github.com/kasuganosora/vaultctl/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefs() *manifest.Store {
	s := manifest.NewStore("")
	add := func(d *manifest.ItemDefinition) { s.Items[d.Hash] = d }
	add(&manifest.ItemDefinition{
		Hash:              100,
		DisplayProperties: manifest.DisplayProperties{Name: "Fatebringer"},
		ItemType:          manifest.ItemTypeWeapon,
		ClassType:         manifest.ClassAny,
		Equippable:        true,
		Inventory:         manifest.InventoryBlock{TierTypeName: "Legendary", BucketTypeHash: BucketKinetic, MaxStackSize: 1},
	})
	add(&manifest.ItemDefinition{
		Hash:              200,
		DisplayProperties: manifest.DisplayProperties{Name: "Ophidian Aspect"},
		ItemType:          manifest.ItemTypeArmor,
		ClassType:         manifest.ClassWarlock,
		Equippable:        true,
		Inventory:         manifest.InventoryBlock{TierTypeName: "Exotic", BucketTypeHash: BucketGauntlets, MaxStackSize: 1},
	})
	add(&manifest.ItemDefinition{
		Hash:              300,
		DisplayProperties: manifest.DisplayProperties{Name: "Enhancement Core"},
		ItemType:          manifest.ItemTypeConsumable,
		ClassType:         manifest.ClassAny,
		Inventory:         manifest.InventoryBlock{TierTypeName: "Rare", BucketTypeHash: BucketConsumables, MaxStackSize: 9999},
	})
	add(&manifest.ItemDefinition{
		Hash:              400,
		DisplayProperties: manifest.DisplayProperties{Name: "Quest Step"},
		ItemType:          manifest.ItemTypeNone,
		NonTransferrable:  true,
		ClassType:         manifest.ClassAny,
		Inventory:         manifest.InventoryBlock{TierTypeName: "Common", BucketTypeHash: 1345459588},
	})
	return s
}

const testProfile = `{
  "characters": {"data": {
    "c1": {"characterId": "c1", "classType": 2, "light": 1990, "dateLastPlayed": "2026-10-18T20:00:00Z"},
    "c2": {"characterId": "c2", "classType": 0, "light": 1980, "dateLastPlayed": "2026-10-19T08:00:00Z"}
  }},
  "characterEquipment": {"data": {
    "c1": {"items": [
      {"itemHash": 100, "itemInstanceId": "i-1", "quantity": 1, "bucketHash": 1498876634, "state": 1},
      {"itemHash": 200, "itemInstanceId": "i-2", "quantity": 1, "bucketHash": 3551918588}
    ]}
  }},
  "characterInventories": {"data": {
    "c1": {"items": [
      {"itemHash": 300, "quantity": 25, "bucketHash": 1469714392},
      {"itemHash": 999, "itemInstanceId": "i-ghost", "quantity": 1, "bucketHash": 1498876634}
    ]},
    "c2": {"items": [
      {"itemHash": 100, "itemInstanceId": "i-3", "quantity": 1, "bucketHash": 1498876634},
      {"itemHash": 400, "quantity": 1, "bucketHash": 1345459588}
    ]}
  }},
  "profileInventory": {"data": {"items": [
    {"itemHash": 100, "itemInstanceId": "i-4", "quantity": 1, "bucketHash": 138197802, "state": 0},
    {"itemHash": 300, "quantity": 180, "bucketHash": 138197802}
  ]}},
  "itemComponents": {
    "instances": {"data": {
      "i-1": {"damageType": 1, "primaryStat": {"value": 1995}, "isEquipped": true, "canEquip": true},
      "i-2": {"damageType": 0, "primaryStat": {"value": 1990}, "energy": {"energyCapacity": 10, "energyUsed": 7}, "isEquipped": true, "canEquip": true},
      "i-4": {"damageType": 1, "primaryStat": {"value": 1810}}
    }},
    "sockets": {"data": {
      "i-1": {"sockets": [
        {"plugHash": 5001, "isEnabled": true},
        {"plugHash": 5002, "isEnabled": false},
        {"plugHash": 0, "isEnabled": true}
      ]},
      "i-4": {"sockets": []}
    }}
  }
}`

func loadProfile(t *testing.T) *ProfileResponse {
	t.Helper()
	var p ProfileResponse
	require.NoError(t, json.Unmarshal([]byte(testProfile), &p))
	return &p
}

func TestCharacterList_MostRecentFirst(t *testing.T) {
	chars := loadProfile(t).CharacterList()
	require.Len(t, chars, 2)
	assert.Equal(t, "c2", chars[0].CharacterID)
	assert.Equal(t, "c1", chars[1].CharacterID)
	assert.Nil(t, (*ProfileResponse)(nil).CharacterList())
}

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	p := loadProfile(t)
	chars := []Character{{CharacterID: "c1", ClassType: 2}, {CharacterID: "c2", ClassType: 0}}
	return BuildIndex(p, chars, testDefs(), nil)
}

func TestBuildIndex_SkipsManifestMisses(t *testing.T) {
	idx := buildTestIndex(t)
	assert.Len(t, idx.All, 7) // 8 raw records, one unknown hash
	_, ok := idx.ByInstanceID["i-ghost"]
	assert.False(t, ok)
	assert.Empty(t, idx.ByHash[999])
}

func TestBuildIndex_ProcessingOrder(t *testing.T) {
	idx := buildTestIndex(t)
	var order []string
	for _, it := range idx.All {
		order = append(order, ItemKey(it))
	}
	assert.Equal(t, []string{"i-1", "i-2", "hash:300", "i-3", "hash:400", "i-4", "hash:300"}, order)
}

func TestBuildIndex_Partitions(t *testing.T) {
	idx := buildTestIndex(t)
	assert.Len(t, idx.ByCharacter["c1"], 3)
	assert.Len(t, idx.ByCharacter["c2"], 2)
	assert.Len(t, idx.VaultItems, 2)
	_, ok := idx.ByCharacter[VaultLocation]
	assert.False(t, ok)

	total := len(idx.VaultItems)
	for _, items := range idx.ByCharacter {
		total += len(items)
	}
	assert.Equal(t, len(idx.All), total)

	assert.Len(t, idx.ByHash[100], 3)
	assert.Len(t, idx.ByHash[300], 2)
	assert.Len(t, idx.ByInstanceID, 4)
}

func TestBuildIndex_InstanceFields(t *testing.T) {
	idx := buildTestIndex(t)

	fb := idx.ByInstanceID["i-1"]
	require.NotNil(t, fb)
	assert.Equal(t, "Fatebringer", fb.Name)
	assert.Equal(t, "Kinetic", fb.Slot)
	assert.Equal(t, "Legendary", fb.Tier)
	assert.True(t, fb.IsLocked)
	assert.True(t, fb.IsEquipped)
	require.NotNil(t, fb.Power)
	assert.Equal(t, 1995, *fb.Power)
	require.NotNil(t, fb.DamageType)
	assert.Equal(t, DamageKinetic, *fb.DamageType)
	assert.Equal(t, -1, fb.ClassRestriction)
	assert.Nil(t, fb.EnergyCapacity)

	gloves := idx.ByInstanceID["i-2"]
	assert.False(t, gloves.IsLocked)
	assert.Equal(t, 2, gloves.ClassRestriction)
	require.NotNil(t, gloves.EnergyCapacity)
	assert.Equal(t, 10, *gloves.EnergyCapacity)
	assert.Equal(t, 7, *gloves.EnergyUsed)
}

func TestBuildIndex_MissingInstanceDegrades(t *testing.T) {
	idx := buildTestIndex(t)
	it := idx.ByInstanceID["i-3"] // not in the instances component
	require.NotNil(t, it)
	assert.Nil(t, it.Power)
	assert.Nil(t, it.DamageType)
	assert.False(t, it.IsEquipped)
	assert.False(t, it.PerksKnown)
}

func TestBuildIndex_PerksAbsentVersusEmpty(t *testing.T) {
	idx := buildTestIndex(t)
	fb := idx.ByInstanceID["i-1"]
	assert.True(t, fb.PerksKnown)
	assert.Equal(t, []uint32{5001}, fb.Perks)

	vault := idx.ByInstanceID["i-4"]
	assert.True(t, vault.PerksKnown)
	assert.Empty(t, vault.Perks)

	assert.False(t, idx.ByInstanceID["i-3"].PerksKnown)
}

func TestBuildIndex_VaultSlotFallsBackToDefinition(t *testing.T) {
	idx := buildTestIndex(t)
	it := idx.ByInstanceID["i-4"]
	assert.Equal(t, "Kinetic", it.Slot)
	assert.Equal(t, BucketVault, it.BucketHash)
	assert.True(t, it.InVault())

	quest := idx.ByHash[400][0]
	assert.Equal(t, SlotOther, quest.Slot)
	assert.True(t, quest.NonTransferrable)
}

func TestBuildIndex_StackablesPerLocation(t *testing.T) {
	idx := buildTestIndex(t)
	cores := idx.ByHash[300]
	require.Len(t, cores, 2)
	assert.Equal(t, "c1", cores[0].Location)
	assert.Equal(t, 25, cores[0].Quantity)
	assert.Equal(t, VaultLocation, cores[1].Location)
	assert.Equal(t, 180, cores[1].Quantity)
	assert.Empty(t, cores[0].InstanceID)
}

func TestBuildIndex_AbsentComponents(t *testing.T) {
	p := &ProfileResponse{
		CharacterInventories: &CharacterItemsComponent{Data: map[string]ItemList{
			"c1": {Items: []ItemComponent{{ItemHash: 100, ItemInstanceID: "x", Quantity: 1}}},
		}},
	}
	idx := BuildIndex(p, []Character{{CharacterID: "c1"}}, testDefs(), nil)
	require.Len(t, idx.All, 1)
	assert.Nil(t, idx.All[0].Power)
	assert.Empty(t, idx.VaultItems)

	empty := BuildIndex(nil, nil, testDefs(), nil)
	assert.Empty(t, empty.All)
	assert.NotNil(t, empty.ByHash)
}

func TestBuildIndex_DoesNotMutateInput(t *testing.T) {
	p := loadProfile(t)
	before, err := json.Marshal(p)
	require.NoError(t, err)
	BuildIndex(p, p.CharacterList(), testDefs(), nil)
	after, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestFindByKey(t *testing.T) {
	idx := buildTestIndex(t)
	it, ok := idx.FindByKey("i-2")
	require.True(t, ok)
	assert.Equal(t, "Ophidian Aspect", it.Name)

	it, ok = idx.FindByKey("hash:300")
	require.True(t, ok)
	assert.Equal(t, "c1", it.Location)

	_, ok = idx.FindByKey("hash:abc")
	assert.False(t, ok)
	_, ok = idx.FindByKey("hash:12345")
	assert.False(t, ok)
}

func TestOtherCopies(t *testing.T) {
	idx := buildTestIndex(t)
	others := idx.OtherCopies(idx.ByInstanceID["i-1"])
	require.Len(t, others, 2)
	assert.Equal(t, "i-3", others[0].InstanceID)
	assert.Equal(t, "i-4", others[1].InstanceID)
}

func TestSlotName(t *testing.T) {
	assert.Equal(t, "Power", SlotName(BucketPower, 0))
	assert.Equal(t, "Helmet", SlotName(BucketVault, BucketHelmet))
	assert.Equal(t, SlotOther, SlotName(1, 2))
}
