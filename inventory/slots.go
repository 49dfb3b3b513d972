package inventory

// Inventory bucket hashes.
const (
	BucketKinetic     uint32 = 1498876634
	BucketEnergy      uint32 = 2465295065
	BucketPower       uint32 = 953998645
	BucketHelmet      uint32 = 3448274439
	BucketGauntlets   uint32 = 3551918588
	BucketChest       uint32 = 14239492
	BucketLeg         uint32 = 20886954
	BucketClassItem   uint32 = 1585787867
	BucketGhost       uint32 = 4023194814
	BucketVehicle     uint32 = 2025709351
	BucketShips       uint32 = 284967655
	BucketEmblems     uint32 = 4274335291
	BucketSubclass    uint32 = 3284755031
	BucketConsumables uint32 = 1469714392
	BucketMods        uint32 = 3313201758
	BucketVault       uint32 = 138197802
)

const SlotOther = "Other"

var bucketSlots = map[uint32]string{
	BucketKinetic:     "Kinetic",
	BucketEnergy:      "Energy",
	BucketPower:       "Power",
	BucketHelmet:      "Helmet",
	BucketGauntlets:   "Gauntlets",
	BucketChest:       "Chest",
	BucketLeg:         "Leg",
	BucketClassItem:   "Class Item",
	BucketGhost:       "Ghost",
	BucketVehicle:     "Vehicle",
	BucketShips:       "Ships",
	BucketEmblems:     "Emblems",
	BucketSubclass:    "Subclass",
	BucketConsumables: "Consumables",
	BucketMods:        "Modifications",
}

// EquipmentSlots are the slots a loadout fills, in display order.
var EquipmentSlots = []string{
	"Kinetic", "Energy", "Power",
	"Helmet", "Gauntlets", "Chest", "Leg", "Class Item",
}

// SlotName resolves the slot of an item from the bucket it sits in, falling
// back to its definition's bucket (vault items sit in the vault bucket).
func SlotName(bucketHash, defBucketHash uint32) string {
	if s, ok := bucketSlots[bucketHash]; ok {
		return s
	}
	if s, ok := bucketSlots[defBucketHash]; ok {
		return s
	}
	return SlotOther
}
