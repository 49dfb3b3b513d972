// Package inventory merges the raw profile payload and manifest definitions
// into a single cross-referenced snapshot of everything the player owns.
package inventory

import (
	"strconv"
	"strings"

	"github.com/kasuganosora/vaultctl/manifest"
	"go.uber.org/zap"
)

// VaultLocation is the Location of items stored in the account vault.
const VaultLocation = "vault"

// Damage types, as reported by instance components.
const (
	DamageKinetic = 1
	DamageArc     = 2
	DamageSolar   = 3
	DamageVoid    = 4
	DamageStasis  = 6
	DamageStrand  = 7
)

// Transfer status values. The API reports these as flags but the planner
// reads NonTransferrable from the definition instead.
const (
	TransferCan              = 0
	TransferItemEquipped     = 1
	TransferNotTransferrable = 2
	TransferNoRoom           = 4
)

const stateLocked = 1

// Item is one indexed copy of an item. Stackables have one Item per
// location and hash rather than one per unit.
type Item struct {
	Hash       uint32
	InstanceID string // empty for stackables

	Name             string
	ItemType         int
	ItemSubType      int
	Tier             string
	Slot             string
	ClassRestriction int // -1 = any class
	Icon             string
	MaxStackSize     int
	NonTransferrable bool
	Equippable       bool

	Quantity       int
	BucketHash     uint32
	TransferStatus int
	IsLocked       bool
	Power          *int // nil when instance data was not fetched
	DamageType     *int
	EnergyCapacity *int
	EnergyUsed     *int
	IsEquipped     bool
	CanEquip       bool

	// Location is VaultLocation or a character id.
	Location string

	// Perks is only meaningful when PerksKnown is true; a known empty list
	// means the item has no perks.
	Perks      []uint32
	PerksKnown bool
}

func (it *Item) IsWeapon() bool { return it.ItemType == manifest.ItemTypeWeapon }
func (it *Item) IsArmor() bool  { return it.ItemType == manifest.ItemTypeArmor }
func (it *Item) InVault() bool  { return it.Location == VaultLocation }

// PowerValue returns the item's power, or 0 when unknown.
func (it *Item) PowerValue() int {
	if it.Power == nil {
		return 0
	}
	return *it.Power
}

// ItemKey is the persistence key of an item: its instance id, or a hash key
// for stackables.
func ItemKey(it *Item) string {
	if it.InstanceID != "" {
		return it.InstanceID
	}
	return "hash:" + strconv.FormatUint(uint64(it.Hash), 10)
}

// Index is an immutable snapshot of the account inventory.
type Index struct {
	All          []*Item
	ByInstanceID map[string]*Item
	ByHash       map[uint32][]*Item
	ByCharacter  map[string][]*Item
	VaultItems   []*Item
	Characters   []Character
}

// Character returns the character with id.
func (idx *Index) Character(id string) (Character, bool) {
	for _, c := range idx.Characters {
		if c.CharacterID == id {
			return c, true
		}
	}
	return Character{}, false
}

// FindByKey resolves an ItemKey. A hash key returns the first copy in
// processing order.
func (idx *Index) FindByKey(key string) (*Item, bool) {
	if rest, ok := strings.CutPrefix(key, "hash:"); ok {
		h, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return nil, false
		}
		copies := idx.ByHash[uint32(h)]
		if len(copies) == 0 {
			return nil, false
		}
		return copies[0], true
	}
	it, ok := idx.ByInstanceID[key]
	return it, ok
}

// OtherCopies returns every other copy sharing its hash.
func (idx *Index) OtherCopies(it *Item) []*Item {
	var out []*Item
	for _, c := range idx.ByHash[it.Hash] {
		if c != it {
			out = append(out, c)
		}
	}
	return out
}

// BuildIndex merges a profile snapshot into an Index. For each character it
// indexes equipment then inventory, then the vault. Records whose hash is not
// in the manifest are skipped; missing instance or socket data leaves the
// dynamic fields unset. It never fails and does not modify its inputs.
func BuildIndex(profile *ProfileResponse, characters []Character, defs manifest.Lookup, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &builder{
		idx:    FromItems(nil, characters),
		defs:   defs,
		logger: logger,
	}
	if profile == nil {
		return b.idx
	}
	if profile.ItemComponents != nil {
		b.instances = profile.ItemComponents.Instances
		b.sockets = profile.ItemComponents.Sockets
	}

	for _, c := range characters {
		if profile.CharacterEquipment != nil {
			for _, raw := range profile.CharacterEquipment.Data[c.CharacterID].Items {
				b.add(raw, c.CharacterID)
			}
		}
		if profile.CharacterInventories != nil {
			for _, raw := range profile.CharacterInventories.Data[c.CharacterID].Items {
				b.add(raw, c.CharacterID)
			}
		}
	}
	if profile.ProfileInventory != nil && profile.ProfileInventory.Data != nil {
		for _, raw := range profile.ProfileInventory.Data.Items {
			b.add(raw, VaultLocation)
		}
	}

	logger.Debug("inventory indexed",
		zap.Int("items", len(b.idx.All)),
		zap.Int("vault", len(b.idx.VaultItems)),
		zap.Int("skipped", b.skipped))
	return b.idx
}

type builder struct {
	idx       *Index
	defs      manifest.Lookup
	instances *InstancesComponent
	sockets   *SocketsComponent
	logger    *zap.Logger
	skipped   int
}

func (b *builder) add(raw ItemComponent, location string) {
	def, ok := b.defs.ItemDefinition(raw.ItemHash)
	if !ok || def == nil {
		b.skipped++
		b.logger.Debug("manifest miss", zap.Uint32("hash", raw.ItemHash), zap.String("location", location))
		return
	}

	it := &Item{
		Hash:             raw.ItemHash,
		InstanceID:       raw.ItemInstanceID,
		Name:             def.DisplayProperties.Name,
		ItemType:         def.ItemType,
		ItemSubType:      def.ItemSubType,
		Tier:             def.Inventory.TierTypeName,
		Slot:             SlotName(raw.BucketHash, def.Inventory.BucketTypeHash),
		ClassRestriction: def.ClassRestriction(),
		Icon:             def.DisplayProperties.Icon,
		MaxStackSize:     def.Inventory.MaxStackSize,
		NonTransferrable: def.NonTransferrable,
		Equippable:       def.Equippable,
		Quantity:         raw.Quantity,
		BucketHash:       raw.BucketHash,
		TransferStatus:   raw.TransferStatus,
		IsLocked:         raw.State&stateLocked != 0,
		Location:         location,
	}

	if it.InstanceID != "" {
		if b.instances != nil {
			if inst, ok := b.instances.Data[it.InstanceID]; ok {
				dt := inst.DamageType
				it.DamageType = &dt
				if inst.PrimaryStat != nil {
					p := inst.PrimaryStat.Value
					it.Power = &p
				}
				if inst.Energy != nil {
					capacity, used := inst.Energy.EnergyCapacity, inst.Energy.EnergyUsed
					it.EnergyCapacity = &capacity
					it.EnergyUsed = &used
				}
				it.IsEquipped = inst.IsEquipped
				it.CanEquip = inst.CanEquip
			}
		}
		if b.sockets != nil {
			if s, ok := b.sockets.Data[it.InstanceID]; ok {
				it.PerksKnown = true
				it.Perks = []uint32{}
				for _, sock := range s.Sockets {
					if sock.PlugHash != 0 && sock.IsEnabled {
						it.Perks = append(it.Perks, sock.PlugHash)
					}
				}
			}
		}
	}
	b.idx.insert(it)
}

// FromItems builds an Index over already-resolved items, keeping their order.
func FromItems(items []*Item, characters []Character) *Index {
	idx := &Index{
		ByInstanceID: make(map[string]*Item),
		ByHash:       make(map[uint32][]*Item),
		ByCharacter:  make(map[string][]*Item),
		Characters:   append([]Character(nil), characters...),
	}
	for _, it := range items {
		idx.insert(it)
	}
	return idx
}

func (idx *Index) insert(it *Item) {
	if it.InstanceID != "" {
		idx.ByInstanceID[it.InstanceID] = it
	}
	idx.All = append(idx.All, it)
	idx.ByHash[it.Hash] = append(idx.ByHash[it.Hash], it)
	if it.Location == VaultLocation {
		idx.VaultItems = append(idx.VaultItems, it)
	} else {
		idx.ByCharacter[it.Location] = append(idx.ByCharacter[it.Location], it)
	}
}
