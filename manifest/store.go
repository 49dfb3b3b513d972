package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Manifest table files expected in the manifest directory. Each is a JSON
// object keyed by the definition hash, as exported by the game's manifest API.
const (
	ItemDefinitionFile    = "DestinyInventoryItemDefinition.json"
	PlugSetDefinitionFile = "DestinyPlugSetDefinition.json"
)

// Item types, as reported by the manifest.
const (
	ItemTypeNone       = 0
	ItemTypeArmor      = 2
	ItemTypeWeapon     = 3
	ItemTypeConsumable = 9
	ItemTypeEmblem     = 14
	ItemTypeSubclass   = 16
	ItemTypeMod        = 19
	ItemTypeShip       = 21
	ItemTypeVehicle    = 22
	ItemTypeGhost      = 24
)

// Class types. ClassAny is the manifest's "unknown" class, meaning unrestricted.
const (
	ClassTitan   = 0
	ClassHunter  = 1
	ClassWarlock = 2
	ClassAny     = 3
)

type DisplayProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type InventoryBlock struct {
	TierTypeName   string `json:"tierTypeName"`
	BucketTypeHash uint32 `json:"bucketTypeHash"`
	MaxStackSize   int    `json:"maxStackSize"`
}

// SocketEntry is one socket column of an item. Its possible plugs come from
// the initial plug, inline reusable plugs and up to two plug sets.
type SocketEntry struct {
	SingleInitialItemHash uint32 `json:"singleInitialItemHash"`
	ReusablePlugItems     []struct {
		PlugItemHash uint32 `json:"plugItemHash"`
	} `json:"reusablePlugItems"`
	ReusablePlugSetHash   uint32 `json:"reusablePlugSetHash"`
	RandomizedPlugSetHash uint32 `json:"randomizedPlugSetHash"`
}

type SocketBlock struct {
	SocketEntries []SocketEntry `json:"socketEntries"`
}

// ItemDefinition is the static definition of an inventory item. Perks and
// mods are items too; they are reached through PerkDefinition.
type ItemDefinition struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
	ItemType          int               `json:"itemType"`
	ItemSubType       int               `json:"itemSubType"`
	ClassType         int               `json:"classType"`
	DefaultDamageType int               `json:"defaultDamageType"`
	Equippable        bool              `json:"equippable"`
	NonTransferrable  bool              `json:"nonTransferrable"`
	Inventory         InventoryBlock    `json:"inventory"`
	Sockets           *SocketBlock      `json:"sockets"`
}

// ClassRestriction returns the class id the item is restricted to, or -1
// when any class may use it.
func (d *ItemDefinition) ClassRestriction() int {
	if d.ClassType < ClassTitan || d.ClassType >= ClassAny {
		return -1
	}
	return d.ClassType
}

type PerkDefinition struct {
	Hash        uint32
	Name        string
	Description string
}

type PlugSetDefinition struct {
	Hash              uint32 `json:"hash"`
	ReusablePlugItems []struct {
		PlugItemHash     uint32 `json:"plugItemHash"`
		CurrentlyCanRoll bool   `json:"currentlyCanRoll"`
	} `json:"reusablePlugItems"`
}

// Lookup resolves static definitions by hash. Implementations are read-only.
type Lookup interface {
	ItemDefinition(hash uint32) (*ItemDefinition, bool)
	PerkDefinition(hash uint32) (*PerkDefinition, bool)
}

// Store holds manifest tables loaded from disk.
type Store struct {
	Dir      string
	Items    map[uint32]*ItemDefinition
	PlugSets map[uint32]*PlugSetDefinition
}

// NewStore creates an empty Store reading from dir.
func NewStore(dir string) *Store {
	return &Store{
		Dir:      dir,
		Items:    make(map[uint32]*ItemDefinition),
		PlugSets: make(map[uint32]*PlugSetDefinition),
	}
}

// Load reads every manifest table. The plug set table is optional; without
// it the roll finder only sees inline socket plugs.
func (s *Store) Load() error {
	items, err := loadTable[ItemDefinition](filepath.Join(s.Dir, ItemDefinitionFile))
	if err != nil {
		return err
	}
	for _, d := range items {
		s.Items[d.Hash] = d
	}

	path := filepath.Join(s.Dir, PlugSetDefinitionFile)
	if _, err := os.Stat(path); err == nil {
		sets, err := loadTable[PlugSetDefinition](path)
		if err != nil {
			return err
		}
		for _, ps := range sets {
			s.PlugSets[ps.Hash] = ps
		}
	}
	return nil
}

func loadTable[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var table map[string]*T
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	out := make([]*T, 0, len(table))
	for _, v := range table {
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// ItemDefinition implements Lookup.
func (s *Store) ItemDefinition(hash uint32) (*ItemDefinition, bool) {
	d, ok := s.Items[hash]
	return d, ok
}

// PerkDefinition implements Lookup. Perks are plug items, so this reads the
// item table and keeps only the display fields.
func (s *Store) PerkDefinition(hash uint32) (*PerkDefinition, bool) {
	d, ok := s.Items[hash]
	if !ok {
		return nil, false
	}
	return &PerkDefinition{
		Hash:        d.Hash,
		Name:        d.DisplayProperties.Name,
		Description: d.DisplayProperties.Description,
	}, true
}

// PlugSet returns the plug item hashes of a plug set that can still roll.
func (s *Store) PlugSet(hash uint32) ([]uint32, bool) {
	ps, ok := s.PlugSets[hash]
	if !ok {
		return nil, false
	}
	out := make([]uint32, 0, len(ps.ReusablePlugItems))
	for _, p := range ps.ReusablePlugItems {
		if p.CurrentlyCanRoll {
			out = append(out, p.PlugItemHash)
		}
	}
	return out, true
}

// PerksByName returns the hashes of every plug item whose name equals name,
// ignoring case. Enhanced variants share the base name and are included.
func (s *Store) PerksByName(name string) []uint32 {
	var out []uint32
	for h, d := range s.Items {
		if strings.EqualFold(d.DisplayProperties.Name, name) && d.ItemType != ItemTypeWeapon && d.ItemType != ItemTypeArmor {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}
