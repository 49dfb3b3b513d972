package inventory

import (
	"cmp"
	"slices"
)

// Raw profile payload, as returned by the remote profile endpoint. Every
// component is optional: which ones are present depends on the components the
// caller requested, and none implies another.

// ItemComponent is one raw item record in a character or vault inventory.
type ItemComponent struct {
	ItemHash       uint32 `json:"itemHash"`
	ItemInstanceID string `json:"itemInstanceId,omitempty"`
	Quantity       int    `json:"quantity"`
	BucketHash     uint32 `json:"bucketHash"`
	TransferStatus int    `json:"transferStatus"`
	State          int    `json:"state"` // bit 0 = locked
}

type ItemList struct {
	Items []ItemComponent `json:"items"`
}

type CharacterItemsComponent struct {
	Data map[string]ItemList `json:"data"`
}

type ProfileInventoryComponent struct {
	Data *ItemList `json:"data"`
}

type Stat struct {
	Value int `json:"value"`
}

type Energy struct {
	EnergyCapacity int `json:"energyCapacity"`
	EnergyUsed     int `json:"energyUsed"`
}

// InstanceComponent is the per-instance state of an instanced item.
type InstanceComponent struct {
	DamageType  int     `json:"damageType"`
	PrimaryStat *Stat   `json:"primaryStat"`
	Energy      *Energy `json:"energy"`
	IsEquipped  bool    `json:"isEquipped"`
	CanEquip    bool    `json:"canEquip"`
}

type InstancesComponent struct {
	Data map[string]InstanceComponent `json:"data"`
}

type SocketState struct {
	PlugHash  uint32 `json:"plugHash"`
	IsEnabled bool   `json:"isEnabled"`
	IsVisible bool   `json:"isVisible"`
}

type ItemSockets struct {
	Sockets []SocketState `json:"sockets"`
}

type SocketsComponent struct {
	Data map[string]ItemSockets `json:"data"`
}

type ItemComponents struct {
	Instances *InstancesComponent `json:"instances"`
	Sockets   *SocketsComponent   `json:"sockets"`
}

// Character is a playable character on the account.
type Character struct {
	CharacterID    string `json:"characterId"`
	ClassType      int    `json:"classType"`
	Light          int    `json:"light"`
	DateLastPlayed string `json:"dateLastPlayed"`
}

type CharactersComponent struct {
	Data map[string]Character `json:"data"`
}

// ProfileResponse is the subset of the profile payload the indexer reads.
type ProfileResponse struct {
	Characters           *CharactersComponent       `json:"characters"`
	ProfileInventory     *ProfileInventoryComponent `json:"profileInventory"`
	CharacterInventories *CharacterItemsComponent   `json:"characterInventories"`
	CharacterEquipment   *CharacterItemsComponent   `json:"characterEquipment"`
	ItemComponents       *ItemComponents            `json:"itemComponents"`
}

// CharacterList returns the profile's characters, most recently played first.
func (p *ProfileResponse) CharacterList() []Character {
	if p == nil || p.Characters == nil {
		return nil
	}
	out := make([]Character, 0, len(p.Characters.Data))
	for id, c := range p.Characters.Data {
		if c.CharacterID == "" {
			c.CharacterID = id
		}
		out = append(out, c)
	}
	// ISO-8601 timestamps sort lexically.
	slices.SortFunc(out, func(a, b Character) int {
		if c := cmp.Compare(b.DateLastPlayed, a.DateLastPlayed); c != 0 {
			return c
		}
		return cmp.Compare(a.CharacterID, b.CharacterID)
	})
	return out
}
