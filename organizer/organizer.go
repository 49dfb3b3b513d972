// Package organizer suggests cleanup actions over a set of items: surplus
// duplicates, gear far below its slot's best, and items to stage in the vault.
package organizer

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kasuganosora/vaultctl/inventory"
)

// Kind names the pass that produced a suggestion.
type Kind string

const (
	KindDuplicate    Kind = "duplicate"
	KindUnderpowered Kind = "underpowered"
	KindVaultPrep    Kind = "vault-prep"
)

// UnderpoweredGap is the power deficit against the slot maximum that flags
// an item.
const UnderpoweredGap = 10

type Suggestion struct {
	Item   *inventory.Item
	Kind   Kind
	Reason string
	// Keeper is the copy kept in place of Item, for duplicates.
	Keeper *inventory.Item
}

// Report holds the suggestions of each pass. An item appears at most once
// across all three lists.
type Report struct {
	Duplicates   []Suggestion
	Underpowered []Suggestion
	VaultPrep    []Suggestion
}

func (r Report) Total() int {
	return len(r.Duplicates) + len(r.Underpowered) + len(r.VaultPrep)
}

// KeeperScore ranks copies of the same item; the highest is kept. Each
// criterion outweighs all later ones: locked, equipped, on a character,
// power, known perk count.
func KeeperScore(it *inventory.Item) int {
	score := 0
	if it.IsLocked {
		score += 1_000_000_000
	}
	if it.IsEquipped {
		score += 100_000_000
	}
	if !it.InVault() {
		score += 10_000_000
	}
	score += min(max(it.PowerValue(), 0), 9999) * 1000
	if it.PerksKnown {
		score += min(len(it.Perks), 999)
	}
	return score
}

// Analyze runs the duplicate, underpowered and vault-prep passes in that
// order. items is not modified.
func Analyze(items []*inventory.Item) Report {
	var r Report
	flagged := make(map[*inventory.Item]bool)

	// Duplicates: every copy grouped by hash, in first-seen order.
	groups := make(map[uint32][]*inventory.Item)
	var order []uint32
	for _, it := range items {
		if _, ok := groups[it.Hash]; !ok {
			order = append(order, it.Hash)
		}
		groups[it.Hash] = append(groups[it.Hash], it)
	}
	for _, h := range order {
		g := groups[h]
		if len(g) < 2 {
			continue
		}
		ranked := slices.Clone(g)
		slices.SortStableFunc(ranked, func(a, b *inventory.Item) int {
			if c := cmp.Compare(KeeperScore(b), KeeperScore(a)); c != 0 {
				return c
			}
			return cmp.Compare(inventory.ItemKey(a), inventory.ItemKey(b))
		})
		keeper := ranked[0]
		for _, it := range ranked[1:] {
			gap := keeper.PowerValue() - it.PowerValue()
			r.Duplicates = append(r.Duplicates, Suggestion{
				Item:   it,
				Kind:   KindDuplicate,
				Keeper: keeper,
				Reason: fmt.Sprintf("duplicate of %s in %s (keeper is %+d power)", inventory.ItemKey(keeper), keeper.Location, gap),
			})
			flagged[it] = true
		}
	}

	// Underpowered: against the best power seen in the same slot.
	best := make(map[string]int)
	for _, it := range items {
		if it.Power == nil {
			continue
		}
		if p, ok := best[it.Slot]; !ok || *it.Power > p {
			best[it.Slot] = *it.Power
		}
	}
	for _, it := range items {
		if flagged[it] || it.Power == nil || it.IsLocked || it.IsEquipped {
			continue
		}
		if !it.IsWeapon() && !it.IsArmor() {
			continue
		}
		if gap := best[it.Slot] - *it.Power; gap >= UnderpoweredGap {
			r.Underpowered = append(r.Underpowered, Suggestion{
				Item:   it,
				Kind:   KindUnderpowered,
				Reason: fmt.Sprintf("%d below the best %s (%d)", gap, it.Slot, best[it.Slot]),
			})
			flagged[it] = true
		}
	}

	// Vault prep: loose items still on a character.
	for _, it := range items {
		if flagged[it] || it.InVault() || it.IsEquipped || it.IsLocked || it.NonTransferrable {
			continue
		}
		r.VaultPrep = append(r.VaultPrep, Suggestion{
			Item:   it,
			Kind:   KindVaultPrep,
			Reason: fmt.Sprintf("move from %s to the vault", it.Location),
		})
		flagged[it] = true
	}

	sortSuggestions(r.Duplicates)
	sortSuggestions(r.Underpowered)
	sortSuggestions(r.VaultPrep)
	return r
}

func sortSuggestions(s []Suggestion) {
	slices.SortStableFunc(s, func(a, b Suggestion) int {
		if c := cmp.Compare(a.Item.Name, b.Item.Name); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Item.PowerValue(), a.Item.PowerValue()); c != 0 {
			return c
		}
		return cmp.Compare(inventory.ItemKey(a.Item), inventory.ItemKey(b.Item))
	})
}
