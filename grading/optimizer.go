package grading

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kasuganosora/vaultctl/inventory"
)

// Score weights of the loadout optimizer.
const (
	weightBase     = 0.60
	weightPower    = 0.25
	weightLocation = 0.10
	weightTransfer = 0.05

	powerCeiling  = 2000
	lockedPenalty = 0.02

	// ImproveEpsilon is the minimum score gain reported as an upgrade.
	ImproveEpsilon = 0.01
)

var tierBaseline = map[string]float64{
	"Exotic":    1.0,
	"Legendary": 0.8,
	"Rare":      0.6,
	"Uncommon":  0.4,
	"Common":    0.2,
}

type OptimizeOptions struct {
	Wishlist      *Wishlist
	Popularity    *PopularityDataset
	UsePopularity bool
	// PopularityWeight defaults to DefaultPopularityWeight when zero.
	PopularityWeight float64
}

// Candidate is a scored item for one slot.
type Candidate struct {
	Item          *inventory.Item
	Grade         Grade // weapons only
	Deterministic float64
	Popularity    *float64
	Score         float64
}

type SlotAnalysis struct {
	Slot       string
	Candidates []*Candidate // best first
	Suggestion *Candidate
	Current    *Candidate // currently equipped, nil when the slot is empty
	Delta      float64
	Improvable bool
}

type LoadoutAnalysis struct {
	CharacterID string
	Slots       []SlotAnalysis
	Improvable  int
}

// AnalyzeLoadout suggests the best item for every equipment slot of a
// character and compares it with what is equipped now.
func AnalyzeLoadout(idx *inventory.Index, characterID string, opts OptimizeOptions) (*LoadoutAnalysis, error) {
	char, ok := idx.Character(characterID)
	if !ok {
		return nil, fmt.Errorf("grading: unknown character %q", characterID)
	}
	weight := opts.PopularityWeight
	if weight == 0 {
		weight = DefaultPopularityWeight
	}

	out := &LoadoutAnalysis{CharacterID: characterID}
	for _, slot := range inventory.EquipmentSlots {
		sa := SlotAnalysis{Slot: slot}
		for _, it := range idx.All {
			if it.Slot != slot || !it.Equippable || !classEligible(it, char.ClassType) {
				continue
			}
			// Bound to another character; it can never reach this one.
			if it.NonTransferrable && it.Location != characterID {
				continue
			}
			c := scoreCandidate(it, characterID, opts)
			if opts.UsePopularity {
				c.Popularity = GetScore(opts.Popularity, it.Hash)
				c.Score = Blend(c.Deterministic, c.Popularity, weight)
			}
			sa.Candidates = append(sa.Candidates, c)
			if it.IsEquipped && it.Location == characterID {
				sa.Current = c
			}
		}
		slices.SortStableFunc(sa.Candidates, compareCandidates)
		if len(sa.Candidates) > 0 {
			sa.Suggestion = sa.Candidates[0]
			if sa.Current != nil {
				sa.Delta = sa.Suggestion.Score - sa.Current.Score
			}
			sa.Improvable = sa.Delta > ImproveEpsilon
		}
		if sa.Improvable {
			out.Improvable++
		}
		out.Slots = append(out.Slots, sa)
	}
	return out, nil
}

func classEligible(it *inventory.Item, classType int) bool {
	return it.ClassRestriction == -1 || it.ClassRestriction == classType
}

func scoreCandidate(it *inventory.Item, characterID string, opts OptimizeOptions) *Candidate {
	c := &Candidate{Item: it}

	var base float64
	if it.IsWeapon() {
		c.Grade = GradeUnknown
		if it.PerksKnown {
			c.Grade = GradeItem(it.Hash, it.Perks, opts.Wishlist)
		}
		base = GradeScore(c.Grade)
	} else if b, ok := tierBaseline[it.Tier]; ok {
		base = b
	} else {
		base = 0.3
	}

	power := float64(min(max(it.PowerValue(), 0), powerCeiling)) / powerCeiling

	var location, ease float64
	switch {
	case it.Location == characterID:
		location, ease = 1.0, 1.0
	case it.InVault():
		location, ease = 0.75, 1.0
	default:
		location, ease = 0.5, 1.0
		if it.IsEquipped {
			ease = 0.5 // must be unequipped on its character first
		}
	}

	c.Deterministic = base*weightBase + power*weightPower + location*weightLocation + ease*weightTransfer
	if it.IsLocked {
		c.Deterministic -= lockedPenalty
	}
	c.Score = c.Deterministic
	return c
}

func compareCandidates(a, b *Candidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Item.PowerValue(), a.Item.PowerValue()); c != 0 {
		return c
	}
	return cmp.Compare(inventory.ItemKey(a.Item), inventory.ItemKey(b.Item))
}
