package manifest

import (
	"cmp"
	"slices"
	"strings"
)

// PerkGroup is a set of interchangeable perks a roll must contain one of,
// e.g. a perk and its enhanced variant.
type PerkGroup struct {
	Label  string
	Hashes []uint32
}

// RollMatch is a weapon whose sockets can hold every requested group at once.
// Columns[i] is the socket index chosen for group i.
type RollMatch struct {
	WeaponHash uint32
	Name       string
	Columns    []int
}

// FindRolls returns the weapons able to roll all groups together, each group
// from a different socket column. An empty weaponHashes searches every weapon.
// Results are sorted by name then hash.
func (s *Store) FindRolls(groups []PerkGroup, weaponHashes []uint32) []RollMatch {
	if len(groups) == 0 {
		return nil
	}
	var defs []*ItemDefinition
	if len(weaponHashes) == 0 {
		for _, d := range s.Items {
			if d.ItemType == ItemTypeWeapon {
				defs = append(defs, d)
			}
		}
	} else {
		for _, h := range weaponHashes {
			if d, ok := s.Items[h]; ok && d.ItemType == ItemTypeWeapon {
				defs = append(defs, d)
			}
		}
	}

	var out []RollMatch
	for _, d := range defs {
		cols := s.socketColumns(d)
		if assign, ok := AssignGroups(groups, cols); ok {
			out = append(out, RollMatch{WeaponHash: d.Hash, Name: d.DisplayProperties.Name, Columns: assign})
		}
	}
	slices.SortFunc(out, func(a, b RollMatch) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.WeaponHash, b.WeaponHash)
	})
	return out
}

// socketColumns expands every socket of d into the set of plugs it can hold.
func (s *Store) socketColumns(d *ItemDefinition) []map[uint32]struct{} {
	if d.Sockets == nil {
		return nil
	}
	cols := make([]map[uint32]struct{}, len(d.Sockets.SocketEntries))
	for i, e := range d.Sockets.SocketEntries {
		col := make(map[uint32]struct{})
		if e.SingleInitialItemHash != 0 {
			col[e.SingleInitialItemHash] = struct{}{}
		}
		for _, p := range e.ReusablePlugItems {
			col[p.PlugItemHash] = struct{}{}
		}
		for _, ps := range []uint32{e.ReusablePlugSetHash, e.RandomizedPlugSetHash} {
			if ps == 0 {
				continue
			}
			plugs, _ := s.PlugSet(ps)
			for _, h := range plugs {
				col[h] = struct{}{}
			}
		}
		cols[i] = col
	}
	return cols
}

// AssignGroups finds an assignment of groups to distinct columns such that each
// column holds at least one hash of its group. It backtracks, always expanding
// the unassigned group with the fewest free candidate columns.
func AssignGroups(groups []PerkGroup, columns []map[uint32]struct{}) ([]int, bool) {
	candidates := make([][]int, len(groups))
	for g, grp := range groups {
		for c, col := range columns {
			for _, h := range grp.Hashes {
				if _, ok := col[h]; ok {
					candidates[g] = append(candidates[g], c)
					break
				}
			}
		}
		if len(candidates[g]) == 0 {
			return nil, false
		}
	}

	assign := make([]int, len(groups))
	for i := range assign {
		assign[i] = -1
	}
	used := make([]bool, len(columns))

	var solve func(remaining int) bool
	solve = func(remaining int) bool {
		if remaining == 0 {
			return true
		}
		best, bestFree := -1, len(columns)+1
		for g := range groups {
			if assign[g] >= 0 {
				continue
			}
			free := 0
			for _, c := range candidates[g] {
				if !used[c] {
					free++
				}
			}
			if free < bestFree {
				best, bestFree = g, free
			}
		}
		if bestFree == 0 {
			return false
		}
		for _, c := range candidates[best] {
			if used[c] {
				continue
			}
			used[c] = true
			assign[best] = c
			if solve(remaining - 1) {
				return true
			}
			used[c] = false
			assign[best] = -1
		}
		return false
	}

	if !solve(len(groups)) {
		return nil, false
	}
	return assign, true
}
