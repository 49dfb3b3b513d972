// Package grading ranks items: wishlist roll grades, popularity blending and
// the per-slot loadout optimizer.
package grading

// Grade is the quality of a roll against a wishlist.
type Grade string

const (
	GradeGod     Grade = "god"
	GradeGood    Grade = "good"
	GradeTrash   Grade = "trash"
	GradeUnknown Grade = "unknown"
)

// GradeItem grades a roll. An item without wishlist entries is unknown. Any
// entry whose perks are all present, or that lists no perks, makes it god;
// otherwise any overlap with an entry makes it good, and no overlap trash.
func GradeItem(hash uint32, perks []uint32, wl *Wishlist) Grade {
	if wl == nil {
		return GradeUnknown
	}
	entries := wl.ByItemHash[hash]
	if len(entries) == 0 {
		return GradeUnknown
	}

	have := make(map[uint32]struct{}, len(perks))
	for _, p := range perks {
		have[p] = struct{}{}
	}

	for _, e := range entries {
		full := true
		for _, p := range e.Perks {
			if _, ok := have[p]; !ok {
				full = false
				break
			}
		}
		if full {
			return GradeGod
		}
	}
	for _, e := range entries {
		for _, p := range e.Perks {
			if _, ok := have[p]; ok {
				return GradeGood
			}
		}
	}
	return GradeTrash
}

// GradeScore maps a grade onto [0,1] for scoring.
func GradeScore(g Grade) float64 {
	switch g {
	case GradeGod:
		return 1.0
	case GradeGood:
		return 0.75
	case GradeTrash:
		return 0.1
	default:
		return 0.5
	}
}
