// Package query compiles item search expressions into predicates.
//
//	query   := group ("or" group)*
//	group   := term+
//	term    := ["-" | "not:"] [qualifier ":"] value
//
// Terms in a group are AND'ed, groups are OR'ed, and negation applies to a
// single term. Values may be double-quoted to include spaces.
package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/manifest"
)

// Predicate reports whether an item, with its persisted tags, matches.
type Predicate func(it *inventory.Item, tags []string) bool

// SyntaxError describes a malformed query.
type SyntaxError struct {
	Query string
	Pos   int // byte offset of the offending token
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query: %s at %d (%q)", e.Msg, e.Pos, e.Token)
}

func matchAll(*inventory.Item, []string) bool { return true }
func matchNone(*inventory.Item, []string) bool { return false }

// Parse compiles q. An empty or blank query matches everything.
func Parse(q string) (Predicate, error) {
	toks, err := tokenize(q)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return matchAll, nil
	}

	var groups [][]Predicate
	var cur []Predicate
	for i, tok := range toks {
		if strings.EqualFold(tok.text, "or") && !tok.quoted {
			if len(cur) == 0 {
				return nil, &SyntaxError{Query: q, Pos: tok.pos, Token: tok.text, Msg: "'or' needs a term on each side"}
			}
			groups = append(groups, cur)
			cur = nil
			if i == len(toks)-1 {
				return nil, &SyntaxError{Query: q, Pos: tok.pos, Token: tok.text, Msg: "'or' needs a term on each side"}
			}
			continue
		}
		p, err := parseTerm(q, tok)
		if err != nil {
			return nil, err
		}
		cur = append(cur, p)
	}
	groups = append(groups, cur)

	return func(it *inventory.Item, tags []string) bool {
		for _, g := range groups {
			ok := true
			for _, p := range g {
				if !p(it, tags) {
					ok = false
					break
				}
			}
			if ok {
				return true
			}
		}
		return false
	}, nil
}

// MustParse is Parse that panics on error.
func MustParse(q string) Predicate {
	p, err := Parse(q)
	if err != nil {
		panic(err)
	}
	return p
}

// Filter returns the items matching pred. tagsFor may be nil.
func Filter(items []*inventory.Item, pred Predicate, tagsFor func(*inventory.Item) []string) []*inventory.Item {
	var out []*inventory.Item
	for _, it := range items {
		var tags []string
		if tagsFor != nil {
			tags = tagsFor(it)
		}
		if pred(it, tags) {
			out = append(out, it)
		}
	}
	return out
}

type token struct {
	text   string
	pos    int
	quoted bool
}

func tokenize(q string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(q) {
		if q[i] == ' ' || q[i] == '\t' || q[i] == '\n' {
			i++
			continue
		}
		start := i
		var b strings.Builder
		quoted := false
		for i < len(q) && q[i] != ' ' && q[i] != '\t' && q[i] != '\n' {
			if q[i] == '"' {
				end := strings.IndexByte(q[i+1:], '"')
				if end < 0 {
					return nil, &SyntaxError{Query: q, Pos: i, Token: q[i:], Msg: "unterminated quote"}
				}
				b.WriteString(q[i+1 : i+1+end])
				i += end + 2
				quoted = true
				continue
			}
			b.WriteByte(q[i])
			i++
		}
		toks = append(toks, token{text: b.String(), pos: start, quoted: quoted})
	}
	return toks, nil
}

func parseTerm(q string, tok token) (Predicate, error) {
	text := tok.text
	negate := false
	switch {
	case strings.HasPrefix(text, "-"):
		negate, text = true, text[1:]
	case strings.HasPrefix(strings.ToLower(text), "not:"):
		negate, text = true, text[len("not:"):]
	}
	if text == "" && !tok.quoted {
		return nil, &SyntaxError{Query: q, Pos: tok.pos, Token: tok.text, Msg: "negation without a term"}
	}

	var p Predicate
	qualifier, value, hasQualifier := strings.Cut(text, ":")
	if !hasQualifier {
		p = nameContains(strings.ToLower(text))
	} else {
		value = strings.ToLower(value)
		if value == "" {
			return nil, &SyntaxError{Query: q, Pos: tok.pos, Token: tok.text, Msg: "missing value after qualifier"}
		}
		var err error
		p, err = qualified(strings.ToLower(qualifier), value)
		if err != nil {
			return nil, &SyntaxError{Query: q, Pos: tok.pos, Token: tok.text, Msg: err.Error()}
		}
	}

	if negate {
		inner := p
		return func(it *inventory.Item, tags []string) bool { return !inner(it, tags) }, nil
	}
	return p, nil
}

func nameContains(v string) Predicate {
	return func(it *inventory.Item, _ []string) bool {
		return strings.Contains(strings.ToLower(it.Name), v)
	}
}

func qualified(qualifier, value string) (Predicate, error) {
	switch qualifier {
	case "is":
		return isPredicate(value), nil
	case "tag":
		return func(_ *inventory.Item, tags []string) bool {
			return slices.Contains(tags, value)
		}, nil
	case "slot":
		return func(it *inventory.Item, _ []string) bool { return strings.EqualFold(it.Slot, value) }, nil
	case "tier":
		return func(it *inventory.Item, _ []string) bool { return strings.EqualFold(it.Tier, value) }, nil
	case "power":
		return powerPredicate(value)
	case "class":
		return classPredicate(value), nil
	default:
		// Unknown qualifiers match nothing.
		return matchNone, nil
	}
}

var itemTypes = map[string]int{
	"weapon":     manifest.ItemTypeWeapon,
	"armor":      manifest.ItemTypeArmor,
	"ghost":      manifest.ItemTypeGhost,
	"consumable": manifest.ItemTypeConsumable,
	"mod":        manifest.ItemTypeMod,
	"emblem":     manifest.ItemTypeEmblem,
	"ship":       manifest.ItemTypeShip,
	"vehicle":    manifest.ItemTypeVehicle,
	"subclass":   manifest.ItemTypeSubclass,
}

var tiers = []string{"exotic", "legendary", "rare", "uncommon", "common"}

var damageTypes = map[string]int{
	"kinetic": inventory.DamageKinetic,
	"arc":     inventory.DamageArc,
	"solar":   inventory.DamageSolar,
	"void":    inventory.DamageVoid,
	"stasis":  inventory.DamageStasis,
	"strand":  inventory.DamageStrand,
}

var classes = map[string]int{
	"titan":   manifest.ClassTitan,
	"hunter":  manifest.ClassHunter,
	"warlock": manifest.ClassWarlock,
}

// isPredicate checks item type, tier, state, damage type and class, in that
// order. Unknown values match nothing.
func isPredicate(v string) Predicate {
	if t, ok := itemTypes[v]; ok {
		return func(it *inventory.Item, _ []string) bool { return it.ItemType == t }
	}
	if slices.Contains(tiers, v) {
		return func(it *inventory.Item, _ []string) bool { return strings.EqualFold(it.Tier, v) }
	}
	switch v {
	case "equipped":
		return func(it *inventory.Item, _ []string) bool { return it.IsEquipped }
	case "locked":
		return func(it *inventory.Item, _ []string) bool { return it.IsLocked }
	case "vault", "invault":
		return func(it *inventory.Item, _ []string) bool { return it.InVault() }
	}
	if d, ok := damageTypes[v]; ok {
		return func(it *inventory.Item, _ []string) bool { return it.DamageType != nil && *it.DamageType == d }
	}
	if c, ok := classes[v]; ok {
		return func(it *inventory.Item, _ []string) bool { return it.ClassRestriction == c }
	}
	return matchNone
}

func classPredicate(v string) Predicate {
	if v == "any" {
		return func(it *inventory.Item, _ []string) bool { return it.ClassRestriction == -1 }
	}
	if c, ok := classes[v]; ok {
		return func(it *inventory.Item, _ []string) bool { return it.ClassRestriction == c }
	}
	return matchNone
}

func powerPredicate(v string) (Predicate, error) {
	op := "="
	for _, prefix := range []string{">=", "<=", ">", "<", "="} {
		if strings.HasPrefix(v, prefix) {
			op, v = prefix, v[len(prefix):]
			break
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("power needs a number, got %q", v)
	}
	cmp := func(p int) bool {
		switch op {
		case ">":
			return p > n
		case ">=":
			return p >= n
		case "<":
			return p < n
		case "<=":
			return p <= n
		default:
			return p == n
		}
	}
	return func(it *inventory.Item, _ []string) bool {
		return it.Power != nil && cmp(*it.Power)
	}, nil
}
