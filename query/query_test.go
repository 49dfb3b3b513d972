package query

import (
	"errors"
	"testing"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func fixtures() []*inventory.Item {
	return []*inventory.Item{
		{Hash: 1, InstanceID: "a", Name: "Ace of Spades", ItemType: manifest.ItemTypeWeapon, Tier: "Exotic",
			Slot: "Kinetic", ClassRestriction: -1, Power: intp(1990), DamageType: intp(inventory.DamageKinetic),
			IsEquipped: true, Location: "c1"},
		{Hash: 2, InstanceID: "b", Name: "Fatebringer", ItemType: manifest.ItemTypeWeapon, Tier: "Legendary",
			Slot: "Kinetic", ClassRestriction: -1, Power: intp(1810), DamageType: intp(inventory.DamageKinetic),
			IsLocked: true, Location: inventory.VaultLocation},
		{Hash: 3, InstanceID: "c", Name: "Ophidian Aspect", ItemType: manifest.ItemTypeArmor, Tier: "Exotic",
			Slot: "Gauntlets", ClassRestriction: manifest.ClassWarlock, Power: intp(2000), Location: "c1"},
		{Hash: 4, Name: "Enhancement Core", ItemType: manifest.ItemTypeConsumable, Tier: "Rare",
			Slot: "Consumables", ClassRestriction: -1, Location: inventory.VaultLocation, Quantity: 99},
		{Hash: 5, InstanceID: "e", Name: "Sunshot", ItemType: manifest.ItemTypeWeapon, Tier: "Exotic",
			Slot: "Energy", ClassRestriction: -1, Power: intp(1600), DamageType: intp(inventory.DamageSolar),
			Location: "c2"},
		{Hash: 6, InstanceID: "f", Name: "Helm of Saint-14", ItemType: manifest.ItemTypeArmor, Tier: "Exotic",
			Slot: "Helmet", ClassRestriction: manifest.ClassTitan, Location: "c2"},
	}
}

func names(t *testing.T, q string, tags map[string][]string) []string {
	t.Helper()
	p, err := Parse(q)
	require.NoError(t, err, q)
	var out []string
	for _, it := range fixtures() {
		if p(it, tags[it.Name]) {
			out = append(out, it.Name)
		}
	}
	return out
}

func TestParse_EmptyMatchesEverything(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		p, err := Parse(q)
		require.NoError(t, err)
		for _, it := range fixtures() {
			assert.True(t, p(it, nil))
		}
		assert.True(t, p(&inventory.Item{}, []string{"junk"}))
	}
}

func TestParse_BareTermMatchesName(t *testing.T) {
	assert.Equal(t, []string{"Fatebringer"}, names(t, "fate", nil))
	assert.Equal(t, []string{"Ace of Spades", "Ophidian Aspect"}, names(t, "SP", nil))
	assert.Equal(t, []string{"Ace of Spades"}, names(t, `"ace of"`, nil))
}

func TestParse_IsWeaponAndTier(t *testing.T) {
	got := names(t, "is:weapon tier:exotic", nil)
	assert.Equal(t, []string{"Ace of Spades", "Sunshot"}, got)
}

func TestParse_OrGroups(t *testing.T) {
	got := names(t, "is:legendary or is:rare", nil)
	assert.Equal(t, []string{"Fatebringer", "Enhancement Core"}, got)

	got = names(t, "is:exotic or is:legendary", nil)
	assert.Len(t, got, 5)
}

func TestParse_AndBindsTighterThanOr(t *testing.T) {
	got := names(t, "is:armor is:titan or is:solar", nil)
	assert.Equal(t, []string{"Sunshot", "Helm of Saint-14"}, got)
}

func TestParse_NegationIsComplement(t *testing.T) {
	pos := MustParse("is:locked")
	neg := MustParse("-is:locked")
	notp := MustParse("not:is:locked")
	for _, it := range fixtures() {
		assert.Equal(t, !pos(it, nil), neg(it, nil), it.Name)
		assert.Equal(t, !pos(it, nil), notp(it, nil), it.Name)
	}
}

func TestParse_NegationAppliesToOneTerm(t *testing.T) {
	got := names(t, "is:weapon -is:exotic", nil)
	assert.Equal(t, []string{"Fatebringer"}, got)
}

func TestParse_IsVocabularies(t *testing.T) {
	assert.Equal(t, []string{"Ace of Spades"}, names(t, "is:equipped", nil))
	assert.Equal(t, []string{"Fatebringer", "Enhancement Core"}, names(t, "is:vault", nil))
	assert.Equal(t, []string{"Sunshot"}, names(t, "is:solar", nil))
	assert.Equal(t, []string{"Ace of Spades", "Fatebringer"}, names(t, "is:kinetic", nil))
	assert.Equal(t, []string{"Ophidian Aspect"}, names(t, "is:warlock", nil))
	assert.Equal(t, []string{"Enhancement Core"}, names(t, "is:consumable", nil))
	assert.Empty(t, names(t, "is:sparkly", nil))
}

func TestParse_Tag(t *testing.T) {
	tags := map[string][]string{"Fatebringer": {"favorite", "pvp"}, "Sunshot": {"junk"}}
	assert.Equal(t, []string{"Fatebringer"}, names(t, "tag:favorite", tags))
	assert.Equal(t, []string{"Fatebringer"}, names(t, "tag:FAVORITE", tags))
	assert.Empty(t, names(t, "tag:fav", tags))
	assert.Equal(t, []string{"Sunshot"}, names(t, "is:weapon tag:junk", tags))
}

func TestParse_SlotAndClass(t *testing.T) {
	assert.Equal(t, []string{"Ace of Spades", "Fatebringer"}, names(t, "slot:kinetic", nil))
	assert.Equal(t, []string{"Ophidian Aspect"}, names(t, `slot:"gauntlets"`, nil))
	assert.Equal(t, []string{"Helm of Saint-14"}, names(t, "class:titan", nil))
	assert.Len(t, names(t, "class:any", nil), 4)
	assert.Empty(t, names(t, "class:gardener", nil))
}

func TestParse_Power(t *testing.T) {
	assert.Equal(t, []string{"Ace of Spades", "Ophidian Aspect"}, names(t, "power:>1900", nil))
	assert.Equal(t, []string{"Ophidian Aspect"}, names(t, "power:>=2000", nil))
	assert.Equal(t, []string{"Fatebringer", "Sunshot"}, names(t, "power:<1900", nil))
	assert.Equal(t, []string{"Fatebringer"}, names(t, "power:1810", nil))
	assert.Equal(t, []string{"Sunshot"}, names(t, "power:<=1600", nil))
	// Items without power never match, even negated comparisons on them stay false.
	assert.NotContains(t, names(t, "power:<99999", nil), "Enhancement Core")
}

func TestParse_UnknownQualifierFailsClosed(t *testing.T) {
	assert.Empty(t, names(t, "perk:outlaw", nil))
	assert.Empty(t, names(t, "fate perk:outlaw", nil))
	assert.Equal(t, []string{"Fatebringer"}, names(t, "perk:outlaw or fate", nil))
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, q := range []string{
		"or is:weapon",
		"is:weapon or",
		"is:weapon or or is:armor",
		"-",
		"not:",
		"is:",
		"power:>abc",
		`"unterminated`,
	} {
		_, err := Parse(q)
		var se *SyntaxError
		require.Error(t, err, q)
		assert.True(t, errors.As(err, &se), q)
	}
}

func TestSyntaxError_Message(t *testing.T) {
	_, err := Parse("is:weapon power:x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "power:x")
	assert.Contains(t, err.Error(), "at 10")
}

func TestFilter(t *testing.T) {
	items := fixtures()
	tags := func(it *inventory.Item) []string {
		if it.Name == "Sunshot" {
			return []string{"keep"}
		}
		return nil
	}
	got := Filter(items, MustParse("tag:keep"), tags)
	require.Len(t, got, 1)
	assert.Equal(t, "Sunshot", got[0].Name)
	assert.Len(t, Filter(items, MustParse(""), nil), len(items))
}
