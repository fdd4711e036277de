package registry

import (
	"strings"
	"testing"

	"wowsim-core/internal/effects"
	"wowsim-core/internal/runes"
	"wowsim-core/internal/spells"
)

func TestNewResolvesReferences(t *testing.T) {
	abilities := []spells.AbilityDef{
		{ID: "immolate", Applies: []spells.AuraRef{{Aura: "immolate", On: "target"}}},
		{ID: "chaos_bolt", Rune: "chaos_bolt"},
	}
	auras := []effects.AuraDef{{ID: "immolate", DurationSeconds: 15}}
	reg, err := New(abilities, auras, []runes.Def{{ID: "chaos_bolt", Rarity: runes.RarityEpic}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reg.HasAbility("immolate") || !reg.HasAura("immolate") || !reg.HasResource("mana") {
		t.Error("lookups failed")
	}
	if reg.HasAbility("shadow_bolt") || reg.HasResource("focus") {
		t.Error("unexpected names resolved")
	}
	if got := reg.Abilities(); len(got) != 2 || got[0].ID != "immolate" {
		t.Errorf("order = %v", got)
	}
}

func TestNewRejectsDanglingReferences(t *testing.T) {
	abilities := []spells.AbilityDef{
		{ID: "conflagrate", Consumes: []spells.AuraRef{{Aura: "immolate", On: "target"}}},
		{ID: "conflagrate"},
	}
	auras := []effects.AuraDef{{ID: "fuse", OnExpire: "boom"}}
	_, err := New(abilities, auras, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"unknown aura 'immolate'", "more than once", "unknown on_expire aura 'boom'"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
