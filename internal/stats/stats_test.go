package stats

import (
	"errors"
	"testing"
)

func TestFromMapRejectsUnknownStat(t *testing.T) {
	if _, err := FromMap(map[string]float64{"spell_power": 10, "luck": 3}); err == nil {
		t.Fatal("expected error for unknown stat")
	}
	s, err := FromMap(map[string]float64{"Spell_Power": 10, "haste_rating": 20})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if s[SpellPower] != 10 || s[HasteRating] != 20 {
		t.Errorf("unexpected vector %v", s)
	}
}

func TestHasteMultiplier(t *testing.T) {
	conv := Conversions{HasteRatingPerPercent: 10}
	var s Stats
	s[HasteRating] = 250
	if got := conv.HasteMultiplier(s); got != 1.25 {
		t.Errorf("HasteMultiplier = %v, want 1.25", got)
	}
	if got := (Conversions{}).HasteMultiplier(s); got != 1 {
		t.Errorf("zero conversions should give 1, got %v", got)
	}
}

func TestPoolNeverNegative(t *testing.T) {
	p := NewPool(map[Resource]ResourceConfig{Mana: {Max: 100}})
	if err := p.Spend(Mana, 60); err != nil {
		t.Fatalf("Spend: %v", err)
	}
	err := p.Spend(Mana, 50)
	if !errors.Is(err, ErrInsufficientResource) {
		t.Fatalf("expected ErrInsufficientResource, got %v", err)
	}
	if p.Current(Mana) != 40 {
		t.Errorf("failed spend changed pool: %v", p.Current(Mana))
	}
	if got := p.SpendUpTo(Mana, 70); got != 40 {
		t.Errorf("SpendUpTo = %v, want 40", got)
	}
	if p.Current(Mana) != 0 {
		t.Errorf("pool = %v, want 0", p.Current(Mana))
	}
	if got := p.Gain(Mana, 500); got != 100 {
		t.Errorf("Gain capped at %v, want 100", got)
	}
}

func TestPoolStart(t *testing.T) {
	zero := 0.0
	p := NewPool(map[Resource]ResourceConfig{Rage: {Max: 100, Start: &zero}})
	if p.Current(Rage) != 0 || p.Percent(Rage) != 0 {
		t.Errorf("rage should start empty, got %v", p.Current(Rage))
	}
	if p.Percent(Energy) != 0 {
		t.Error("unconfigured pool percent should be zero")
	}
}
