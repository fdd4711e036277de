package specs

import (
	"testing"
	"time"

	"wowsim-core/internal/effects"
	"wowsim-core/internal/encounter"
	"wowsim-core/internal/event"
)

func TestConflagrateUsesFullImmolateDamage(t *testing.T) {
	q := event.NewQueue()
	auras := effects.NewTracker("Boss", q, nil)
	boss := encounter.NewTarget(0, &encounter.TargetConfig{Name: "Boss", Level: 63}, auras)
	immolate := &effects.AuraDef{ID: "immolate", DurationSeconds: 15, Periodic: &effects.Periodic{IntervalSeconds: 3}}

	if got := conflagrate(HookState{Target: boss}); got.BaseBonus != 0 {
		t.Fatalf("bonus without immolate = %v", got.BaseBonus)
	}
	a, _ := auras.Apply(immolate, "player")
	a.Snapshot.TickDamage = 100
	for {
		at, ok := q.Peek()
		if !ok || at > 9*time.Second {
			break
		}
		if _, err := q.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if a.Ticks() != 3 {
		t.Fatalf("ticks = %d, want 3", a.Ticks())
	}
	// Five ticks of 100 regardless of the three already delivered.
	if got := conflagrate(HookState{Now: q.Now(), Target: boss}); got.BaseBonus != 300 {
		t.Errorf("bonus = %v, want 300", got.BaseBonus)
	}
}
