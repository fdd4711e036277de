package effects

import (
	"errors"
	"testing"
	"time"

	"wowsim-core/internal/event"
)

func run(t *testing.T, q *event.Queue, until time.Duration) {
	t.Helper()
	for {
		at, ok := q.Peek()
		if !ok || at > until {
			return
		}
		if _, err := q.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
}

func at(q *event.Queue, when time.Duration, fn func()) {
	q.Schedule(when, event.Rotation, func(time.Duration) { fn() })
}

func TestRefreshResetsDurationAndBoundsStacks(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("player", q, nil)
	def := &AuraDef{ID: "heat", DurationSeconds: 10, MaxStacks: 3, Policy: PolicyRefresh}

	for i := 0; i < 5; i++ {
		at(q, time.Duration(i)*time.Second, func() { tr.Apply(def, "test") })
	}
	run(t, q, 4*time.Second)
	if got := tr.Stacks("heat"); got != 3 {
		t.Fatalf("stacks = %d, want 3", got)
	}
	if got := tr.Remaining("heat"); got != 10*time.Second {
		t.Errorf("remaining = %v, want 10s", got)
	}
	run(t, q, 14*time.Second)
	if tr.Active("heat") {
		t.Error("aura should have expired at 14s")
	}
	if got := tr.Uptime()["heat"]; got != 14*time.Second {
		t.Errorf("uptime = %v, want 14s", got)
	}
}

func TestExtendCapsAtMaxDuration(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("boss", q, nil)
	def := &AuraDef{ID: "curse", DurationSeconds: 10, MaxDurationSeconds: 15, Policy: PolicyExtend}
	at(q, 0, func() { tr.Apply(def, "a") })
	at(q, 2*time.Second, func() {
		if _, res := tr.Apply(def, "b"); res != Extended {
			t.Errorf("result = %v, want extended", res)
		}
	})
	run(t, q, 2*time.Second)
	if got := tr.Get("curse").ExpiresAt(); got != 17*time.Second {
		t.Errorf("expires at %v, want 17s", got)
	}
}

func TestIgnorePolicyKeepsOriginal(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("boss", q, nil)
	def := &AuraDef{ID: "mark", DurationSeconds: 5, Policy: PolicyIgnore}
	at(q, 0, func() { tr.Apply(def, "first") })
	at(q, 3*time.Second, func() { tr.Apply(def, "second") })
	run(t, q, 3*time.Second)
	a := tr.Get("mark")
	if a.Source != "first" || a.ExpiresAt() != 5*time.Second {
		t.Errorf("ignore policy modified aura: source=%s expires=%v", a.Source, a.ExpiresAt())
	}
}

func TestRemoveStacksUnderflow(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("player", q, nil)
	def := &AuraDef{ID: "charges", DurationSeconds: 15, MaxStacks: 3, InitialStacks: 3}
	tr.Apply(def, "x")
	if err := tr.RemoveStacks("charges", 2); err != nil {
		t.Fatalf("RemoveStacks: %v", err)
	}
	if err := tr.RemoveStacks("charges", 2); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if tr.Stacks("charges") != 1 {
		t.Errorf("stacks = %d after failed removal", tr.Stacks("charges"))
	}
	if err := tr.RemoveStacks("charges", 1); err != nil {
		t.Fatalf("RemoveStacks: %v", err)
	}
	if tr.Active("charges") {
		t.Error("aura with zero stacks should be removed")
	}
}

func TestPeriodicTicksIncludeExpiryInstant(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("boss", q, nil)
	var ticks []time.Duration
	tr.OnTick = func(a *Aura, now time.Duration) { ticks = append(ticks, now) }
	def := &AuraDef{ID: "dot", DurationSeconds: 15, Periodic: &Periodic{IntervalSeconds: 3}}
	tr.Apply(def, "x")
	if def.TotalTicks() != 5 {
		t.Fatalf("TotalTicks = %d", def.TotalTicks())
	}
	run(t, q, time.Minute)
	if len(ticks) != 5 || ticks[4] != 15*time.Second {
		t.Fatalf("ticks = %v", ticks)
	}
}

func TestFollowOnIsEnqueued(t *testing.T) {
	q := event.NewQueue()
	defs := map[string]*AuraDef{
		"fuse":      {ID: "fuse", DurationSeconds: 2, OnExpire: "explosion"},
		"explosion": {ID: "explosion", DurationSeconds: 1},
	}
	tr := NewTracker("boss", q, func(id string) (*AuraDef, bool) {
		d, ok := defs[id]
		return d, ok
	})
	var sawExplosionInline bool
	tr.OnChange = func(a *Aura, now time.Duration) {
		if a.ID() == "fuse" && !a.Active() && tr.Active("explosion") {
			sawExplosionInline = true
		}
	}
	tr.Apply(defs["fuse"], "x")
	run(t, q, 2*time.Second)
	if sawExplosionInline {
		t.Error("follow-on applied inline during removal")
	}
	if !tr.Active("explosion") {
		t.Error("follow-on aura missing after expiry")
	}
	if tr.Get("explosion").Source != "fuse" {
		t.Errorf("follow-on source = %s", tr.Get("explosion").Source)
	}
}

func TestModifierQueries(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("player", q, nil)
	tr.Apply(&AuraDef{ID: "fury", Modifiers: []Modifier{{Kind: ModDamageDone, Value: 1.2}}}, "x")
	tr.Apply(&AuraDef{ID: "focus", MaxStacks: 5, Modifiers: []Modifier{{Kind: ModCritChance, Value: 0.02, PerStack: true, Tags: []string{"fire"}}}}, "x")
	tr.Apply(&AuraDef{ID: "might", Modifiers: []Modifier{{Kind: ModStat, Stat: "attack_power", Value: 200}}}, "x")
	tr.Apply(&AuraDef{ID: "focus", MaxStacks: 5, Modifiers: []Modifier{{Kind: ModCritChance, Value: 0.02, PerStack: true, Tags: []string{"fire"}}}}, "x")

	if got := tr.Multiplier(ModDamageDone, []string{"shadow"}); got != 1.2 {
		t.Errorf("damage multiplier = %v", got)
	}
	if got := tr.Additive(ModCritChance, []string{"fire"}); got != 0.04 {
		t.Errorf("fire crit = %v, want 0.04", got)
	}
	if got := tr.Additive(ModCritChance, []string{"shadow"}); got != 0 {
		t.Errorf("shadow crit = %v, want 0", got)
	}
	if got := tr.StatBonus().Map()["attack_power"]; got != 200 {
		t.Errorf("attack power bonus = %v", got)
	}
	if tr.Silenced([]string{"fire"}) {
		t.Error("unexpected silence")
	}
}

func TestConsumeRemovesOneStack(t *testing.T) {
	q := event.NewQueue()
	tr := NewTracker("player", q, nil)
	def := &AuraDef{ID: "backdraft", DurationSeconds: 15, MaxStacks: 3, InitialStacks: 3,
		Modifiers: []Modifier{{Kind: ModCastSpeed, Value: 0.7, Tags: []string{"destruction"}, ConsumeStack: true}}}
	tr.Apply(def, "x")
	if err := tr.Consume(ModCastSpeed, []string{"affliction"}); err != nil {
		t.Fatal(err)
	}
	if tr.Stacks("backdraft") != 3 {
		t.Fatal("non-matching cast consumed a charge")
	}
	for i := 0; i < 3; i++ {
		if err := tr.Consume(ModCastSpeed, []string{"destruction"}); err != nil {
			t.Fatal(err)
		}
	}
	if tr.Active("backdraft") {
		t.Error("charges exhausted but aura still active")
	}
}
