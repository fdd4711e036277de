package effects

import (
	"errors"
	"fmt"
	"time"

	"wowsim-core/internal/event"
	"wowsim-core/internal/stats"
)

// ErrStackUnderflow is returned when more stacks are removed than exist.
var ErrStackUnderflow = errors.New("stack underflow")

// ApplyResult reports how Apply treated an application.
type ApplyResult int

const (
	Applied ApplyResult = iota
	Refreshed
	Extended
	Ignored
)

func (r ApplyResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Refreshed:
		return "refreshed"
	case Extended:
		return "extended"
	case Ignored:
		return "ignored"
	}
	return "unknown"
}

// Scheduler is the subset of the event queue the tracker needs.
type Scheduler interface {
	Now() time.Duration
	Schedule(at time.Duration, category event.Category, h event.Handler) *event.Event
}

// DefLookup resolves aura ids for follow-on applications.
type DefLookup func(id string) (*AuraDef, bool)

// Tracker holds every aura instance on one holder (the character or a target).
type Tracker struct {
	holder string
	sched  Scheduler
	lookup DefLookup

	auras  map[string]*Aura
	order  []string
	uptime map[string]time.Duration

	// OnChange fires on gain, stack change and removal.
	OnChange func(a *Aura, now time.Duration)
	// OnTick fires for each periodic tick.
	OnTick func(a *Aura, now time.Duration)
}

// NewTracker returns an empty tracker bound to a scheduler.
func NewTracker(holder string, sched Scheduler, lookup DefLookup) *Tracker {
	return &Tracker{
		holder: holder,
		sched:  sched,
		lookup: lookup,
		auras:  make(map[string]*Aura),
		uptime: make(map[string]time.Duration),
	}
}

// Holder returns the name this tracker was created for.
func (t *Tracker) Holder() string { return t.holder }

// Apply adds def to the holder, honoring its reapply policy.
func (t *Tracker) Apply(def *AuraDef, source string) (*Aura, ApplyResult) {
	now := t.sched.Now()
	a, ok := t.auras[def.ID]
	if !ok {
		a = &Aura{Def: def}
		t.auras[def.ID] = a
		t.order = append(t.order, def.ID)
	}
	if !a.ActiveAt(now) {
		if a.active {
			// Expiry is due at this instant but has not been dispatched yet.
			t.remove(a, now, true)
		}
		a.Source = source
		a.Snapshot = Snapshot{}
		a.active = true
		a.stacks = def.initialStacks()
		a.appliedAt = now
		a.ticks = 0
		a.expiresAt = 0
		if d := def.Duration(); d > 0 {
			a.expiresAt = now + d
			a.expiry = t.sched.Schedule(a.expiresAt, event.AuraExpire, t.expireHandler(a))
		}
		if def.Periodic != nil {
			a.tick = t.sched.Schedule(now+def.Periodic.Interval(), event.Periodic, t.tickHandler(a))
		}
		t.notify(a, now)
		return a, Applied
	}

	switch def.Policy {
	case PolicyIgnore:
		return a, Ignored
	case PolicyExtend:
		a.Source = source
		a.stacks = boundedStacks(a.stacks+1, def)
		if a.expiresAt > 0 {
			next := a.expiresAt + def.Duration()
			if max := def.maxDuration(); max > 0 && next > now+max {
				next = now + max
			}
			t.reschedule(a, next)
		}
		t.notify(a, now)
		return a, Extended
	default:
		a.Source = source
		a.stacks = boundedStacks(a.stacks+1, def)
		if a.expiresAt > 0 {
			t.reschedule(a, now+def.Duration())
		}
		t.notify(a, now)
		return a, Refreshed
	}
}

func boundedStacks(n int, def *AuraDef) int {
	if n < def.initialStacks() {
		n = def.initialStacks()
	}
	if max := def.maxStacks(); n > max {
		n = max
	}
	return n
}

func (t *Tracker) reschedule(a *Aura, expiresAt time.Duration) {
	a.expiry.Cancel()
	a.expiresAt = expiresAt
	a.expiry = t.sched.Schedule(expiresAt, event.AuraExpire, t.expireHandler(a))
	if a.Def.Periodic != nil && !a.tick.Pending() {
		next := t.sched.Now() + a.Def.Periodic.Interval()
		if next <= expiresAt {
			a.tick = t.sched.Schedule(next, event.Periodic, t.tickHandler(a))
		}
	}
}

func (t *Tracker) expireHandler(a *Aura) event.Handler {
	return func(now time.Duration) {
		a.expiry = nil
		t.remove(a, now, true)
	}
}

func (t *Tracker) tickHandler(a *Aura) event.Handler {
	return func(now time.Duration) {
		a.tick = nil
		if !a.active {
			return
		}
		a.ticks++
		if t.OnTick != nil {
			t.OnTick(a, now)
		}
		if !a.active {
			return
		}
		next := now + a.Def.Periodic.Interval()
		if a.expiresAt == 0 || next <= a.expiresAt {
			a.tick = t.sched.Schedule(next, event.Periodic, t.tickHandler(a))
		}
	}
}

// remove deactivates a. Follow-on effects are enqueued, never run inline.
func (t *Tracker) remove(a *Aura, now time.Duration, followOn bool) {
	if !a.active {
		return
	}
	a.active = false
	a.stacks = 0
	a.expiry.Cancel()
	a.expiry = nil
	a.tick.Cancel()
	a.tick = nil
	t.uptime[a.Def.ID] += now - a.appliedAt
	t.notify(a, now)
	if followOn && a.Def.OnExpire != "" && t.lookup != nil {
		if next, ok := t.lookup(a.Def.OnExpire); ok {
			source := a.Def.ID
			t.sched.Schedule(now, event.AuraExpire, func(time.Duration) {
				t.Apply(next, source)
			})
		}
	}
}

// Remove takes id off the holder. It reports whether an active aura was removed.
func (t *Tracker) Remove(id string) bool {
	now := t.sched.Now()
	a := t.Get(id)
	if a == nil {
		return false
	}
	t.remove(a, now, false)
	return true
}

// RemoveStacks removes n stacks from id, dropping the aura at zero.
func (t *Tracker) RemoveStacks(id string, n int) error {
	now := t.sched.Now()
	a := t.Get(id)
	have := a.Stacks()
	if n < 0 || n > have {
		return fmt.Errorf("%s: remove %d stacks of '%s' with %d: %w", t.holder, n, id, have, ErrStackUnderflow)
	}
	if n == 0 {
		return nil
	}
	if n == have {
		t.remove(a, now, false)
		return nil
	}
	a.stacks -= n
	t.notify(a, now)
	return nil
}

// Get returns the live instance of id, or nil.
func (t *Tracker) Get(id string) *Aura {
	a := t.auras[id]
	if !a.ActiveAt(t.sched.Now()) {
		return nil
	}
	return a
}

// Active reports whether id is up.
func (t *Tracker) Active(id string) bool { return t.Get(id) != nil }

// Stacks returns the stack count of id, zero when absent.
func (t *Tracker) Stacks(id string) int { return t.Get(id).Stacks() }

// Remaining returns the time left on id, zero when absent or permanent.
func (t *Tracker) Remaining(id string) time.Duration {
	return t.Get(id).Remaining(t.sched.Now())
}

// Each visits live auras in first-application order.
func (t *Tracker) Each(fn func(a *Aura)) {
	now := t.sched.Now()
	for _, id := range t.order {
		if a := t.auras[id]; a.ActiveAt(now) {
			fn(a)
		}
	}
}

// Multiplier returns the product of matching multiplicative modifiers.
func (t *Tracker) Multiplier(kind ModifierKind, tags []string) float64 {
	total := 1.0
	t.eachModifier(kind, tags, func(a *Aura, m Modifier) {
		total *= m.contribution(a.stacks)
	})
	return total
}

// Additive returns the sum of matching additive modifiers.
func (t *Tracker) Additive(kind ModifierKind, tags []string) float64 {
	total := 0.0
	t.eachModifier(kind, tags, func(a *Aura, m Modifier) {
		total += m.contribution(a.stacks)
	})
	return total
}

// Silenced reports whether any active aura silences the holder.
func (t *Tracker) Silenced(tags []string) bool {
	return t.Additive(ModSilence, tags) > 0
}

// StatBonus sums ModStat modifiers into a stat vector.
func (t *Tracker) StatBonus() stats.Stats {
	var out stats.Stats
	t.eachModifier(ModStat, nil, func(a *Aura, m Modifier) {
		if stat, ok := stats.ParseStat(m.Stat); ok {
			out[stat] += m.contribution(a.stacks)
		}
	})
	return out
}

// Consume removes one stack from every aura whose consumable modifier of
// kind matched tags.
func (t *Tracker) Consume(kind ModifierKind, tags []string) error {
	var ids []string
	t.Each(func(a *Aura) {
		for _, m := range a.Def.Modifiers {
			if m.Kind == kind && m.ConsumeStack && m.matches(tags) {
				ids = append(ids, a.Def.ID)
				return
			}
		}
	})
	for _, id := range ids {
		if err := t.RemoveStacks(id, 1); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) eachModifier(kind ModifierKind, tags []string, fn func(a *Aura, m Modifier)) {
	t.Each(func(a *Aura) {
		for _, m := range a.Def.Modifiers {
			if m.Kind != kind {
				continue
			}
			if tags != nil && !m.matches(tags) {
				continue
			}
			fn(a, m)
		}
	})
}

// Finish closes uptime accounting at end and cancels pending aura events.
func (t *Tracker) Finish(end time.Duration) {
	for _, id := range t.order {
		a := t.auras[id]
		if !a.active {
			continue
		}
		stop := end
		if a.expiresAt > 0 && a.expiresAt < stop {
			stop = a.expiresAt
		}
		if stop > a.appliedAt {
			t.uptime[id] += stop - a.appliedAt
		}
		a.active = false
		a.expiry.Cancel()
		a.tick.Cancel()
	}
}

// Uptime returns accumulated active time per aura id.
func (t *Tracker) Uptime() map[string]time.Duration {
	out := make(map[string]time.Duration, len(t.uptime))
	for id, d := range t.uptime {
		out[id] = d
	}
	return out
}

func (t *Tracker) notify(a *Aura, now time.Duration) {
	if t.OnChange != nil {
		t.OnChange(a, now)
	}
}
