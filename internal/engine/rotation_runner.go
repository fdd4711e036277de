package engine

import (
	"fmt"
	"time"

	"wowsim-core/internal/apl"
	"wowsim-core/internal/event"
	"wowsim-core/internal/spells"
	"wowsim-core/internal/stats"
)

// maxEvaluationsPerInstant bounds rotation passes at one timestamp. A
// rotation that keeps committing zero-time actions trips it.
const maxEvaluationsPerInstant = 256

// rotationState is the per-iteration half of the APL engine. The compiled
// rotation itself is shared and never written.
type rotationState struct {
	casting    *pendingCast
	evaluation *event.Event
	waitUntil  time.Duration
	cursors    map[int]int

	lastEval  time.Duration
	evalCount int
}

// rotationContext answers condition queries against live iteration state.
type rotationContext struct {
	it  *iteration
	now time.Duration
}

func (c *rotationContext) BuffActive(name string) bool {
	return c.it.char.Auras.Active(name)
}

func (c *rotationContext) BuffRemaining(name string) time.Duration {
	return c.it.char.Auras.Remaining(name)
}

func (c *rotationContext) BuffCharges(name string) int {
	return c.it.char.Auras.Stacks(name)
}

func (c *rotationContext) DebuffActive(name string) bool {
	t := c.it.primaryTarget()
	return t != nil && t.Auras.Active(name)
}

func (c *rotationContext) DebuffRemaining(name string) time.Duration {
	t := c.it.primaryTarget()
	if t == nil {
		return 0
	}
	return t.Auras.Remaining(name)
}

func (c *rotationContext) ResourcePercent(resource string) float64 {
	r, ok := stats.ParseResource(resource)
	if !ok {
		return 0
	}
	return c.it.char.ResourcePercent(r)
}

func (c *rotationContext) ResourceAmount(resource string) float64 {
	r, ok := stats.ParseResource(resource)
	if !ok {
		return 0
	}
	return c.it.char.Pool.Current(r)
}

func (c *rotationContext) CooldownReady(name string) bool {
	return c.it.char.Cooldowns.Ready(name, c.now)
}

func (c *rotationContext) CooldownRemaining(name string) time.Duration {
	return c.it.char.Cooldowns.Remaining(name, c.now)
}

func (c *rotationContext) TargetHealthPercent() float64 {
	t := c.it.primaryTarget()
	if t == nil {
		return 0
	}
	return t.HealthFraction(c.now, c.it.end)
}

func (c *rotationContext) TargetHealthRate() float64 {
	t := c.it.primaryTarget()
	if t == nil {
		return 0
	}
	return t.HealthRate(c.now, c.it.end)
}

func (c *rotationContext) TimeElapsed() time.Duration {
	return c.now
}

func (c *rotationContext) TimeRemaining() time.Duration {
	if c.now >= c.it.end {
		return 0
	}
	return c.it.end - c.now
}

func (c *rotationContext) CanCast(name string) bool {
	def, ok := c.it.sim.Registry.Ability(name)
	return ok && c.it.check(def, c.now) == spells.RejectNone
}

// requestEvaluation makes sure a rotation pass runs at or before at. Only
// one pass is ever pending.
func (it *iteration) requestEvaluation(at time.Duration) {
	rs := &it.rotation
	if rs.evaluation.Pending() && rs.evaluation.At() <= at {
		return
	}
	rs.evaluation.Cancel()
	rs.evaluation = it.queue.Schedule(at, event.Rotation, it.evaluate)
}

// evaluate walks the rotation top to bottom and commits the first
// satisfied, executable entry. When nothing commits the runner idles until
// the next wake-up.
func (it *iteration) evaluate(now time.Duration) {
	rs := &it.rotation
	rs.evaluation = nil
	if rs.casting != nil {
		return
	}
	if now == rs.lastEval {
		rs.evalCount++
		if rs.evalCount > maxEvaluationsPerInstant {
			it.fail(invariant("rotation", fmt.Errorf("more than %d passes at %s", maxEvaluationsPerInstant, now)))
			return
		}
	} else {
		rs.lastEval = now
		rs.evalCount = 1
	}
	if now < rs.waitUntil {
		it.requestEvaluation(rs.waitUntil)
		return
	}

	ctx := &rotationContext{it: it, now: now}
	for _, action := range it.sim.Rotation.Actions {
		if !action.Condition.Eval(ctx) {
			continue
		}
		if it.execute(action, now) {
			return
		}
	}
	it.idle(now)
}

// execute runs one satisfied entry and reports whether it committed.
func (it *iteration) execute(action *apl.Action, now time.Duration) bool {
	rs := &it.rotation
	switch action.Type {
	case apl.ActionCast:
		def, _ := it.sim.Registry.Ability(action.Spell)
		return it.attemptCast(def, now) == spells.RejectNone
	case apl.ActionWait:
		rs.waitUntil = now + action.Duration
		it.logAt(now, "WAIT %.2fs", action.Duration.Seconds())
		it.requestEvaluation(rs.waitUntil)
		return true
	case apl.ActionWaitFor:
		ready := it.readyAt(action.Spell)
		if ready <= now {
			return false
		}
		rs.waitUntil = ready
		it.logAt(now, "WAIT_FOR %s (%.2fs)", action.Spell, (ready - now).Seconds())
		it.requestEvaluation(ready)
		return true
	case apl.ActionSequence:
		return it.executeSequence(action, now)
	case apl.ActionNoop:
		it.idle(now)
		return true
	}
	return false
}

func (it *iteration) executeSequence(action *apl.Action, now time.Duration) bool {
	rs := &it.rotation
	cursor := rs.cursors[action.Index]
	if cursor >= len(action.Steps) {
		if !action.Reset {
			return false
		}
		cursor = 0
	}
	step := action.Steps[cursor]
	ctx := &rotationContext{it: it, now: now}
	if !step.Condition.Eval(ctx) {
		return false
	}
	def, _ := it.sim.Registry.Ability(step.Spell)
	if it.attemptCast(def, now) != spells.RejectNone {
		return false
	}
	cursor++
	if cursor >= len(action.Steps) && action.Reset {
		cursor = 0
	}
	rs.cursors[action.Index] = cursor
	return true
}

// readyAt is when name could next start, ignoring resources.
func (it *iteration) readyAt(name string) time.Duration {
	at := it.char.Cooldowns.ReadyAt(name)
	if def, ok := it.sim.Registry.Ability(name); ok && def.GCD != spells.GCDNone {
		if gcd := it.char.GCD.ReadyAt(); gcd > at {
			at = gcd
		}
	}
	return at
}

// idle schedules the next pass at the earliest GCD or cooldown expiry, or
// when a condition can flip with the clock alone. Regen, aura changes and
// script ticks request passes on their own.
func (it *iteration) idle(now time.Duration) {
	next := time.Duration(-1)
	consider := func(at time.Duration) {
		if at > now && (next < 0 || at < next) {
			next = at
		}
	}
	ctx := &rotationContext{it: it, now: now}
	wake := func(cond apl.Condition) {
		if d, ok := apl.NextChange(cond, ctx); ok {
			consider(now + d)
		}
	}
	consider(it.char.GCD.ReadyAt())
	for _, action := range it.sim.Rotation.Actions {
		if action.Spell != "" {
			consider(it.char.Cooldowns.ReadyAt(action.Spell))
		}
		wake(action.Condition)
		for _, step := range action.Steps {
			consider(it.char.Cooldowns.ReadyAt(step.Spell))
			wake(step.Condition)
		}
	}
	if next >= 0 {
		it.requestEvaluation(next)
	}
}
