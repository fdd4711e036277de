package engine

import (
	"context"
	"io"
	"time"

	"wowsim-core/internal/character"
	"wowsim-core/internal/config"
	"wowsim-core/internal/effects"
	"wowsim-core/internal/encounter"
	"wowsim-core/internal/event"
	"wowsim-core/internal/spells"
	"wowsim-core/internal/stats"
)

// iteration owns every piece of mutable state for one run. Nothing in it
// is shared with other iterations.
type iteration struct {
	sim     *Simulator
	ctx     context.Context
	queue   *event.Queue
	res     *spells.Engine
	conv    stats.Conversions
	gcd     config.GCD
	char    *character.Character
	targets []*encounter.Target
	result  *IterationResult
	end     time.Duration
	log     io.Writer
	err     error

	rotation rotationState
}

func (s *Simulator) newIteration(ctx context.Context, seed int64, log io.Writer) *iteration {
	b := s.Bundle
	it := &iteration{
		sim:    s,
		ctx:    ctx,
		queue:  event.NewQueue(),
		res:    spells.NewEngine(b.Constants.StatConversions, seed),
		conv:   b.Constants.StatConversions,
		gcd:    b.Constants.GCD,
		result: newIterationResult(seed),
		log:    log,
	}
	it.rotation.cursors = make(map[int]int)
	it.end = it.rollDuration()

	auras := effects.NewTracker(b.Player.Character.Name, it.queue, s.Registry.Aura)
	auras.OnChange = it.auraChanged(nil)
	auras.OnTick = it.auraTick(nil)
	it.char = character.New(b.Player.Character.Name, s.baseStats, stats.NewPool(s.resources), auras, s.runes)

	for i := range b.Encounter.Targets {
		cfg := &b.Encounter.Targets[i]
		tr := effects.NewTracker(cfg.Name, it.queue, s.Registry.Aura)
		t := encounter.NewTarget(i, cfg, tr)
		tr.OnChange = it.auraChanged(t)
		tr.OnTick = it.auraTick(t)
		it.targets = append(it.targets, t)
	}
	return it
}

// rollDuration draws the fight length. A zero variation consumes no randomness.
func (it *iteration) rollDuration() time.Duration {
	enc := &it.sim.Bundle.Encounter
	d := enc.Duration()
	if v := enc.Variation(); v > 0 {
		d += time.Duration((it.res.Rng.Float64()*2 - 1) * float64(v))
	}
	return d
}

func (it *iteration) run() error {
	it.start()
	for {
		if err := it.ctx.Err(); err != nil {
			return err
		}
		if it.err != nil {
			return it.err
		}
		if it.allDefeated() {
			it.finish(it.queue.Now(), true)
			return nil
		}
		at, ok := it.queue.Peek()
		if !ok || at > it.end {
			break
		}
		if _, err := it.queue.Advance(); err != nil {
			return invariant("dispatch", err)
		}
		if err := it.queue.Err(); err != nil {
			return invariant("schedule", err)
		}
	}
	if it.err != nil {
		return it.err
	}
	it.finish(it.end, false)
	return nil
}

func (it *iteration) start() {
	it.logAt(0, "--- Iteration seed=%d duration=%.1fs ---", it.result.Seed, it.end.Seconds())
	for _, def := range it.sim.initial {
		it.char.Auras.Apply(def, "initial")
	}
	for r := stats.Resource(0); r < stats.NumResources; r++ {
		cfg, ok := it.sim.resources[r]
		if !ok {
			continue
		}
		if interval := cfg.RegenInterval(); interval > 0 {
			it.scheduleRegen(r, cfg.RegenAmount, interval, interval)
		}
	}
	for _, t := range it.sim.Bundle.Encounter.Targets {
		if t.Scripted() {
			it.scheduleScript(it.sim.Bundle.Encounter.ScriptTick())
			break
		}
	}
	it.requestEvaluation(0)
}

func (it *iteration) scheduleRegen(r stats.Resource, amount float64, interval, at time.Duration) {
	it.queue.Schedule(at, event.Resource, func(now time.Duration) {
		if gained := it.char.Pool.Gain(r, amount); gained > 0 {
			it.result.ResourceGained[r.String()] += gained
			it.requestEvaluation(now)
		}
		it.scheduleRegen(r, amount, interval, now+interval)
	})
}

func (it *iteration) scheduleScript(at time.Duration) {
	it.queue.Schedule(at, event.Encounter, func(now time.Duration) {
		for _, t := range it.targets {
			for _, p := range t.RunScript(now, it) {
				it.logAt(now, "PHASE %s enters %s", t.Name, p.Name)
			}
		}
		it.requestEvaluation(now)
		it.scheduleScript(now + it.sim.Bundle.Encounter.ScriptTick())
	})
}

// ApplyTargetAura applies a scripted aura to t.
func (it *iteration) ApplyTargetAura(t *encounter.Target, aura string) {
	if def, ok := it.sim.Registry.Aura(aura); ok {
		t.Auras.Apply(def, "encounter")
	}
}

// DrainResource removes up to amount of resource from the player.
func (it *iteration) DrainResource(resource string, amount float64) {
	r, ok := stats.ParseResource(resource)
	if !ok {
		return
	}
	taken := it.char.Pool.SpendUpTo(r, amount)
	it.logAt(it.queue.Now(), "DRAIN %s -%.0f => %.0f", r, taken, it.char.Pool.Current(r))
}

func (it *iteration) allDefeated() bool {
	finite := false
	for _, t := range it.targets {
		if t.Unlimited() {
			continue
		}
		finite = true
		if !t.Defeated() {
			return false
		}
	}
	return finite
}

// primaryTarget returns the first living target.
func (it *iteration) primaryTarget() *encounter.Target {
	for _, t := range it.targets {
		if !t.Defeated() {
			return t
		}
	}
	return nil
}

func (it *iteration) fail(err error) {
	if it.err == nil {
		it.err = err
	}
}

func (it *iteration) finish(end time.Duration, early bool) {
	if pc := it.rotation.casting; pc != nil {
		pc.ev.Cancel()
		it.rotation.casting = nil
		it.char.FinishCast()
		it.result.AbandonedCasts++
		it.logAt(end, "CAST_ABANDON %s", pc.def.DisplayName())
	}
	it.rotation.evaluation.Cancel()

	it.char.Auras.Finish(end)
	for id, d := range it.char.Auras.Uptime() {
		it.result.AuraUptime[id] += d
	}
	for _, t := range it.targets {
		t.Auras.Finish(end)
		for id, d := range t.Auras.Uptime() {
			it.result.AuraUptime[t.Name+":"+id] += d
		}
	}

	r := it.result
	r.Duration = end
	r.EarlyStop = early
	r.Events = it.queue.Dispatched()
	if end > 0 {
		r.DPS = r.TotalDamage / end.Seconds()
	}
	it.logAt(end, "--- Iteration end damage=%.0f dps=%.1f ---", r.TotalDamage, r.DPS)
}

func (it *iteration) dealDamage(t *encounter.Target, amount float64, now time.Duration) {
	wasDefeated := t.Defeated()
	t.ApplyDamage(amount, now)
	it.result.TotalDamage += amount
	it.result.TargetDamage[t.Name] += amount
	if !wasDefeated && t.Defeated() {
		t.Auras.Finish(now)
		it.logAt(now, "TARGET_DEFEATED %s", t.Name)
	}
}

func (it *iteration) auraChanged(holder *encounter.Target) func(a *effects.Aura, now time.Duration) {
	return func(a *effects.Aura, now time.Duration) {
		if it.log != nil {
			kind, where := "BUFF", ""
			if holder != nil {
				kind, where = "DEBUFF", " on "+holder.Name
			}
			if a.Active() {
				it.logAt(now, "%s_UPDATE %s%s stacks=%d remaining=%.1fs", kind, a.Def.DisplayName(), where, a.Stacks(), a.Remaining(now).Seconds())
			} else {
				it.logAt(now, "%s_EXPIRE %s%s", kind, a.Def.DisplayName(), where)
			}
		}
		it.requestEvaluation(now)
	}
}

func (it *iteration) auraTick(holder *encounter.Target) func(a *effects.Aura, now time.Duration) {
	return func(a *effects.Aura, now time.Duration) {
		p := a.Def.Periodic
		if p.Resource != "" && p.ResourceAmount > 0 {
			if r, ok := stats.ParseResource(p.Resource); ok {
				gained := it.char.Pool.Gain(r, p.ResourceAmount*float64(a.Stacks()))
				if gained > 0 {
					it.result.ResourceGained[r.String()] += gained
					it.logAt(now, "RESOURCE %s +%.0f (%s) => %.0f", r, gained, a.Def.DisplayName(), it.char.Pool.Current(r))
				}
			}
		}
		if p.Ability != "" {
			if def, ok := it.sim.Registry.Ability(p.Ability); ok {
				if t := it.primaryTarget(); t != nil {
					it.result.ability(def.ID).Casts++
					it.resolve(def, t, 0, now)
				}
			}
		}
		if holder != nil && !holder.Defeated() && a.Snapshot.TickDamage > 0 {
			it.dotTick(holder, a, now)
		}
		it.requestEvaluation(now)
	}
}

func (it *iteration) dotTick(t *encounter.Target, a *effects.Aura, now time.Duration) {
	tags := make([]string, 0, len(a.Def.Tags)+1)
	tags = append(tags, a.Source)
	tags = append(tags, a.Def.Tags...)
	damage := a.Snapshot.TickDamage * t.DamageTakenMultiplier(tags)
	crit := a.Def.Periodic.CanCrit && it.res.RollCrit(a.Snapshot.CritChance)
	critTag := ""
	if crit {
		damage *= a.Snapshot.CritMultiplier
		critTag = " (CRIT)"
	}
	s := it.result.ability(a.Source)
	s.Ticks++
	if crit {
		s.Crits++
	}
	s.recordDamage(damage)
	it.logAt(now, "DOT_TICK %s damage=%.0f%s", a.Def.DisplayName(), damage, critTag)
	it.dealDamage(t, damage, now)
}
