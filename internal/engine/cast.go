package engine

import (
	"time"

	"wowsim-core/internal/effects"
	"wowsim-core/internal/encounter"
	"wowsim-core/internal/event"
	"wowsim-core/internal/specs"
	"wowsim-core/internal/spells"
	"wowsim-core/internal/stats"
)

type pendingCast struct {
	def     *spells.AbilityDef
	target  *encounter.Target
	started time.Duration
	ev      *event.Event
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// cost returns the base cost after cost modifiers.
func (it *iteration) cost(def *spells.AbilityDef) float64 {
	if def.Cost.Amount <= 0 {
		return 0
	}
	return def.Cost.Amount * it.char.Auras.Multiplier(effects.ModCost, def.TagList())
}

func (it *iteration) castTime(def *spells.AbilityDef) time.Duration {
	ct := def.CastTime()
	if ct <= 0 {
		return 0
	}
	mult := it.char.Auras.Multiplier(effects.ModCastSpeed, def.TagList())
	haste := it.conv.HasteMultiplier(it.char.Stats())
	return time.Duration(float64(ct) * mult / haste)
}

func (it *iteration) gcdFor(def *spells.AbilityDef) time.Duration {
	switch def.GCD {
	case spells.GCDNone:
		return 0
	case spells.GCDPhysical:
		return seconds(it.gcd.Physical)
	}
	mult := it.char.Auras.Multiplier(effects.ModCastSpeed, def.TagList())
	haste := it.conv.HasteMultiplier(it.char.Stats())
	gcd := time.Duration(float64(seconds(it.gcd.Base)) * mult / haste)
	if min := seconds(it.gcd.Minimum); gcd < min {
		gcd = min
	}
	return gcd
}

// check gates a cast start without side effects.
func (it *iteration) check(def *spells.AbilityDef, now time.Duration) spells.RejectReason {
	c := it.char
	switch {
	case c.IsCasting:
		return spells.RejectCasting
	case def.Rune != "" && !c.Runes.Has(def.Rune):
		return spells.RejectRune
	case c.Auras.Silenced(def.TagList()):
		return spells.RejectSilenced
	case def.GCD != spells.GCDNone && !c.IsGCDReady(now):
		return spells.RejectGCD
	case !c.Cooldowns.Ready(def.ID, now):
		return spells.RejectCooldown
	case !c.Pool.Has(def.CostResource(), it.cost(def)):
		return spells.RejectResource
	}
	t := it.primaryTarget()
	if t == nil {
		return spells.RejectInvalidTarget
	}
	for _, ref := range def.Requires {
		holder := c.Auras
		if ref.OnTarget() {
			holder = t.Auras
		}
		if !holder.Active(ref.Aura) {
			return spells.RejectRequirement
		}
	}
	if def.ExecuteBelowPercent > 0 && t.HealthFraction(now, it.end)*100 >= def.ExecuteBelowPercent {
		return spells.RejectExecutePhase
	}
	return spells.RejectNone
}

// attemptCast starts def at now. The GCD starts immediately; everything
// else happens when the CastComplete event fires, instants included.
func (it *iteration) attemptCast(def *spells.AbilityDef, now time.Duration) spells.RejectReason {
	if reason := it.check(def, now); reason != spells.RejectNone {
		return reason
	}
	castTime := it.castTime(def)
	if gcd := it.gcdFor(def); gcd > 0 {
		it.char.GCD.Reset(now, gcd)
	}
	if err := it.char.Auras.Consume(effects.ModCastSpeed, def.TagList()); err != nil {
		it.fail(invariant("consume "+def.ID, err))
		return spells.RejectNone
	}

	pc := &pendingCast{def: def, target: it.primaryTarget(), started: now}
	it.rotation.casting = pc
	it.char.StartCast(now + castTime)
	if castTime > 0 {
		res := def.CostResource()
		it.logAt(now, "CAST_START %s (%s=%.0f)", def.DisplayName(), res, it.char.Pool.Current(res))
	}
	pc.ev = it.queue.Schedule(now+castTime, event.CastComplete, func(at time.Duration) {
		it.complete(pc, at)
	})
	return spells.RejectNone
}

func (it *iteration) complete(pc *pendingCast, now time.Duration) {
	it.rotation.casting = nil
	it.char.FinishCast()
	defer it.requestEvaluation(now)

	def := pc.def
	res := def.CostResource()
	cost := it.cost(def)
	if !it.char.Pool.Has(res, cost) {
		it.result.FailedCasts++
		it.logAt(now, "CAST_FAIL %s (insufficient %s)", def.DisplayName(), res)
		return
	}
	if err := it.char.Pool.Spend(res, cost); err != nil {
		it.fail(invariant("spend "+def.ID, err))
		return
	}
	spent := cost
	var extra float64
	if def.Cost.ExtraUpTo > 0 {
		extra = it.char.Pool.SpendUpTo(res, def.Cost.ExtraUpTo)
		spent += extra
	}
	if spent > 0 {
		it.result.ResourceSpent[res.String()] += spent
		it.logAt(now, "RESOURCE %s -%.0f => %.0f", res, spent, it.char.Pool.Current(res))
	}
	if cd := def.Cooldown(); cd > 0 {
		it.char.Cooldowns.Start(def.ID, now, cd)
		it.queue.Schedule(now+cd, event.Cooldown, it.requestEvaluation)
	}

	it.result.Casts++
	it.result.ability(def.ID).Casts++
	for _, t := range it.targetsFor(def, pc.target) {
		it.resolve(def, t, extra, now)
	}
}

func (it *iteration) targetsFor(def *spells.AbilityDef, chosen *encounter.Target) []*encounter.Target {
	if def.AreaOfEffect {
		var out []*encounter.Target
		for _, t := range it.targets {
			if !t.Defeated() {
				out = append(out, t)
			}
		}
		return out
	}
	if chosen != nil && !chosen.Defeated() {
		return []*encounter.Target{chosen}
	}
	if t := it.primaryTarget(); t != nil {
		return []*encounter.Target{t}
	}
	return nil
}

// resolve rolls def against t and applies every landed effect.
func (it *iteration) resolve(def *spells.AbilityDef, t *encounter.Target, extra float64, now time.Duration) {
	c := it.char
	tags := def.TagList()
	st := c.Stats()
	atk := spells.Attacker{
		Stats:      st,
		HitBonus:   c.Auras.Additive(effects.ModHitChance, tags),
		CritBonus:  c.Auras.Additive(effects.ModCritChance, tags),
		Multiplier: c.Auras.Multiplier(effects.ModDamageDone, tags),
	}
	bonus := extra * def.Cost.ExtraDamagePerPoint
	if def.Hook != "" {
		if hook, ok := it.sim.Spec.Hook(def.Hook); ok {
			hr := hook(specs.HookState{Now: now, Caster: st, Self: c.Auras, Target: t})
			bonus += hr.BaseBonus
			if hr.Multiplier > 0 {
				atk.Multiplier *= hr.Multiplier
			}
		}
	}

	out := it.res.Resolve(def, atk, t.Defender(tags), bonus)
	s := it.result.ability(def.ID)
	s.recordOutcome(out.Kind)
	if !out.Kind.Landed() {
		it.logAt(now, "CAST_RESULT %s %s", def.DisplayName(), out.Kind)
		return
	}
	if out.Magnitude > 0 {
		s.recordDamage(out.Magnitude)
		it.logAt(now, "CAST_RESULT %s %s damage=%.0f target=%s", def.DisplayName(), out.Kind, out.Magnitude, t.Name)
		it.dealDamage(t, out.Magnitude, now)
		if err := c.Auras.Consume(effects.ModDamageDone, tags); err != nil {
			it.fail(invariant("consume "+def.ID, err))
			return
		}
	} else {
		it.logAt(now, "CAST_RESULT %s %s", def.DisplayName(), out.Kind)
	}

	for _, ref := range def.Applies {
		it.applyRef(ref, def, atk, t)
	}
	if out.Kind == spells.OutcomeCrit {
		for _, ref := range def.OnCrit {
			it.applyRef(ref, def, atk, t)
		}
	}
	for _, ref := range def.Consumes {
		holder := c.Auras
		if ref.OnTarget() {
			holder = t.Auras
		}
		holder.Remove(ref.Aura)
	}
	for _, g := range def.Gains {
		it.gain(g, st, out.Magnitude, now)
	}
}

// applyRef applies an aura and snapshots its periodic payload from the caster.
func (it *iteration) applyRef(ref spells.AuraRef, def *spells.AbilityDef, atk spells.Attacker, t *encounter.Target) {
	if ref.IfAura != "" && !it.char.Auras.Active(ref.IfAura) {
		return
	}
	auraDef, ok := it.sim.Registry.Aura(ref.Aura)
	if !ok {
		return
	}
	holder := it.char.Auras
	if ref.OnTarget() {
		holder = t.Auras
	}
	a, how := holder.Apply(auraDef, def.ID)
	if how == effects.Ignored || auraDef.Periodic == nil {
		return
	}
	p := auraDef.Periodic
	tags := append(def.TagList(), auraDef.Tags...)
	power := spells.Power(def, atk.Stats)
	snap := effects.Snapshot{Power: power, CritMultiplier: def.Critical()}
	if p.BaseDamage > 0 || p.Coefficient > 0 {
		snap.TickDamage = (p.BaseDamage + power*p.Coefficient) * it.char.Auras.Multiplier(effects.ModDamageDone, tags)
	}
	if p.CanCrit {
		snap.CritChance = it.res.Table(def, atk, spells.Defender{}).Crit
	}
	a.Snapshot = snap
}

func (it *iteration) gain(g spells.Gain, st stats.Stats, damage float64, now time.Duration) {
	r, ok := stats.ParseResource(g.Resource)
	if !ok {
		return
	}
	amount := g.Amount + g.PerDamage*damage
	if g.Stat != "" {
		if stat, ok := stats.ParseStat(g.Stat); ok {
			amount += st[stat] * g.StatCoefficient
		}
	}
	gained := it.char.Pool.Gain(r, amount)
	if gained <= 0 {
		return
	}
	it.result.ResourceGained[r.String()] += gained
	if r == stats.Health {
		it.result.TotalHealing += gained
	}
	it.logAt(now, "RESOURCE %s +%.0f => %.0f", r, gained, it.char.Pool.Current(r))
}
