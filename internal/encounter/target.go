package encounter

import (
	"time"

	"wowsim-core/internal/effects"
	"wowsim-core/internal/spells"
)

// Script receives the side effects of scripted encounter behavior.
type Script interface {
	ApplyTargetAura(t *Target, aura string)
	DrainResource(resource string, amount float64)
}

// Target is one enemy's mutable state for a single iteration.
type Target struct {
	Index int
	Name  string
	Level int
	Auras *effects.Tracker

	cfg         *TargetConfig
	damageTaken float64
	defeated    bool
	defeatedAt  time.Duration

	phase     int
	phaseMult float64
	nextDrain []time.Duration
}

// NewTarget builds a target at full health.
func NewTarget(index int, cfg *TargetConfig, auras *effects.Tracker) *Target {
	t := &Target{
		Index:     index,
		Name:      cfg.Name,
		Level:     cfg.Level,
		Auras:     auras,
		cfg:       cfg,
		phase:     -1,
		phaseMult: 1,
	}
	for _, d := range cfg.Drains {
		t.nextDrain = append(t.nextDrain, seconds(d.IntervalSeconds))
	}
	return t
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Unlimited reports whether the target can never be defeated.
func (t *Target) Unlimited() bool { return t.cfg.Health <= 0 }

// MaxHealth returns the configured health pool.
func (t *Target) MaxHealth() float64 { return t.cfg.Health }

// DamageTaken returns the cumulative damage applied.
func (t *Target) DamageTaken() float64 { return t.damageTaken }

// HealthPercent returns remaining health as a fraction; unlimited targets stay at 1.
func (t *Target) HealthPercent() float64 {
	if t.Unlimited() {
		return 1
	}
	return (t.cfg.Health - t.damageTaken) / t.cfg.Health
}

// HealthFraction is HealthPercent for finite targets. Unlimited targets
// follow the fight clock instead, so execute ranges still occur.
func (t *Target) HealthFraction(now, end time.Duration) float64 {
	if !t.Unlimited() {
		return t.HealthPercent()
	}
	if end <= 0 || now >= end {
		return 0
	}
	return float64(end-now) / float64(end)
}

// HealthRate is how fast HealthFraction falls per second without damage.
func (t *Target) HealthRate(now, end time.Duration) float64 {
	if !t.Unlimited() || end <= 0 || now >= end {
		return 0
	}
	return -1 / end.Seconds()
}

func (t *Target) Defeated() bool            { return t.defeated }
func (t *Target) DefeatedAt() time.Duration { return t.defeatedAt }

// ApplyDamage subtracts amount from health, never below zero, and returns
// the amount actually applied.
func (t *Target) ApplyDamage(amount float64, now time.Duration) float64 {
	if amount <= 0 || t.defeated {
		return 0
	}
	if t.Unlimited() {
		t.damageTaken += amount
		return amount
	}
	remaining := t.cfg.Health - t.damageTaken
	if amount > remaining {
		amount = remaining
	}
	t.damageTaken += amount
	if t.damageTaken >= t.cfg.Health {
		t.defeated = true
		t.defeatedAt = now
	}
	return amount
}

// DamageTakenMultiplier combines the phase multiplier with debuffs on the target.
func (t *Target) DamageTakenMultiplier(tags []string) float64 {
	return t.phaseMult * t.Auras.Multiplier(effects.ModDamageTaken, tags)
}

// Defender returns the outcome-table view of the target for an ability.
func (t *Target) Defender(tags []string) spells.Defender {
	d := t.cfg.Defenses
	return spells.Defender{
		Miss:            d.MissPercent / 100,
		Dodge:           d.DodgePercent / 100,
		Resist:          d.ResistPercent / 100,
		ResistFraction:  d.ResistFraction,
		ArmorMitigation: d.ArmorMitigation,
		DamageTaken:     t.DamageTakenMultiplier(tags),
	}
}

// Phase returns the name of the current phase, empty before the first.
func (t *Target) Phase() string {
	if t.phase < 0 {
		return ""
	}
	return t.cfg.Phases[t.phase].Name
}

// Scripted reports whether the target needs periodic script ticks.
func (c *TargetConfig) Scripted() bool {
	return len(c.Phases) > 0 || len(c.Drains) > 0
}

// RunScript advances phases and drains up to now and returns entered phases.
func (t *Target) RunScript(now time.Duration, s Script) []Phase {
	if t.defeated {
		return nil
	}
	var entered []Phase
	for t.phase+1 < len(t.cfg.Phases) {
		next := t.cfg.Phases[t.phase+1]
		byTime := next.AtSeconds > 0 && now >= seconds(next.AtSeconds)
		byHealth := next.BelowHealthPercent > 0 && t.HealthPercent()*100 < next.BelowHealthPercent
		if !byTime && !byHealth {
			break
		}
		t.phase++
		if next.DamageTaken > 0 {
			t.phaseMult = next.DamageTaken
		}
		if next.ApplyAura != "" {
			s.ApplyTargetAura(t, next.ApplyAura)
		}
		entered = append(entered, next)
	}
	for i, d := range t.cfg.Drains {
		for now >= t.nextDrain[i] {
			s.DrainResource(d.Resource, d.Amount)
			t.nextDrain[i] += seconds(d.IntervalSeconds)
		}
	}
	return entered
}
