package spells

import (
	"math/rand"

	"wowsim-core/internal/stats"
)

// RejectReason explains why a cast was not started.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectCasting
	RejectGCD
	RejectCooldown
	RejectResource
	RejectSilenced
	RejectInvalidTarget
	RejectRequirement
	RejectExecutePhase
	RejectRune
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "ok"
	case RejectCasting:
		return "already casting"
	case RejectGCD:
		return "global cooldown"
	case RejectCooldown:
		return "on cooldown"
	case RejectResource:
		return "insufficient resource"
	case RejectSilenced:
		return "silenced"
	case RejectInvalidTarget:
		return "invalid target"
	case RejectRequirement:
		return "requirement not met"
	case RejectExecutePhase:
		return "target above execute threshold"
	case RejectRune:
		return "rune not equipped"
	}
	return "unknown"
}

// Attacker is the caster side of a resolution, with aura bonuses folded in.
type Attacker struct {
	Stats      stats.Stats
	HitBonus   float64
	CritBonus  float64
	Multiplier float64
}

// Defender is the target side of a resolution. Chances are fractions.
type Defender struct {
	Miss            float64
	Dodge           float64
	Resist          float64
	ResistFraction  float64
	ArmorMitigation float64
	DamageTaken     float64
}

// Result is a resolved outcome plus the inputs that produced it.
type Result struct {
	Kind      OutcomeKind
	Magnitude float64
	Table     Table
}

// Engine resolves abilities. It owns the iteration's random stream.
type Engine struct {
	Conv stats.Conversions
	Rng  *rand.Rand
}

// NewEngine creates a new resolution engine seeded for one iteration.
func NewEngine(conv stats.Conversions, seed int64) *Engine {
	return &Engine{
		Conv: conv,
		Rng:  rand.New(rand.NewSource(seed)),
	}
}

// Power returns the attack or spell power an ability scales with.
func Power(def *AbilityDef, s stats.Stats) float64 {
	if def.Kind == KindMelee {
		return s[stats.AttackPower]
	}
	return s[stats.SpellPower]
}

// Table builds the outcome distribution for def.
func (e *Engine) Table(def *AbilityDef, atk Attacker, dfn Defender) Table {
	melee := def.Kind == KindMelee
	miss := dfn.Miss - e.Conv.HitChance(atk.Stats) - def.BonusHitPercent/100 - atk.HitBonus
	var dodge, resist float64
	if melee {
		dodge = dfn.Dodge - e.Conv.DodgeReduction(atk.Stats)
	} else {
		resist = dfn.Resist
	}
	crit := e.Conv.CritChance(atk.Stats, melee) + def.BonusCritPercent/100 + atk.CritBonus
	return NewTable(miss, dodge, resist, crit)
}

// RollBase draws the base magnitude. Fixed ranges consume no randomness.
func (e *Engine) RollBase(def *AbilityDef) float64 {
	if def.BaseMax <= def.BaseMin {
		return def.BaseMin
	}
	return def.BaseMin + e.Rng.Float64()*(def.BaseMax-def.BaseMin)
}

// RollCrit reports whether a periodic tick with a snapshotted chance crits.
func (e *Engine) RollCrit(chance float64) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 1 {
		return true
	}
	return e.Rng.Float64() < chance
}

// Resolve rolls def against dfn. bonusBase is added to the rolled base.
func (e *Engine) Resolve(def *AbilityDef, atk Attacker, dfn Defender, bonusBase float64) Result {
	if def.Utility {
		return Result{Kind: OutcomeHit, Table: NewTable(0, 0, 0, 0)}
	}
	table := e.Table(def, atk, dfn)
	kind := table.Resolve(e.Rng.Float64())
	if !kind.Landed() {
		return Result{Kind: kind, Table: table}
	}
	mult := atk.Multiplier * dfn.DamageTaken
	if def.Kind == KindMelee {
		mult *= 1 - dfn.ArmorMitigation
	}
	mag := Magnitude(MagnitudeInput{
		Base:           e.RollBase(def) + bonusBase,
		Power:          Power(def, atk.Stats),
		Coefficient:    def.Coefficient,
		CritMultiplier: def.Critical(),
		ResistFraction: dfn.ResistFraction,
		Multiplier:     mult,
	}, kind)
	return Result{Kind: kind, Magnitude: mag, Table: table}
}
