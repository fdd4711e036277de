package spells

// OutcomeKind is the result category of one ability resolution.
type OutcomeKind int

const (
	OutcomeHit OutcomeKind = iota
	OutcomeCrit
	OutcomeMiss
	OutcomeDodge
	OutcomeResist
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHit:
		return "HIT"
	case OutcomeCrit:
		return "CRIT"
	case OutcomeMiss:
		return "MISS"
	case OutcomeDodge:
		return "DODGE"
	case OutcomeResist:
		return "RESIST"
	}
	return "UNKNOWN"
}

// Landed reports whether the outcome applies the ability's effects.
func (k OutcomeKind) Landed() bool {
	return k == OutcomeHit || k == OutcomeCrit || k == OutcomeResist
}

// Table is an outcome distribution. Entries are allocated in the order
// miss, dodge, partial resist, crit; the remainder is a normal hit.
type Table struct {
	Miss   float64
	Dodge  float64
	Resist float64
	Crit   float64
}

// NewTable clamps each chance to [0,1] and to what remains after the
// entries allocated before it.
func NewTable(miss, dodge, resist, crit float64) Table {
	remaining := 1.0
	take := func(p float64) float64 {
		if p < 0 {
			p = 0
		}
		if p > remaining {
			p = remaining
		}
		remaining -= p
		return p
	}
	return Table{
		Miss:   take(miss),
		Dodge:  take(dodge),
		Resist: take(resist),
		Crit:   take(crit),
	}
}

// Hit returns the normal-hit probability.
func (t Table) Hit() float64 {
	h := 1 - t.Miss - t.Dodge - t.Resist - t.Crit
	if h < 0 {
		return 0
	}
	return h
}

// Resolve maps a uniform roll in [0,1) onto the table.
func (t Table) Resolve(roll float64) OutcomeKind {
	edge := t.Miss
	if roll < edge {
		return OutcomeMiss
	}
	edge += t.Dodge
	if roll < edge {
		return OutcomeDodge
	}
	edge += t.Resist
	if roll < edge {
		return OutcomeResist
	}
	edge += t.Crit
	if roll < edge {
		return OutcomeCrit
	}
	return OutcomeHit
}

// MagnitudeInput carries everything the damage formula depends on.
type MagnitudeInput struct {
	Base           float64
	Power          float64
	Coefficient    float64
	CritMultiplier float64
	ResistFraction float64
	Multiplier     float64
}

// Magnitude is a pure function of its input and the rolled outcome.
func Magnitude(in MagnitudeInput, kind OutcomeKind) float64 {
	if !kind.Landed() {
		return 0
	}
	m := (in.Base + in.Power*in.Coefficient) * in.Multiplier
	switch kind {
	case OutcomeCrit:
		m *= in.CritMultiplier
	case OutcomeResist:
		m *= 1 - in.ResistFraction
	}
	if m < 0 {
		return 0
	}
	return m
}
