package engine

import (
	"math"
	"sort"
	"time"

	"wowsim-core/internal/spells"
)

// AbilityStats keeps per-ability performance details
type AbilityStats struct {
	Casts     int     `json:"casts"`
	Hits      int     `json:"hits"`
	Crits     int     `json:"crits"`
	Misses    int     `json:"misses"`
	Dodges    int     `json:"dodges"`
	Resists   int     `json:"resists"`
	Ticks     int     `json:"ticks"`
	Damage    float64 `json:"damage"`
	MinDamage float64 `json:"min_damage"`
	MaxDamage float64 `json:"max_damage"`
}

func (s *AbilityStats) recordDamage(damage float64) {
	s.Damage += damage
	if s.MinDamage == 0 || damage < s.MinDamage {
		s.MinDamage = damage
	}
	if damage > s.MaxDamage {
		s.MaxDamage = damage
	}
}

func (s *AbilityStats) recordOutcome(kind spells.OutcomeKind) {
	switch kind {
	case spells.OutcomeHit:
		s.Hits++
	case spells.OutcomeCrit:
		s.Hits++
		s.Crits++
	case spells.OutcomeResist:
		s.Hits++
		s.Resists++
	case spells.OutcomeMiss:
		s.Misses++
	case spells.OutcomeDodge:
		s.Dodges++
	}
}

// Add accumulates other into s.
func (s *AbilityStats) Add(other *AbilityStats) {
	s.Casts += other.Casts
	s.Hits += other.Hits
	s.Crits += other.Crits
	s.Misses += other.Misses
	s.Dodges += other.Dodges
	s.Resists += other.Resists
	s.Ticks += other.Ticks
	s.Damage += other.Damage
	if other.MinDamage > 0 && (s.MinDamage == 0 || other.MinDamage < s.MinDamage) {
		s.MinDamage = other.MinDamage
	}
	s.MaxDamage = math.Max(s.MaxDamage, other.MaxDamage)
}

// IterationResult holds the outcome of one iteration. It is not modified
// after RunIteration returns.
type IterationResult struct {
	Seed           int64                    `json:"seed"`
	Duration       time.Duration            `json:"duration"`
	TotalDamage    float64                  `json:"total_damage"`
	TotalHealing   float64                  `json:"total_healing"`
	DPS            float64                  `json:"dps"`
	Casts          int                      `json:"casts"`
	FailedCasts    int                      `json:"failed_casts"`
	AbandonedCasts int                      `json:"abandoned_casts"`
	EarlyStop      bool                     `json:"early_stop"`
	Events         int                      `json:"events"`
	Abilities      map[string]*AbilityStats `json:"abilities"`
	AuraUptime     map[string]time.Duration `json:"aura_uptime"`
	ResourceSpent  map[string]float64       `json:"resource_spent"`
	ResourceGained map[string]float64       `json:"resource_gained"`
	TargetDamage   map[string]float64       `json:"target_damage"`
}

func newIterationResult(seed int64) *IterationResult {
	return &IterationResult{
		Seed:           seed,
		Abilities:      make(map[string]*AbilityStats),
		AuraUptime:     make(map[string]time.Duration),
		ResourceSpent:  make(map[string]float64),
		ResourceGained: make(map[string]float64),
		TargetDamage:   make(map[string]float64),
	}
}

func (r *IterationResult) ability(id string) *AbilityStats {
	s, ok := r.Abilities[id]
	if !ok {
		s = &AbilityStats{}
		r.Abilities[id] = s
	}
	return s
}

// AbilityIDs returns ability ids by descending damage, ties by name.
func (r *IterationResult) AbilityIDs() []string {
	ids := make([]string, 0, len(r.Abilities))
	for id := range r.Abilities {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		di := r.Abilities[ids[i]].Damage
		dj := r.Abilities[ids[j]].Damage
		if di == dj {
			return ids[i] < ids[j]
		}
		return di > dj
	})
	return ids
}
