package stats

import (
	"fmt"
	"sort"
	"strings"
)

// Stat identifies one entry of a stat vector.
type Stat int

const (
	SpellPower Stat = iota
	AttackPower
	Intellect
	Spirit
	Stamina
	CritRating
	HitRating
	HasteRating
	Expertise

	NumStats
)

var statNames = [NumStats]string{
	SpellPower:  "spell_power",
	AttackPower: "attack_power",
	Intellect:   "intellect",
	Spirit:      "spirit",
	Stamina:     "stamina",
	CritRating:  "crit_rating",
	HitRating:   "hit_rating",
	HasteRating: "haste_rating",
	Expertise:   "expertise",
}

func (s Stat) String() string {
	if s < 0 || s >= NumStats {
		return fmt.Sprintf("stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat resolves a snake_case stat name.
func ParseStat(name string) (Stat, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range statNames {
		if candidate == n {
			return Stat(i), true
		}
	}
	return 0, false
}

// Stats is a fixed-size character attribute vector.
type Stats [NumStats]float64

// Add returns the element-wise sum of s and other.
func (s Stats) Add(other Stats) Stats {
	for i := range s {
		s[i] += other[i]
	}
	return s
}

// With returns a copy of s with one stat replaced.
func (s Stats) With(stat Stat, value float64) Stats {
	s[stat] = value
	return s
}

// FromMap builds a vector from a name→value map, rejecting unknown names.
func FromMap(values map[string]float64) (Stats, error) {
	var out Stats
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stat, ok := ParseStat(k)
		if !ok {
			return Stats{}, fmt.Errorf("unknown stat '%s'", k)
		}
		out[stat] = values[k]
	}
	return out, nil
}

// Map returns the non-zero entries keyed by stat name.
func (s Stats) Map() map[string]float64 {
	out := make(map[string]float64)
	for i, v := range s {
		if v != 0 {
			out[Stat(i).String()] = v
		}
	}
	return out
}
