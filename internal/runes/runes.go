package runes

import (
	"fmt"
	"strings"
)

type Rarity string

const (
	RarityLegendary Rarity = "legendary"
	RarityEpic      Rarity = "epic"
	RarityRare      Rarity = "rare"
)

// Def is a rune a specialization offers. Aura, when set, is applied
// permanently at the start of every iteration.
type Def struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label"`
	Rarity Rarity `yaml:"rarity"`
	Aura   string `yaml:"aura,omitempty"`
}

// Selection lists equipped rune ids per rarity slot.
type Selection struct {
	Legendary []string `yaml:"legendary"`
	Epic      []string `yaml:"epic"`
	Rare      []string `yaml:"rare"`
}

// Limits caps how many runes of each rarity may be equipped. Zero means no cap.
type Limits struct {
	Legendary int `yaml:"legendary"`
	Epic      int `yaml:"epic"`
	Rare      int `yaml:"rare"`
}

// DefaultLimits returns the standard slot counts.
func DefaultLimits() Limits {
	return Limits{Legendary: 1, Epic: 3, Rare: 4}
}

// Normalize returns the canonical lowercase snake_case rune name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set is a resolved, deduplicated rune selection.
type Set struct {
	byID  map[string]Def
	order []Def
}

// Has reports whether the rune is equipped.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byID[Normalize(name)]
	return ok
}

// Equipped returns the runes in selection order.
func (s *Set) Equipped() []Def {
	if s == nil {
		return nil
	}
	return append([]Def(nil), s.order...)
}

// Resolve validates sel against the runes a specialization knows.
func Resolve(sel Selection, limits Limits, known []Def) (*Set, error) {
	catalog := make(map[string]Def, len(known))
	for _, d := range known {
		catalog[Normalize(d.ID)] = d
	}
	set := &Set{byID: map[string]Def{}}
	check := func(names []string, limit int, expected Rarity) error {
		if limit > 0 && len(names) > limit {
			return fmt.Errorf("runes: %s selections exceed limit (%d > %d)", expected, len(names), limit)
		}
		for _, raw := range names {
			name := Normalize(raw)
			def, ok := catalog[name]
			if !ok {
				return fmt.Errorf("runes: unknown rune '%s'", raw)
			}
			if def.Rarity != expected {
				return fmt.Errorf("runes: rune '%s' is %s but listed under %s", name, def.Rarity, expected)
			}
			if _, dup := set.byID[name]; dup {
				return fmt.Errorf("runes: rune '%s' selected more than once", name)
			}
			set.byID[name] = def
			set.order = append(set.order, def)
		}
		return nil
	}
	if err := check(sel.Legendary, limits.Legendary, RarityLegendary); err != nil {
		return nil, err
	}
	if err := check(sel.Epic, limits.Epic, RarityEpic); err != nil {
		return nil, err
	}
	if err := check(sel.Rare, limits.Rare, RarityRare); err != nil {
		return nil, err
	}
	return set, nil
}
