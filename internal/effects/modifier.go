package effects

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModifierKind selects which query a modifier contributes to.
type ModifierKind int

const (
	// Multiplicative kinds. Value is a factor, e.g. 1.1.
	ModDamageDone ModifierKind = iota
	ModDamageTaken
	ModCastSpeed
	ModCost

	// Additive kinds. Value is a fraction or flat amount.
	ModCritChance
	ModHitChance
	ModStat
	ModSilence
)

var modifierKindNames = map[ModifierKind]string{
	ModDamageDone:  "damage_done",
	ModDamageTaken: "damage_taken",
	ModCastSpeed:   "cast_speed",
	ModCost:        "cost",
	ModCritChance:  "crit_chance",
	ModHitChance:   "hit_chance",
	ModStat:        "stat",
	ModSilence:     "silence",
}

func (k ModifierKind) String() string {
	if name, ok := modifierKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("modifier(%d)", int(k))
}

func (k ModifierKind) multiplicative() bool {
	return k <= ModCost
}

// ParseModifierKind resolves a modifier kind name.
func ParseModifierKind(name string) (ModifierKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for kind, candidate := range modifierKindNames {
		if candidate == n {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown modifier kind '%s'", name)
}

func (k *ModifierKind) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseModifierKind(node.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Modifier is one effect an active aura has on combat queries.
type Modifier struct {
	Kind  ModifierKind `yaml:"kind"`
	Value float64      `yaml:"value"`
	// Stat names the attribute raised by a ModStat modifier.
	Stat string `yaml:"stat,omitempty"`
	// Tags restricts the modifier to abilities carrying one of them.
	Tags     []string `yaml:"tags,omitempty"`
	PerStack bool     `yaml:"per_stack,omitempty"`
	// ConsumeStack removes one stack each time the modifier is used.
	ConsumeStack bool `yaml:"consume_stack,omitempty"`
}

func (m Modifier) matches(tags []string) bool {
	if len(m.Tags) == 0 {
		return true
	}
	for _, want := range m.Tags {
		for _, have := range tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (m Modifier) contribution(stacks int) float64 {
	if !m.PerStack || stacks <= 1 {
		return m.Value
	}
	if m.Kind.multiplicative() {
		return 1 + (m.Value-1)*float64(stacks)
	}
	return m.Value * float64(stacks)
}
