package spells

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wowsim-core/internal/stats"
)

// Kind selects which outcome table an ability rolls on.
type Kind int

const (
	KindSpell Kind = iota
	KindMelee
)

func (k Kind) String() string {
	if k == KindMelee {
		return "melee"
	}
	return "spell"
}

func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "", "spell":
		*k = KindSpell
	case "melee", "physical":
		*k = KindMelee
	default:
		return fmt.Errorf("line %d: unknown ability kind '%s'", node.Line, node.Value)
	}
	return nil
}

// GCDCategory selects how an ability triggers the global cooldown.
type GCDCategory int

const (
	GCDSpell GCDCategory = iota
	GCDPhysical
	GCDNone
)

func (g *GCDCategory) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "", "spell":
		*g = GCDSpell
	case "physical":
		*g = GCDPhysical
	case "none", "off":
		*g = GCDNone
	default:
		return fmt.Errorf("line %d: unknown gcd category '%s'", node.Line, node.Value)
	}
	return nil
}

// Cost is the resource price of an ability.
type Cost struct {
	Resource string  `yaml:"resource"`
	Amount   float64 `yaml:"amount"`
	// ExtraUpTo drains up to this much more on completion.
	ExtraUpTo           float64 `yaml:"extra_up_to,omitempty"`
	ExtraDamagePerPoint float64 `yaml:"extra_damage_per_point,omitempty"`
}

// AuraRef points at an aura on the caster ("self") or the target.
type AuraRef struct {
	Aura string `yaml:"aura"`
	On   string `yaml:"on"`
	// IfAura gates the application on an aura the caster holds.
	IfAura string `yaml:"if_aura,omitempty"`
}

// OnTarget reports whether the reference names the target.
func (r AuraRef) OnTarget() bool { return r.On == "target" }

// Gain is a resource grant on completion.
type Gain struct {
	Resource        string  `yaml:"resource"`
	Amount          float64 `yaml:"amount"`
	Stat            string  `yaml:"stat,omitempty"`
	StatCoefficient float64 `yaml:"stat_coefficient,omitempty"`
	// PerDamage grants this much per point of damage dealt.
	PerDamage float64 `yaml:"per_damage,omitempty"`
}

// AbilityDef is the immutable description of one ability.
type AbilityDef struct {
	ID                  string      `yaml:"id"`
	Label               string      `yaml:"label"`
	Kind                Kind        `yaml:"kind"`
	School              string      `yaml:"school"`
	Cost                Cost        `yaml:"cost"`
	CastTimeSeconds     float64     `yaml:"cast_time_seconds"`
	CooldownSeconds     float64     `yaml:"cooldown_seconds"`
	GCD                 GCDCategory `yaml:"gcd"`
	BaseMin             float64     `yaml:"base_min"`
	BaseMax             float64     `yaml:"base_max"`
	Coefficient         float64     `yaml:"coefficient"`
	CritMultiplier      float64     `yaml:"crit_multiplier"`
	BonusHitPercent     float64     `yaml:"bonus_hit_percent"`
	BonusCritPercent    float64     `yaml:"bonus_crit_percent"`
	ExecuteBelowPercent float64     `yaml:"execute_below_percent"`
	AreaOfEffect        bool        `yaml:"area_of_effect"`
	// Utility abilities always land and deal no damage.
	Utility  bool      `yaml:"utility"`
	Rune     string    `yaml:"rune,omitempty"`
	Hook     string    `yaml:"hook,omitempty"`
	Requires []AuraRef `yaml:"requires,omitempty"`
	Applies  []AuraRef `yaml:"applies,omitempty"`
	OnCrit   []AuraRef `yaml:"on_crit,omitempty"`
	Consumes []AuraRef `yaml:"consumes,omitempty"`
	Gains    []Gain    `yaml:"gains,omitempty"`
	Tags     []string  `yaml:"tags,omitempty"`
}

// CastTime returns the unhasted cast time; zero means instant.
func (d *AbilityDef) CastTime() time.Duration {
	return time.Duration(d.CastTimeSeconds * float64(time.Second))
}

// Cooldown returns the ability's own cooldown.
func (d *AbilityDef) Cooldown() time.Duration {
	return time.Duration(d.CooldownSeconds * float64(time.Second))
}

// CostResource resolves the cost's resource, mana when unset.
func (d *AbilityDef) CostResource() stats.Resource {
	if r, ok := stats.ParseResource(d.Cost.Resource); ok {
		return r
	}
	return stats.Mana
}

// Critical returns the crit damage multiplier.
func (d *AbilityDef) Critical() float64 {
	if d.CritMultiplier > 0 {
		return d.CritMultiplier
	}
	if d.Kind == KindMelee {
		return 2.0
	}
	return 1.5
}

// TagList returns the tags modifiers match against: id, school and declared tags.
func (d *AbilityDef) TagList() []string {
	out := make([]string, 0, len(d.Tags)+2)
	out = append(out, d.ID)
	if d.School != "" {
		out = append(out, d.School)
	}
	return append(out, d.Tags...)
}

// DisplayName returns the label, falling back to the id.
func (d *AbilityDef) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

// Validate checks the definition in isolation.
func (d *AbilityDef) Validate() error {
	var errs []error
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, errors.New("ability id is required"))
	}
	if d.Cost.Resource != "" {
		if _, ok := stats.ParseResource(d.Cost.Resource); !ok {
			errs = append(errs, fmt.Errorf("ability '%s': unknown cost resource '%s'", d.ID, d.Cost.Resource))
		}
	}
	if d.Cost.Amount < 0 || d.Cost.ExtraUpTo < 0 {
		errs = append(errs, fmt.Errorf("ability '%s': cost must be >= 0", d.ID))
	}
	if d.CastTimeSeconds < 0 || d.CooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("ability '%s': cast time and cooldown must be >= 0", d.ID))
	}
	if d.BaseMax < d.BaseMin {
		errs = append(errs, fmt.Errorf("ability '%s': base_max %.1f below base_min %.1f", d.ID, d.BaseMax, d.BaseMin))
	}
	for _, g := range d.Gains {
		if _, ok := stats.ParseResource(g.Resource); !ok {
			errs = append(errs, fmt.Errorf("ability '%s': unknown gain resource '%s'", d.ID, g.Resource))
		}
		if g.Stat != "" {
			if _, ok := stats.ParseStat(g.Stat); !ok {
				errs = append(errs, fmt.Errorf("ability '%s': unknown gain stat '%s'", d.ID, g.Stat))
			}
		}
	}
	for _, group := range [][]AuraRef{d.Requires, d.Applies, d.OnCrit, d.Consumes} {
		for _, ref := range group {
			if ref.On != "self" && ref.On != "target" {
				errs = append(errs, fmt.Errorf("ability '%s': aura '%s' must be on self or target", d.ID, ref.Aura))
			}
		}
	}
	return errors.Join(errs...)
}
