// Package encounter models the targets of a fight and their scripted behavior.
package encounter

import (
	"errors"
	"fmt"
	"time"
)

// Defenses are the target-side entries of the outcome table, in percent.
type Defenses struct {
	MissPercent     float64 `yaml:"miss_percent"`
	DodgePercent    float64 `yaml:"dodge_percent"`
	ResistPercent   float64 `yaml:"resist_percent"`
	ResistFraction  float64 `yaml:"resist_fraction"`
	ArmorMitigation float64 `yaml:"armor_mitigation"`
}

// Phase is a scripted transition. It triggers at a time, below a health
// threshold, or on whichever comes first when both are set.
type Phase struct {
	Name               string  `yaml:"name"`
	AtSeconds          float64 `yaml:"at_seconds"`
	BelowHealthPercent float64 `yaml:"below_health_percent"`
	DamageTaken        float64 `yaml:"damage_taken_multiplier"`
	ApplyAura          string  `yaml:"apply_aura,omitempty"`
}

// Drain periodically removes a resource from the player.
type Drain struct {
	Name            string  `yaml:"name"`
	IntervalSeconds float64 `yaml:"interval_seconds"`
	Resource        string  `yaml:"resource"`
	Amount          float64 `yaml:"amount"`
}

// TargetConfig describes one enemy. Health zero means unlimited.
type TargetConfig struct {
	Name     string   `yaml:"name"`
	Level    int      `yaml:"level"`
	Health   float64  `yaml:"health"`
	Defenses Defenses `yaml:"defenses"`
	Phases   []Phase  `yaml:"phases,omitempty"`
	Drains   []Drain  `yaml:"drains,omitempty"`
}

// Config is the fight definition.
type Config struct {
	DurationSeconds          float64        `yaml:"duration_seconds"`
	DurationVariationSeconds float64        `yaml:"duration_variation_seconds"`
	ScriptTickSeconds        float64        `yaml:"script_tick_seconds"`
	Targets                  []TargetConfig `yaml:"targets"`
}

// Duration returns the nominal fight length.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationSeconds * float64(time.Second))
}

// Variation returns the maximum random deviation from Duration.
func (c *Config) Variation() time.Duration {
	return time.Duration(c.DurationVariationSeconds * float64(time.Second))
}

// ScriptTick returns the cadence of phase and drain checks.
func (c *Config) ScriptTick() time.Duration {
	if c.ScriptTickSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.ScriptTickSeconds * float64(time.Second))
}

// Validate checks the fight definition.
func (c *Config) Validate() error {
	var errs []error
	if c.DurationSeconds <= 0 {
		errs = append(errs, errors.New("encounter: duration_seconds must be > 0"))
	}
	if c.DurationVariationSeconds < 0 || c.DurationVariationSeconds >= c.DurationSeconds && c.DurationSeconds > 0 {
		errs = append(errs, errors.New("encounter: duration_variation_seconds must be in [0, duration)"))
	}
	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("encounter: at least one target is required"))
	}
	for i, t := range c.Targets {
		if t.Health < 0 {
			errs = append(errs, fmt.Errorf("encounter: target %d health must be >= 0", i))
		}
		d := t.Defenses
		if !percent(d.MissPercent) || !percent(d.DodgePercent) || !percent(d.ResistPercent) {
			errs = append(errs, fmt.Errorf("encounter: target %d defense percentages must be in [0,100]", i))
		}
		if d.ResistFraction < 0 || d.ResistFraction > 1 || d.ArmorMitigation < 0 || d.ArmorMitigation >= 1 {
			errs = append(errs, fmt.Errorf("encounter: target %d resist_fraction/armor_mitigation out of range", i))
		}
		for _, dr := range t.Drains {
			if dr.IntervalSeconds <= 0 {
				errs = append(errs, fmt.Errorf("encounter: target %d drain '%s' interval must be > 0", i, dr.Name))
			}
		}
	}
	return errors.Join(errs...)
}

func percent(v float64) bool { return v >= 0 && v <= 100 }
