package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are batch parameters taken from the environment.
type Overrides struct {
	Iterations *int     `env:"SIM_ITERATIONS"`
	Workers    *int     `env:"SIM_WORKERS"`
	Seed       *int64   `env:"SIM_SEED"`
	Duration   *float64 `env:"SIM_DURATION"`
	Label      string   `env:"SIM_LABEL"`
}

// ApplyEnv overlays SIM_* variables onto b. A nil environ reads the
// process environment.
func ApplyEnv(b *Bundle, environ map[string]string) error {
	var o Overrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	o.Apply(b)
	return b.Validate()
}

// Apply copies every set override onto b.
func (o Overrides) Apply(b *Bundle) {
	if o.Iterations != nil {
		b.Simulation.Iterations = *o.Iterations
	}
	if o.Workers != nil {
		b.Simulation.Workers = *o.Workers
	}
	if o.Seed != nil {
		b.Simulation.Seed = *o.Seed
	}
	if o.Duration != nil {
		b.Encounter.DurationSeconds = *o.Duration
	}
	if o.Label != "" {
		b.Simulation.Label = o.Label
	}
}
