package config

import (
	"errors"
	"fmt"
	"strings"

	"wowsim-core/internal/stats"
)

// Validate checks the bundle in isolation. Name references into the
// specialization tables are checked when the simulator is set up.
func (b *Bundle) Validate() error {
	var errs []error
	if err := b.Player.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := b.Constants.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := b.Encounter.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := b.Simulation.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Player) validate() error {
	var errs []error
	if strings.TrimSpace(p.Spec) == "" {
		errs = append(errs, errors.New("player: spec is required"))
	}
	if _, err := stats.FromMap(p.Stats); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if len(p.Resources) == 0 {
		errs = append(errs, errors.New("player: at least one resource is required"))
	}
	for name, rc := range p.Resources {
		if _, ok := stats.ParseResource(name); !ok {
			errs = append(errs, fmt.Errorf("player: unknown resource '%s'", name))
			continue
		}
		if rc.Max <= 0 {
			errs = append(errs, fmt.Errorf("player: resource '%s' max must be > 0", name))
		}
		if rc.RegenAmount < 0 || rc.RegenIntervalSeconds < 0 {
			errs = append(errs, fmt.Errorf("player: resource '%s' regen must be >= 0", name))
		}
	}
	return errors.Join(errs...)
}

func (c *Constants) validate() error {
	if c.GCD.Base < 0 || c.GCD.Minimum < 0 || c.GCD.Physical < 0 {
		return errors.New("constants: gcd values must be >= 0")
	}
	if c.GCD.Minimum > c.GCD.Base {
		return fmt.Errorf("constants: gcd minimum %.2f exceeds base %.2f", c.GCD.Minimum, c.GCD.Base)
	}
	return nil
}

func (s *Simulation) validate() error {
	if s.Iterations <= 0 {
		return fmt.Errorf("simulation: iterations must be > 0, got %d", s.Iterations)
	}
	if s.Workers < 0 {
		return fmt.Errorf("simulation: workers must be >= 0, got %d", s.Workers)
	}
	return nil
}

// ResourceConfigs converts the player's resource map into pool configuration.
func (p *Player) ResourceConfigs() (map[stats.Resource]stats.ResourceConfig, error) {
	out := make(map[stats.Resource]stats.ResourceConfig, len(p.Resources))
	for name, rc := range p.Resources {
		r, ok := stats.ParseResource(name)
		if !ok {
			return nil, fmt.Errorf("unknown resource '%s'", name)
		}
		out[r] = rc
	}
	return out, nil
}
