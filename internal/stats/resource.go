package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Resource names a spendable pool.
type Resource int

const (
	Mana Resource = iota
	Rage
	Energy
	Health

	NumResources
)

var resourceNames = [NumResources]string{
	Mana:   "mana",
	Rage:   "rage",
	Energy: "energy",
	Health: "health",
}

func (r Resource) String() string {
	if r < 0 || r >= NumResources {
		return fmt.Sprintf("resource(%d)", int(r))
	}
	return resourceNames[r]
}

// ParseResource resolves a resource name.
func ParseResource(name string) (Resource, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range resourceNames {
		if candidate == n {
			return Resource(i), true
		}
	}
	return 0, false
}

// ErrInsufficientResource is returned when a spend would drive a pool negative.
var ErrInsufficientResource = errors.New("insufficient resource")

const epsilon = 1e-9

// ResourceConfig describes one pool as configured for a character.
type ResourceConfig struct {
	Max                  float64  `yaml:"max"`
	Start                *float64 `yaml:"start,omitempty"`
	RegenAmount          float64  `yaml:"regen_amount"`
	RegenIntervalSeconds float64  `yaml:"regen_interval_seconds"`
}

// RegenInterval returns the regeneration cadence, zero when regen is off.
func (c ResourceConfig) RegenInterval() time.Duration {
	if c.RegenAmount <= 0 || c.RegenIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RegenIntervalSeconds * float64(time.Second))
}

// Pool tracks current and maximum values for every resource.
type Pool struct {
	current [NumResources]float64
	max     [NumResources]float64
}

// NewPool builds a pool from configuration. Start defaults to Max.
func NewPool(cfg map[Resource]ResourceConfig) *Pool {
	p := &Pool{}
	for r, c := range cfg {
		p.max[r] = c.Max
		p.current[r] = c.Max
		if c.Start != nil {
			p.current[r] = clamp(*c.Start, 0, c.Max)
		}
	}
	return p
}

func (p *Pool) Current(r Resource) float64 { return p.current[r] }
func (p *Pool) Max(r Resource) float64     { return p.max[r] }

// Percent returns current/max as a fraction, zero for an unconfigured pool.
func (p *Pool) Percent(r Resource) float64 {
	if p.max[r] <= 0 {
		return 0
	}
	return p.current[r] / p.max[r]
}

// Has reports whether amount can be spent from r.
func (p *Pool) Has(r Resource, amount float64) bool {
	return p.current[r]+epsilon >= amount
}

// Spend removes amount from r. The pool is never driven below zero.
func (p *Pool) Spend(r Resource, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("spend %s: negative amount %.2f", r, amount)
	}
	if !p.Has(r, amount) {
		return fmt.Errorf("spend %.2f %s with %.2f available: %w", amount, r, p.current[r], ErrInsufficientResource)
	}
	p.current[r] = clamp(p.current[r]-amount, 0, p.max[r])
	return nil
}

// SpendUpTo removes at most amount from r and returns what was taken.
func (p *Pool) SpendUpTo(r Resource, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	taken := amount
	if taken > p.current[r] {
		taken = p.current[r]
	}
	p.current[r] -= taken
	return taken
}

// Gain adds amount to r, capped at max, and returns the amount gained.
func (p *Pool) Gain(r Resource, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := p.current[r]
	p.current[r] = clamp(before+amount, 0, p.max[r])
	return p.current[r] - before
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
