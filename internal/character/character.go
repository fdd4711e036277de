package character

import (
	"time"

	"wowsim-core/internal/effects"
	"wowsim-core/internal/runes"
	"wowsim-core/internal/stats"
)

// Character represents the simulated player for one iteration.
type Character struct {
	Name      string
	BaseStats stats.Stats
	Pool      *stats.Pool
	Auras     *effects.Tracker
	Cooldowns *effects.Cooldowns
	Runes     *runes.Set

	GCD effects.Timer

	// Combat state
	IsCasting  bool
	CastEndsAt time.Duration
}

// New creates a character with fresh cooldowns.
func New(name string, base stats.Stats, pool *stats.Pool, auras *effects.Tracker, equipped *runes.Set) *Character {
	return &Character{
		Name:      name,
		BaseStats: base,
		Pool:      pool,
		Auras:     auras,
		Cooldowns: effects.NewCooldowns(),
		Runes:     equipped,
	}
}

// Stats returns base stats plus every active aura's stat bonus.
func (c *Character) Stats() stats.Stats {
	return c.BaseStats.Add(c.Auras.StatBonus())
}

// IsGCDReady checks if the GCD is ready.
func (c *Character) IsGCDReady(now time.Duration) bool {
	return c.GCD.Ready(now)
}

// ResourcePercent returns current/max for r as a fraction.
func (c *Character) ResourcePercent(r stats.Resource) float64 {
	return c.Pool.Percent(r)
}

// StartCast marks the character busy until end.
func (c *Character) StartCast(end time.Duration) {
	c.IsCasting = true
	c.CastEndsAt = end
}

// FinishCast clears the casting flag.
func (c *Character) FinishCast() {
	c.IsCasting = false
	c.CastEndsAt = 0
}
