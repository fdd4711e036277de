package effects

import "time"

// Timer tracks a ready-at timestamp for the GCD and ability cooldowns.
type Timer struct {
	readyAt time.Duration
}

// Ready returns true if the timer is ready at the provided time.
func (t *Timer) Ready(now time.Duration) bool {
	return t == nil || now >= t.readyAt
}

// Remaining returns the remaining duration until the timer is ready.
func (t *Timer) Remaining(now time.Duration) time.Duration {
	if t.Ready(now) {
		return 0
	}
	return t.readyAt - now
}

// Reset sets the timer to become ready after d.
func (t *Timer) Reset(now, d time.Duration) {
	t.readyAt = now + d
}

// ReadyAt returns the current ready timestamp.
func (t *Timer) ReadyAt() time.Duration {
	if t == nil {
		return 0
	}
	return t.readyAt
}

// Cooldowns holds one timer per ability id.
type Cooldowns struct {
	timers map[string]*Timer
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{timers: make(map[string]*Timer)}
}

// Ready reports whether id is off cooldown.
func (c *Cooldowns) Ready(id string, now time.Duration) bool {
	return c.timers[id].Ready(now)
}

// Remaining returns the time until id is ready.
func (c *Cooldowns) Remaining(id string, now time.Duration) time.Duration {
	return c.timers[id].Remaining(now)
}

// ReadyAt returns when id becomes ready, zero when it has never been used.
func (c *Cooldowns) ReadyAt(id string) time.Duration {
	return c.timers[id].ReadyAt()
}

// Start puts id on cooldown for d.
func (c *Cooldowns) Start(id string, now, d time.Duration) {
	t, ok := c.timers[id]
	if !ok {
		t = &Timer{}
		c.timers[id] = t
	}
	t.Reset(now, d)
}
