package effects

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wowsim-core/internal/event"
)

// Policy decides what happens when an active aura is applied again.
type Policy int

const (
	// PolicyRefresh resets the duration and adds a stack.
	PolicyRefresh Policy = iota
	// PolicyExtend adds the full duration to the remaining time.
	PolicyExtend
	// PolicyIgnore leaves the existing instance untouched.
	PolicyIgnore
)

func (p Policy) String() string {
	switch p {
	case PolicyRefresh:
		return "refresh"
	case PolicyExtend:
		return "extend"
	case PolicyIgnore:
		return "ignore"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "", "refresh":
		*p = PolicyRefresh
	case "extend":
		*p = PolicyExtend
	case "ignore":
		*p = PolicyIgnore
	default:
		return fmt.Errorf("line %d: unknown reapply policy '%s'", node.Line, node.Value)
	}
	return nil
}

// Periodic describes a payload delivered on a fixed cadence while the aura is up.
type Periodic struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	BaseDamage      float64 `yaml:"base_damage"`
	Coefficient     float64 `yaml:"coefficient"`
	CanCrit         bool    `yaml:"can_crit"`
	Resource        string  `yaml:"resource,omitempty"`
	ResourceAmount  float64 `yaml:"resource_amount,omitempty"`
	// Ability is resolved against the primary target on every tick.
	Ability string `yaml:"ability,omitempty"`
}

// Interval returns the tick cadence.
func (p *Periodic) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds * float64(time.Second))
}

// AuraDef is the immutable description of a buff or debuff.
type AuraDef struct {
	ID                 string     `yaml:"id"`
	Label              string     `yaml:"label"`
	DurationSeconds    float64    `yaml:"duration_seconds"`
	MaxDurationSeconds float64    `yaml:"max_duration_seconds,omitempty"`
	MaxStacks          int        `yaml:"max_stacks"`
	InitialStacks      int        `yaml:"initial_stacks"`
	Policy             Policy     `yaml:"policy"`
	Periodic           *Periodic  `yaml:"periodic,omitempty"`
	Modifiers          []Modifier `yaml:"modifiers,omitempty"`
	Tags               []string   `yaml:"tags,omitempty"`
	// OnExpire names an aura applied to the same holder when this one ends.
	OnExpire string `yaml:"on_expire,omitempty"`
}

// Duration returns the base duration; zero means permanent.
func (d *AuraDef) Duration() time.Duration {
	return time.Duration(d.DurationSeconds * float64(time.Second))
}

func (d *AuraDef) maxDuration() time.Duration {
	return time.Duration(d.MaxDurationSeconds * float64(time.Second))
}

func (d *AuraDef) maxStacks() int {
	if d.MaxStacks <= 0 {
		return 1
	}
	return d.MaxStacks
}

func (d *AuraDef) initialStacks() int {
	n := d.InitialStacks
	if n <= 0 {
		n = 1
	}
	if max := d.maxStacks(); n > max {
		n = max
	}
	return n
}

// TotalTicks returns how many periodic ticks a full-duration application delivers.
func (d *AuraDef) TotalTicks() int {
	if d.Periodic == nil || d.Periodic.IntervalSeconds <= 0 || d.DurationSeconds <= 0 {
		return 0
	}
	return int(d.Duration() / d.Periodic.Interval())
}

// DisplayName returns the label, falling back to the id.
func (d *AuraDef) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

// Validate checks the definition in isolation.
func (d *AuraDef) Validate() error {
	var errs []error
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, errors.New("aura id is required"))
	}
	if d.DurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("aura '%s': duration must be >= 0", d.ID))
	}
	if d.MaxStacks < 0 || d.InitialStacks < 0 {
		errs = append(errs, fmt.Errorf("aura '%s': stacks must be >= 0", d.ID))
	}
	if d.Periodic != nil && d.Periodic.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("aura '%s': periodic interval must be > 0", d.ID))
	}
	if d.OnExpire == d.ID && d.ID != "" {
		errs = append(errs, fmt.Errorf("aura '%s': on_expire cannot reference itself", d.ID))
	}
	return errors.Join(errs...)
}

// Snapshot captures caster values at application time for periodic payloads.
type Snapshot struct {
	TickDamage     float64
	CritChance     float64
	CritMultiplier float64
	Power          float64
}

// Aura is a live instance of an AuraDef on one holder.
type Aura struct {
	Def      *AuraDef
	Source   string
	Snapshot Snapshot

	stacks    int
	active    bool
	appliedAt time.Duration
	expiresAt time.Duration
	ticks     int

	expiry *event.Event
	tick   *event.Event
}

// ID returns the definition id.
func (a *Aura) ID() string { return a.Def.ID }

// Active reports whether the aura is currently active (ignores expiration checks).
func (a *Aura) Active() bool {
	return a != nil && a.active
}

// ActiveAt reports whether the aura is active and not expired at now.
func (a *Aura) ActiveAt(now time.Duration) bool {
	if a == nil || !a.active {
		return false
	}
	if a.expiresAt == 0 {
		return true
	}
	return now < a.expiresAt
}

// Stacks returns the current stack count.
func (a *Aura) Stacks() int {
	if a == nil {
		return 0
	}
	return a.stacks
}

// ExpiresAt returns the expiry timestamp; zero for permanent auras.
func (a *Aura) ExpiresAt() time.Duration {
	if a == nil {
		return 0
	}
	return a.expiresAt
}

// Remaining returns the remaining duration if active, zero otherwise.
func (a *Aura) Remaining(now time.Duration) time.Duration {
	if !a.ActiveAt(now) || a.expiresAt == 0 {
		return 0
	}
	return a.expiresAt - now
}

// Ticks returns how many periodic ticks this application has delivered.
func (a *Aura) Ticks() int {
	if a == nil {
		return 0
	}
	return a.ticks
}

// TicksRemaining returns the ticks still due before expiry.
func (a *Aura) TicksRemaining(now time.Duration) int {
	if a == nil || a.Def.Periodic == nil || !a.ActiveAt(now) || a.expiresAt == 0 {
		return 0
	}
	interval := a.Def.Periodic.Interval()
	next := a.tick.At()
	if !a.tick.Pending() {
		return 0
	}
	return int((a.expiresAt-next)/interval) + 1
}
