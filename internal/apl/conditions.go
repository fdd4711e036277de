package apl

import (
	"math"
	"time"
)

// EvaluationContext is the read-only view of simulation state a condition sees.
type EvaluationContext interface {
	BuffActive(name string) bool
	BuffRemaining(name string) time.Duration
	BuffCharges(name string) int
	DebuffActive(name string) bool
	DebuffRemaining(name string) time.Duration
	ResourcePercent(resource string) float64
	ResourceAmount(resource string) float64
	CooldownReady(name string) bool
	CooldownRemaining(name string) time.Duration
	TargetHealthPercent() float64
	// TargetHealthRate is the change in TargetHealthPercent per second
	// when nothing else happens; non-zero only for clock-driven targets.
	TargetHealthRate() float64
	TimeElapsed() time.Duration
	TimeRemaining() time.Duration
	CanCast(name string) bool
}

// Condition evaluates to true/false for a given context.
type Condition interface {
	Eval(ctx EvaluationContext) bool
}

// Waker is implemented by conditions whose result can change with the
// passage of time alone. NextChange returns the delay until the earliest
// such change.
type Waker interface {
	NextChange(ctx EvaluationContext) (time.Duration, bool)
}

// NextChange reports when cond may next flip without any other state
// change. Conditions that only change on events report false.
func NextChange(cond Condition, ctx EvaluationContext) (time.Duration, bool) {
	if w, ok := cond.(Waker); ok && ctx != nil {
		return w.NextChange(ctx)
	}
	return 0, false
}

// earliest keeps the smallest positive delay seen.
type earliest struct {
	d  time.Duration
	ok bool
}

func (e *earliest) add(d time.Duration, ok bool) {
	if ok && d > 0 && (!e.ok || d < e.d) {
		e.d, e.ok = d, true
	}
}

func (e *earliest) children(ctx EvaluationContext, conds []Condition) (time.Duration, bool) {
	for _, c := range conds {
		e.add(NextChange(c, ctx))
	}
	return e.d, e.ok
}

// crossing is the delay until a reading at v, moving by rate per
// nanosecond, reaches x. Strict bounds flip one nanosecond after equality.
func crossing(x, v, rate float64, strict bool) (time.Duration, bool) {
	if rate == 0 {
		return 0, false
	}
	d := (x - v) / rate
	if d < 0 || math.IsInf(d, 0) || math.IsNaN(d) {
		return 0, false
	}
	if strict || d == 0 {
		return time.Duration(math.Floor(d)) + 1, true
	}
	return time.Duration(math.Ceil(d)), true
}

type trueCondition struct{}

func (trueCondition) Eval(EvaluationContext) bool { return true }

type falseCondition struct{}

func (falseCondition) Eval(EvaluationContext) bool { return false }

// anyCondition is logical OR.
type anyCondition struct {
	children []Condition
}

func (c anyCondition) Eval(ctx EvaluationContext) bool {
	for _, child := range c.children {
		if child.Eval(ctx) {
			return true
		}
	}
	return false
}

func (c anyCondition) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	var e earliest
	return e.children(ctx, c.children)
}

// allCondition is logical AND.
type allCondition struct {
	children []Condition
}

func (c allCondition) Eval(ctx EvaluationContext) bool {
	for _, child := range c.children {
		if !child.Eval(ctx) {
			return false
		}
	}
	return true
}

func (c allCondition) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	var e earliest
	return e.children(ctx, c.children)
}

type notCondition struct {
	child Condition
}

func (c notCondition) Eval(ctx EvaluationContext) bool {
	if c.child == nil {
		return true
	}
	return !c.child.Eval(ctx)
}

func (c notCondition) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	return NextChange(c.child, ctx)
}

// number is what a metric reading may be.
type number interface {
	~int | ~int64 | ~float64
}

// bounds holds optional lt/lte/gt/gte comparators. Unset bounds always pass.
type bounds[T number] struct {
	lt, lte, gt, gte *T
}

func (b bounds[T]) match(v T) bool {
	if b.lt != nil && !(v < *b.lt) {
		return false
	}
	if b.lte != nil && !(v <= *b.lte) {
		return false
	}
	if b.gt != nil && !(v > *b.gt) {
		return false
	}
	if b.gte != nil && !(v >= *b.gte) {
		return false
	}
	return true
}

func (b bounds[T]) empty() bool {
	return b.lt == nil && b.lte == nil && b.gt == nil && b.gte == nil
}

// next returns the earliest delay until v, drifting by rate per
// nanosecond, passes one of the bounds.
func (b bounds[T]) next(v T, rate float64) (time.Duration, bool) {
	var e earliest
	for _, x := range [...]*T{b.lt, b.gt} {
		if x != nil {
			e.add(crossing(float64(*x), float64(v), rate, true))
		}
	}
	for _, x := range [...]*T{b.lte, b.gte} {
		if x != nil {
			e.add(crossing(float64(*x), float64(v), rate, false))
		}
	}
	return e.d, e.ok
}

// metricCondition compares one numeric reading against its bounds. rate,
// when set, is how fast the reading drifts per nanosecond on its own.
type metricCondition[T number] struct {
	read func(ctx EvaluationContext) T
	rate func(ctx EvaluationContext, v T) float64
	bounds[T]
}

func (c metricCondition[T]) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return c.match(c.read(ctx))
}

func (c metricCondition[T]) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	if c.rate == nil {
		return 0, false
	}
	v := c.read(ctx)
	return c.next(v, c.rate(ctx, v))
}

// elapsing drifts up with the clock.
func elapsing(EvaluationContext, time.Duration) float64 { return 1 }

// countingDown drifts down with the clock until it reaches zero.
func countingDown(_ EvaluationContext, v time.Duration) float64 {
	if v <= 0 {
		return 0
	}
	return -1
}

func healthDrift(ctx EvaluationContext, _ float64) float64 {
	return ctx.TargetHealthRate() / float64(time.Second)
}

// auraCondition checks a buff (self) or debuff (target) with an optional
// remaining-time window.
type auraCondition struct {
	name         string
	onTarget     bool
	minRemaining *time.Duration
	maxRemaining *time.Duration
}

func (c auraCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	var remaining time.Duration
	if c.onTarget {
		if !ctx.DebuffActive(c.name) {
			return false
		}
		remaining = ctx.DebuffRemaining(c.name)
	} else {
		if !ctx.BuffActive(c.name) {
			return false
		}
		remaining = ctx.BuffRemaining(c.name)
	}
	if c.minRemaining != nil && remaining < *c.minRemaining {
		return false
	}
	if c.maxRemaining != nil && remaining > *c.maxRemaining {
		return false
	}
	return true
}

func (c auraCondition) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	var remaining time.Duration
	if c.onTarget {
		remaining = ctx.DebuffRemaining(c.name)
	} else {
		remaining = ctx.BuffRemaining(c.name)
	}
	if remaining <= 0 {
		return 0, false
	}
	var e earliest
	if c.minRemaining != nil {
		e.add(crossing(float64(*c.minRemaining), float64(remaining), -1, true))
	}
	if c.maxRemaining != nil {
		e.add(crossing(float64(*c.maxRemaining), float64(remaining), -1, false))
	}
	return e.d, e.ok
}

type cooldownReadyCondition struct {
	name string
}

func (c cooldownReadyCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return ctx.CooldownReady(c.name)
}

func (c cooldownReadyCondition) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	rem := ctx.CooldownRemaining(c.name)
	return rem, rem > 0
}

type canCastCondition struct {
	name string
}

func (c canCastCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return ctx.CanCast(c.name)
}

func (c canCastCondition) NextChange(ctx EvaluationContext) (time.Duration, bool) {
	rem := ctx.CooldownRemaining(c.name)
	return rem, rem > 0
}
