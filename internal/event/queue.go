// Package event implements the simulation clock and its pending-event queue.
package event

import (
	"container/heap"
	"errors"
	"fmt"
	"time"
)

// Category orders events that share a timestamp. Lower ranks dispatch first.
type Category int

const (
	CastComplete Category = iota
	Periodic
	AuraExpire
	Resource
	Encounter
	Cooldown
	Rotation
)

var categoryNames = [...]string{
	CastComplete: "cast_complete",
	Periodic:     "periodic",
	AuraExpire:   "aura_expire",
	Resource:     "resource",
	Encounter:    "encounter",
	Cooldown:     "cooldown",
	Rotation:     "rotation",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

var (
	// ErrPastEvent reports an attempt to schedule before the current time.
	ErrPastEvent = errors.New("event scheduled in the past")
	// ErrNonMonotonic reports a dispatch that would move the clock backwards.
	ErrNonMonotonic = errors.New("non-monotonic dispatch")
)

// Handler runs when an event fires. now equals the event's timestamp.
type Handler func(now time.Duration)

// Event is a handle to a scheduled callback.
type Event struct {
	at        time.Duration
	category  Category
	seq       uint64
	handler   Handler
	index     int
	cancelled bool
	fired     bool
}

// Cancel prevents the event from firing. Safe on nil and already-fired events.
func (e *Event) Cancel() {
	if e == nil {
		return
	}
	e.cancelled = true
	e.handler = nil
}

// At returns the scheduled timestamp.
func (e *Event) At() time.Duration {
	if e == nil {
		return 0
	}
	return e.at
}

// Pending reports whether the event will still fire.
func (e *Event) Pending() bool {
	return e != nil && !e.cancelled && !e.fired
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.at != b.at {
		return a.at < b.at
	}
	if a.category != b.category {
		return a.category < b.category
	}
	return a.seq < b.seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*Event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*h = old[:n-1]
	return ev
}

// Queue owns the simulation clock. It is not safe for concurrent use.
type Queue struct {
	events     eventHeap
	seq        uint64
	now        time.Duration
	dispatched int
	err        error
}

// NewQueue returns an empty queue with the clock at zero.
func NewQueue() *Queue {
	return &Queue{}
}

// Now returns the timestamp of the most recently dispatched event.
func (q *Queue) Now() time.Duration { return q.now }

// Dispatched returns how many events have fired.
func (q *Queue) Dispatched() int { return q.dispatched }

// Err returns the first invariant violation recorded by the queue.
func (q *Queue) Err() error { return q.err }

// Schedule enqueues h at an absolute timestamp. Scheduling in the past records
// ErrPastEvent and returns nil.
func (q *Queue) Schedule(at time.Duration, category Category, h Handler) *Event {
	if h == nil {
		return nil
	}
	if at < q.now {
		q.record(fmt.Errorf("%w: %s at %v, clock %v", ErrPastEvent, category, at, q.now))
		return nil
	}
	q.seq++
	ev := &Event{at: at, category: category, seq: q.seq, handler: h}
	heap.Push(&q.events, ev)
	return ev
}

// After enqueues h relative to the current clock.
func (q *Queue) After(delay time.Duration, category Category, h Handler) *Event {
	return q.Schedule(q.now+delay, category, h)
}

// Peek returns the timestamp of the next live event.
func (q *Queue) Peek() (time.Duration, bool) {
	q.cleanFront()
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].at, true
}

// Advance pops the next live event, moves the clock to it and runs its
// handler. It returns false once the queue is drained.
func (q *Queue) Advance() (bool, error) {
	if q.err != nil {
		return false, q.err
	}
	q.cleanFront()
	if len(q.events) == 0 {
		return false, nil
	}
	ev := heap.Pop(&q.events).(*Event)
	if ev.at < q.now {
		q.record(fmt.Errorf("%w: %s at %v after %v", ErrNonMonotonic, ev.category, ev.at, q.now))
		return false, q.err
	}
	q.now = ev.at
	q.dispatched++
	h := ev.handler
	ev.handler = nil
	ev.fired = true
	h(ev.at)
	return true, q.err
}

// Len returns the number of queued entries, cancelled ones included.
func (q *Queue) Len() int { return len(q.events) }

func (q *Queue) cleanFront() {
	for len(q.events) > 0 && q.events[0].cancelled {
		heap.Pop(&q.events)
	}
}

func (q *Queue) record(err error) {
	if q.err == nil {
		q.err = err
	}
}
