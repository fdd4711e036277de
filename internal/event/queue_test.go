package event

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func drain(t *testing.T, q *Queue) {
	t.Helper()
	for {
		ok, err := q.Advance()
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if !ok {
			return
		}
	}
}

func TestQueueOrdersByTimeCategoryAndInsertion(t *testing.T) {
	q := NewQueue()
	var got []string
	add := func(at time.Duration, c Category, name string) {
		q.Schedule(at, c, func(time.Duration) { got = append(got, name) })
	}
	add(2*time.Second, Rotation, "rot@2")
	add(time.Second, Rotation, "rot@1")
	add(time.Second, CastComplete, "cast@1")
	add(time.Second, AuraExpire, "expire@1")
	add(time.Second, Periodic, "tick@1a")
	add(time.Second, Periodic, "tick@1b")

	drain(t, q)
	want := []string{"cast@1", "tick@1a", "tick@1b", "expire@1", "rot@1", "rot@2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, got, want)
		}
	}
}

func TestQueueClockIsMonotonic(t *testing.T) {
	q := NewQueue()
	rng := rand.New(rand.NewSource(7))
	var seen []time.Duration
	var spawn func(now time.Duration)
	spawn = func(now time.Duration) {
		seen = append(seen, now)
		if len(seen) < 500 {
			delay := time.Duration(rng.Intn(5)) * time.Millisecond
			q.After(delay, Category(rng.Intn(7)), spawn)
		}
	}
	for i := 0; i < 20; i++ {
		q.Schedule(time.Duration(rng.Intn(100))*time.Millisecond, Category(rng.Intn(7)), spawn)
	}
	drain(t, q)
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("clock went backwards at %d: %v -> %v", i, seen[i-1], seen[i])
		}
	}
	if q.Dispatched() != len(seen) {
		t.Errorf("Dispatched = %d, want %d", q.Dispatched(), len(seen))
	}
}

func TestCancelledEventNeverFires(t *testing.T) {
	q := NewQueue()
	fired := false
	ev := q.Schedule(time.Second, Cooldown, func(time.Duration) { fired = true })
	if !ev.Pending() {
		t.Fatal("new event should be pending")
	}
	ev.Cancel()
	ev.Cancel()
	if at, ok := q.Peek(); ok {
		t.Fatalf("Peek returned cancelled event at %v", at)
	}
	drain(t, q)
	if fired {
		t.Error("cancelled event fired")
	}
	var nilEvent *Event
	nilEvent.Cancel()
}

func TestSchedulingInThePastIsRecorded(t *testing.T) {
	q := NewQueue()
	q.Schedule(time.Second, Rotation, func(now time.Duration) {
		if ev := q.Schedule(now-time.Millisecond, Rotation, func(time.Duration) {}); ev != nil {
			t.Error("expected nil event for past timestamp")
		}
	})
	_, err := q.Advance()
	if !errors.Is(err, ErrPastEvent) {
		t.Fatalf("expected ErrPastEvent, got %v", err)
	}
	if !errors.Is(q.Err(), ErrPastEvent) {
		t.Errorf("Err() = %v", q.Err())
	}
	if ok, _ := q.Advance(); ok {
		t.Error("queue should refuse to advance after an invariant error")
	}
}

func TestEventPendingAfterFire(t *testing.T) {
	q := NewQueue()
	ev := q.Schedule(0, CastComplete, func(time.Duration) {})
	drain(t, q)
	if ev.Pending() {
		t.Error("fired event still pending")
	}
	if q.Now() != 0 {
		t.Errorf("Now = %v", q.Now())
	}
}
