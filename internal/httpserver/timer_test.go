package httpserver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestTimerStartsOncePerRound(t *testing.T) {
	rt := newRoundTimers(5 * time.Millisecond)
	var ticks atomic.Int32
	tick := func(context.Context) bool { ticks.Add(1); return true }

	if !rt.start(context.Background(), "r1", tick) {
		t.Fatal("first start should launch a timer")
	}
	if rt.start(context.Background(), "r1", tick) {
		t.Fatal("second start for the same round should be a no-op")
	}
	waitFor(t, func() bool { return ticks.Load() >= 2 })

	rt.stop("r1")
	if rt.active("r1") {
		t.Fatal("timer still active after stop")
	}
	rt.stop("r1") // stopping twice is fine
}

func TestTimerEndsWhenTickReturnsFalse(t *testing.T) {
	rt := newRoundTimers(5 * time.Millisecond)
	rt.start(context.Background(), "r1", func(context.Context) bool { return false })
	waitFor(t, func() bool { return !rt.active("r1") })

	if !rt.start(context.Background(), "r1", func(context.Context) bool { return false }) {
		t.Fatal("a finished timer should allow a new one")
	}
}

func TestTimerStopsWithParent(t *testing.T) {
	rt := newRoundTimers(5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	rt.start(ctx, "r1", func(context.Context) bool { return true })
	cancel()
	waitFor(t, func() bool { return !rt.active("r1") })
}
