package httpserver

import (
	"context"
	"sync"
	"time"
)

// roundTimers runs at most one ticking goroutine per round. The tick
// callback returns false once the round is no longer running, which ends
// the goroutine; stop ends it early (reset, new round, shutdown).
type roundTimers struct {
	mu       sync.Mutex
	interval time.Duration
	running  map[string]*timerEntry
}

type timerEntry struct {
	cancel context.CancelFunc
}

func newRoundTimers(interval time.Duration) *roundTimers {
	return &roundTimers{interval: interval, running: make(map[string]*timerEntry)}
}

// start launches the timer for roundID unless one is already running.
// It reports whether a new timer was started.
func (t *roundTimers) start(parent context.Context, roundID string, tick func(context.Context) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[roundID]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	e := &timerEntry{cancel: cancel}
	t.running[roundID] = e

	go func() {
		defer t.remove(roundID, e)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !tick(ctx) {
					return
				}
			}
		}
	}()
	return true
}

// stop cancels the timer for roundID, if any.
func (t *roundTimers) stop(roundID string) {
	t.mu.Lock()
	e, ok := t.running[roundID]
	if ok {
		delete(t.running, roundID)
	}
	t.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// active reports whether a timer is running for roundID.
func (t *roundTimers) active(roundID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[roundID]
	return ok
}

func (t *roundTimers) remove(roundID string, e *timerEntry) {
	t.mu.Lock()
	if t.running[roundID] == e {
		delete(t.running, roundID)
	}
	t.mu.Unlock()
	e.cancel()
}
