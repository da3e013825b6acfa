// internal/store/memory.go
//
// In-memory round store.
// Live rounds exist only in process memory; they are lost on restart.
//
// Characteristics:
//   - Rounds are keyed by Round.ID.
//   - Each round has its own mutex. Every read or mutation goes through
//     Update, so events for one round run strictly one after another while
//     different rounds proceed in parallel.
//   - The map itself is guarded by an RWMutex.
//   - Each round carries the expiry of its token; Sweep drops rounds past
//     it, since no request can reach them any more.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/wordsearch/internal/game"
)

// ErrNotFound is returned for unknown round IDs.
var ErrNotFound = errors.New("round not found")

// Store defines the round registry used by the HTTP layer.
type Store interface {
	// Save adds or replaces a round that lives until expiresAt.
	// A zero expiresAt never expires.
	Save(ctx context.Context, r *game.Round, expiresAt time.Time) error

	// Update runs fn with exclusive access to the round.
	// Returns ErrNotFound if the round is unknown, otherwise fn's error.
	Update(ctx context.Context, id string, fn func(*game.Round) error) error

	// Delete drops a round. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep drops every round whose expiry is before now and returns
	// their IDs.
	Sweep(ctx context.Context, now time.Time) []string

	// Len reports the number of live rounds.
	Len() int
}

type entry struct {
	mu        sync.Mutex
	round     *game.Round
	expiresAt time.Time // guarded by memory.mu
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex      // guards rounds map
	rounds map[string]*entry // keyed by Round.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*entry)}
}

func (m *memory) Save(ctx context.Context, r *game.Round, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.rounds[r.ID]; ok {
		e.mu.Lock()
		e.round = r
		e.mu.Unlock()
		e.expiresAt = expiresAt
		return nil
	}
	m.rounds[r.ID] = &entry{round: r, expiresAt: expiresAt}
	return nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Round) error) error {
	m.mu.RLock()
	e, ok := m.rounds[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.round)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var gone []string
	for id, e := range m.rounds {
		if !e.expiresAt.IsZero() && e.expiresAt.Before(now) {
			delete(m.rounds, id)
			gone = append(gone, id)
		}
	}
	return gone
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rounds)
}
