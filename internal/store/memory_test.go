package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/wordsearch/internal/game"
)

func TestUpdateUnknownRound(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), "missing", func(*game.Round) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := game.NewRound([]string{"APPLE"}, 10)
	if err := s.Save(ctx, r, time.Time{}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	want := errors.New("boom")
	if err := s.Update(ctx, r.ID, func(*game.Round) error { return want }); !errors.Is(err, want) {
		t.Fatalf("Update err = %v, want fn error", err)
	}

	var seen string
	_ = s.Update(ctx, r.ID, func(got *game.Round) error {
		seen = got.ID
		return nil
	})
	if seen != r.ID {
		t.Fatalf("Update saw round %q, want %q", seen, r.ID)
	}

	_ = s.Delete(ctx, r.ID)
	if s.Len() != 0 {
		t.Fatalf("Len after delete = %d", s.Len())
	}
}

func TestUpdateCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	r := game.NewRound([]string{"APPLE"}, 10)
	_ = s.Save(context.Background(), r, time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Update(ctx, r.ID, func(*game.Round) error { called = true; return nil })
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("err = %v called = %v, want canceled and not called", err, called)
	}
}

func TestUpdateSerializesPerRound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := game.NewRound([]string{"APPLE"}, 10)
	_ = s.Save(ctx, r, time.Time{})

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, r.ID, func(*game.Round) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

func TestSweepDropsExpiredRounds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	old := game.NewRound([]string{"APPLE"}, 10)
	live := game.NewRound([]string{"APPLE"}, 10)
	forever := game.NewRound([]string{"APPLE"}, 10)
	_ = s.Save(ctx, old, now.Add(-time.Second))
	_ = s.Save(ctx, live, now.Add(time.Hour))
	_ = s.Save(ctx, forever, time.Time{})

	gone := s.Sweep(ctx, now)
	if len(gone) != 1 || gone[0] != old.ID {
		t.Fatalf("Sweep = %v, want [%s]", gone, old.ID)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	err := s.Update(ctx, old.ID, func(*game.Round) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update on swept round = %v, want ErrNotFound", err)
	}

	// re-saving extends the expiry
	_ = s.Save(ctx, live, now.Add(2*time.Hour))
	if gone := s.Sweep(ctx, now.Add(90*time.Minute)); len(gone) != 0 {
		t.Fatalf("Sweep after re-save = %v, want none", gone)
	}
}
