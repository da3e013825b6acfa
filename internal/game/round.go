// internal/game/round.go
//
// Round state for a single word search play-through.
// Responsibilities:
//   - Own the grid, placements, selection, found words, timings and phase.
//   - Drive the selection gesture (begin → extend* → end).
//   - Apply the side effects of a match: record the find and its timing,
//     start the round on the first find, complete it on the last.
//
// State transitions:
//   not_started → running   (Start, or the first valid match)
//   running     → complete  (every target word found)
//   any         → not_started (Reset)
//
// A Round is not safe for concurrent use; callers serialize access
// (see internal/store).

package game

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Round holds the state of one word search round.
type Round struct {
	ID string

	words      []string
	size       int
	grid       Grid
	placements map[string][]Coord

	phase       Phase
	found       []string
	foundSet    map[string]struct{}
	timings     []time.Duration
	startedAt   time.Time
	lastFindAt  time.Time
	completedAt time.Time

	selecting bool
	selection []Coord
	step      Coord // fixed by the first extension in straight-line mode

	straight bool
	now      func() time.Time
	rng      *rand.Rand
}

// Option configures a Round.
type Option func(*Round)

// WithClock replaces time.Now as the round's time source.
func WithClock(now func() time.Time) Option { return func(r *Round) { r.now = now } }

// WithRand sets the random source used for grid generation.
func WithRand(rng *rand.Rand) Option { return func(r *Round) { r.rng = rng } }

// WithStraightLines restricts selections to a single straight line with a
// constant one-cell step.
func WithStraightLines(on bool) Option { return func(r *Round) { r.straight = on } }

// NewRound generates a fresh grid for words and returns a round that has
// not started yet.
func NewRound(words []string, size int, opts ...Option) *Round {
	r := &Round{
		ID:    uuid.NewString(),
		words: append([]string(nil), words...),
		size:  size,
		now:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r.Reset()
	return r
}

// Reset discards the grid and all progress and generates a new grid.
func (r *Round) Reset() {
	r.grid, r.placements = Generate(r.words, r.size, r.rng)
	r.phase = PhaseNotStarted
	r.found = nil
	r.foundSet = make(map[string]struct{}, len(r.words))
	r.timings = nil
	r.startedAt, r.lastFindAt, r.completedAt = time.Time{}, time.Time{}, time.Time{}
	r.clearSelection()
}

// ResetWith swaps the random source and then resets, so a round can be
// regenerated from a known seed.
func (r *Round) ResetWith(rng *rand.Rand) {
	r.rng = rng
	r.Reset()
}

// Start moves a not-started round to running. It is a no-op otherwise.
func (r *Round) Start() {
	if r.phase != PhaseNotStarted {
		return
	}
	r.phase = PhaseRunning
	r.startedAt = r.now()
	r.lastFindAt = r.startedAt
}

// BeginSelection starts a drag gesture at c, dropping any selection in progress.
func (r *Round) BeginSelection(c Coord) error {
	if r.phase == PhaseComplete {
		return ErrRoundComplete
	}
	if !r.grid.In(c) {
		return ErrOutOfBounds
	}
	r.selecting = true
	r.selection = []Coord{c}
	r.step = Coord{}
	return nil
}

// ExtendSelection appends c to the gesture in progress. It reports whether
// the cell was taken; cells are ignored when no gesture is active, when c
// repeats the last cell, or when straight-line mode rejects it.
func (r *Round) ExtendSelection(c Coord) (bool, error) {
	if !r.selecting {
		return false, nil
	}
	if !r.grid.In(c) {
		return false, ErrOutOfBounds
	}
	last := r.selection[len(r.selection)-1]
	if c == last {
		return false, nil
	}
	if r.straight {
		if len(r.selection) == 1 {
			d := Coord{Row: sign(c.Row - last.Row), Col: sign(c.Col - last.Col)}
			if last.Add(d) != c {
				return false, nil
			}
			r.step = d
		} else if last.Add(r.step) != c {
			return false, nil
		}
	}
	r.selection = append(r.selection, c)
	return true, nil
}

// EndSelection closes the gesture and validates it. The selection is
// cleared whatever the result.
func (r *Round) EndSelection() Outcome {
	if !r.selecting {
		return Outcome{}
	}
	sel := r.selection
	r.clearSelection()

	letters, _ := lettersAt(r.grid, sel)
	out := Outcome{Letters: letters}
	// Outstanding words first: a word and its reversal can share a drag.
	word, ok := Validate(r.grid, sel, r.remaining())
	if !ok {
		if word, ok = Validate(r.grid, sel, r.words); ok {
			out.Word, out.AlreadyFound = word, true
		}
		return out
	}
	out.Word = word

	r.Start()
	now := r.now()
	r.timings = append(r.timings, now.Sub(r.lastFindAt))
	r.lastFindAt = now
	r.found = append(r.found, word)
	r.foundSet[word] = struct{}{}
	out.Matched = true

	if len(r.found) == len(r.words) {
		r.phase = PhaseComplete
		r.completedAt = now
		s := r.summary()
		out.Complete, out.Summary = true, &s
	}
	return out
}

// Summary returns the round statistics once the round is complete.
func (r *Round) Summary() (Summary, bool) {
	if r.phase != PhaseComplete {
		return Summary{}, false
	}
	return r.summary(), true
}

func (r *Round) summary() Summary {
	s := Summary{Words: len(r.found), Total: r.completedAt.Sub(r.startedAt)}
	if len(r.timings) > 0 {
		var sum time.Duration
		for _, t := range r.timings {
			sum += t
		}
		s.Average = sum / time.Duration(len(r.timings))
	}
	return s
}

// Elapsed returns the time since the round started, frozen at completion.
func (r *Round) Elapsed() time.Duration {
	switch r.phase {
	case PhaseRunning:
		return r.now().Sub(r.startedAt)
	case PhaseComplete:
		return r.completedAt.Sub(r.startedAt)
	}
	return 0
}

// remaining lists the target words not found yet, in list order.
func (r *Round) remaining() []string {
	out := make([]string, 0, len(r.words)-len(r.found))
	for _, w := range r.words {
		if _, ok := r.foundSet[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func (r *Round) clearSelection() {
	r.selecting = false
	r.selection = nil
	r.step = Coord{}
}

// ---------------------------------- queries ---------------------------------

func (r *Round) Phase() Phase { return r.phase }
func (r *Round) Size() int { return r.size }
func (r *Round) Grid() Grid { return r.grid }
func (r *Round) Words() []string { return append([]string(nil), r.words...) }
func (r *Round) Found() []string { return append([]string(nil), r.found...) }
func (r *Round) Selecting() bool { return r.selecting }
func (r *Round) Selection() []Coord { return append([]Coord(nil), r.selection...) }

// Timings returns the per-word find deltas in find order.
func (r *Round) Timings() []time.Duration { return append([]time.Duration(nil), r.timings...) }

// IsFound reports whether w has been found this round.
func (r *Round) IsFound(w string) bool {
	_, ok := r.foundSet[w]
	return ok
}

// Placement returns the coordinates of w, if it was placed.
func (r *Round) Placement(w string) ([]Coord, bool) {
	pos, ok := r.placements[w]
	return append([]Coord(nil), pos...), ok
}

// FoundPlacements maps each found word to its cells, for highlighting.
func (r *Round) FoundPlacements() map[string][]Coord {
	out := make(map[string][]Coord, len(r.found))
	for _, w := range r.found {
		out[w] = append([]Coord(nil), r.placements[w]...)
	}
	return out
}

// Unplaced lists target words the generator could not fit into the grid.
func (r *Round) Unplaced() []string {
	var out []string
	for _, w := range r.words {
		if _, ok := r.placements[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
