// internal/game/types.go
//
// Core type definitions for the word search engine.
// Defines:
//   - Coord: a (row, col) cell address.
//   - Grid: the N×N letter matrix.
//   - Phase: coarse round state (not_started/running/complete).
//   - Outcome / Summary: results handed back to the presentation layer.

package game

import (
	"errors"
	"strings"
	"time"
)

// Coord addresses a single grid cell. Rows and columns are zero-based.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns c shifted by d.
func (c Coord) Add(d Coord) Coord { return Coord{Row: c.Row + d.Row, Col: c.Col + d.Col} }

// Grid is a square matrix of single uppercase letters, indexed [row][col].
type Grid [][]byte

// Size returns the side length of the grid.
func (g Grid) Size() int { return len(g) }

// In reports whether c lies inside the grid.
func (g Grid) In(c Coord) bool {
	return c.Row >= 0 && c.Row < len(g) && c.Col >= 0 && c.Col < len(g)
}

// At returns the letter at c. Callers must check In first.
func (g Grid) At(c Coord) byte { return g[c.Row][c.Col] }

// Rows renders the grid as one string per row, the shape the JSON API uses.
func (g Grid) Rows() []string {
	out := make([]string, len(g))
	for i, row := range g {
		out[i] = string(row)
	}
	return out
}

// String renders the grid with one row per line.
func (g Grid) String() string { return strings.Join(g.Rows(), "\n") }

// Phase is the round-level state.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhaseComplete   Phase = "complete"
)

// Summary is reported once every target word has been found.
type Summary struct {
	Words   int           // number of words found
	Total   time.Duration // round start to last find
	Average time.Duration // arithmetic mean of the per-word timings
}

// Outcome is the result of ending a selection gesture.
type Outcome struct {
	Letters      string   // letters under the selection, in selection order
	Word         string   // matched target word, empty if none
	Matched      bool     // true only for a newly found word
	AlreadyFound bool     // selection spelled a word found earlier this round
	Complete     bool     // this find completed the round
	Summary      *Summary // set when Complete
}

var (
	ErrOutOfBounds   = errors.New("coordinate outside grid")
	ErrRoundComplete = errors.New("round complete")
)
