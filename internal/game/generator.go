// internal/game/generator.go
//
// Grid generation: random word placement with collision avoidance.
//
// Algorithm (per word, in input order):
//   1. Pick a random start cell and one of the 8 direction vectors.
//   2. Reject the attempt if the line leaves the grid.
//   3. Reject the attempt if any target cell is already occupied
//      (no overlap, even when the letters agree).
//   4. Otherwise write the letters and record the ordered coordinates.
// A word that cannot be placed within maxPlacementAttempts is left out of
// the grid; it stays a target and is simply unfindable for the round.
// Empty cells are filled with uniformly random letters A–Z at the end.

package game

import "math/rand/v2"

// maxPlacementAttempts bounds the random search for one word.
const maxPlacementAttempts = 100

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Directions lists the 8 unit steps a word may run along.
var Directions = [8]Coord{
	{Row: 1, Col: 0},
	{Row: 0, Col: 1},
	{Row: 1, Col: 1},
	{Row: -1, Col: 1},
	{Row: -1, Col: 0},
	{Row: 0, Col: -1},
	{Row: -1, Col: -1},
	{Row: 1, Col: -1},
}

// Generate builds a size×size grid holding as many of words as fit.
// It returns the grid and, for every placed word, the coordinates of its
// letters in reading order. Unplaced words have no entry in the map.
// A size of zero or less yields an empty grid with nothing placed.
func Generate(words []string, size int, rng *rand.Rand) (Grid, map[string][]Coord) {
	if size < 0 {
		size = 0
	}
	grid := make(Grid, size)
	for i := range grid {
		grid[i] = make([]byte, size)
	}

	placements := make(map[string][]Coord, len(words))
	for _, w := range words {
		if pos, ok := placeWord(grid, w, rng); ok {
			placements[w] = pos
		}
	}

	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] == 0 {
				grid[r][c] = alphabet[rng.IntN(len(alphabet))]
			}
		}
	}
	return grid, placements
}

// placeWord tries up to maxPlacementAttempts random lines for w and writes
// it into the first free one.
func placeWord(grid Grid, w string, rng *rand.Rand) ([]Coord, bool) {
	n := len(grid)
	if len(w) == 0 || n == 0 {
		return nil, false
	}
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		start := Coord{Row: rng.IntN(n), Col: rng.IntN(n)}
		dir := Directions[rng.IntN(len(Directions))]

		pos, ok := lineFor(grid, start, dir, len(w))
		if !ok {
			continue
		}
		for i, c := range pos {
			grid[c.Row][c.Col] = w[i]
		}
		return pos, true
	}
	return nil, false
}

// lineFor returns the length cells starting at start and stepping by dir,
// or false if the line leaves the grid or crosses an occupied cell.
func lineFor(grid Grid, start, dir Coord, length int) ([]Coord, bool) {
	end := Coord{Row: start.Row + dir.Row*(length-1), Col: start.Col + dir.Col*(length-1)}
	if !grid.In(end) {
		return nil, false
	}
	pos := make([]Coord, length)
	c := start
	for i := 0; i < length; i++ {
		if grid.At(c) != 0 {
			return nil, false
		}
		pos[i] = c
		c = c.Add(dir)
	}
	return pos, true
}
