package game

// Validate reads the letters under selection, in order, and reports the
// first word (in list order) that equals them read forward or backward.
// The shape of the selection is not checked here; straight-line drags are
// enforced while the selection is being built. Selections touching a cell
// outside the grid never match.
func Validate(grid Grid, selection []Coord, words []string) (string, bool) {
	letters, ok := lettersAt(grid, selection)
	if !ok || letters == "" {
		return "", false
	}
	for _, w := range words {
		if matches(letters, w) {
			return w, true
		}
	}
	return "", false
}

// matches reports whether letters spells w in either direction.
func matches(letters, w string) bool {
	if len(letters) != len(w) {
		return false
	}
	if letters == w {
		return true
	}
	n := len(w)
	for i := 0; i < n; i++ {
		if letters[i] != w[n-1-i] {
			return false
		}
	}
	return true
}

func lettersAt(grid Grid, selection []Coord) (string, bool) {
	b := make([]byte, 0, len(selection))
	for _, c := range selection {
		if !grid.In(c) {
			return "", false
		}
		b = append(b, grid.At(c))
	}
	return string(b), true
}
