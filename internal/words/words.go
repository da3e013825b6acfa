// internal/words/words.go
//
// Target word list management.
//
// Responsibilities:
//   - Load the target list from WORDS_FILE or fall back to the embedded default.
//   - Normalize entries: trim, uppercase, keep only A–Z words of 2+ letters.
//   - Drop duplicates while keeping the file order (order decides which
//     word wins when a selection could match more than one).
//
// Environment variables:
//   WORDS_FILE=/path/to/words.txt   one word per line, '#' starts a comment
//
// Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/wordsearch/assets"
)

// ErrEmpty is returned when no usable word survives normalization.
var ErrEmpty = errors.New("words: list is empty")

var (
	initOnce   sync.Once
	targets    []string
	initialErr error
)

// Init loads the target list exactly once.
func Init() error {
	initOnce.Do(func() {
		var list []string
		var err error
		if path := os.Getenv("WORDS_FILE"); path != "" {
			list, err = Load(path)
		} else {
			var raw []string
			raw, err = assets.WordList()
			list = Normalize(raw)
		}
		if err != nil {
			initialErr = err
			return
		}
		if len(list) == 0 {
			initialErr = ErrEmpty
			return
		}
		targets = list
	})
	return initialErr
}

// Load reads and normalizes a word file.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads one word per line from r, skipping blanks and '#' comments.
func Parse(r io.Reader) ([]string, error) {
	var raw []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}

// Normalize uppercases, filters and de-duplicates a raw list.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		w := strings.ToUpper(strings.TrimSpace(s))
		if len(w) < 2 || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// List returns a copy of the loaded target words in file order.
func List() []string {
	return append([]string(nil), targets...)
}

// Stats returns the number of loaded words and the longest word length.
func Stats() (count int, longest int) {
	for _, w := range targets {
		if len(w) > longest {
			longest = len(w)
		}
	}
	return len(targets), longest
}
