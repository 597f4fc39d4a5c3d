// Package words supplies secret words that do not repeat until the whole pool
// has been used.
package words

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/wfunc/impostor/logger"
)

var defaultWords = []string{
	"Apple", "Banana", "Orange", "Grape", "Strawberry",
	"Dog", "Cat", "Bird", "Fish", "Rabbit",
	"Car", "Bicycle", "Airplane", "Train", "Boat",
	"House", "Tree", "Mountain", "Ocean", "River",
	"Book", "Computer", "Phone", "Camera", "Guitar",
	"Pizza", "Hamburger", "Ice Cream", "Cake", "Cookie",
	"Sun", "Moon", "Star", "Cloud", "Rainbow",
	"Doctor", "Teacher", "Chef", "Artist", "Musician",
	"Football", "Basketball", "Tennis", "Swimming", "Running",
}

// DefaultWords returns a copy of the built-in list.
func DefaultWords() []string {
	out := make([]string, len(defaultWords))
	copy(out, defaultWords)
	return out
}

// Bank is not safe for concurrent use; it lives on the session loop.
type Bank struct {
	pool []string
	seen map[string]struct{}
	used map[string]struct{}
}

func NewBank() *Bank {
	return &Bank{
		seen: make(map[string]struct{}),
		used: make(map[string]struct{}),
	}
}

// GetRandomWord draws uniformly among the words not used since the last cycle
// and marks the result used.
func (b *Bank) GetRandomWord() string {
	if len(b.pool) == 0 {
		b.AddWords(defaultWords)
	}
	if len(b.used) >= len(b.pool) {
		logger.Log.Debugf("word pool exhausted after %d words, starting a new cycle", len(b.used))
		b.ResetUsed()
	}

	available := make([]string, 0, len(b.pool)-len(b.used))
	for _, w := range b.pool {
		if _, ok := b.used[w]; !ok {
			available = append(available, w)
		}
	}

	word := available[rand.IntN(len(available))]
	b.used[word] = struct{}{}
	return word
}

// AddWord appends w unless it is blank or already in the pool.
func (b *Bank) AddWord(w string) bool {
	w = strings.TrimSpace(w)
	if w == "" {
		return false
	}
	if _, ok := b.seen[w]; ok {
		return false
	}
	b.seen[w] = struct{}{}
	b.pool = append(b.pool, w)
	return true
}

func (b *Bank) AddWords(ws []string) int {
	n := 0
	for _, w := range ws {
		if b.AddWord(w) {
			n++
		}
	}
	return n
}

// LoadFile adds one word per line from path. Blank lines are skipped.
func (b *Bank) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if b.AddWord(sc.Text()) {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read word list %s: %w", path, err)
	}
	logger.Log.Infof("loaded %d words from %s", n, path)
	return n, nil
}

// MarkUsed excludes w from draws until the next cycle. Unknown words are ignored.
func (b *Bank) MarkUsed(w string) {
	if _, ok := b.seen[w]; ok {
		b.used[w] = struct{}{}
	}
}

func (b *Bank) ResetUsed() {
	clear(b.used)
}

func (b *Bank) Len() int {
	return len(b.pool)
}

func (b *Bank) UsedCount() int {
	return len(b.used)
}
