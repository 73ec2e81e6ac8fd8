// Package window enumerates the minimal position windows that bring together
// occurrences of at least a given number of features in one document.
//
// A Window borrows the cursors it is given; they must already be positioned
// on the document to examine. Successive successful calls to First and Next
// report windows with non-decreasing start positions. A window start may
// repeat when several features share the smallest position.
package window

import (
	"slices"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
)

// Window holds one current position per cursor and the active cursors
// ordered by (position, registration index).
type Window struct {
	args        []cursor.Cursor
	pos         []int
	exhausted   *bitset.BitSet
	order       []int
	maxSize     int
	cardinality int
	start       int
	size        int
}

// New primes every cursor with its first position >= floor. A cardinality
// of 0 requires all cursors. Windows larger than maxSize are skipped.
func New(args []cursor.Cursor, maxSize int, cardinality int, floor int) *Window {
	if cardinality == 0 {
		cardinality = len(args)
	}
	w := &Window{
		args:        args,
		pos:         make([]int, len(args)),
		exhausted:   bitset.New(uint(len(args))),
		order:       make([]int, 0, len(args)),
		maxSize:     maxSize,
		cardinality: cardinality,
	}
	for slot, c := range args {
		p := c.SkipPos(floor)
		w.pos[slot] = p
		if p == cursor.None {
			w.exhausted.Set(uint(slot))
			continue
		}
		w.insert(slot)
	}
	return w
}

// First reports whether a window exists at or after the floor position.
func (w *Window) First() bool {
	return w.scan()
}

// Next reports whether another window exists after the current one.
func (w *Window) Next() bool {
	if !w.covered() {
		return false
	}
	w.step()
	return w.scan()
}

// Start returns the lowest position of the current window.
func (w *Window) Start() int {
	return w.start
}

// Size returns the distance between the highest and the lowest position of
// the current window.
func (w *Window) Size() int {
	return w.size
}

// Cardinality returns the number of features a window has to contain.
func (w *Window) Cardinality() int {
	return w.cardinality
}

// Remaining returns the number of cursors that still have positions.
func (w *Window) Remaining() int {
	return len(w.args) - int(w.exhausted.Count())
}

func (w *Window) covered() bool {
	return w.cardinality > 0 && w.Remaining() >= w.cardinality
}

// scan moves forward until the candidate window fits into maxSize or the
// cursors cannot cover the cardinality anymore.
func (w *Window) scan() bool {
	for w.covered() {
		start := w.pos[w.order[0]]
		size := w.pos[w.order[w.cardinality-1]] - start
		if size <= w.maxSize {
			w.start, w.size = start, size
			return true
		}
		w.step()
	}
	return false
}

// step advances the cursor holding the smallest position.
func (w *Window) step() {
	slot := w.order[0]
	w.order = append(w.order[:0], w.order[1:]...)
	p := w.args[slot].SkipPos(w.pos[slot] + 1)
	w.pos[slot] = p
	if p == cursor.None {
		w.exhausted.Set(uint(slot))
		return
	}
	w.insert(slot)
}

func (w *Window) insert(slot int) {
	i := sort.Search(len(w.order), func(i int) bool {
		other := w.order[i]
		if w.pos[other] != w.pos[slot] {
			return w.pos[other] > w.pos[slot]
		}
		return other > slot
	})
	w.order = slices.Insert(w.order, i, slot)
}
