package window

import "github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"

// Match describes the smallest window found in a document.
type Match struct {
	Start   int
	Size    int
	Windows int
}

// Tightest enumerates every window of the document the cursors are
// positioned on and returns the first window of minimal size. Windows
// counts all windows examined. ok is false when no window exists.
func Tightest(args []cursor.Cursor, maxSize int, cardinality int) (m Match, ok bool) {
	w := New(args, maxSize, cardinality, 0)
	for more := w.First(); more; more = w.Next() {
		m.Windows++
		if !ok || w.Size() < m.Size {
			m.Start, m.Size = w.Start(), w.Size()
			ok = true
		}
	}
	return m, ok
}
