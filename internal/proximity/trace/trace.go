// Package trace counts the lookups issued against feature cursors.
package trace

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
)

const (
	MethodSkipDoc          = "skipdoc"
	MethodSkipDocCandidate = "skipdoccandidate"
	MethodSkipPos          = "skippos"
)

// Cursor forwards every call to the wrapped cursor and counts the skip
// calls in a counter vector labelled by method.
type Cursor struct {
	cursor.Cursor
	skipDoc          prometheus.Counter
	skipDocCandidate prometheus.Counter
	skipPos          prometheus.Counter
}

func Wrap(c cursor.Cursor, calls *prometheus.CounterVec) *Cursor {
	return &Cursor{
		Cursor:           c,
		skipDoc:          calls.WithLabelValues(MethodSkipDoc),
		skipDocCandidate: calls.WithLabelValues(MethodSkipDocCandidate),
		skipPos:          calls.WithLabelValues(MethodSkipPos),
	}
}

// WrapAll wraps each cursor of cs in place and returns the slice.
func WrapAll(cs []cursor.Cursor, calls *prometheus.CounterVec) []cursor.Cursor {
	for i, c := range cs {
		cs[i] = Wrap(c, calls)
	}
	return cs
}

func (c *Cursor) SkipDoc(docNo int) int {
	c.skipDoc.Inc()
	return c.Cursor.SkipDoc(docNo)
}

func (c *Cursor) SkipDocCandidate(docNo int) int {
	c.skipDocCandidate.Inc()
	return c.Cursor.SkipDocCandidate(docNo)
}

func (c *Cursor) SkipPos(pos int) int {
	c.skipPos.Inc()
	return c.Cursor.SkipPos(pos)
}
