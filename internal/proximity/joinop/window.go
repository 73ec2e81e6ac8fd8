// Package joinop provides the window join operator: a cursor whose positions
// are the starts of the qualifying windows over a set of sub-cursors. The
// result can be passed anywhere a feature cursor is expected, including
// another join.
package joinop

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/param"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/window"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

// Name is the registry name of the operator.
const Name = "window"

// Operator is a configured window join. One operator can join any number of
// argument sets.
type Operator struct {
	cfg param.Config
}

// New validates cfg. The join has no forward index type.
func New(cfg param.Config) (*Operator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating %s join: %w", Name, err)
	}
	if cfg.ForwardIndexType != "" {
		return nil, fmt.Errorf("creating %s join: type: %w", Name, apperrors.ErrUnknownParameter)
	}
	return &Operator{cfg: cfg}, nil
}

// Config returns the validated configuration.
func (o *Operator) Config() param.Config { return o.cfg }

// Describe lists the parameters the operator accepts.
func (o *Operator) Describe() param.Description {
	return param.Description{
		Text:  "Get the start positions of the windows of a maximum size containing a minimum number of the argument features",
		Items: param.Items(param.JoinOperator),
	}
}

func (o *Operator) String() string {
	return Name + ": " + o.cfg.String()
}

// Join returns a cursor over the windows of subs. The operator takes
// ownership of the sub-cursors.
func (o *Operator) Join(subs []cursor.Cursor) (*Window, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("%s join without arguments: %w", Name, apperrors.ErrInvalidInput)
	}
	card := o.cfg.MinCardinality
	if card == 0 {
		card = len(subs)
	}
	if card > len(subs) {
		return nil, fmt.Errorf("%s join: cardinality %d with %d arguments: %w",
			Name, card, len(subs), apperrors.ErrInvalidParameter)
	}
	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.FeatureID()
	}
	return &Window{
		subs:        subs,
		maxSize:     o.cfg.MaxWindowSize,
		cardinality: card,
		id:          Name + "(" + strings.Join(ids, ",") + ")",
	}, nil
}

// Window is the cursor returned by Join.
type Window struct {
	subs        []cursor.Cursor
	maxSize     int
	cardinality int
	id          string

	docNo   int
	posNo   int
	matches []cursor.Cursor
}

// SkipDoc returns the smallest document >= docNo in which enough
// sub-cursors match and at least one window qualifies.
func (w *Window) SkipDoc(docNo int) int {
	w.posNo = cursor.None
	for {
		doc, matches := cursor.SkipDocAtLeast(w.subs, docNo, w.cardinality)
		if doc == cursor.None {
			w.docNo, w.matches = cursor.None, nil
			return cursor.None
		}
		if window.New(matches, w.maxSize, w.cardinality, 0).First() {
			w.docNo, w.matches = doc, matches
			return doc
		}
		docNo = doc + 1
	}
}

// SkipDocCandidate only checks that enough sub-cursors report a candidate.
// Positions are not available until SkipDoc confirms the document.
func (w *Window) SkipDocCandidate(docNo int) int {
	w.posNo = cursor.None
	w.matches = nil
	w.docNo = cursor.SkipDocCandidateAtLeast(w.subs, docNo, w.cardinality)
	return w.docNo
}

// SkipPos returns the first qualifying window start >= pos in the document
// confirmed by the last SkipDoc.
func (w *Window) SkipPos(pos int) int {
	if w.matches == nil {
		w.posNo = cursor.None
		return cursor.None
	}
	e := window.New(w.matches, w.maxSize, w.cardinality, pos)
	if e.First() {
		w.posNo = e.Start()
	} else {
		w.posNo = cursor.None
	}
	return w.posNo
}

func (w *Window) DocNo() int { return w.docNo }
func (w *Window) PosNo() int { return w.posNo }

// Frequency counts the distinct window starts in the current document.
// Starts come out of one enumeration in non-decreasing order.
func (w *Window) Frequency() int {
	if w.matches == nil {
		return 0
	}
	n, last := 0, cursor.None
	e := window.New(w.matches, w.maxSize, w.cardinality, 1)
	for more := e.First(); more; more = e.Next() {
		if start := e.Start(); start != last {
			n++
			last = start
		}
	}
	return n
}

// DocumentFrequency is an estimate. A join over all arguments cannot match
// more documents than its rarest argument; with a lower cardinality the most
// frequent argument is used.
func (w *Window) DocumentFrequency() int {
	if w.cardinality < len(w.subs) {
		df := 0
		for _, s := range w.subs {
			df = max(df, s.DocumentFrequency())
		}
		return df
	}
	df := -1
	for _, s := range w.subs {
		if d := s.DocumentFrequency(); df < 0 || d < df {
			df = d
		}
	}
	return max(df, 0)
}

func (w *Window) FeatureID() string { return w.id }

func (w *Window) String() string {
	return fmt.Sprintf("%s[maxwinsize=%d, cardinality=%d]", w.id, w.maxSize, w.cardinality)
}
