package index

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

// Cursor walks the posting list of one term. Documents can be visited in
// any order; positions are looked up within the current document.
type Cursor struct {
	term     string
	postings PostingList
	cur      int
	docNo    int
	posNo    int
}

func NewCursor(term string, postings PostingList) *Cursor {
	return &Cursor{term: term, postings: postings, cur: -1}
}

func (c *Cursor) SkipDoc(docNo int) int {
	c.posNo = cursor.None
	i := c.postings.Seek(docNo)
	if i == len(c.postings) {
		c.cur, c.docNo = -1, cursor.None
		return cursor.None
	}
	c.cur, c.docNo = i, c.postings[i].DocNo
	return c.docNo
}

// SkipDocCandidate is exact for stored postings.
func (c *Cursor) SkipDocCandidate(docNo int) int {
	return c.SkipDoc(docNo)
}

func (c *Cursor) SkipPos(pos int) int {
	if c.cur < 0 {
		return cursor.None
	}
	positions := c.postings[c.cur].Positions
	lo := sort.SearchInts(positions, pos)
	if lo == len(positions) {
		c.posNo = cursor.None
	} else {
		c.posNo = positions[lo]
	}
	return c.posNo
}

func (c *Cursor) DocNo() int { return c.docNo }
func (c *Cursor) PosNo() int { return c.posNo }

func (c *Cursor) Frequency() int {
	if c.cur < 0 {
		return 0
	}
	return c.postings[c.cur].Frequency
}

func (c *Cursor) DocumentFrequency() int { return len(c.postings) }
func (c *Cursor) FeatureID() string      { return c.term }

// Forward index types.
const (
	ForwardOrig = "orig"
	ForwardStem = "stem"
)

// DocLookup returns the forward record of a document.
type DocLookup func(docNo int) (DocEntry, bool)

// ForwardCursor serves the stored tokens of documents. Orig returns the
// words as written, stem the index terms.
type ForwardCursor struct {
	indexType string
	lookup    DocLookup
	docNo     int
	tokens    []forwardToken
	cur       int
}

type forwardToken struct {
	pos  int
	text string
}

func NewForwardCursor(indexType string, lookup DocLookup) (*ForwardCursor, error) {
	switch indexType {
	case ForwardOrig, ForwardStem:
	default:
		return nil, fmt.Errorf("forward index type %q: %w", indexType, apperrors.ErrInvalidParameter)
	}
	return &ForwardCursor{indexType: indexType, lookup: lookup, cur: -1}, nil
}

// SkipDoc selects docNo when it is stored. Forward lookups are exact.
func (f *ForwardCursor) SkipDoc(docNo int) int {
	f.cur = -1
	d, ok := f.lookup(docNo)
	if !ok {
		f.docNo, f.tokens = cursor.None, nil
		return cursor.None
	}
	f.docNo = docNo
	f.tokens = f.tokens[:0]
	for _, t := range d.Tokens {
		text := t.Surface
		if f.indexType == ForwardStem {
			text = t.Term
		}
		f.tokens = append(f.tokens, forwardToken{pos: t.Position, text: text})
	}
	return docNo
}

func (f *ForwardCursor) SkipPos(pos int) int {
	i := sort.Search(len(f.tokens), func(i int) bool {
		return f.tokens[i].pos >= pos
	})
	if i == len(f.tokens) {
		f.cur = -1
		return cursor.None
	}
	f.cur = i
	return f.tokens[i].pos
}

func (f *ForwardCursor) Fetch() string {
	if f.cur < 0 {
		return ""
	}
	return f.tokens[f.cur].text
}
