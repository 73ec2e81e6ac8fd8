package cursor

import "sort"

// Slice is an in-memory cursor whose positions are the same in every
// document. It is used to feed hand-written streams into window components.
// It never runs out of documents, so scans over it must be bounded by the
// caller.
type Slice struct {
	id        string
	positions []int
	docNo     int
	posNo     int
}

// NewSlice returns a cursor over the given positions. Positions must be
// positive; they are sorted and deduplicated.
func NewSlice(id string, positions ...int) *Slice {
	return &Slice{id: id, positions: normalize(positions)}
}

func (s *Slice) SkipDoc(docNo int) int {
	s.posNo = None
	if docNo < 1 {
		docNo = 1
	}
	s.docNo = docNo
	return docNo
}

func (s *Slice) SkipDocCandidate(docNo int) int {
	return s.SkipDoc(docNo)
}

func (s *Slice) SkipPos(pos int) int {
	s.posNo = seek(s.positions, pos)
	return s.posNo
}

func (s *Slice) DocNo() int             { return s.docNo }
func (s *Slice) PosNo() int             { return s.posNo }
func (s *Slice) Frequency() int         { return len(s.positions) }
func (s *Slice) DocumentFrequency() int { return 0 }
func (s *Slice) FeatureID() string      { return s.id }

// Docs is an in-memory cursor over a fixed set of documents.
type Docs struct {
	id    string
	docs  []int
	pos   map[int][]int
	docNo int
	posNo int
}

// NewDocs returns a cursor over positions keyed by document number.
// Documents without positions are ignored.
func NewDocs(id string, docs map[int][]int) *Docs {
	d := &Docs{id: id, pos: make(map[int][]int, len(docs))}
	for docNo, positions := range docs {
		if docNo < 1 || len(positions) == 0 {
			continue
		}
		d.docs = append(d.docs, docNo)
		d.pos[docNo] = normalize(positions)
	}
	sort.Ints(d.docs)
	return d
}

func (d *Docs) SkipDoc(docNo int) int {
	d.posNo = None
	i := sort.SearchInts(d.docs, docNo)
	if i == len(d.docs) {
		d.docNo = None
		return None
	}
	d.docNo = d.docs[i]
	return d.docNo
}

func (d *Docs) SkipDocCandidate(docNo int) int {
	return d.SkipDoc(docNo)
}

func (d *Docs) SkipPos(pos int) int {
	if d.docNo == None {
		return None
	}
	d.posNo = seek(d.pos[d.docNo], pos)
	return d.posNo
}

func (d *Docs) DocNo() int { return d.docNo }
func (d *Docs) PosNo() int { return d.posNo }

func (d *Docs) Frequency() int {
	if d.docNo == None {
		return 0
	}
	return len(d.pos[d.docNo])
}

func (d *Docs) DocumentFrequency() int { return len(d.docs) }
func (d *Docs) FeatureID() string      { return d.id }

// Tokens is an in-memory forward cursor over a single document.
type Tokens struct {
	tokens    map[int]string
	positions []int
	docNo     int
	posNo     int
}

// NewTokens returns a forward cursor serving the given position to token map
// for every document.
func NewTokens(tokens map[int]string) *Tokens {
	positions := make([]int, 0, len(tokens))
	for pos := range tokens {
		positions = append(positions, pos)
	}
	return &Tokens{tokens: tokens, positions: normalize(positions)}
}

func (t *Tokens) SkipDoc(docNo int) int {
	t.posNo = None
	if docNo < 1 {
		docNo = 1
	}
	t.docNo = docNo
	return docNo
}

func (t *Tokens) SkipPos(pos int) int {
	t.posNo = seek(t.positions, pos)
	return t.posNo
}

func (t *Tokens) Fetch() string {
	return t.tokens[t.posNo]
}

func seek(positions []int, pos int) int {
	i := sort.SearchInts(positions, pos)
	if i == len(positions) {
		return None
	}
	return positions[i]
}

func normalize(positions []int) []int {
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if p > 0 {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	n := 0
	for i, p := range out {
		if i == 0 || p != out[n-1] {
			out[n] = p
			n++
		}
	}
	return out[:n]
}
