// Package cursor defines the position stream capability shared by every
// proximity component. Document numbers and positions start at 1; the value
// None (0) means "no match" or "exhausted".
package cursor

// None is returned by a lookup that found nothing.
const None = 0

// Cursor is a forward lookup over the occurrences of one query feature.
// SkipPos is scoped to the document last selected with SkipDoc or
// SkipDocCandidate.
type Cursor interface {
	// SkipDoc returns the smallest document >= docNo containing the feature.
	SkipDoc(docNo int) int
	// SkipDocCandidate is a cheaper variant of SkipDoc that may return
	// documents that do not contain the feature.
	SkipDocCandidate(docNo int) int
	// SkipPos returns the smallest occurrence >= pos in the current document.
	SkipPos(pos int) int
	DocNo() int
	PosNo() int
	// Frequency returns the number of occurrences in the current document.
	Frequency() int
	// DocumentFrequency returns the number of documents with the feature.
	// Derived cursors may return an estimate.
	DocumentFrequency() int
	FeatureID() string
}

// ForwardCursor walks the tokens stored for a document.
type ForwardCursor interface {
	SkipDoc(docNo int) int
	SkipPos(pos int) int
	// Fetch returns the token at the position last resolved by SkipPos.
	Fetch() string
}

// Matching returns the cursors that contain docNo, in registration order.
func Matching(cursors []Cursor, docNo int) []Cursor {
	matches := make([]Cursor, 0, len(cursors))
	for _, c := range cursors {
		if c.SkipDoc(docNo) == docNo {
			matches = append(matches, c)
		}
	}
	return matches
}

// SkipDocCandidateAtLeast returns the smallest document >= docNo for which
// at least k of the cursors report a candidate. Documents before it cannot
// be matched by k cursors.
func SkipDocCandidateAtLeast(cursors []Cursor, docNo int, k int) int {
	return candidateAtLeast(cursors, docNo, k, make([]int, len(cursors)))
}

// SkipDocAtLeast returns the smallest document >= docNo that at least k of
// the cursors contain, together with those cursors in registration order.
// A candidate pass narrows the range before SkipDoc confirms a document.
func SkipDocAtLeast(cursors []Cursor, docNo int, k int) (int, []Cursor) {
	candidates := make([]int, len(cursors))
	for {
		docNo = candidateAtLeast(cursors, docNo, k, candidates)
		if docNo == None {
			return None, nil
		}
		matches := make([]Cursor, 0, len(cursors))
		for i, c := range cursors {
			if candidates[i] == docNo && c.SkipDoc(docNo) == docNo {
				matches = append(matches, c)
			}
		}
		if len(matches) >= k {
			return docNo, matches
		}
		docNo++
	}
}

// candidateAtLeast leaves the candidate of every cursor in candidates.
func candidateAtLeast(cursors []Cursor, docNo int, k int, candidates []int) int {
	if k <= 0 || k > len(cursors) {
		return None
	}
	if docNo < 1 {
		docNo = 1
	}
	sorted := make([]int, 0, len(cursors))
	for {
		sorted = sorted[:0]
		for i, c := range cursors {
			candidates[i] = c.SkipDocCandidate(docNo)
			if candidates[i] != None {
				sorted = append(sorted, candidates[i])
			}
		}
		if len(sorted) < k {
			return None
		}
		kth := kthSmallest(sorted, k)
		if kth == docNo {
			return docNo
		}
		// fewer than k cursors can match any document before kth
		docNo = kth
	}
}

// kthSmallest returns the k-th smallest value (1-based). The slice is small
// and gets reordered.
func kthSmallest(values []int, k int) int {
	for i := 0; i < k; i++ {
		m := i
		for j := i + 1; j < len(values); j++ {
			if values[j] < values[m] {
				m = j
			}
		}
		values[i], values[m] = values[m], values[i]
	}
	return values[k-1]
}
