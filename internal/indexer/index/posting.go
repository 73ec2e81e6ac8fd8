package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/tokenizer"
)

// Posting lists the positions of one term in one document.
type Posting struct {
	DocNo     int   `json:"n"`
	Frequency int   `json:"f"`
	Positions []int `json:"p"`
}

// PostingList is sorted by DocNo.
type PostingList []Posting

// Seek returns the index of the first posting with DocNo >= docNo.
func (l PostingList) Seek(docNo int) int {
	return sort.Search(len(l), func(i int) bool {
		return l[i].DocNo >= docNo
	})
}

type TermEntry struct {
	Term     string
	Postings PostingList
}

// DocEntry is the forward index record of a document. Length counts the
// indexed tokens.
type DocEntry struct {
	DocNo  int               `json:"n"`
	DocID  string            `json:"id"`
	Length int               `json:"len"`
	Tokens []tokenizer.Token `json:"tok"`
}

// MergePostings merges lists whose document numbers do not overlap into one
// sorted list.
func MergePostings(lists ...PostingList) PostingList {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make(PostingList, 0, total)
	for _, l := range lists {
		out = append(out, l...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DocNo < out[j].DocNo
	})
	return out
}
