package index

import (
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/tokenizer"
)

// MemoryIndex buffers postings and forward records of recently indexed
// documents until they are flushed into a segment.
type MemoryIndex struct {
	mu    sync.RWMutex
	index map[string]map[int]*Posting
	docs  map[int]*DocEntry
	size  int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]map[int]*Posting),
		docs:  make(map[int]*DocEntry),
	}
}

// AddDocument adds the tokens of a document under its document number.
func (m *MemoryIndex) AddDocument(docNo int, docID string, tokens []tokenizer.Token) {
	termData := make(map[string]*Posting)
	for _, token := range tokens {
		p, exists := termData[token.Term]
		if !exists {
			p = &Posting{
				DocNo:     docNo,
				Positions: make([]int, 0, 4),
			}
			termData[token.Term] = p
		}
		p.Frequency++
		p.Positions = append(p.Positions, token.Position)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for term, posting := range termData {
		if _, exists := m.index[term]; !exists {
			m.index[term] = make(map[int]*Posting)
		}
		m.index[term][docNo] = posting
		m.size += int64(len(term) + len(posting.Positions)*8 + 64)
	}
	m.docs[docNo] = &DocEntry{
		DocNo:  docNo,
		DocID:  docID,
		Length: len(tokens),
		Tokens: tokens,
	}
	for _, t := range tokens {
		m.size += int64(len(t.Term) + len(t.Surface) + 16)
	}
}

func (m *MemoryIndex) Search(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, exists := m.index[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for _, posting := range docs {
		result = append(result, *posting)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocNo < result[j].DocNo
	})
	return result
}

// DocFreq returns the number of buffered documents containing term.
func (m *MemoryIndex) DocFreq(term string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index[term])
}

func (m *MemoryIndex) Doc(docNo int) (DocEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[docNo]
	if !ok {
		return DocEntry{}, false
	}
	return *d, true
}

// Snapshot returns the terms sorted by name and the documents sorted by
// number.
func (m *MemoryIndex) Snapshot() ([]TermEntry, []DocEntry) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.index))
	for term, docs := range m.index {
		postings := make(PostingList, 0, len(docs))
		for _, posting := range docs {
			postings = append(postings, *posting)
		}
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].DocNo < postings[j].DocNo
		})
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	docs := make([]DocEntry, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].DocNo < docs[j].DocNo
	})
	return entries, docs
}

func (m *MemoryIndex) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string]map[int]*Posting)
	m.docs = make(map[int]*DocEntry)
	m.size = 0
}
