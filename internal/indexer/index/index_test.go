package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/window"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

func newIndex() *MemoryIndex {
	m := NewMemoryIndex()
	m.AddDocument(1, "doc-a", tokenizer.Tokenize("the quick brown fox jumps over the lazy dog"))
	m.AddDocument(2, "doc-b", tokenizer.Tokenize("a lazy fox sleeps, the dog jumps"))
	m.AddDocument(4, "doc-c", tokenizer.Tokenize("foxes and dogs"))
	return m
}

func TestMemoryIndexSearch(t *testing.T) {
	m := newIndex()

	fox := m.Search("fox")
	require.Len(t, fox, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{fox[0].DocNo, fox[1].DocNo, fox[2].DocNo})
	assert.Equal(t, []int{4}, fox[0].Positions)
	assert.Equal(t, 3, m.DocFreq("fox"))
	assert.Nil(t, m.Search("cat"))
	assert.Equal(t, 3, m.DocCount())
	assert.Positive(t, m.Size())
}

func TestMemoryIndexSnapshotAndReset(t *testing.T) {
	m := newIndex()
	terms, docs := m.Snapshot()

	require.NotEmpty(t, terms)
	for i := 1; i < len(terms); i++ {
		assert.Less(t, terms[i-1].Term, terms[i].Term)
	}
	require.Len(t, docs, 3)
	assert.Equal(t, "doc-a", docs[0].DocID)
	assert.Equal(t, 7, docs[0].Length)
	assert.Equal(t, 4, docs[2].DocNo)

	m.Reset()
	assert.Zero(t, m.DocCount())
	assert.Zero(t, m.Size())
	_, ok := m.Doc(1)
	assert.False(t, ok)
}

func TestCursor(t *testing.T) {
	m := newIndex()
	c := NewCursor("jump", m.Search("jump"))

	assert.Equal(t, 1, c.SkipDoc(0))
	assert.Equal(t, 5, c.SkipPos(1))
	assert.Equal(t, cursor.None, c.SkipPos(6))
	assert.Equal(t, 2, c.SkipDoc(2))
	assert.Equal(t, 7, c.SkipPos(1))
	assert.Equal(t, 1, c.Frequency())
	assert.Equal(t, cursor.None, c.SkipDoc(3))
	assert.Equal(t, cursor.None, c.SkipPos(1))
	assert.Equal(t, 2, c.DocumentFrequency())
	// random access back to an earlier document
	assert.Equal(t, 1, c.SkipDoc(1))
}

func TestCursorFeedsWindowEngine(t *testing.T) {
	m := newIndex()
	args := []cursor.Cursor{
		NewCursor("fox", m.Search("fox")),
		NewCursor("dog", m.Search("dog")),
	}
	doc, matches := cursor.SkipDocAtLeast(args, 1, 2)
	require.Equal(t, 1, doc)
	match, ok := window.Tightest(matches, 100, 0)
	require.True(t, ok)
	assert.Equal(t, 4, match.Start)
	assert.Equal(t, 5, match.Size)
}

func TestForwardCursor(t *testing.T) {
	m := newIndex()

	orig, err := NewForwardCursor(ForwardOrig, m.Doc)
	require.NoError(t, err)
	require.Equal(t, 1, orig.SkipDoc(1))
	assert.Equal(t, 5, orig.SkipPos(5))
	assert.Equal(t, "jumps", orig.Fetch())
	assert.Equal(t, 8, orig.SkipPos(7))
	assert.Equal(t, cursor.None, orig.SkipPos(10))
	assert.Equal(t, "", orig.Fetch())
	assert.Equal(t, cursor.None, orig.SkipDoc(3))

	stem, err := NewForwardCursor(ForwardStem, m.Doc)
	require.NoError(t, err)
	require.Equal(t, 1, stem.SkipDoc(1))
	stem.SkipPos(8)
	assert.Equal(t, "lazi", stem.Fetch())

	_, err = NewForwardCursor("title", m.Doc)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
}

func TestMergePostings(t *testing.T) {
	a := PostingList{{DocNo: 1}, {DocNo: 7}}
	b := PostingList{{DocNo: 3}}
	merged := MergePostings(a, nil, b)
	assert.Equal(t, 3, len(merged))
	assert.Equal(t, 3, merged[1].DocNo)
	assert.Equal(t, 1, merged.Seek(2))
	assert.Equal(t, 3, merged.Seek(8))
}
