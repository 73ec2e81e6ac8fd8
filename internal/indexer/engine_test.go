package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
)

func newEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(config.IndexerConfig{
		DataDir:        dir,
		SegmentMaxSize: 1 << 30,
		FlushInterval:  time.Hour,
	}, 0)
	require.NoError(t, err)
	return e
}

func positionsOf(c cursor.Cursor) []int {
	var out []int
	for p := c.SkipPos(1); p != cursor.None; p = c.SkipPos(p + 1) {
		out = append(out, p)
	}
	return out
}

func TestEngineNumbersDocuments(t *testing.T) {
	e := newEngine(t, t.TempDir())
	defer e.Close()

	n1, err := e.IndexDocument("a", "Quick fox", "jumps over the lazy dog")
	require.NoError(t, err)
	n2, err := e.IndexDocument("b", "Dogs", "sleep")
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)
	assert.Equal(t, "a", e.DocID(1))
	assert.Equal(t, 6, e.DocLength(1))
	assert.Equal(t, int64(2), e.Stats().TotalDocs)
	assert.InDelta(t, 4.0, e.Stats().AvgDocLength, 1e-9)
}

func TestEngineCursorSpansMemoryAndSegments(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)
	defer e.Close()

	var events []FlushEvent
	e.SetFlushHook(func(ev FlushEvent) { events = append(events, ev) })

	_, err := e.IndexDocument("a", "", "fox and hound")
	require.NoError(t, err)
	require.NoError(t, e.Flush())
	_, err = e.IndexDocument("b", "", "the fox")
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Docs)

	c, err := e.Cursor("fox")
	require.NoError(t, err)
	assert.Equal(t, 2, c.DocumentFrequency())
	assert.Equal(t, 1, c.SkipDoc(1))
	assert.Equal(t, []int{1}, positionsOf(c))
	assert.Equal(t, 2, c.SkipDoc(2))
	assert.Equal(t, []int{2}, positionsOf(c))
	assert.Equal(t, 2, e.DocFreq("fox"))

	fwd, err := e.Forward("orig")
	require.NoError(t, err)
	require.Equal(t, 1, fwd.SkipDoc(1))
	require.Equal(t, 3, fwd.SkipPos(2))
	assert.Equal(t, "hound", fwd.Fetch())
}

func TestEngineRecoversSegments(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir)
	_, err := e.IndexDocument("a", "", "window one")
	require.NoError(t, err)
	_, err = e.IndexDocument("b", "", "window two")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	reopened := newEngine(t, dir)
	defer reopened.Close()
	assert.Equal(t, int64(2), reopened.Stats().TotalDocs)

	n, err := reopened.IndexDocument("c", "", "window three")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEngineSupersedesDocuments(t *testing.T) {
	e := newEngine(t, t.TempDir())
	defer e.Close()

	_, err := e.IndexDocument("a", "", "first version text")
	require.NoError(t, err)
	require.NoError(t, e.Flush())
	n, err := e.IndexDocument("a", "", "second")
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.True(t, e.Superseded().Contains(1))
	assert.False(t, e.Superseded().Contains(2))
	assert.Equal(t, int64(1), e.Stats().TotalDocs)
	assert.InDelta(t, 1.0, e.Stats().AvgDocLength, 1e-9)
}

func TestEngineReloadSegments(t *testing.T) {
	dir := t.TempDir()
	writer := newEngine(t, dir)
	defer writer.Close()
	reader := newEngine(t, dir)
	defer reader.Close()

	_, err := writer.IndexDocument("a", "", "proximity search")
	require.NoError(t, err)
	require.NoError(t, writer.Flush())

	assert.Equal(t, 1, reader.ReloadSegments())
	assert.Equal(t, 0, reader.ReloadSegments())
	assert.Equal(t, "a", reader.DocID(1))
	assert.Equal(t, int64(1), reader.Stats().TotalDocs)
}
