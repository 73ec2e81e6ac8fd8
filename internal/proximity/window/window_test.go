package window

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
)

type span struct {
	start int
	size  int
}

func collect(w *Window) []span {
	var out []span
	for more := w.First(); more; more = w.Next() {
		out = append(out, span{w.Start(), w.Size()})
	}
	return out
}

func streamsOf(streams ...[]int) []cursor.Cursor {
	args := make([]cursor.Cursor, 0, len(streams))
	for i, s := range streams {
		args = append(args, cursor.NewSlice(string(rune('A'+i)), s...))
	}
	return args
}

func TestWindowReferenceSequence(t *testing.T) {
	args := streamsOf(
		[]int{1, 5, 9, 15},
		[]int{2, 6, 10, 16},
		[]int{5, 11, 18},
	)
	got := collect(New(args, 10, 0, 0))
	want := []span{
		{1, 4}, {2, 3}, {5, 1}, {5, 4}, {6, 5}, {9, 2}, {10, 5}, {11, 5}, {15, 3},
	}
	assert.Equal(t, want, got)
}

func TestWindowPartialCardinality(t *testing.T) {
	args := streamsOf(
		[]int{1, 10},
		[]int{2},
		[]int{20},
		[]int{21},
	)
	got := collect(New(args, 5, 2, 0))
	assert.Equal(t, []span{{1, 1}, {20, 1}}, got)
}

func TestWindowEdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		streams     [][]int
		maxSize     int
		cardinality int
		floor       int
		want        []span
	}{
		{
			name:    "no cursors",
			maxSize: 10,
		},
		{
			name:    "single cursor",
			streams: [][]int{{3, 7}},
			maxSize: 10,
			want:    []span{{3, 0}, {7, 0}},
		},
		{
			name:    "exhausted stream blocks full coverage",
			streams: [][]int{{1, 2, 3}, {}},
			maxSize: 10,
		},
		{
			name:        "cardinality above cursor count",
			streams:     [][]int{{1}, {2}},
			maxSize:     10,
			cardinality: 3,
		},
		{
			name:        "exhausted stream still allows partial coverage",
			streams:     [][]int{{1, 4}, {}, {2}},
			maxSize:     10,
			cardinality: 2,
			want:        []span{{1, 1}, {2, 2}},
		},
		{
			name:    "oversized windows are skipped",
			streams: [][]int{{1, 30}, {20, 31}},
			maxSize: 5,
			want:    []span{{30, 1}},
		},
		{
			name:    "floor skips earlier positions",
			streams: [][]int{{1, 5, 9, 15}, {2, 6, 10, 16}, {5, 11, 18}},
			maxSize: 10,
			floor:   10,
			want:    []span{{10, 5}, {11, 5}, {15, 3}},
		},
		{
			name:    "shared position repeats start",
			streams: [][]int{{4, 8}, {4, 9}},
			maxSize: 10,
			want:    []span{{4, 0}, {4, 4}, {8, 1}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := collect(New(streamsOf(tc.streams...), tc.maxSize, tc.cardinality, tc.floor))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWindowAccessors(t *testing.T) {
	w := New(streamsOf([]int{1}, []int{}, []int{3}), 10, 0, 0)
	assert.Equal(t, 3, w.Cardinality())
	assert.Equal(t, 2, w.Remaining())
	assert.False(t, w.First())
	assert.False(t, w.Next())
}

// model is a direct restatement of the enumeration rule used to cross-check
// the engine on generated streams.
func model(streams [][]int, maxSize, cardinality int) []span {
	if cardinality == 0 {
		cardinality = len(streams)
	}
	idx := make([]int, len(streams))
	var out []span
	for cardinality > 0 {
		active := make([]int, 0, len(streams))
		for i, s := range streams {
			if idx[i] < len(s) {
				active = append(active, i)
			}
		}
		if len(active) < cardinality {
			break
		}
		sort.SliceStable(active, func(a, b int) bool {
			return streams[active[a]][idx[active[a]]] < streams[active[b]][idx[active[b]]]
		})
		start := streams[active[0]][idx[active[0]]]
		size := streams[active[cardinality-1]][idx[active[cardinality-1]]] - start
		if size <= maxSize {
			out = append(out, span{start, size})
		}
		idx[active[0]]++
	}
	return out
}

func randomStreams(r *rand.Rand, n, maxLen, maxPos int) [][]int {
	streams := make([][]int, n)
	for i := range streams {
		seen := make(map[int]bool)
		for j := r.IntN(maxLen + 1); j > 0; j-- {
			seen[1+r.IntN(maxPos)] = true
		}
		for p := range seen {
			streams[i] = append(streams[i], p)
		}
		sort.Ints(streams[i])
	}
	return streams
}

func TestWindowMatchesModel(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 1))
	for i := 0; i < 500; i++ {
		n := 1 + r.IntN(5)
		streams := randomStreams(r, n, 8, 40)
		cardinality := r.IntN(n + 1)
		maxSize := 1 + r.IntN(15)

		got := collect(New(streamsOf(streams...), maxSize, cardinality, 0))
		want := model(streams, maxSize, cardinality)
		require.Equal(t, want, got, "streams=%v maxSize=%d cardinality=%d", streams, maxSize, cardinality)
	}
}

func TestWindowStartIsMonotone(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 3))
	for i := 0; i < 200; i++ {
		n := 2 + r.IntN(4)
		streams := randomStreams(r, n, 10, 60)
		spans := collect(New(streamsOf(streams...), 1+r.IntN(30), r.IntN(n+1), 0))
		for j := 1; j < len(spans); j++ {
			require.LessOrEqual(t, spans[j-1].start, spans[j].start, "streams=%v", streams)
		}
	}
}

func TestWindowSmallerSpanOnlyFilters(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 8))
	for i := 0; i < 200; i++ {
		n := 2 + r.IntN(3)
		streams := randomStreams(r, n, 10, 50)
		cardinality := r.IntN(n + 1)
		wide := collect(New(streamsOf(streams...), 40, cardinality, 0))
		narrow := collect(New(streamsOf(streams...), 6, cardinality, 0))

		var filtered []span
		for _, s := range wide {
			if s.size <= 6 {
				filtered = append(filtered, s)
			}
		}
		require.Equal(t, filtered, narrow, "streams=%v", streams)
	}
}

func TestWindowStopsAtFirstExhaustedStream(t *testing.T) {
	// With full coverage and an unbounded span every step reports a window,
	// so the count equals the number of steps before a stream runs dry.
	args := streamsOf([]int{1, 2, 3}, []int{10, 20, 30, 40, 50})
	got := collect(New(args, 1000, 0, 0))
	assert.Equal(t, []span{{1, 9}, {2, 8}, {3, 7}}, got)
}

func TestTightest(t *testing.T) {
	args := streamsOf(
		[]int{1, 5, 9, 15},
		[]int{2, 6, 10, 16},
		[]int{5, 11, 18},
	)
	m, ok := Tightest(args, 10, 0)
	require.True(t, ok)
	assert.Equal(t, Match{Start: 5, Size: 1, Windows: 9}, m)

	_, ok = Tightest(streamsOf([]int{1}, []int{50}), 10, 0)
	assert.False(t, ok)
}

func BenchmarkWindowEnumerate(b *testing.B) {
	r := rand.New(rand.NewPCG(1, 2))
	streams := randomStreams(r, 6, 200, 5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := New(streamsOf(streams...), 50, 4, 0)
		for more := w.First(); more; more = w.Next() {
		}
	}
}
