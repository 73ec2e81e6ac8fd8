// Package indexer owns the per-shard index engine: it numbers documents,
// buffers them in a memory index, flushes segments and serves the cursors
// the proximity components evaluate.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
)

// FlushEvent describes a segment that became visible on disk.
type FlushEvent struct {
	ShardID int
	Segment string
	Docs    int
}

// Stats are the collection statistics used for ranking.
type Stats struct {
	TotalDocs    int64
	AvgDocLength float64
}

type Engine struct {
	shardID  int
	memIndex *index.MemoryIndex
	writer   *segment.Writer
	readers  []*segment.Reader
	loaded   map[string]struct{}
	readerMu sync.RWMutex
	flushMu  sync.Mutex
	cfg      config.IndexerConfig
	logger   *slog.Logger
	onFlush  func(FlushEvent)

	statsMu     sync.RWMutex
	nextDocNo   int
	docNos      map[string]int
	superseded  *roaring.Bitmap
	totalDocs   int64
	totalTokens int64
}

func NewEngine(cfg config.IndexerConfig, shardID int) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	e := &Engine{
		shardID:    shardID,
		memIndex:   index.NewMemoryIndex(),
		writer:     segment.NewWriter(cfg.DataDir),
		loaded:     make(map[string]struct{}),
		cfg:        cfg,
		logger:     slog.Default().With("component", "indexer", "shard_id", shardID),
		nextDocNo:  1,
		docNos:     make(map[string]int),
		superseded: roaring.New(),
	}
	if n := e.ReloadSegments(); n > 0 {
		e.logger.Info("segment recovery complete", "segments_loaded", n)
	}
	return e, nil
}

// SetFlushHook registers fn to run after every successful flush.
func (e *Engine) SetFlushHook(fn func(FlushEvent)) {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	e.onFlush = fn
}

func (e *Engine) ShardID() int { return e.shardID }

// IndexDocument tokenizes and buffers a document and returns its document
// number. Indexing a known document ID again supersedes the older version.
func (e *Engine) IndexDocument(docID string, title string, body string) (int, error) {
	tokens := tokenizer.Tokenize(title + " " + body)

	e.statsMu.Lock()
	docNo := e.nextDocNo
	e.nextDocNo++
	e.statsMu.Unlock()

	e.memIndex.AddDocument(docNo, docID, tokens)
	e.register(index.DocEntry{DocNo: docNo, DocID: docID, Length: len(tokens)})

	e.logger.Debug("document indexed in memory",
		"doc_id", docID,
		"doc_no", docNo,
		"token_count", len(tokens),
		"mem_size", e.memIndex.Size(),
	)
	if e.memIndex.Size() >= e.cfg.SegmentMaxSize {
		e.logger.Info("memory index reached max size, flushing to disk",
			"size", e.memIndex.Size(),
			"threshold", e.cfg.SegmentMaxSize,
		)
		if err := e.Flush(); err != nil {
			return docNo, fmt.Errorf("flushing memory index: %w", err)
		}
	}
	return docNo, nil
}

// register updates the collection statistics for a document that became
// visible, in increasing document number order.
func (e *Engine) register(d index.DocEntry) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	if old, ok := e.docNos[d.DocID]; ok && old != d.DocNo {
		if old > d.DocNo {
			e.superseded.Add(uint32(d.DocNo))
			return
		}
		e.superseded.Add(uint32(old))
		if prev, found := e.Doc(old); found {
			e.totalTokens -= int64(prev.Length)
		}
		e.totalDocs--
	}
	e.docNos[d.DocID] = d.DocNo
	e.totalDocs++
	e.totalTokens += int64(d.Length)
	if d.DocNo >= e.nextDocNo {
		e.nextDocNo = d.DocNo + 1
	}
}

func (e *Engine) Flush() error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	terms, docs := e.memIndex.Snapshot()
	if len(docs) == 0 {
		return nil
	}
	segmentName, err := e.writer.Write(terms, docs)
	if err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}

	reader, err := segment.OpenReader(filepath.Join(e.cfg.DataDir, segmentName))
	if err != nil {
		return fmt.Errorf("opening new segment for reading: %w", err)
	}
	e.readerMu.Lock()
	e.readers = append(e.readers, reader)
	e.loaded[segmentName] = struct{}{}
	active := len(e.readers)
	e.readerMu.Unlock()
	e.memIndex.Reset()

	e.logger.Info("segment flushed",
		"segment", segmentName,
		"terms", reader.Terms(),
		"docs", reader.DocCount(),
		"active_segments", active,
	)
	if e.onFlush != nil {
		e.onFlush(FlushEvent{ShardID: e.shardID, Segment: segmentName, Docs: len(docs)})
	}
	return nil
}

// Postings returns the merged posting list of an index term.
func (e *Engine) Postings(term string) (index.PostingList, error) {
	e.readerMu.RLock()
	readers := make([]*segment.Reader, len(e.readers))
	copy(readers, e.readers)
	e.readerMu.RUnlock()

	lists := make([]index.PostingList, 0, len(readers)+1)
	for _, reader := range readers {
		postings, err := reader.Search(term)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", reader.Path(), err)
		}
		lists = append(lists, postings)
	}
	lists = append(lists, e.memIndex.Search(term))
	return index.MergePostings(lists...), nil
}

// Cursor returns a cursor over an index term.
func (e *Engine) Cursor(term string) (*index.Cursor, error) {
	postings, err := e.Postings(term)
	if err != nil {
		return nil, fmt.Errorf("reading postings of %q: %w", term, err)
	}
	return index.NewCursor(term, postings), nil
}

// Forward opens a forward cursor of the given index type.
func (e *Engine) Forward(indexType string) (cursor.ForwardCursor, error) {
	return index.NewForwardCursor(indexType, e.Doc)
}

// Doc returns the forward record of a document.
func (e *Engine) Doc(docNo int) (index.DocEntry, bool) {
	if d, ok := e.memIndex.Doc(docNo); ok {
		return d, true
	}
	return e.doc(docNo)
}

func (e *Engine) doc(docNo int) (index.DocEntry, bool) {
	e.readerMu.RLock()
	defer e.readerMu.RUnlock()
	for _, r := range e.readers {
		if d, ok := r.Doc(docNo); ok {
			return d, true
		}
	}
	return index.DocEntry{}, false
}

func (e *Engine) DocID(docNo int) string {
	d, _ := e.Doc(docNo)
	return d.DocID
}

func (e *Engine) DocLength(docNo int) int {
	d, _ := e.Doc(docNo)
	return d.Length
}

// DocFreq returns the number of documents containing term, superseded
// versions included.
func (e *Engine) DocFreq(term string) int {
	n := e.memIndex.DocFreq(term)
	e.readerMu.RLock()
	defer e.readerMu.RUnlock()
	for _, r := range e.readers {
		n += r.DocFreq(term)
	}
	return n
}

func (e *Engine) Stats() Stats {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()
	s := Stats{TotalDocs: e.totalDocs}
	if e.totalDocs > 0 {
		s.AvgDocLength = float64(e.totalTokens) / float64(e.totalDocs)
	}
	return s
}

// Superseded returns the numbers of documents replaced by a newer version.
func (e *Engine) Superseded() *roaring.Bitmap {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()
	return e.superseded.Clone()
}

func (e *Engine) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("flush loop stopping, performing final flush")
				if err := e.Flush(); err != nil {
					e.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				if e.memIndex.DocCount() > 0 {
					if err := e.Flush(); err != nil {
						e.logger.Error("periodic flush failed", "error", err)
					}
				}
			}
		}
	}()
}

func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		e.logger.Error("final flush on close failed", "error", err)
	}
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	for _, reader := range e.readers {
		if err := reader.Close(); err != nil {
			e.logger.Error("closing segment reader", "error", err)
		}
	}
	e.readers = nil
	return nil
}

// ReloadSegments opens segment files written since the last scan, e.g. by
// an indexer process sharing the data directory. It returns the number of
// segments loaded.
func (e *Engine) ReloadSegments() int {
	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		if !os.IsNotExist(err) {
			e.logger.Error("reading data directory", "error", err)
		}
		return 0
	}
	segFiles := make([]string, 0)
	e.readerMu.RLock()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, segment.Extension) {
			continue
		}
		if _, ok := e.loaded[name]; !ok {
			segFiles = append(segFiles, name)
		}
	}
	e.readerMu.RUnlock()
	sort.Strings(segFiles)

	loaded := 0
	for _, name := range segFiles {
		reader, err := segment.OpenReader(filepath.Join(e.cfg.DataDir, name))
		if err != nil {
			e.logger.Error("failed to open segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		e.readerMu.Lock()
		e.readers = append(e.readers, reader)
		e.loaded[name] = struct{}{}
		e.readerMu.Unlock()
		for _, d := range reader.Docs() {
			e.register(d)
		}
		loaded++
		e.logger.Info("loaded segment",
			"segment", name,
			"terms", reader.Terms(),
			"docs", reader.DocCount(),
		)
	}
	return loaded
}
