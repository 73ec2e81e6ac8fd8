// Package ranker scores documents with BM25 and the minimal window
// proximity boost.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/summarizer"
)

const (
	k1 = 1.2
	b  = 0.75
)

type ScoredDoc struct {
	DocID     string               `json:"doc_id"`
	Score     float64              `json:"score"`
	BM25      float64              `json:"bm25"`
	Proximity float64              `json:"proximity"`
	Title     string               `json:"title,omitempty"`
	Summary   []summarizer.Element `json:"summary,omitempty"`
	ShardID   int                  `json:"shard_id"`
	DocNo     int                  `json:"-"`
}

// RankParams are collection statistics over all shards, so scores from
// different shards are comparable.
type RankParams struct {
	TotalDocs    int64
	AvgDocLength float64
}

// Scorer computes BM25 for one query.
type Scorer struct {
	params RankParams
	idf    map[string]float64
}

// NewScorer precomputes the idf of every query term from its collection
// document frequency.
func NewScorer(params RankParams, docFreqs map[string]int) *Scorer {
	idf := make(map[string]float64, len(docFreqs))
	for term, df := range docFreqs {
		idf[term] = computeIDF(params.TotalDocs, int64(df))
	}
	return &Scorer{params: params, idf: idf}
}

// BM25 scores a document from the in-document frequency of each query term.
func (s *Scorer) BM25(termFreqs map[string]int, docLength int) float64 {
	var score float64
	for term, tf := range termFreqs {
		if tf == 0 {
			continue
		}
		score += s.idf[term] * computeTFNorm(float64(tf), float64(docLength), s.params.AvgDocLength)
	}
	return score
}

// Combine adds the boosted proximity weight to the BM25 score.
func Combine(bm25, proximity, boost float64) float64 {
	return round(bm25 + boost*proximity)
}

// Before reports whether a ranks ahead of b: higher score first, ties
// broken by document id.
func Before(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// Sort orders documents with Before.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool { return Before(docs[i], docs[j]) })
}

// Top sorts docs and keeps at most limit of them.
func Top(docs []ScoredDoc, limit int) []ScoredDoc {
	Sort(docs)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
