// Package tokenizer splits text into positioned index terms. Words are found
// with Unicode word segmentation, lower-cased and reduced with the Porter
// stemmer.
//
// Every word takes a position, starting at 1. Stop-words and single
// characters keep their position but produce no token, so they show up as
// gaps between the positions of the surrounding terms.
package tokenizer

import (
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/blevesearch/segment"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token is one index term. Surface is the lower-cased word as written.
type Token struct {
	Term     string `json:"term"`
	Surface  string `json:"surface"`
	Position int    `json:"position"`
}

// Tokenize returns the tokens of text in position order.
func Tokenize(text string) []Token {
	seg := segment.NewWordSegmenterDirect([]byte(text))
	tokens := make([]Token, 0, len(text)/6)
	pos := 0
	for seg.Segment() {
		if seg.Type() == segment.None {
			continue
		}
		pos++
		word := strings.ToLower(seg.Text())
		term, ok := Normalize(word)
		if !ok {
			continue
		}
		tokens = append(tokens, Token{
			Term:     term,
			Surface:  word,
			Position: pos,
		})
	}
	return tokens
}

// Normalize maps a single word to its index term. ok is false for words
// that are never indexed.
func Normalize(word string) (term string, ok bool) {
	word = strings.ToLower(word)
	if len([]rune(word)) < 2 {
		return "", false
	}
	if _, isStop := stopWords[word]; isStop {
		return "", false
	}
	return porterstemmer.StemString(word), true
}

// Terms returns the index terms of text without positions. It is used to
// normalise query words the same way documents are indexed.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}
