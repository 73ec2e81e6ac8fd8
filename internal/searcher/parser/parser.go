// Package parser turns query strings into query plans.
//
//	query  := item*
//	item   := "AND" | "OR" | "NOT" word | word | window
//	window := "WINDOW(" maxwinsize ["," cardinality] ":" (word | window)+ ")"
//
// Words are normalised with the indexing tokenizer; words that are never
// indexed are dropped. AND is the default combinator.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/param"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

type QueryType int

const (
	QueryAND QueryType = iota
	QueryOR
)

func (t QueryType) String() string {
	if t == QueryOR {
		return "OR"
	}
	return "AND"
}

// Node is a query feature: an index term, or a window over nested features
// when Window is set.
type Node struct {
	Term   string
	Window *Window
}

// Window requires its items to occur within MaxWindowSize positions.
type Window struct {
	MaxWindowSize  int
	MinCardinality int
	Items          []Node
}

// Params returns the join operator parameters of the window.
func (w *Window) Params() map[string]string {
	return map[string]string{
		"maxwinsize":  strconv.Itoa(w.MaxWindowSize),
		"cardinality": strconv.Itoa(w.MinCardinality),
	}
}

func (n Node) String() string {
	if n.Window == nil {
		return n.Term
	}
	items := make([]string, len(n.Window.Items))
	for i, it := range n.Window.Items {
		items[i] = it.String()
	}
	return fmt.Sprintf("WINDOW(%d,%d: %s)", n.Window.MaxWindowSize, n.Window.MinCardinality, strings.Join(items, " "))
}

// Terms appends the index terms of the node to dst.
func (n Node) Terms(dst []string) []string {
	if n.Window == nil {
		return append(dst, n.Term)
	}
	for _, it := range n.Window.Items {
		dst = it.Terms(dst)
	}
	return dst
}

type QueryPlan struct {
	Features     []Node
	Type         QueryType
	ExcludeTerms []string
	RawQuery     string
}

// Terms returns every distinct index term of the positive features in
// query order.
func (p *QueryPlan) Terms() []string {
	var all []string
	for _, f := range p.Features {
		all = f.Terms(all)
	}
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, t := range all {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Canonical renders the normalised plan. Queries with the same canonical
// form return the same results.
func (p *QueryPlan) Canonical() string {
	features := make([]string, len(p.Features))
	for i, f := range p.Features {
		features[i] = f.String()
	}
	parts := []string{p.Type.String(), strings.Join(features, ",")}
	if len(p.ExcludeTerms) > 0 {
		parts = append(parts, "NOT:"+strings.Join(p.ExcludeTerms, ","))
	}
	return strings.Join(parts, "|")
}

// Parse builds a plan. Malformed windows are reported as ErrInvalidInput,
// bad window parameters as ErrInvalidParameter.
func Parse(query string) (*QueryPlan, error) {
	plan := &QueryPlan{
		Features:     make([]Node, 0),
		ExcludeTerms: make([]string, 0),
		Type:         QueryAND,
		RawQuery:     query,
	}
	p := &parser{tokens: lex(query)}
	excludeNext := false
	// bare parentheses group nothing; each ')' must close an earlier '('
	depth := 0
	for !p.done() {
		t := p.next()
		switch t.kind {
		case tokOpen:
			depth++
			continue
		case tokClose:
			if depth == 0 {
				return nil, p.errorf("unexpected %q", t.text)
			}
			depth--
			continue
		case tokComma, tokColon:
			continue
		}
		switch strings.ToUpper(t.text) {
		case "AND":
			plan.Type = QueryAND
			continue
		case "OR":
			plan.Type = QueryOR
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		if p.windowStart(t) {
			if excludeNext {
				return nil, p.errorf("NOT cannot be applied to a window")
			}
			node, err := p.window()
			if err != nil {
				return nil, err
			}
			plan.Features = append(plan.Features, node)
			continue
		}
		for _, term := range tokenizer.Terms(t.text) {
			if excludeNext {
				plan.ExcludeTerms = append(plan.ExcludeTerms, term)
			} else {
				plan.Features = append(plan.Features, Node{Term: term})
			}
		}
		excludeNext = false
	}
	return plan, nil
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokOpen
	tokClose
	tokComma
	tokColon
)

type token struct {
	kind tokenKind
	text string
}

func lex(query string) []token {
	var tokens []token
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, token{kind: tokWord, text: word.String()})
			word.Reset()
		}
	}
	for _, r := range query {
		switch r {
		case '(':
			flush()
			tokens = append(tokens, token{kind: tokOpen, text: "("})
		case ')':
			flush()
			tokens = append(tokens, token{kind: tokClose, text: ")"})
		case ',':
			flush()
			tokens = append(tokens, token{kind: tokComma, text: ","})
		case ':':
			flush()
			tokens = append(tokens, token{kind: tokColon, text: ":"})
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() (token, bool) {
	if p.done() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

// windowStart reports whether t opens a window and consumes the "(".
func (p *parser) windowStart(t token) bool {
	if !strings.EqualFold(t.text, "WINDOW") {
		return false
	}
	if next, ok := p.peek(); ok && next.kind == tokOpen {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("query: %s: %w", fmt.Sprintf(format, args...), apperrors.ErrInvalidInput)
}

func (p *parser) number() (int, error) {
	if p.done() {
		return 0, p.errorf("window parameters missing")
	}
	t := p.next()
	n, err := strconv.Atoi(t.text)
	if t.kind != tokWord || err != nil {
		return 0, p.errorf("expected a number in window parameters, got %q", t.text)
	}
	return n, nil
}

func (p *parser) window() (Node, error) {
	params := map[string]string{}
	n, err := p.number()
	if err != nil {
		return Node{}, err
	}
	params["maxwinsize"] = strconv.Itoa(n)
	if t, ok := p.peek(); ok && t.kind == tokComma {
		p.pos++
		k, err := p.number()
		if err != nil {
			return Node{}, err
		}
		params["cardinality"] = strconv.Itoa(k)
	}
	if t, ok := p.peek(); !ok || t.kind != tokColon {
		return Node{}, p.errorf("expected ':' after window parameters")
	}
	p.pos++
	cfg, err := param.Parse(param.JoinOperator, params)
	if err != nil {
		return Node{}, fmt.Errorf("query window: %w", err)
	}

	w := &Window{MaxWindowSize: cfg.MaxWindowSize, MinCardinality: cfg.MinCardinality}
	for {
		if p.done() {
			return Node{}, p.errorf("unterminated window")
		}
		t := p.next()
		switch {
		case t.kind == tokClose:
			if len(w.Items) == 0 {
				return Node{}, p.errorf("empty window")
			}
			if w.MinCardinality > len(w.Items) {
				return Node{}, fmt.Errorf("query window: cardinality %d with %d items: %w",
					w.MinCardinality, len(w.Items), apperrors.ErrInvalidParameter)
			}
			return Node{Window: w}, nil
		case t.kind != tokWord:
			return Node{}, p.errorf("unexpected %q in window", t.text)
		case p.windowStart(t):
			child, err := p.window()
			if err != nil {
				return Node{}, err
			}
			w.Items = append(w.Items, child)
		default:
			switch strings.ToUpper(t.text) {
			case "AND", "OR", "NOT":
				return Node{}, p.errorf("operator %s inside a window", t.text)
			}
			for _, term := range tokenizer.Terms(t.text) {
				w.Items = append(w.Items, Node{Term: term})
			}
		}
	}
}
