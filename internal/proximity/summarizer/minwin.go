// Package summarizer renders the smallest window of query features in a
// document as a text snippet.
package summarizer

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/param"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/window"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

const (
	Name         = "minwin"
	FeatureMatch = "match"
	// GapMarker stands for a position without a stored token.
	GapMarker = ".."
)

// Element is one labelled piece of summary text.
type Element struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ForwardSource opens forward cursors over the stored tokens of documents.
type ForwardSource interface {
	Forward(indexType string) (cursor.ForwardCursor, error)
}

// MinWin is a configured minimal window summarizer.
type MinWin struct {
	cfg param.Config
}

// New validates cfg and defaults the forward index type to
// DefaultForwardIndexType.
func New(cfg param.Config) (*MinWin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating %s summarizer: %w", Name, err)
	}
	if cfg.ForwardIndexType == "" {
		cfg.ForwardIndexType = param.DefaultForwardIndexType
	}
	return &MinWin{cfg: cfg}, nil
}

func (f *MinWin) Config() param.Config { return f.cfg }

// Describe lists the feature and parameters the summarizer accepts.
func (f *MinWin) Describe() param.Description {
	return param.Description{
		Text: "Get the passage of the smallest window containing the query features",
		Items: append([]param.Item{{
			Kind: param.ItemFeature,
			Name: FeatureMatch,
			Text: "feature to look for in a window",
		}}, param.Items(param.Summarizer)...),
	}
}

func (f *MinWin) String() string {
	return Name + ": " + f.cfg.String()
}

// NewContext opens the forward index of the configured type. An unknown type
// is reported here, before any document is evaluated.
func (f *MinWin) NewContext(src ForwardSource) (*Context, error) {
	fwd, err := src.Forward(f.cfg.ForwardIndexType)
	if err != nil {
		return nil, fmt.Errorf("%s summarizer: %w", Name, err)
	}
	return &Context{cfg: f.cfg, forward: fwd}, nil
}

// Context renders summaries for one query from a single goroutine.
type Context struct {
	cfg      param.Config
	forward  cursor.ForwardCursor
	features []cursor.Cursor
}

// AddFeature registers a query feature cursor under the name FeatureMatch.
func (c *Context) AddFeature(name string, cur cursor.Cursor) error {
	if name != FeatureMatch {
		return fmt.Errorf("%s summarizer feature %q: %w", Name, name, apperrors.ErrUnknownFeature)
	}
	c.features = append(c.features, cur)
	return nil
}

// Summary returns a single "minwin" element for a document with a window
// smaller than the maximum window size, and nothing otherwise.
func (c *Context) Summary(docNo int) ([]Element, error) {
	var out []Element
	err := apperrors.Guard(Name+" summarizer", func() error {
		// a zero cardinality means every feature matched in the document
		matches := cursor.Matching(c.features, docNo)
		if len(matches) == 0 || len(matches) < c.cfg.MinCardinality {
			return nil
		}
		m, ok := window.Tightest(matches, c.cfg.MaxWindowSize, c.cfg.MinCardinality)
		if !ok || m.Size >= c.cfg.MaxWindowSize {
			return nil
		}
		if c.forward.SkipDoc(docNo) != docNo {
			return nil
		}
		out = []Element{{Name: Name, Text: render(c.forward, m.Start, m.Size)}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func render(fwd cursor.ForwardCursor, start, size int) string {
	var b strings.Builder
	for pos := start; pos <= start+size; pos++ {
		if fwd.SkipPos(pos) != pos {
			b.WriteString(GapMarker)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(fwd.Fetch())
	}
	return b.String()
}
