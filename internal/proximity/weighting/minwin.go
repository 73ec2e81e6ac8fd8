// Package weighting scores documents by how close together the query
// features occur.
package weighting

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/param"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/window"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

// Name is the registry name of the weighting function; FeatureMatch is the
// only feature it accepts.
const (
	Name         = "minwin"
	FeatureMatch = "match"
)

// MinWin is a configured minimal window weighting function. It is safe to
// share between goroutines; contexts are not.
type MinWin struct {
	cfg param.Config
}

// New validates cfg and rejects a forward index type.
func New(cfg param.Config) (*MinWin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating %s weighting: %w", Name, err)
	}
	if cfg.ForwardIndexType != "" {
		return nil, fmt.Errorf("creating %s weighting: type: %w", Name, apperrors.ErrUnknownParameter)
	}
	return &MinWin{cfg: cfg}, nil
}

// Config returns the validated configuration.
func (f *MinWin) Config() param.Config { return f.cfg }

// Describe lists the feature and parameters the function accepts.
func (f *MinWin) Describe() param.Description {
	return param.Description{
		Text: "Calculate the proximity weight based on the smallest window containing the query features",
		Items: append([]param.Item{{
			Kind: param.ItemFeature,
			Name: FeatureMatch,
			Text: "feature to look for in a window",
		}}, param.Items(param.Weighting)...),
	}
}

func (f *MinWin) String() string {
	return Name + ": " + f.cfg.String()
}

// NewContext starts the evaluation of one query.
func (f *MinWin) NewContext() *Context {
	return &Context{cfg: f.cfg}
}

// Context evaluates the weight for one query. It holds the feature cursors
// and must be used by a single goroutine.
type Context struct {
	cfg      param.Config
	features []cursor.Cursor
	examined int
}

// AddFeature registers a query feature cursor under the name FeatureMatch.
func (c *Context) AddFeature(name string, cur cursor.Cursor) error {
	if name != FeatureMatch {
		return fmt.Errorf("%s weighting feature %q: %w", Name, name, apperrors.ErrUnknownFeature)
	}
	c.features = append(c.features, cur)
	return nil
}

// Call returns 1/(size+1) for the smallest window of the document, or 0 when
// no window is smaller than the maximum window size. On failure the weight
// is 0 and the error wraps ErrEvaluation.
func (c *Context) Call(docNo int) (float64, error) {
	var weight float64
	err := apperrors.Guard(Name+" weighting", func() error {
		// a zero cardinality means every feature matched in the document
		matches := cursor.Matching(c.features, docNo)
		if len(matches) == 0 || len(matches) < c.cfg.MinCardinality {
			return nil
		}
		m, ok := window.Tightest(matches, c.cfg.MaxWindowSize, c.cfg.MinCardinality)
		c.examined += m.Windows
		if ok && m.Size < c.cfg.MaxWindowSize {
			weight = 1.0 / float64(m.Size+1)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return weight, nil
}

// Examined returns the number of windows enumerated by all calls so far.
func (c *Context) Examined() int { return c.examined }
