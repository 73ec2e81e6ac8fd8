// Package registry resolves proximity functions by name, the way query
// languages and configuration files refer to them.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/joinop"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/param"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/summarizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

type (
	JoinConstructor       func(param.Config) (*joinop.Operator, error)
	WeightingConstructor  func(param.Config) (*weighting.MinWin, error)
	SummarizerConstructor func(param.Config) (*summarizer.MinWin, error)
)

// Registry maps lower-case function names to constructors.
type Registry struct {
	joins       map[string]JoinConstructor
	weightings  map[string]WeightingConstructor
	summarizers map[string]SummarizerConstructor
}

// Default returns a registry with every built-in proximity function.
func Default() *Registry {
	return &Registry{
		joins:       map[string]JoinConstructor{joinop.Name: joinop.New},
		weightings:  map[string]WeightingConstructor{weighting.Name: weighting.New},
		summarizers: map[string]SummarizerConstructor{summarizer.Name: summarizer.New},
	}
}

// JoinOperator builds the named join operator from textual parameters.
func (r *Registry) JoinOperator(name string, params map[string]string) (*joinop.Operator, error) {
	ctor, ok := r.joins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("join operator %q: %w", name, apperrors.ErrUnknownFunction)
	}
	cfg, err := param.Parse(param.JoinOperator, params)
	if err != nil {
		return nil, fmt.Errorf("join operator %q: %w", name, err)
	}
	return ctor(cfg)
}

func (r *Registry) Weighting(name string, params map[string]string) (*weighting.MinWin, error) {
	ctor, ok := r.weightings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("weighting function %q: %w", name, apperrors.ErrUnknownFunction)
	}
	cfg, err := param.Parse(param.Weighting, params)
	if err != nil {
		return nil, fmt.Errorf("weighting function %q: %w", name, err)
	}
	return ctor(cfg)
}

func (r *Registry) Summarizer(name string, params map[string]string) (*summarizer.MinWin, error) {
	ctor, ok := r.summarizers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("summarizer %q: %w", name, apperrors.ErrUnknownFunction)
	}
	cfg, err := param.Parse(param.Summarizer, params)
	if err != nil {
		return nil, fmt.Errorf("summarizer %q: %w", name, err)
	}
	return ctor(cfg)
}

// Entry names one registered function and what it accepts.
type Entry struct {
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	Description param.Description `json:"description"`
}

// Describe lists every registered function, sorted by kind and name.
func (r *Registry) Describe() []Entry {
	var out []Entry
	for name, ctor := range r.joins {
		if op, err := ctor(param.Default()); err == nil {
			out = append(out, Entry{Kind: param.JoinOperator.String(), Name: name, Description: op.Describe()})
		}
	}
	for name, ctor := range r.weightings {
		if f, err := ctor(param.Default()); err == nil {
			out = append(out, Entry{Kind: param.Weighting.String(), Name: name, Description: f.Describe()})
		}
	}
	for name, ctor := range r.summarizers {
		if f, err := ctor(param.Default()); err == nil {
			out = append(out, Entry{Kind: param.Summarizer.String(), Name: name, Description: f.Describe()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
