// Package param validates the configuration shared by the proximity
// weighting function, the window summarizer and the window join operator.
// All checks run when a parameter is supplied, never during evaluation.
package param

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

const (
	DefaultMaxWindowSize    = 1000
	DefaultForwardIndexType = "orig"
)

// Kind selects which parameters a consumer accepts.
type Kind int

const (
	Weighting Kind = iota
	Summarizer
	JoinOperator
)

func (k Kind) String() string {
	switch k {
	case Weighting:
		return "weighting"
	case Summarizer:
		return "summarizer"
	case JoinOperator:
		return "join operator"
	default:
		return "unknown"
	}
}

// Config holds the window settings of one function instance.
type Config struct {
	MaxWindowSize    int    `yaml:"maxWindowSize" json:"maxWindowSize"`
	MinCardinality   int    `yaml:"minCardinality" json:"minCardinality"`
	ForwardIndexType string `yaml:"forwardIndexType" json:"forwardIndexType,omitempty"`
}

// Default returns the configuration used when no parameter is given. The
// summarizer falls back to DefaultForwardIndexType when no type is set.
func Default() Config {
	return Config{MaxWindowSize: DefaultMaxWindowSize}
}

// Validate checks values that did not go through Set, e.g. ones decoded
// from a YAML file.
func (c Config) Validate() error {
	if c.MaxWindowSize <= 0 {
		return fmt.Errorf("maxWindowSize %d: %w: must be a positive integer", c.MaxWindowSize, apperrors.ErrInvalidParameter)
	}
	if c.MinCardinality < 0 {
		return fmt.Errorf("minCardinality %d: %w: must be a non-negative integer", c.MinCardinality, apperrors.ErrInvalidParameter)
	}
	return nil
}

// Set applies one named parameter. Accepted names are the canonical ones
// (maxWindowSize, minCardinality, forwardIndexType) and the short aliases
// maxwinsize, cardinality and type.
func (c *Config) Set(kind Kind, name string, value any) error {
	switch canonical(name) {
	case "maxWindowSize":
		n, err := integer(value)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, apperrors.ErrInvalidParameter, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s: %w: proximity range must be positive", name, apperrors.ErrInvalidParameter)
		}
		c.MaxWindowSize = n
	case "minCardinality":
		n, err := integer(value)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", name, apperrors.ErrInvalidParameter, err)
		}
		if n < 0 {
			return fmt.Errorf("%s: %w: cardinality must not be negative", name, apperrors.ErrInvalidParameter)
		}
		c.MinCardinality = n
	case "forwardIndexType":
		if kind != Summarizer {
			return fmt.Errorf("%s for %s: %w", name, kind, apperrors.ErrUnknownParameter)
		}
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s: %w: expected a non-empty string", name, apperrors.ErrInvalidParameter)
		}
		c.ForwardIndexType = s
	default:
		return fmt.Errorf("%s for %s: %w", name, kind, apperrors.ErrUnknownParameter)
	}
	return nil
}

// Parse builds a Config from textual parameters, starting from Default.
// Keys are applied in sorted order so the reported error is deterministic.
func Parse(kind Kind, params map[string]string) (Config, error) {
	cfg := Default()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.Set(kind, k, params[k]); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// String renders the configuration the way function instances describe
// themselves.
func (c Config) String() string {
	s := fmt.Sprintf("maxwinsize=%d, cardinality=%d", c.MaxWindowSize, c.MinCardinality)
	if c.ForwardIndexType != "" {
		s = "type=" + c.ForwardIndexType + ", " + s
	}
	return s
}

func canonical(name string) string {
	switch name {
	case "maxWindowSize", "maxwinsize":
		return "maxWindowSize"
	case "minCardinality", "cardinality":
		return "minCardinality"
	case "forwardIndexType", "type":
		return "forwardIndexType"
	default:
		return name
	}
}

func integer(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt32 {
			return 0, fmt.Errorf("value %d out of range", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}
}
