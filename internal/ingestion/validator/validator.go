// Package validator checks document events before they are published or
// indexed.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/kafka"
)

const (
	maxIDLength    = 255
	maxTitleLength = 1024
	maxBodyLength  = 1 << 20
)

// ValidationError holds one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, field := range names {
		parts[i] = field + ": " + e.Fields[field]
	}
	return strings.Join(parts, "; ")
}

// ValidateDocument requires an id and bounds the size of every field. An
// empty body is allowed when the title carries text.
func ValidateDocument(doc kafka.DocumentEvent) error {
	errs := make(map[string]string)
	id := strings.TrimSpace(doc.DocumentID)
	switch {
	case id == "":
		errs["document_id"] = "is required"
	case id != doc.DocumentID:
		errs["document_id"] = "must not have surrounding whitespace"
	case len(id) > maxIDLength:
		errs["document_id"] = fmt.Sprintf("must be at most %d bytes", maxIDLength)
	}
	if len(doc.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("must be at most %d bytes", maxTitleLength)
	}
	if len(doc.Body) > maxBodyLength {
		errs["body"] = fmt.Sprintf("must be at most %d bytes", maxBodyLength)
	}
	if strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Body) == "" {
		errs["body"] = "title or body must contain text"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
