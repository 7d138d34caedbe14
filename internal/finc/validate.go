package finc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thomsbe/MarcLinkFinc/internal/schema"
)

var ErrInvalidDocument = errors.New("invalid document")

// Violation is a single slot constraint a document does not satisfy.
type Violation struct {
	Slot   string
	Value  string
	Reason string
}

func (v Violation) String() string {
	if v.Value == "" {
		return fmt.Sprintf("%s: %s", v.Slot, v.Reason)
	}
	return fmt.Sprintf("%s: %s: %q", v.Slot, v.Reason, v.Value)
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	ID         string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	msg := strings.Join(parts, "; ")
	if e.ID != "" {
		return fmt.Sprintf("%s: document %s: %s", ErrInvalidDocument, e.ID, msg)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, msg)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

// Validate checks doc against the required and pattern constraints of s. It
// returns nil or a *ValidationError.
func Validate(doc *Document, s *schema.Schema) error {
	var violations []Violation

	for _, slot := range s.Slots {
		values := doc.Get(slot.Name)
		if len(values) == 0 {
			if slot.Required {
				violations = append(violations, Violation{Slot: slot.Name, Reason: "required value missing"})
			}
			continue
		}

		for _, v := range values {
			if !slot.Matches(v) {
				violations = append(violations, Violation{Slot: slot.Name, Value: v, Reason: "does not match pattern"})
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{ID: doc.First("id"), Violations: violations}
}
