// Package validation provides struct validation shared by the portgraph core.
// It wraps a single go-playground validator instance carrying the custom
// rules used by port descriptors, binding definitions and filter configs.
package validation

import (
	"fmt"
	"strings"
)

// Validator is implemented by types that carry cross-field rules the tag
// language cannot express.
type Validator interface {
	Validate() error
}

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the names of the offending fields in order.
func (e ValidationErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, err := range e {
		out = append(out, err.Field)
	}
	return out
}

// Struct validates v against its `validate` tags and then, when v implements
// Validator, against its own rules.
func Struct(v interface{}) error {
	if err := ValidateWithPlayground(v); err != nil {
		return err
	}
	if validator, ok := v.(Validator); ok {
		return validator.Validate()
	}
	return nil
}
