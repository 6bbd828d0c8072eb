package port

import (
	"fmt"
	"maps"
	"time"
)

// PortData is the envelope every value travels in.
type PortData struct {
	Value      any            `json:"value"`
	Timestamp  int64          `json:"timestamp"` // unix milliseconds
	Annotation map[string]any `json:"annotation,omitempty"`
}

// NewData wraps v stamped with the current time.
func NewData(v any) PortData {
	return PortData{Value: v, Timestamp: time.Now().UnixMilli()}
}

// Validate checks the envelope shape: a value must be present and the
// timestamp must not be negative.
func (d PortData) Validate() error {
	if d.Value == nil {
		return fmt.Errorf("%w: value is missing", ErrInvalidFormat)
	}
	if d.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrInvalidFormat, d.Timestamp)
	}
	return nil
}

// WithValue returns a copy carrying v, keeping timestamp and annotation.
func (d PortData) WithValue(v any) PortData {
	return PortData{Value: v, Timestamp: d.Timestamp, Annotation: maps.Clone(d.Annotation)}
}
