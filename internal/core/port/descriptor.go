package port

import (
	"fmt"

	"github.com/flowgraph/portgraph/pkg/validation"
)

// Direction of data flow through a port.
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// SourceType tells a port why it is receiving data. It only exists to stop
// relayed values from echoing back the way they came.
type SourceType int

const (
	// SourceUpstream marks data relayed forward from a connected output.
	SourceUpstream SourceType = iota
	// SourceDownstream marks data relayed backward from a connected input.
	SourceDownstream
	// SourcePortOwner marks data pushed by the owning node itself.
	SourcePortOwner
)

func (s SourceType) String() string {
	switch s {
	case SourceUpstream:
		return "upstream"
	case SourceDownstream:
		return "downstream"
	case SourcePortOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Descriptor is the static shape of a port.
type Descriptor struct {
	Name        string         `json:"name" validate:"required,port_name"`
	Type        string         `json:"type" validate:"required,type_tag"`
	Direction   Direction      `json:"direction" validate:"required,oneof=input output"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// Validate checks the descriptor against the shared validation rules.
func (d Descriptor) Validate() error {
	if err := validation.ValidateWithPlayground(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return nil
}

// Input returns an input descriptor.
func Input(name, typ string) Descriptor {
	return Descriptor{Name: name, Type: typ, Direction: DirectionInput}
}

// Output returns an output descriptor.
func Output(name, typ string) Descriptor {
	return Descriptor{Name: name, Type: typ, Direction: DirectionOutput}
}
