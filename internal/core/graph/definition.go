package graph

import (
	"fmt"
	"strings"

	"github.com/flowgraph/portgraph/internal/core/filter"
)

// PortRef addresses one port as "component.port". The component part is a
// node id and never contains a dot.
type PortRef struct {
	Node string `json:"node"`
	Port string `json:"port"`
}

// ParsePortRef splits s at its first dot.
func ParsePortRef(s string) (PortRef, error) {
	nodeID, portName, ok := strings.Cut(s, ".")
	if !ok || nodeID == "" || portName == "" {
		return PortRef{}, fmt.Errorf("%w: %q", ErrInvalidPortRef, s)
	}
	return PortRef{Node: nodeID, Port: portName}, nil
}

func (r PortRef) String() string { return r.Node + "." + r.Port }

// FilterSpec is one stage of a binding's filter chain.
type FilterSpec struct {
	Type   filter.Kind    `json:"type" validate:"required,filter_kind"`
	Config map[string]any `json:"config,omitempty"`
}

// Definition declares a binding from an output port to an input port.
type Definition struct {
	ID          string       `json:"id,omitempty" validate:"omitempty,max=100"`
	Source      string       `json:"source" validate:"required,port_ref"`
	Destination string       `json:"destination" validate:"required,port_ref"`
	Filters     []FilterSpec `json:"filters,omitempty" validate:"dive"`
}

// Endpoints parses both references.
func (d Definition) Endpoints() (src, dst PortRef, err error) {
	if src, err = ParsePortRef(d.Source); err != nil {
		return PortRef{}, PortRef{}, err
	}
	if dst, err = ParsePortRef(d.Destination); err != nil {
		return PortRef{}, PortRef{}, err
	}
	return src, dst, nil
}
