package graph

import (
	"context"
	"fmt"

	"github.com/flowgraph/portgraph/internal/core/filter"
	"github.com/flowgraph/portgraph/internal/core/port"
)

// LoadedBinding is one resolved binding: its endpoints and the filter nodes
// between them, connected and torn down as a unit.
type LoadedBinding struct {
	id          string
	def         Definition
	source      PortRef
	destination PortRef
	output      *port.Port
	input       *port.Port
	filters     []*filter.Node
	connected   bool
}

func newLoadedBinding(id string, def Definition, src, dst PortRef, out, in *port.Port, filters []*filter.Node) *LoadedBinding {
	return &LoadedBinding{
		id:          id,
		def:         def,
		source:      src,
		destination: dst,
		output:      out,
		input:       in,
		filters:     filters,
	}
}

// ID returns the binding identifier.
func (b *LoadedBinding) ID() string { return b.id }

// Definition returns the definition the binding was loaded from, with its
// resolved id.
func (b *LoadedBinding) Definition() Definition {
	def := b.def
	def.ID = b.id
	return def
}

// Source returns the source port reference.
func (b *LoadedBinding) Source() PortRef { return b.source }

// Destination returns the destination port reference.
func (b *LoadedBinding) Destination() PortRef { return b.destination }

// Filters returns the filter chain in order.
func (b *LoadedBinding) Filters() []*filter.Node {
	return append([]*filter.Node(nil), b.filters...)
}

// Touches reports whether nodeID is an endpoint of the binding or one of its
// filter nodes.
func (b *LoadedBinding) Touches(nodeID string) bool {
	if b.source.Node == nodeID || b.destination.Node == nodeID {
		return true
	}
	for _, f := range b.filters {
		if f.ID() == nodeID {
			return true
		}
	}
	return false
}

// path lists the node ids data visits from source to destination.
func (b *LoadedBinding) path() []string {
	ids := make([]string, 0, len(b.filters)+2)
	ids = append(ids, b.source.Node)
	for _, f := range b.filters {
		ids = append(ids, f.ID())
	}
	return append(ids, b.destination.Node)
}

// Connect wires source -> filters... -> destination, starting at the
// destination so the source link, which seeds the chain, is made last. A
// failing link undoes the links made before it.
func (b *LoadedBinding) Connect(ctx context.Context) error {
	if b.connected {
		return nil
	}

	type link struct{ out, in *port.Port }
	links := make([]link, 0, len(b.filters)+1)
	out := b.output
	for _, f := range b.filters {
		links = append(links, link{out: out, in: f.Input()})
		out = f.Output()
	}
	links = append(links, link{out: out, in: b.input})

	for i := len(links) - 1; i >= 0; i-- {
		if err := links[i].out.ConnectToInput(ctx, links[i].in); err != nil {
			for _, done := range links[i+1:] {
				done.in.DisconnectFromOutput()
			}
			return fmt.Errorf("binding %s: %w", b.id, err)
		}
	}
	b.connected = true
	return nil
}

// Destroy tears down the filter chain. Source and destination nodes are left
// alone apart from losing this connection.
func (b *LoadedBinding) Destroy() {
	if len(b.filters) == 0 {
		if b.connected && b.input.Upstream() == b.output {
			b.input.DisconnectFromOutput()
		}
	}
	for _, f := range b.filters {
		f.OnDestroy()
	}
	b.connected = false
}
