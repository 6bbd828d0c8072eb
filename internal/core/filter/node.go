package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowgraph/portgraph/internal/core/node"
	"github.com/flowgraph/portgraph/internal/core/port"
	"github.com/flowgraph/portgraph/internal/infrastructure/metrics"
)

// Option configures a filter Node.
type Option func(*Node)

// WithLogger sets the logger shared by the node and its ports.
func WithLogger(l *slog.Logger) Option {
	return func(n *Node) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithMetrics sets the collectors shared by the node and its ports.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Node) { n.metrics = m }
}

// WithNotifyDepth bounds nested connectivity notifications on the node's ports.
func WithNotifyDepth(depth int) Option {
	return func(n *Node) { n.notifyDepth = depth }
}

// Node materializes a Filter as a graph node: a main input, a main output
// and any side inputs the filter declares.
type Node struct {
	*node.Node

	filter  Filter
	input   *port.Port
	output  *port.Port
	logger  *slog.Logger
	metrics *metrics.Metrics

	notifyDepth int
}

// NewNode shapes f's ports from upstream and binds its transform to them.
func NewNode(id string, f Filter, upstream string, opts ...Option) (*Node, error) {
	base, err := node.New(id)
	if err != nil {
		return nil, err
	}
	shape, err := f.Shape(upstream)
	if err != nil {
		return nil, err
	}

	n := &Node{
		Node:   base,
		filter: f,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("node", id, "filter", string(f.Kind()))

	portOpts := []port.Option{
		port.WithLogger(n.logger),
		port.WithMetrics(n.metrics),
		port.WithNotifyDepth(n.notifyDepth),
	}
	if n.input, err = n.NewPort(shape.Input, portOpts...); err != nil {
		return nil, err
	}
	if n.output, err = n.NewPort(shape.Output, portOpts...); err != nil {
		return nil, err
	}
	if !n.input.IsInput() || !n.output.IsOutput() {
		return nil, fmt.Errorf("%w: %s main ports have the wrong direction", ErrInvalidManifest, f.Kind())
	}

	n.input.AddDataHandler(n.forward)
	if r, ok := f.(Reverser); ok {
		n.output.AddDataHandler(func(ctx context.Context, data port.PortData, src port.SourceType) error {
			return n.backward(ctx, r, data, src)
		})
	}

	side, _ := f.(SideReceiver)
	for _, desc := range shape.Extra {
		p, err := n.NewPort(desc, portOpts...)
		if err != nil {
			return nil, err
		}
		if side == nil || !p.IsInput() {
			continue
		}
		name := desc.Name
		p.AddDataHandler(func(ctx context.Context, data port.PortData, src port.SourceType) error {
			return n.sideInput(ctx, side, name, data, src)
		})
	}
	return n, nil
}

// Filter returns the transform this node runs.
func (n *Node) Filter() Filter { return n.filter }

// Input returns the main input port.
func (n *Node) Input() *port.Port { return n.input }

// Output returns the main output port.
func (n *Node) Output() *port.Port { return n.output }

// OutputType is the type the next stage of a chain sees.
func (n *Node) OutputType() string { return n.output.Type() }

func (n *Node) forward(ctx context.Context, data port.PortData, src port.SourceType) error {
	if src == port.SourceDownstream {
		return nil
	}
	return n.apply(ctx, data)
}

func (n *Node) apply(ctx context.Context, data port.PortData) error {
	out, ok, err := n.filter.Forward(data.Value)
	if err != nil {
		return err
	}
	if !ok {
		n.metrics.Suppressed(string(n.filter.Kind()))
		n.logger.Debug("filter suppressed value")
		return nil
	}
	return n.output.OnNewData(ctx, data.WithValue(out), port.SourcePortOwner)
}

func (n *Node) backward(ctx context.Context, r Reverser, data port.PortData, src port.SourceType) error {
	if src != port.SourceDownstream {
		return nil
	}
	v, err := r.Backward(data.Value)
	if err != nil {
		return err
	}
	return n.input.OnNewData(ctx, data.WithValue(v), port.SourceDownstream)
}

// sideInput updates the filter and re-runs it over the last main input.
func (n *Node) sideInput(ctx context.Context, side SideReceiver, name string, data port.PortData, src port.SourceType) error {
	if src == port.SourceDownstream {
		return nil
	}
	if err := side.SetSide(name, data.Value); err != nil {
		return err
	}
	if last, ok := n.input.LastData(); ok {
		return n.apply(ctx, last)
	}
	return nil
}
