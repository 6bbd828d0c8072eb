package portgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowgraph/portgraph/internal/core/filter"
	"github.com/flowgraph/portgraph/internal/core/graph"
	"github.com/flowgraph/portgraph/internal/core/node"
	"github.com/flowgraph/portgraph/internal/core/port"
	"github.com/flowgraph/portgraph/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for convenience
type (
	Port           = port.Port
	PortData       = port.PortData
	Descriptor     = port.Descriptor
	SourceType     = port.SourceType
	Node           = node.Node
	Definition     = graph.Definition
	FilterSpec     = graph.FilterSpec
	LoadedBinding  = graph.LoadedBinding
	StructureEvent = graph.StructureEvent
	FilterKind     = filter.Kind
)

// Source tags
const (
	SourceUpstream   = port.SourceUpstream
	SourceDownstream = port.SourceDownstream
	SourcePortOwner  = port.SourcePortOwner
)

// Port directions
const (
	DirectionInput  = port.DirectionInput
	DirectionOutput = port.DirectionOutput
)

// Input and Output build port descriptors.
var (
	Input  = port.Input
	Output = port.Output
)

// Config holds runtime settings. Zero values mean defaults.
type Config struct {
	Logger      *slog.Logger
	Registerer  prometheus.Registerer
	Registry    *filter.Registry
	NotifyDepth int
}

// Runtime is the assembled graph a board loader holds for the lifetime of
// one board.
type Runtime struct {
	registry *filter.Registry
	graph    *graph.NodeGraph
	logger   *slog.Logger
	metrics  *metrics.Metrics
	depth    int
}

// NewRuntime builds a runtime. Metrics are only collected when a registerer
// is supplied.
func NewRuntime(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = filter.NewBuiltinRegistry()
	}
	var m *metrics.Metrics
	if cfg.Registerer != nil {
		m = metrics.New(cfg.Registerer)
	}

	return &Runtime{
		registry: registry,
		logger:   logger,
		metrics:  m,
		depth:    cfg.NotifyDepth,
		graph: graph.New(
			graph.WithRegistry(registry),
			graph.WithLogger(logger),
			graph.WithMetrics(m),
			graph.WithNotifyDepth(cfg.NotifyDepth),
		),
	}
}

// Graph returns the underlying node graph.
func (rt *Runtime) Graph() *graph.NodeGraph { return rt.graph }

// Registry returns the filter catalog.
func (rt *Runtime) Registry() *filter.Registry { return rt.registry }

// NewNode creates a node carrying the given ports, wired to the runtime's
// logger and metrics, and registers it with the graph.
func (rt *Runtime) NewNode(id string, ports ...port.Descriptor) (*node.Node, error) {
	n, err := node.New(id)
	if err != nil {
		return nil, err
	}
	for _, desc := range ports {
		if _, err := n.NewPort(desc,
			port.WithLogger(rt.logger),
			port.WithMetrics(rt.metrics),
			port.WithNotifyDepth(rt.depth),
		); err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
	}
	if err := rt.graph.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Load loads every binding and then runs the ready sweep. It stops at the
// first rejected binding; bindings loaded before it stay in place.
func (rt *Runtime) Load(ctx context.Context, defs ...graph.Definition) error {
	for _, def := range defs {
		if _, err := rt.graph.LoadBinding(ctx, def); err != nil {
			return err
		}
	}
	rt.graph.Ready()
	return nil
}

// Unload tears the whole board down.
func (rt *Runtime) Unload() {
	rt.graph.Destroy()
}
