// Package graph wires nodes together through bindings and owns their
// lifecycle: registration, the ready sweep, binding load/delete with cycle
// detection, and teardown.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/flowgraph/portgraph/internal/core/filter"
	"github.com/flowgraph/portgraph/internal/core/node"
	"github.com/flowgraph/portgraph/internal/core/port"
	"github.com/flowgraph/portgraph/internal/core/reactive"
	"github.com/flowgraph/portgraph/internal/infrastructure/metrics"
	"github.com/flowgraph/portgraph/pkg/validation"
	"github.com/google/uuid"
)

// Node is what the graph needs from a participant. *node.Node and
// *filter.Node satisfy it.
type Node interface {
	ID() string
	InputPort(name string) (*port.Port, error)
	OutputPort(name string) (*port.Port, error)
	OnReady()
	OnDestroy()
}

// StructureChange names what changed in a StructureEvent.
type StructureChange string

// Structure changes
const (
	NodeAdded      StructureChange = "node_added"
	NodeRemoved    StructureChange = "node_removed"
	BindingLoaded  StructureChange = "binding_loaded"
	BindingDeleted StructureChange = "binding_deleted"
	GraphDestroyed StructureChange = "graph_destroyed"
)

// StructureEvent is published after every structural mutation.
type StructureEvent struct {
	Revision uint64          `json:"revision"`
	Change   StructureChange `json:"change"`
	Subject  string          `json:"subject,omitempty"`
}

// Option configures a NodeGraph.
type Option func(*NodeGraph)

// WithRegistry sets the filter catalog used by LoadBinding. The default is a
// fresh built-in registry.
func WithRegistry(r *filter.Registry) Option {
	return func(g *NodeGraph) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger sets the graph logger. Filter nodes created by bindings inherit it.
func WithLogger(l *slog.Logger) Option {
	return func(g *NodeGraph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the collectors updated by the graph and its filter nodes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *NodeGraph) { g.metrics = m }
}

// WithNotifyDepth bounds nested structure notifications and the connectivity
// notifications of filter node ports.
func WithNotifyDepth(n int) Option {
	return func(g *NodeGraph) { g.notifyDepth = n }
}

// NodeGraph holds nodes and the bindings between them.
// PRINCIPLES:
// - KISS: plain maps, no locking; a graph has a single owner
// - SRP: structure and lifecycle only, data flows through ports
type NodeGraph struct {
	nodes    map[string]Node
	bindings map[string]*LoadedBinding
	ready    map[string]struct{}

	registry    *filter.Registry
	logger      *slog.Logger
	metrics     *metrics.Metrics
	notifyDepth int

	revision  uint64
	structure *reactive.Observable[StructureEvent]
}

// New creates an empty graph.
func New(opts ...Option) *NodeGraph {
	g := &NodeGraph{
		nodes:    make(map[string]Node),
		bindings: make(map[string]*LoadedBinding),
		ready:    make(map[string]struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = filter.NewBuiltinRegistry()
	}

	observableOpts := []reactive.Option{reactive.WithLogger(g.logger), reactive.WithName("graph.structure")}
	if g.notifyDepth > 0 {
		observableOpts = append(observableOpts, reactive.WithMaxDepth(g.notifyDepth))
	}
	g.structure = reactive.New(StructureEvent{}, observableOpts...)
	return g
}

// Registry returns the filter catalog.
func (g *NodeGraph) Registry() *filter.Registry { return g.registry }

// AddNode registers n.
func (g *NodeGraph) AddNode(n Node) error {
	if n == nil {
		return ErrNilNode
	}
	id := n.ID()
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.nodes[id] = n
	g.metrics.SetNodes(len(g.nodes))
	g.publish(NodeAdded, id)
	return nil
}

// RemoveNode destroys every binding touching id, then the node itself if it
// was ready, and unregisters it.
func (g *NodeGraph) RemoveNode(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	g.destroyBindingsTouching(id)

	if _, ready := g.ready[id]; ready {
		n.OnDestroy()
	}
	delete(g.nodes, id)
	delete(g.ready, id)
	g.metrics.SetNodes(len(g.nodes))
	g.publish(NodeRemoved, id)
	return nil
}

// Node returns the node registered under id.
func (g *NodeGraph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs lists registered node ids in lexical order.
func (g *NodeGraph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadBinding resolves def, checks it cannot close a cycle, builds its filter
// chain and connects it. On error the graph is left as it was.
func (g *NodeGraph) LoadBinding(ctx context.Context, def Definition) (*LoadedBinding, error) {
	b, err := g.loadBinding(ctx, def)
	if err != nil {
		g.metrics.Rejected(rejectionReason(err))
		g.logger.Warn("binding rejected",
			"source", def.Source,
			"destination", def.Destination,
			"error", err,
		)
		return nil, err
	}

	g.bindings[b.id] = b
	g.metrics.SetBindings(len(g.bindings))
	g.logger.Debug("binding loaded", "binding", b.id, "filters", len(b.filters))
	g.publish(BindingLoaded, b.id)
	return b, nil
}

func (g *NodeGraph) loadBinding(ctx context.Context, def Definition) (*LoadedBinding, error) {
	if err := validation.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	srcRef, dstRef, err := def.Endpoints()
	if err != nil {
		return nil, err
	}
	if srcRef.Node == dstRef.Node {
		return nil, fmt.Errorf("%w: %s -> %s", ErrSelfBinding, srcRef, dstRef)
	}
	out, in, err := g.resolve(srcRef, dstRef)
	if err != nil {
		return nil, err
	}
	if g.wouldCycle(srcRef.Node, dstRef.Node) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCyclicBinding, srcRef.Node, dstRef.Node)
	}

	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := g.bindings[id]; exists {
		return nil, fmt.Errorf("%w: id %s", ErrDuplicateBinding, id)
	}
	if existing := g.findByEndpoints(srcRef, dstRef); existing != nil {
		return nil, fmt.Errorf("%w: %s -> %s already loaded as %s", ErrDuplicateBinding, srcRef, dstRef, existing.id)
	}
	if up := in.Upstream(); up != nil {
		return nil, fmt.Errorf("%w: %s is fed by %s", ErrInputBound, dstRef, up)
	}

	filters, err := g.buildFilters(out.Type(), def.Filters)
	if err != nil {
		return nil, err
	}

	produced := out.Type()
	if len(filters) > 0 {
		produced = filters[len(filters)-1].OutputType()
	}
	if !port.Compatible(produced, in.Type()) {
		g.discardFilters(filters)
		return nil, fmt.Errorf("%w: %s (%s) -> %s (%s)", port.ErrTypeMismatch, srcRef, produced, dstRef, in.Type())
	}

	b := newLoadedBinding(id, def, srcRef, dstRef, out, in, filters)
	if err := b.Connect(ctx); err != nil {
		g.discardFilters(filters)
		return nil, err
	}
	return b, nil
}

// buildFilters creates and registers one filter node per spec, shaping each
// from the type produced by the stage before it.
func (g *NodeGraph) buildFilters(upstream string, specs []FilterSpec) ([]*filter.Node, error) {
	filters := make([]*filter.Node, 0, len(specs))
	running := upstream
	for _, spec := range specs {
		f, err := g.registry.Create(spec.Type, spec.Config)
		if err != nil {
			g.discardFilters(filters)
			return nil, err
		}
		fn, err := filter.NewNode(
			fmt.Sprintf("%s-%s", spec.Type, uuid.NewString()),
			f,
			running,
			filter.WithLogger(g.logger),
			filter.WithMetrics(g.metrics),
			filter.WithNotifyDepth(g.notifyDepth),
		)
		if err != nil {
			g.discardFilters(filters)
			return nil, err
		}
		g.nodes[fn.ID()] = fn
		fn.OnReady()
		g.ready[fn.ID()] = struct{}{}
		filters = append(filters, fn)
		running = fn.OutputType()
	}
	g.metrics.SetNodes(len(g.nodes))
	return filters, nil
}

func (g *NodeGraph) discardFilters(filters []*filter.Node) {
	for _, fn := range filters {
		fn.OnDestroy()
		delete(g.nodes, fn.ID())
		delete(g.ready, fn.ID())
	}
	g.metrics.SetNodes(len(g.nodes))
}

func (g *NodeGraph) resolve(srcRef, dstRef PortRef) (out, in *port.Port, err error) {
	src, ok := g.nodes[srcRef.Node]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, srcRef.Node)
	}
	dst, ok := g.nodes[dstRef.Node]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, dstRef.Node)
	}
	if out, err = src.OutputPort(srcRef.Port); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrPortNotFound, err)
	}
	if in, err = dst.InputPort(dstRef.Port); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrPortNotFound, err)
	}
	return out, in, nil
}

func (g *NodeGraph) findByEndpoints(src, dst PortRef) *LoadedBinding {
	for _, b := range g.bindings {
		if b.source == src && b.destination == dst {
			return b
		}
	}
	return nil
}

// DeleteBinding destroys the binding whose endpoints match def.
func (g *NodeGraph) DeleteBinding(def Definition) error {
	srcRef, dstRef, err := def.Endpoints()
	if err != nil {
		return err
	}
	b := g.findByEndpoints(srcRef, dstRef)
	if b == nil {
		return fmt.Errorf("%w: %s -> %s", ErrBindingNotFound, srcRef, dstRef)
	}
	g.destroyBinding(b)
	return nil
}

// RemoveBinding destroys the binding registered under id.
func (g *NodeGraph) RemoveBinding(id string) error {
	b, ok := g.bindings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBindingNotFound, id)
	}
	g.destroyBinding(b)
	return nil
}

// destroyBinding tears b down and drops its filter nodes, along with any
// binding that was attached to one of them.
func (g *NodeGraph) destroyBinding(b *LoadedBinding) {
	if _, ok := g.bindings[b.id]; !ok {
		return
	}
	delete(g.bindings, b.id)
	b.Destroy()
	for _, fn := range b.filters {
		delete(g.nodes, fn.ID())
		delete(g.ready, fn.ID())
		g.destroyBindingsTouching(fn.ID())
	}

	g.metrics.SetNodes(len(g.nodes))
	g.metrics.SetBindings(len(g.bindings))
	g.logger.Debug("binding destroyed", "binding", b.id)
	g.publish(BindingDeleted, b.id)
}

func (g *NodeGraph) destroyBindingsTouching(nodeID string) {
	for _, id := range g.BindingIDs() {
		if b, ok := g.bindings[id]; ok && b.Touches(nodeID) {
			g.destroyBinding(b)
		}
	}
}

// Binding returns the binding registered under id.
func (g *NodeGraph) Binding(id string) (*LoadedBinding, bool) {
	b, ok := g.bindings[id]
	return b, ok
}

// BindingIDs lists binding ids in lexical order.
func (g *NodeGraph) BindingIDs() []string {
	ids := make([]string, 0, len(g.bindings))
	for id := range g.bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Bindings lists the loaded bindings ordered by id.
func (g *NodeGraph) Bindings() []*LoadedBinding {
	out := make([]*LoadedBinding, 0, len(g.bindings))
	for _, id := range g.BindingIDs() {
		out = append(out, g.bindings[id])
	}
	return out
}

// CanBind reports, without side effects, whether outputRef may be bound to
// inputRef: the nodes must differ, both ports must exist and the types must
// be compatible.
func (g *NodeGraph) CanBind(outputRef, inputRef string) error {
	srcRef, err := ParsePortRef(outputRef)
	if err != nil {
		return err
	}
	dstRef, err := ParsePortRef(inputRef)
	if err != nil {
		return err
	}
	if srcRef.Node == dstRef.Node {
		return fmt.Errorf("%w: %s -> %s", ErrSelfBinding, srcRef, dstRef)
	}
	out, in, err := g.resolve(srcRef, dstRef)
	if err != nil {
		return err
	}
	if !port.Compatible(out.Type(), in.Type()) {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", port.ErrTypeMismatch, srcRef, out.Type(), dstRef, in.Type())
	}
	return nil
}

// Ready calls OnReady on every node not yet swept. Safe to call repeatedly.
func (g *NodeGraph) Ready() {
	swept := 0
	for _, id := range g.NodeIDs() {
		if _, done := g.ready[id]; done {
			continue
		}
		g.nodes[id].OnReady()
		g.ready[id] = struct{}{}
		swept++
	}
	g.logger.Debug("ready sweep", "nodes", swept)
}

// IsReady reports whether the node has been through a ready sweep.
func (g *NodeGraph) IsReady(id string) bool {
	_, ok := g.ready[id]
	return ok
}

// Destroy tears down every binding, then every ready node, and empties the
// graph.
func (g *NodeGraph) Destroy() {
	for _, id := range g.BindingIDs() {
		if b, ok := g.bindings[id]; ok {
			g.destroyBinding(b)
		}
	}
	for _, id := range g.NodeIDs() {
		if _, ready := g.ready[id]; ready {
			g.nodes[id].OnDestroy()
		}
	}
	clear(g.nodes)
	clear(g.bindings)
	clear(g.ready)
	g.metrics.SetNodes(0)
	g.metrics.SetBindings(0)
	g.publish(GraphDestroyed, "")
}

// OnStructureChange registers fn for structural changes.
func (g *NodeGraph) OnStructureChange(fn func(StructureEvent)) func() {
	return g.structure.OnChange(fn)
}

func (g *NodeGraph) publish(change StructureChange, subject string) {
	g.revision++
	g.structure.Set(StructureEvent{Revision: g.revision, Change: change, Subject: subject})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrCyclicBinding):
		return "cycle"
	case errors.Is(err, ErrNodeNotFound), errors.Is(err, ErrPortNotFound):
		return "not_found"
	case errors.Is(err, port.ErrTypeMismatch), errors.Is(err, filter.ErrIncompatibleUpstream):
		return "type_mismatch"
	case errors.Is(err, ErrDuplicateBinding), errors.Is(err, ErrInputBound), errors.Is(err, port.ErrAlreadyConnected):
		return "duplicate"
	case errors.Is(err, filter.ErrUnknownFilter), errors.Is(err, filter.ErrInvalidConfig):
		return "filter"
	default:
		return "invalid"
	}
}

var (
	_ Node = (*node.Node)(nil)
	_ Node = (*filter.Node)(nil)
)
