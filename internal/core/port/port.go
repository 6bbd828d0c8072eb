// Package port implements the typed, directional endpoints nodes expose and
// the protocol that wires and propagates data between them.
package port

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowgraph/portgraph/internal/core/reactive"
	"github.com/flowgraph/portgraph/internal/infrastructure/metrics"
)

// Handler consumes data arriving at a port. Returned errors and panics are
// logged by the port and never reach the sender.
type Handler func(ctx context.Context, data PortData, src SourceType) error

// Owner is the node a port belongs to.
type Owner interface {
	ID() string
}

// ConnectivityEvent is the lightweight notification emitted whenever data
// passes through a port or its wiring changes. It never carries the value.
type ConnectivityEvent struct {
	Revision  uint64 `json:"revision"`
	Timestamp int64  `json:"timestamp"`
	Connected bool   `json:"connected"`
}

// Option configures a Port.
type Option func(*Port)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Port) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics attaches delivery and handler-error counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Port) { p.metrics = m }
}

// WithNotifyDepth bounds nested connectivity notifications. Zero keeps the
// reactive default.
func WithNotifyDepth(n int) Option {
	return func(p *Port) { p.notifyDepth = n }
}

// Port is a typed connection endpoint. An output fans out to any number of
// inputs; an input accepts at most one upstream output.
type Port struct {
	desc Descriptor

	mu         sync.RWMutex
	owner      Owner
	lastData   *PortData
	handlers   map[uint64]Handler
	nextID     uint64
	upstream   *Port
	teardowns  []func()
	downstream map[*Port]struct{}
	destroyed  bool
	revision   uint64

	connectivity *reactive.Observable[ConnectivityEvent]
	logger       *slog.Logger
	metrics      *metrics.Metrics
	notifyDepth  int
}

// New creates a port from a validated descriptor.
func New(desc Descriptor, opts ...Option) (*Port, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	p := &Port{
		desc:       desc,
		handlers:   make(map[uint64]Handler),
		downstream: make(map[*Port]struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.connectivity = reactive.New(ConnectivityEvent{},
		reactive.WithLogger(p.logger),
		reactive.WithName("port:"+desc.Name),
		reactive.WithMaxDepth(p.notifyDepth),
	)
	return p, nil
}

// Name returns the port name, unique within its node.
func (p *Port) Name() string { return p.desc.Name }

// Type returns the compatibility tag.
func (p *Port) Type() string { return p.desc.Type }

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() Direction { return p.desc.Direction }

// Descriptor returns the static shape of the port.
func (p *Port) Descriptor() Descriptor { return p.desc }

// IsInput reports whether the port accepts an upstream.
func (p *Port) IsInput() bool { return p.desc.Direction == DirectionInput }

// IsOutput reports whether the port fans out.
func (p *Port) IsOutput() bool { return p.desc.Direction == DirectionOutput }

// Owner returns the node the port was added to, or nil.
func (p *Port) Owner() Owner {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.owner
}

// SetOwner back-references the owning node.
func (p *Port) SetOwner(o Owner) {
	p.mu.Lock()
	p.owner = o
	p.mu.Unlock()
}

func (p *Port) String() string {
	if o := p.Owner(); o != nil {
		return o.ID() + "." + p.desc.Name
	}
	return p.desc.Name
}

// LastData returns the most recent envelope seen by the port.
func (p *Port) LastData() (PortData, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastData == nil {
		return PortData{}, false
	}
	return *p.lastData, true
}

// AddDataHandler registers h and returns a function removing it.
func (p *Port) AddDataHandler(h Handler) func() {
	p.mu.Lock()
	id := p.addHandlerLocked(h)
	p.mu.Unlock()
	return func() { p.removeHandler(id) }
}

// HandlerCount returns the number of registered handlers, relays included.
func (p *Port) HandlerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

func (p *Port) addHandlerLocked(h Handler) uint64 {
	id := p.nextID
	p.nextID++
	p.handlers[id] = h
	return id
}

func (p *Port) removeHandler(id uint64) {
	p.mu.Lock()
	delete(p.handlers, id)
	p.mu.Unlock()
}

// OnNewData stores data as the port's last value and runs every handler
// concurrently, returning once all of them have settled. Only a malformed
// envelope or a destroyed port produce an error.
func (p *Port) OnNewData(ctx context.Context, data PortData, src SourceType) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("port %s: %w", p, err)
	}

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPortDestroyed, p)
	}
	stored := data
	p.lastData = &stored
	handlers := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	p.metrics.Delivery(directionLabel(src))

	var g errgroup.Group
	for _, h := range handlers {
		h := h
		g.Go(func() error {
			p.invoke(ctx, h, data, src)
			return nil
		})
	}
	_ = g.Wait()

	p.touch()
	return nil
}

// Emit wraps v in a fresh envelope and pushes it as the port's owner.
func (p *Port) Emit(ctx context.Context, v any) error {
	return p.OnNewData(ctx, NewData(v), SourcePortOwner)
}

func (p *Port) invoke(ctx context.Context, h Handler, data PortData, src SourceType) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.HandlerError()
			p.logger.Error("port data handler panicked",
				"port", p.String(),
				"source", src.String(),
				"panic", r,
			)
		}
	}()

	if err := h(ctx, data, src); err != nil {
		p.metrics.HandlerError()
		p.logger.Error("port data handler failed",
			"port", p.String(),
			"source", src.String(),
			"error", err,
		)
	}
}

// ConnectToInput wires this output to target. Reconnecting to the current
// upstream is a no-op.
func (p *Port) ConnectToInput(ctx context.Context, target *Port) error {
	if target == nil {
		return ErrNilPort
	}
	if target == p {
		return fmt.Errorf("%w: %s", ErrSelfConnection, p)
	}
	if !p.IsOutput() {
		return fmt.Errorf("%w: %s", ErrNotOutput, p)
	}
	if !target.IsInput() {
		return fmt.Errorf("%w: %s", ErrNotInput, target)
	}
	if !Compatible(p.Type(), target.Type()) {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrTypeMismatch, p, p.Type(), target, target.Type())
	}
	return target.attach(ctx, p)
}

// ConnectToOutput wires source to this input.
func (p *Port) ConnectToOutput(ctx context.Context, source *Port) error {
	if source == nil {
		return ErrNilPort
	}
	if source == p {
		return fmt.Errorf("%w: %s", ErrSelfConnection, p)
	}
	if !p.IsInput() {
		return fmt.Errorf("%w: %s", ErrNotInput, p)
	}
	return source.ConnectToInput(ctx, p)
}

// attach installs the forward relay on src and the backward relay on p, then
// seeds p with the last value src has seen.
func (p *Port) attach(ctx context.Context, src *Port) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPortDestroyed, p)
	}
	if current := p.upstream; current != nil {
		p.mu.Unlock()
		if current == src {
			return nil
		}
		return fmt.Errorf("%w: %s is fed by %s", ErrAlreadyConnected, p, current)
	}

	removeForward, err := src.addRelay(p, func(ctx context.Context, data PortData, s SourceType) error {
		if s == SourceDownstream {
			return nil
		}
		return p.OnNewData(ctx, data, SourceUpstream)
	})
	if err != nil {
		p.mu.Unlock()
		return err
	}

	backwardID := p.addHandlerLocked(func(ctx context.Context, data PortData, s SourceType) error {
		if s == SourceUpstream {
			return nil
		}
		return src.OnNewData(ctx, data, SourceDownstream)
	})

	p.upstream = src
	p.teardowns = []func(){
		removeForward,
		func() { p.removeHandler(backwardID) },
	}
	p.mu.Unlock()

	p.touch()
	src.touch()

	if last, ok := src.LastData(); ok {
		return p.OnNewData(ctx, last, SourcePortOwner)
	}
	return nil
}

// addRelay registers the forward relay feeding input.
func (p *Port) addRelay(input *Port, h Handler) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return nil, fmt.Errorf("%w: %s", ErrPortDestroyed, p.desc.Name)
	}

	id := p.addHandlerLocked(h)
	p.downstream[input] = struct{}{}
	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		delete(p.downstream, input)
		p.mu.Unlock()
	}, nil
}

// DisconnectFromOutput removes both relays of this input's connection.
func (p *Port) DisconnectFromOutput() {
	p.mu.Lock()
	teardowns := p.teardowns
	upstream := p.upstream
	p.teardowns = nil
	p.upstream = nil
	p.mu.Unlock()

	for _, fn := range teardowns {
		fn()
	}
	p.touch()
	if upstream != nil {
		upstream.touch()
	}
}

// HasConnection reports whether an input has an upstream or an output feeds
// at least one input.
func (p *Port) HasConnection() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connectedLocked()
}

func (p *Port) connectedLocked() bool {
	if p.IsInput() {
		return p.upstream != nil
	}
	return len(p.downstream) > 0
}

// Upstream returns the output feeding this input, or nil.
func (p *Port) Upstream() *Port {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.upstream
}

// Downstream returns the inputs this output feeds, ordered by name.
func (p *Port) Downstream() []*Port {
	p.mu.RLock()
	out := make([]*Port, 0, len(p.downstream))
	for in := range p.downstream {
		out = append(out, in)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// NotifyDepth returns the nesting ceiling of connectivity notifications.
func (p *Port) NotifyDepth() int { return p.connectivity.MaxDepth() }

// OnConnectivityChange registers fn for connectivity events.
func (p *Port) OnConnectivityChange(fn func(ConnectivityEvent)) func() {
	return p.connectivity.OnChange(fn)
}

// Destroy clears handlers, drops the upstream connection, disconnects every
// input this port feeds and removes connectivity observers. Used once, while
// the owning node is torn down.
func (p *Port) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.handlers = make(map[uint64]Handler)
	teardowns := p.teardowns
	upstream := p.upstream
	p.teardowns = nil
	p.upstream = nil
	downstream := make([]*Port, 0, len(p.downstream))
	for in := range p.downstream {
		downstream = append(downstream, in)
	}
	p.downstream = make(map[*Port]struct{})
	p.mu.Unlock()

	for _, fn := range teardowns {
		fn()
	}
	if upstream != nil {
		upstream.touch()
	}
	for _, in := range downstream {
		in.DisconnectFromOutput()
	}
	p.connectivity.Clear()
}

// IsDestroyed reports whether Destroy has run.
func (p *Port) IsDestroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destroyed
}

func (p *Port) touch() {
	p.mu.Lock()
	p.revision++
	ev := ConnectivityEvent{
		Revision:  p.revision,
		Timestamp: time.Now().UnixMilli(),
		Connected: p.connectedLocked(),
	}
	p.mu.Unlock()
	p.connectivity.Set(ev)
}

func directionLabel(src SourceType) string {
	switch src {
	case SourceUpstream:
		return metrics.DirectionForward
	case SourceDownstream:
		return metrics.DirectionBackward
	default:
		return metrics.DirectionOwner
	}
}
