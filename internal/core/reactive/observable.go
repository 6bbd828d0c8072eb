// Package reactive provides the observable value used for change
// notification throughout the graph.
package reactive

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// DefaultMaxDepth bounds nested notifications on a single Observable.
const DefaultMaxDepth = 100

// Listener receives the new value of an Observable.
type Listener[T any] func(T)

type options struct {
	logger   *slog.Logger
	maxDepth int32
	name     string
}

// Option configures an Observable.
type Option func(*options)

// WithLogger sets the logger used to report aborted notifications.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxDepth overrides DefaultMaxDepth. Zero or negative keeps the default.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = int32(n)
		}
	}
}

// WithName labels the observable in log records.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Observable holds one value and notifies listeners when a structurally
// different value is set.
type Observable[T any] struct {
	mu        sync.RWMutex
	value     T
	listeners map[uint64]Listener[T]
	nextID    uint64

	depth atomic.Int32
	opts  options
}

// New creates an Observable holding initial.
func New[T any](initial T, opts ...Option) *Observable[T] {
	o := &Observable[T]{
		value:     initial,
		listeners: make(map[uint64]Listener[T]),
		opts: options{
			logger:   slog.Default(),
			maxDepth: DefaultMaxDepth,
		},
	}
	for _, opt := range opts {
		opt(&o.opts)
	}
	return o
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set stores v and notifies listeners unless v is structurally equal to the
// current value. It reports whether the value changed.
func (o *Observable[T]) Set(v T) bool {
	o.mu.Lock()
	if reflect.DeepEqual(o.value, v) {
		o.mu.Unlock()
		return false
	}
	o.value = v
	o.mu.Unlock()

	o.notify(v)
	return true
}

// Subscribe registers fn and calls it immediately with the current value.
func (o *Observable[T]) Subscribe(fn Listener[T]) func() {
	unsubscribe := o.OnChange(fn)
	fn(o.Get())
	return unsubscribe
}

// OnChange registers fn without an initial call.
func (o *Observable[T]) OnChange(fn Listener[T]) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

// Len returns the number of registered listeners.
func (o *Observable[T]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.listeners)
}

// MaxDepth returns the nesting ceiling for notifications.
func (o *Observable[T]) MaxDepth() int { return int(o.opts.maxDepth) }

// Clear drops every listener.
func (o *Observable[T]) Clear() {
	o.mu.Lock()
	o.listeners = make(map[uint64]Listener[T])
	o.mu.Unlock()
}

// notify calls listeners in registration order. A notification nested more
// than maxDepth deep is logged and dropped; the counter unwinds with the
// frames that raised it.
func (o *Observable[T]) notify(v T) {
	depth := o.depth.Add(1)
	defer o.depth.Add(-1)

	if depth > o.opts.maxDepth {
		o.opts.logger.Error("observable notification depth exceeded, dropping update",
			"observable", o.opts.name,
			"max_depth", o.opts.maxDepth,
		)
		return
	}

	for _, fn := range o.snapshot() {
		fn(v)
	}
}

func (o *Observable[T]) snapshot() []Listener[T] {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]uint64, 0, len(o.listeners))
	for id := range o.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Listener[T], 0, len(ids))
	for _, id := range ids {
		out = append(out, o.listeners[id])
	}
	return out
}
