// Package filter provides the transform stages that can be inserted along a
// binding. Each filter kind shapes its ports from the upstream type and maps
// values flowing through its main input to its main output.
package filter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowgraph/portgraph/internal/core/port"
	"github.com/flowgraph/portgraph/pkg/validation"
)

// Kind identifies a filter variant.
type Kind string

// Built-in filter kinds
const (
	KindInvert     Kind = "invert"
	KindAdd        Kind = "add"
	KindMultiply   Kind = "multiply"
	KindClampRange Kind = "clampRange"
	KindGate       Kind = "gate"
	KindLowPass    Kind = "lowPass"
	KindOffset     Kind = "offset"
)

// Main port names shared by every filter.
const (
	InputPortName  = "in"
	OutputPortName = "out"
)

// Shape is the set of port descriptors a filter needs for one upstream type.
type Shape struct {
	Input  port.Descriptor
	Output port.Descriptor
	Extra  []port.Descriptor
}

// Filter is one configured transform stage.
// PRINCIPLES:
// - ISP: side inputs and reversal are separate optional interfaces
type Filter interface {
	Kind() Kind
	// Shape derives the port descriptors from the type flowing in.
	Shape(upstream string) (Shape, error)
	// Forward maps an input value. ok=false suppresses the value.
	Forward(v any) (out any, ok bool, err error)
}

// SideReceiver is implemented by filters with side-channel inputs.
type SideReceiver interface {
	SetSide(name string, v any) error
}

// Reverser is implemented by filters that carry values backward from their
// output to their input.
type Reverser interface {
	Backward(v any) (any, error)
}

// Manifest describes a filter kind and builds instances of it.
type Manifest struct {
	Kind         Kind              `json:"kind" validate:"required,filter_kind"`
	Description  string            `json:"description,omitempty"`
	ConfigSchema map[string]string `json:"config_schema,omitempty"`
	New          func(cfg map[string]any) (Filter, error) `json:"-"`
}

// Validate checks the manifest can be registered.
func (m Manifest) Validate() error {
	if m.New == nil {
		return validation.ValidationErrors{{Field: "new", Message: "constructor is required"}}
	}
	return nil
}

// Registry maps filter kinds to manifests. Registries are plain values passed
// to the graph; there is no process-wide catalog.
type Registry struct {
	mu        sync.RWMutex
	manifests map[Kind]Manifest
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{manifests: make(map[Kind]Manifest)}
}

// NewBuiltinRegistry creates a registry holding every built-in kind.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, m := range Builtins() {
		if err := r.Register(m); err != nil {
			panic(fmt.Sprintf("filter: register builtin %s: %v", m.Kind, err))
		}
	}
	return r
}

// Register adds m; registering a kind twice fails.
func (r *Registry) Register(m Manifest) error {
	if err := validation.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.manifests[m.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFilter, m.Kind)
	}
	r.manifests[m.Kind] = m
	return nil
}

// Lookup returns the manifest registered for kind.
func (r *Registry) Lookup(kind Kind) (Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[kind]
	if !ok {
		return Manifest{}, fmt.Errorf("%w: %s", ErrUnknownFilter, kind)
	}
	return m, nil
}

// Create looks up kind and builds a filter from cfg.
func (r *Registry) Create(kind Kind, cfg map[string]any) (Filter, error) {
	m, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	f, err := m.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", kind, err)
	}
	return f, nil
}

// Kinds lists the registered kinds in lexical order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.manifests))
	for k := range r.manifests {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
