// Package node provides the port container every graph participant is built
// around, with its ready/destroy lifecycle.
package node

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowgraph/portgraph/internal/core/port"
	"github.com/flowgraph/portgraph/pkg/validation"
)

// Node is a named owner of input and output ports.
// PRINCIPLES:
// - KISS: ports are added at construction and looked up by name
// - SRP: lifecycle bookkeeping only, wiring lives in the graph
type Node struct {
	id string

	mu             sync.RWMutex
	inputs         map[string]*port.Port
	outputs        map[string]*port.Port
	ready          bool
	readyListeners []func()
}

// New creates an empty node.
func New(id string) (*Node, error) {
	if !validation.IsNodeID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNodeID, id)
	}
	return &Node{
		id:      id,
		inputs:  make(map[string]*port.Port),
		outputs: make(map[string]*port.Port),
	}, nil
}

// ID returns the node identifier.
func (n *Node) ID() string { return n.id }

// AddPort files p under its direction and back-references this node.
func (n *Node) AddPort(p *port.Port) error {
	if p == nil {
		return ErrNilPort
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	target := n.outputs
	if p.IsInput() {
		target = n.inputs
	}
	if _, exists := target[p.Name()]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicatePort, n.id, p.Name())
	}
	target[p.Name()] = p
	p.SetOwner(n)
	return nil
}

// NewPort creates a port from desc and adds it to the node.
func (n *Node) NewPort(desc port.Descriptor, opts ...port.Option) (*port.Port, error) {
	p, err := port.New(desc, opts...)
	if err != nil {
		return nil, err
	}
	if err := n.AddPort(p); err != nil {
		return nil, err
	}
	return p, nil
}

// InputPort returns the named input port.
func (n *Node) InputPort(name string) (*port.Port, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.inputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: input %s.%s", ErrPortNotFound, n.id, name)
	}
	return p, nil
}

// OutputPort returns the named output port.
func (n *Node) OutputPort(name string) (*port.Port, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.outputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: output %s.%s", ErrPortNotFound, n.id, name)
	}
	return p, nil
}

// InputPorts lists the input ports ordered by name.
func (n *Node) InputPorts() []*port.Port {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return sorted(n.inputs)
}

// OutputPorts lists the output ports ordered by name.
func (n *Node) OutputPorts() []*port.Port {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return sorted(n.outputs)
}

// IsReady reports whether OnReady has fired since the last OnDestroy.
func (n *Node) IsReady() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ready
}

// OnReady fires the queued ready listeners once; later calls do nothing.
func (n *Node) OnReady() {
	n.mu.Lock()
	if n.ready {
		n.mu.Unlock()
		return
	}
	n.ready = true
	listeners := n.readyListeners
	n.readyListeners = nil
	n.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// AddOnReadyListener queues fn until the node is ready, or runs it now if it
// already is.
func (n *Node) AddOnReadyListener(fn func()) {
	n.mu.Lock()
	if !n.ready {
		n.readyListeners = append(n.readyListeners, fn)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	fn()
}

// OnDestroy destroys every port, clears both port maps and drops the ready
// flag.
func (n *Node) OnDestroy() {
	n.mu.Lock()
	ports := make([]*port.Port, 0, len(n.inputs)+len(n.outputs))
	for _, p := range n.inputs {
		ports = append(ports, p)
	}
	for _, p := range n.outputs {
		ports = append(ports, p)
	}
	n.inputs = make(map[string]*port.Port)
	n.outputs = make(map[string]*port.Port)
	n.ready = false
	n.readyListeners = nil
	n.mu.Unlock()

	for _, p := range ports {
		p.Destroy()
	}
}

func sorted(m map[string]*port.Port) []*port.Port {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*port.Port, 0, len(names))
	for _, name := range names {
		out = append(out, m[name])
	}
	return out
}
