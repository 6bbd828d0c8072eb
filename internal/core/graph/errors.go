// Package graph defines domain-specific errors
package graph

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Node errors
	ErrNilNode       = errors.New("node cannot be nil")
	ErrDuplicateNode = errors.New("duplicate node ID")
	ErrNodeNotFound  = errors.New("node not found")
	ErrPortNotFound  = errors.New("port not found")

	// Binding errors
	ErrInvalidDefinition = errors.New("invalid binding definition")
	ErrInvalidPortRef    = errors.New("invalid port reference")
	ErrSelfBinding       = errors.New("binding cannot connect a node to itself")
	ErrCyclicBinding     = errors.New("binding would create a cycle")
	ErrDuplicateBinding  = errors.New("duplicate binding")
	ErrBindingNotFound   = errors.New("binding not found")
	ErrInputBound        = errors.New("destination input already has an upstream")
)
