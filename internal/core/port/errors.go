// Package port defines domain-specific errors
package port

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Envelope errors
	ErrInvalidFormat = errors.New("invalid port data format")

	// Descriptor errors
	ErrInvalidDescriptor = errors.New("invalid port descriptor")

	// Connection errors
	ErrNilPort          = errors.New("port cannot be nil")
	ErrNotOutput        = errors.New("initiating port is not an output")
	ErrNotInput         = errors.New("target port is not an input")
	ErrSelfConnection   = errors.New("port cannot connect to itself")
	ErrTypeMismatch     = errors.New("incompatible port types")
	ErrAlreadyConnected = errors.New("input already bound to a different upstream")
	ErrPortDestroyed    = errors.New("port has been destroyed")
)
