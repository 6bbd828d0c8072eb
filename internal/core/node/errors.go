// Package node defines domain-specific errors
package node

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	ErrInvalidNodeID = errors.New("invalid node ID")
	ErrNilPort       = errors.New("port cannot be nil")
	ErrDuplicatePort = errors.New("duplicate port name")
	ErrPortNotFound  = errors.New("port not found")
)
