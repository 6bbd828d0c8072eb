// Package filter defines domain-specific errors
package filter

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Registry errors
	ErrUnknownFilter   = errors.New("filter kind not registered")
	ErrDuplicateFilter = errors.New("filter kind already registered")
	ErrInvalidManifest = errors.New("invalid filter manifest")

	// Construction errors
	ErrInvalidConfig        = errors.New("invalid filter config")
	ErrIncompatibleUpstream = errors.New("filter cannot accept upstream type")

	// Runtime errors
	ErrNonNumeric  = errors.New("value is not numeric")
	ErrUnknownSide = errors.New("unknown side input")
)
