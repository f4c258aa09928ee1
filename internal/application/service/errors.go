package service

import "errors"

var (
	// ErrViewNotFound is returned for an unknown view id
	ErrViewNotFound = errors.New("view not found")
	// ErrNodeNotFound is returned for an unknown node id
	ErrNodeNotFound = errors.New("node not found")
	// ErrAddInFlight is returned when an add for the same address is outstanding
	ErrAddInFlight = errors.New("add already in flight for address")
	// ErrEmptyAddress is returned when an add carries no address
	ErrEmptyAddress = errors.New("address is empty")
	// ErrInvalidPosition is returned for positions with NaN or infinite components
	ErrInvalidPosition = errors.New("position is not finite")
	// ErrResolveFailed wraps resolver failures; the store is left unchanged
	ErrResolveFailed = errors.New("failed to resolve wallet")
	// ErrTooManyViews is returned when the view limit is reached
	ErrTooManyViews = errors.New("too many open views")
)
