package ioerr

import "errors"

var (
	// Allocation
	ErrUnknownPort    = errors.New("unknown_port")
	ErrUnknownPin     = errors.New("unknown_pin")
	ErrFnNotAvailable = errors.New("fn_not_available")

	// String surfaces (fetch/bus payloads)
	ErrInvalidPort = errors.New("invalid_port")
	ErrInvalidMode = errors.New("invalid_mode")
	ErrInvalidFn   = errors.New("invalid_fn")
)
