package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownList     = errors.New("unknown list")
	ErrListUnavailable = errors.New("list unavailable")
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("refresh queue full")
)
