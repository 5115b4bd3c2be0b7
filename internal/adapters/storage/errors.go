package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound         = errors.New("document not found")
	ErrInvalidPath      = errors.New("invalid document path")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
