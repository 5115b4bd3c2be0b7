package loader

import "errors"

// Sentinel kinds for catalog loading errors.
var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrPacksUnavailable   = errors.New("pack list unavailable")
	ErrPackNotFound       = errors.New("pack not found")
)
