package config

import (
	"errors"
)

// Sentinel error kinds for loading and validation. Callers use errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
