package model

import "errors"

// ErrInvalidLevel marks a level document that parsed but is unusable.
var ErrInvalidLevel = errors.New("invalid level document")
