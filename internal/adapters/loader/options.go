package loader

import (
	"time"

	"github.com/okian/tally/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithConcurrency bounds the number of level documents fetched at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithFetchTimeout bounds a single document fetch. Zero disables it.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d >= 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}
