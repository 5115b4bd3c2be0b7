// Package repository holds the last built leaderboard of every list.
package repository

import "github.com/okian/tally/pkg/logger"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *MemoryStore) {
		if log != nil {
			s.logger = log
		}
	}
}
