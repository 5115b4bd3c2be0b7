package service

import (
	"time"

	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/adapters/storage"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/scoring"
	"github.com/okian/tally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the document source.
func WithStore(store storage.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSnapshotStore sets where built leaderboards are kept.
func WithSnapshotStore(snapshots repository.Store) Option {
	return func(s *Service) {
		if snapshots != nil {
			s.snapshots = snapshots
		}
	}
}

// WithScorer sets the scoring function.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithAggregatorOptions passes options through to the aggregator.
func WithAggregatorOptions(opts ...leaderboard.Option) Option {
	return func(s *Service) {
		s.aggregatorOpts = append(s.aggregatorOpts, opts...)
	}
}

// WithLists restricts the lists that may be requested.
func WithLists(lists ...string) Option {
	return func(s *Service) {
		s.lists = append([]string(nil), lists...)
	}
}

// WithDefaultList sets the list used when a request names none.
func WithDefaultList(list string) Option {
	return func(s *Service) {
		if list != "" {
			s.defaultList = list
		}
	}
}

// WithCacheTTL sets how long a built leaderboard is served. Zero rebuilds
// on every request.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithFetchConcurrency bounds concurrent level fetches per load.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithFetchTimeout bounds a single document fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued refreshes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
