package service

import (
	"fmt"

	"github.com/okian/tally/internal/adapters/storage"
	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/internal/domain/scoring"
)

// NewStore opens the document store cfg points at: the HTTP store when
// DataURL is set, the data directory otherwise.
func NewStore(cfg *config.Config) (storage.Store, error) {
	if cfg.DataURL != "" {
		s, err := storage.NewHTTPStore(cfg.DataURL)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.DataURL, err)
		}
		return s, nil
	}
	return storage.NewFileStore(cfg.DataDir), nil
}

// FromConfig builds a Service from cfg. Later opts override the ones
// derived from cfg.
func FromConfig(cfg *config.Config, opts ...Option) (*Service, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithStore(store),
		WithScorer(scoring.NewListScorer(
			scoring.WithMaxRank(cfg.ScoringMaxRank),
			scoring.WithProgressCutoff(cfg.ScoringProgressCutoff),
		)),
		WithLists(cfg.Lists...),
		WithDefaultList(cfg.DefaultList),
		WithCacheTTL(cfg.CacheTTL()),
		WithFetchConcurrency(cfg.FetchConcurrency),
		WithFetchTimeout(cfg.FetchTimeout()),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
	}
	return New(append(base, opts...)...), nil
}
