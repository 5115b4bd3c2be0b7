// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir is the filesystem root holding one directory per list.
	DataDir string `koanf:"data_dir"`

	// DataURL, when set, reads documents over HTTP instead of DataDir.
	DataURL string `koanf:"data_url"`

	// DefaultList is used when a request names no list.
	DefaultList string `koanf:"default_list"`

	// Lists restricts the list identifiers that may be requested.
	// Empty allows any well-formed identifier.
	Lists []string `koanf:"lists"`

	// FetchConcurrency bounds concurrent level document fetches per load.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// FetchTimeoutMS bounds a single document fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// CacheTTLMS is how long a built leaderboard is served before a rebuild.
	// Zero rebuilds on every request.
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the refresh job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// ScoringMaxRank is the last rank that earns points.
	ScoringMaxRank int `koanf:"scoring_max_rank"`

	// ScoringProgressCutoff is the last rank where partial progress earns points.
	ScoringProgressCutoff int `koanf:"scoring_progress_cutoff"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DataDir:               "data",
		DefaultList:           "dl",
		FetchConcurrency:      runtime.NumCPU() * 4,
		FetchTimeoutMS:        5_000,
		CacheTTLMS:            60_000,
		WorkerCount:           2,
		QueueSize:             64,
		MaxLeaderboardLimit:   1_000,
		ScoringMaxRank:        150,
		ScoringProgressCutoff: 75,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLMS as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "" && c.DataURL == "":
		return fmt.Errorf("%w: one of data_dir or data_url is required", ErrInvalidConfig)
	case strings.TrimSpace(c.DefaultList) == "":
		return fmt.Errorf("%w: default_list must not be empty", ErrInvalidConfig)
	case c.FetchTimeoutMS < 0 || c.CacheTTLMS < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	case c.ScoringProgressCutoff > c.ScoringMaxRank:
		return fmt.Errorf("%w: scoring_progress_cutoff must not exceed scoring_max_rank", ErrInvalidConfig)
	}
	if len(c.Lists) > 0 && !contains(c.Lists, c.DefaultList) {
		return fmt.Errorf("%w: default_list %q is not in lists", ErrInvalidConfig, c.DefaultList)
	}
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
