// Package probe checks a running tally server from the outside: it fetches
// a leaderboard, verifies its invariants and spot-checks rank lookups
// against it.
package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/pkg/logger"
)

// Default probe configuration constants.
const (
	defaultTimeout     = 30 * time.Second
	defaultSamples     = 10
	defaultConcurrency = 4
)

// Config controls a probe run.
type Config struct {
	BaseURL     string
	List        string
	Timeout     time.Duration
	Samples     int // rows whose rank lookup is cross-checked
	Concurrency int
}

// Report is the outcome of a probe run.
type Report struct {
	List         string        `json:"list"`
	Snapshot     string        `json:"snapshot"`
	Rows         int           `json:"rows"`
	FailedLevels []string      `json:"failedLevels"`
	RanksChecked int           `json:"ranksChecked"`
	Violations   []Violation   `json:"violations"`
	Duration     time.Duration `json:"duration"`
}

// OK reports whether no violation was found.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

// Run probes the server described by cfg. A report is returned whenever
// the leaderboard could be fetched; the error wraps ErrInconsistent when
// it holds violations.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Samples < 0 {
		cfg.Samples = 0
	} else if cfg.Samples == 0 {
		cfg.Samples = defaultSamples
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	log := logger.Get().Named("probe")
	start := time.Now()
	c := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := c.Health(ctx); err != nil {
		return nil, err
	}
	board, err := c.Leaderboard(ctx, cfg.List)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	log.Info(ctx, "leaderboard fetched",
		logger.String("list", board.List),
		logger.String("snapshot", board.Snapshot),
		logger.Int("rows", len(board.Rows)),
		logger.Int("failedLevels", len(board.Errors)),
	)

	rep := &Report{
		List:         board.List,
		Snapshot:     board.Snapshot,
		Rows:         len(board.Rows),
		FailedLevels: board.Errors,
		Violations:   Verify(board.Rows),
	}

	mismatches, checked, err := crossCheck(ctx, c, cfg, board)
	if err != nil {
		return nil, err
	}
	rep.RanksChecked = checked
	rep.Violations = append(rep.Violations, mismatches...)
	rep.Duration = time.Since(start)

	if !rep.OK() {
		for _, v := range rep.Violations {
			log.Warn(ctx, "violation", logger.String("detail", v.String()))
		}
		return rep, fmt.Errorf("%w: %d violations", ErrInconsistent, len(rep.Violations))
	}
	log.Info(ctx, "leaderboard consistent",
		logger.Int("ranksChecked", checked),
		logger.Duration("took", rep.Duration),
	)
	return rep, nil
}

// crossCheck looks up the leading rows by name, in another casing, and
// compares the answers with the board.
func crossCheck(ctx context.Context, c *Client, cfg Config, board *Board) ([]Violation, int, error) {
	samples := make([]leaderboard.Row, 0, cfg.Samples)
	for _, r := range board.Rows {
		if len(samples) == cfg.Samples {
			break
		}
		// Names holding a slash cannot be addressed as a path segment.
		if !strings.Contains(r.User, "/") {
			samples = append(samples, r)
		}
	}

	var (
		mu  sync.Mutex
		out []Violation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for _, want := range samples {
		g.Go(func() error {
			got, err := c.Rank(gctx, board.List, swapCase(want.User))
			if err != nil {
				return fmt.Errorf("rank %q: %w", want.User, err)
			}
			if got.Position != want.Position || got.Total != want.Total || got.User != want.User {
				mu.Lock()
				out = append(out, Violation{
					Position: want.Position,
					User:     want.User,
					Problem:  fmt.Sprintf("rank lookup returned #%d %s %.3f", got.Position, got.User, got.Total),
				})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return out, len(samples), nil
}

// swapCase inverts the case of ASCII letters.
func swapCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case 'a' <= c && c <= 'z':
			b[i] = c - 'a' + 'A'
		case 'A' <= c && c <= 'Z':
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
