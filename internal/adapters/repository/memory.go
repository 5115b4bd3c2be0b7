package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// MemoryStore keeps snapshots in memory. Reads are lock-free: writers copy
// the list map and publish it through an atomic pointer.
type MemoryStore struct {
	mu        sync.Mutex // serialises writers
	snapshots atomic.Pointer[map[string]*Snapshot]
	logger    logger.Logger
}

// NewMemoryStore constructs an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{logger: logger.Get().Named("repository")}
	for _, opt := range opts {
		opt(s)
	}
	empty := map[string]*Snapshot{}
	s.snapshots.Store(&empty)
	return s
}

func (s *MemoryStore) current() map[string]*Snapshot { return *s.snapshots.Load() }

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.current())
	next[snap.List] = snap
	s.snapshots.Store(&next)

	s.logger.Debug(ctx, "snapshot published",
		logger.String("list", snap.List),
		logger.String("id", snap.ID),
		logger.Int("rows", len(snap.Board.Rows)),
	)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, list string) (*Snapshot, error) {
	snap, ok := s.current()[list]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Rank implements Store.
func (s *MemoryStore) Rank(ctx context.Context, list, user string) (leaderboard.Row, error) {
	snap, err := s.Get(ctx, list)
	if err != nil {
		return leaderboard.Row{}, err
	}
	row, ok := snap.Row(user)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return leaderboard.Row{}, ErrUserNotFound
	}
	return row, nil
}

// TopN implements Store.
func (s *MemoryStore) TopN(ctx context.Context, list string, n int) (*Snapshot, []leaderboard.Row, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, nil, ErrInvalidLimit
	}
	snap, err := s.Get(ctx, list)
	if err != nil {
		return nil, nil, err
	}
	return snap, snap.Top(n), nil
}

// Invalidate implements Store.
func (s *MemoryStore) Invalidate(ctx context.Context, list string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if _, ok := cur[list]; !ok {
		return
	}
	next := maps.Clone(cur)
	delete(next, list)
	s.snapshots.Store(&next)

	s.logger.Debug(ctx, "snapshot dropped", logger.String("list", list))
}

// Lists implements Store.
func (s *MemoryStore) Lists(_ context.Context) []string {
	return slices.Sorted(maps.Keys(s.current()))
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, list string) int {
	snap, ok := s.current()[list]
	if !ok {
		return 0
	}
	return len(snap.Board.Rows)
}
