// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/tally/internal/adapters/loader"
	eventqueue "github.com/okian/tally/internal/adapters/mq/queue"
	workerpool "github.com/okian/tally/internal/adapters/mq/worker"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/adapters/storage"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/scoring"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultList        = "dl"
	defaultDataDir     = "data"
	defaultCacheTTL    = time.Minute
	defaultWorkerCount = 2
	defaultQueueSize   = 64
)

// Service builds, caches and serves leaderboards. Every operation takes an
// explicit list identifier; an empty one means the default list.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      storage.Store
	loader     *loader.Loader
	scorer     scoring.Scorer
	aggregator *leaderboard.Aggregator
	snapshots  repository.Store
	deduper    dedupe.Deduper
	queue      *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	builds     singleflight.Group

	// Configuration
	lists            []string
	defaultList      string
	cacheTTL         time.Duration
	fetchConcurrency int
	fetchTimeout     time.Duration
	workerCount      int
	queueSize        int
	aggregatorOpts   []leaderboard.Option

	// State
	started   bool
	cancelRun context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a Service. It can serve leaderboards right away; Start is
// only needed for asynchronous refreshes.
func New(opts ...Option) *Service {
	s := &Service{
		defaultList: defaultList,
		cacheTTL:    defaultCacheTTL,
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = storage.NewFileStore(defaultDataDir)
	}
	if s.scorer == nil {
		s.scorer = scoring.NewListScorer()
	}
	if s.snapshots == nil {
		s.snapshots = repository.NewMemoryStore()
	}

	loaderOpts := []loader.Option{loader.WithLogger(s.logger.Named("loader"))}
	if s.fetchConcurrency > 0 {
		loaderOpts = append(loaderOpts, loader.WithConcurrency(s.fetchConcurrency))
	}
	if s.fetchTimeout > 0 {
		loaderOpts = append(loaderOpts, loader.WithFetchTimeout(s.fetchTimeout))
	}
	s.loader = loader.New(s.store, loaderOpts...)
	s.aggregator = leaderboard.New(s.scorer, s.aggregatorOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

	return s
}

// Start initializes and starts the refresh workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithOnDone(func(ctx context.Context, j eventqueue.Job, _ error) {
			s.deduper.Unrecord(ctx, j.List)
		}),
	)
	// Workers outlive the start request; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelRun = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("defaultList", s.defaultList),
		logger.Duration("cacheTTL", s.cacheTTL),
	)
	return nil
}

// Stop gracefully shuts down the refresh workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	s.cancelRun()
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	for _, list := range s.deduper.Keys() {
		s.deduper.Unrecord(ctx, list)
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// ResolveList maps a requested list identifier to the list to serve.
func (s *Service) ResolveList(list string) (string, error) {
	if list == "" {
		list = s.defaultList
	}
	if !storage.ValidList(list) {
		return "", fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	if len(s.lists) > 0 && !slices.Contains(s.lists, list) {
		return "", fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	return list, nil
}

// Leaderboard returns list's current snapshot, rebuilding it when it is
// missing or older than the cache TTL. Concurrent rebuilds of one list
// share a single load.
func (s *Service) Leaderboard(ctx context.Context, list string) (*repository.Snapshot, error) {
	list, err := s.ResolveList(list)
	if err != nil {
		return nil, err
	}

	if snap, err := s.snapshots.Get(ctx, list); err == nil && s.fresh(snap) {
		metrics.RecordSnapshotCache(true)
		return snap, nil
	}
	metrics.RecordSnapshotCache(false)

	// The shared build must not die with whichever caller started it.
	ch := s.builds.DoChan(list, func() (any, error) {
		return s.build(context.WithoutCancel(ctx), list, eventqueue.TriggerRequest)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*repository.Snapshot), nil
	}
}

// Standings returns list's current snapshot and its leading n rows, or all
// rows when n < 1.
func (s *Service) Standings(ctx context.Context, list string, n int) (*repository.Snapshot, []leaderboard.Row, error) {
	snap, err := s.Leaderboard(ctx, list)
	if err != nil {
		return nil, nil, err
	}
	if n < 1 {
		return snap, snap.Board.Rows, nil
	}
	top, rows, err := s.snapshots.TopN(ctx, snap.List, n)
	if err != nil {
		return nil, nil, s.lookupErr(snap.List, err)
	}
	return top, rows, nil
}

// Build rebuilds and publishes list's snapshot. It is the refresh workers'
// entry point.
func (s *Service) Build(ctx context.Context, list, trigger string) error {
	_, err := s.build(ctx, list, trigger)
	return err
}

func (s *Service) build(ctx context.Context, list, trigger string) (*repository.Snapshot, error) {
	c, err := s.loader.LoadCatalog(ctx, list)
	if err != nil {
		metrics.RecordErrorByComponent("service", "list_unavailable")
		s.logger.Error(ctx, "list failed to load", logger.String("list", list), logger.Error(err))
		// A list whose catalog is gone must not keep serving its last board.
		if ctx.Err() == nil {
			s.snapshots.Invalidate(ctx, list)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrListUnavailable, list, err)
	}

	start := time.Now()
	board := s.aggregator.Aggregate(c.Results, c.Packs)
	metrics.RecordAggregation(list, float64(time.Since(start).Milliseconds()), len(board.Rows), board.PacksAwarded())

	snap := repository.NewSnapshot(list, board, c.Results, c.Packs.All())
	if err := s.snapshots.Put(ctx, snap); err != nil {
		return nil, fmt.Errorf("publish %s: %w", list, err)
	}
	metrics.RecordSnapshotBuild(list, trigger, snap.BuiltAt)

	s.logger.Info(ctx, "leaderboard built",
		logger.String("list", list),
		logger.String("snapshot", snap.ID),
		logger.String("trigger", trigger),
		logger.Int("contributors", len(board.Rows)),
		logger.Int("failedLevels", len(board.Errors)),
	)
	return snap, nil
}

func (s *Service) fresh(snap *repository.Snapshot) bool {
	return s.cacheTTL > 0 && snap.Age(time.Now()) < s.cacheTTL
}

// Levels returns list's levels in catalog order.
func (s *Service) Levels(ctx context.Context, list string) ([]model.LevelResult, error) {
	snap, err := s.Leaderboard(ctx, list)
	if err != nil {
		return nil, err
	}
	return snap.Levels, nil
}

// Packs returns list's packs.
func (s *Service) Packs(ctx context.Context, list string) ([]model.Pack, error) {
	snap, err := s.Leaderboard(ctx, list)
	if err != nil {
		return nil, err
	}
	return snap.Packs, nil
}

// Pack returns the levels of one of list's packs.
func (s *Service) Pack(ctx context.Context, list, name string) ([]model.PackLevel, error) {
	list, err := s.ResolveList(list)
	if err != nil {
		return nil, err
	}
	levels, err := s.loader.LoadPack(ctx, list, name)
	switch {
	case err == nil:
		return levels, nil
	case errors.Is(err, loader.ErrPackNotFound), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrListUnavailable, list, err)
	}
}

// Editors returns the list editors.
func (s *Service) Editors(ctx context.Context) ([]model.Editor, error) {
	return s.loader.LoadEditors(ctx)
}

// Rank returns user's row on list, matching the name case-insensitively.
func (s *Service) Rank(ctx context.Context, list, user string) (leaderboard.Row, error) {
	snap, err := s.Leaderboard(ctx, list)
	if err != nil {
		return leaderboard.Row{}, err
	}
	row, err := s.snapshots.Rank(ctx, snap.List, user)
	if errors.Is(err, repository.ErrUserNotFound) {
		return leaderboard.Row{}, fmt.Errorf("%w: %s", err, user)
	}
	if err != nil {
		return leaderboard.Row{}, s.lookupErr(snap.List, err)
	}
	return row, nil
}

// lookupErr maps a snapshot dropped between build and read to an
// unavailable list.
func (s *Service) lookupErr(list string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrListUnavailable, list, err)
	}
	return err
}

// Refresh schedules an asynchronous rebuild of list. It returns false
// without error when a rebuild of list is already pending.
func (s *Service) Refresh(ctx context.Context, list string) (bool, error) {
	list, err := s.ResolveList(list)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, list) {
		metrics.RecordRefreshCoalesced()
		s.logger.Debug(ctx, "refresh already pending", logger.String("list", list))
		return false, nil
	}

	job := eventqueue.NewJob(list, eventqueue.TriggerManual)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, list)
		if errors.Is(err, eventqueue.ErrFull) {
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return false, err
	}

	s.logger.Debug(ctx, "refresh queued", logger.String("list", list), logger.String("job", job.ID))
	return true, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	lists := s.snapshots.Lists(ctx)
	contributors := make(map[string]int, len(lists))
	for _, l := range lists {
		contributors[l] = s.snapshots.Count(ctx, l)
	}

	stats := map[string]interface{}{
		"started":          s.started,
		"defaultList":      s.defaultList,
		"cacheTtlMs":       s.cacheTTL.Milliseconds(),
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"pendingRefreshes": s.deduper.Size(),
		"lists":            lists,
		"contributors":     contributors,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	return stats
}
