// Package loader resolves a list's catalog into ranked, hydrated level
// results.
//
// Level documents are fetched concurrently and written into a slice indexed
// by catalog position, so results always follow catalog order. A level
// document that is missing or malformed fails only its own position; a
// missing or malformed catalog fails the whole load.
package loader

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tally/internal/adapters/storage"
	"github.com/okian/tally/internal/domain/catalog"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/packs"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Default loader configuration constants.
const (
	defaultConcurrencyMultiplier = 4
	defaultFetchTimeout          = 5 * time.Second
)

// Catalog is a fully loaded list.
type Catalog struct {
	List    string
	Results []model.LevelResult
	Packs   *packs.Index
}

// Ranked counts results holding a rank.
func (c *Catalog) Ranked() int {
	n := 0
	for _, r := range c.Results {
		if r.Rank > 0 {
			n++
		}
	}
	return n
}

// Failed counts results whose level document failed to load.
func (c *Catalog) Failed() int {
	n := 0
	for _, r := range c.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Loader reads catalogs from a Store.
type Loader struct {
	store       storage.Store
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
}

// New creates a Loader reading from store.
func New(store storage.Store, opts ...Option) *Loader {
	l := &Loader{
		store:       store,
		concurrency: runtime.NumCPU() * defaultConcurrencyMultiplier,
		timeout:     defaultFetchTimeout,
		logger:      logger.Get().Named("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns list's levels in catalog order.
func (l *Loader) Load(ctx context.Context, list string) ([]model.LevelResult, error) {
	c, err := l.LoadCatalog(ctx, list)
	if err != nil {
		return nil, err
	}
	return c.Results, nil
}

// LoadCatalog loads list's levels together with its pack index.
func (l *Loader) LoadCatalog(ctx context.Context, list string) (*Catalog, error) {
	start := time.Now()

	c, err := l.loadCatalog(ctx, list)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordCatalogLoad(list, outcome, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}

	metrics.UpdateLevels(list, c.Ranked(), len(c.Results)-c.Ranked(), c.Failed())
	l.logger.Debug(ctx, "catalog loaded",
		logger.String("list", list),
		logger.Int("levels", len(c.Results)),
		logger.Int("failed", c.Failed()),
		logger.Duration("took", time.Since(start)),
	)
	return c, nil
}

func (l *Loader) loadCatalog(ctx context.Context, list string) (*Catalog, error) {
	ids, err := l.readCatalog(ctx, list)
	if err != nil {
		return nil, err
	}
	idx, err := l.LoadPacks(ctx, list)
	if err != nil {
		return nil, err
	}

	entries := catalog.Parse(ids)
	results := make([]model.LevelResult, len(entries))

	err = l.fanOut(ctx, len(entries), func(ctx context.Context, i int) {
		e := entries[i]
		lvl, err := l.fetchLevel(ctx, list, e.Path)
		if err != nil {
			metrics.RecordLevelFetchError(list)
			l.logger.Warn(ctx, "level failed to load",
				logger.String("list", list),
				logger.String("id", e.ID),
				logger.Error(err),
			)
			results[i] = model.LevelResult{Err: e.ID, Rank: e.Rank}
			return
		}
		lvl.Rank = e.Rank
		lvl.Pending = e.Pending
		lvl.Packs = idx.ForLevel(e.Path)
		results[i] = model.LevelResult{Rank: e.Rank, Level: lvl}
	})
	if err != nil {
		return nil, err
	}

	return &Catalog{List: list, Results: results, Packs: idx}, nil
}

// LoadPacks returns list's pack index. A list without a pack document has
// no packs; a pack document that cannot be read or parsed is an error.
func (l *Loader) LoadPacks(ctx context.Context, list string) (*packs.Index, error) {
	b, err := l.store.Read(ctx, storage.PackListName(list))
	if errors.Is(err, storage.ErrNotFound) {
		return packs.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPacksUnavailable, list, err)
	}
	var all []model.Pack
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPacksUnavailable, list, err)
	}
	return packs.New(all), nil
}

// LoadPack returns the levels of the pack called name, in pack order, each
// with its current list rank. Levels that fail to load are reported per
// entry.
func (l *Loader) LoadPack(ctx context.Context, list, name string) ([]model.PackLevel, error) {
	idx, err := l.LoadPacks(ctx, list)
	if err != nil {
		return nil, err
	}
	p, ok := idx.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPackNotFound, name)
	}
	ids, err := l.readCatalog(ctx, list)
	if err != nil {
		return nil, err
	}
	ranks := catalog.Ranks(catalog.Parse(ids))

	out := make([]model.PackLevel, len(p.Levels))
	err = l.fanOut(ctx, len(p.Levels), func(ctx context.Context, i int) {
		path := p.Levels[i]
		rank := ranks[path]
		lvl, err := l.fetchLevel(ctx, list, path)
		if err != nil {
			l.logger.Warn(ctx, "pack level failed to load",
				logger.String("list", list),
				logger.String("pack", name),
				logger.String("path", path),
				logger.Error(err),
			)
			out[i] = model.PackLevel{Err: path, Path: path, ListRank: rank}
			return
		}
		lvl.Rank = rank
		lvl.Packs = idx.ForLevel(path)
		out[i] = model.PackLevel{Path: path, ListRank: rank, Level: lvl}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadEditors returns the editors document. A missing or malformed
// document yields no editors.
func (l *Loader) LoadEditors(ctx context.Context) ([]model.Editor, error) {
	b, err := l.store.Read(ctx, storage.EditorsName())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn(ctx, "editors unavailable", logger.Error(err))
		}
		return []model.Editor{}, nil
	}
	var editors []model.Editor
	if err := json.Unmarshal(b, &editors); err != nil {
		l.logger.Warn(ctx, "editors malformed", logger.Error(err))
		return []model.Editor{}, nil
	}
	if editors == nil {
		editors = []model.Editor{}
	}
	return editors, nil
}

func (l *Loader) readCatalog(ctx context.Context, list string) ([]string, error) {
	b, err := l.store.Read(ctx, storage.CatalogName(list))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, list, err)
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, list, err)
	}
	return ids, nil
}

// fetchLevel reads, parses and validates one level document. Records come
// back sorted by percent, highest first; equal percents keep document order.
func (l *Loader) fetchLevel(ctx context.Context, list, path string) (*model.Level, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLevelFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	b, err := l.store.Read(ctx, storage.LevelName(list, path))
	if err != nil {
		return nil, err
	}
	var lvl model.Level
	if err := json.Unmarshal(b, &lvl); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidLevel, err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}

	lvl.Path = path
	slices.SortStableFunc(lvl.Records, func(a, b model.Record) int {
		return cmp.Compare(b.Percent, a.Percent)
	})
	return &lvl, nil
}

// fanOut calls fetch for every index in [0, n) with bounded concurrency.
// Each call gets its own timeout. fetch must record its own outcome; the
// only error returned is the cancellation of ctx.
func (l *Loader) fanOut(ctx context.Context, n int, fetch func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fctx := gctx
			if l.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, l.timeout)
				defer cancel()
			}
			fetch(fctx, i)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}
