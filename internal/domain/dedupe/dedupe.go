// Package dedupe tracks keys that already have work in flight so repeated
// requests for the same key coalesce into one.
package dedupe

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Deduper records keys with pending work.
type Deduper interface {
	// SeenAndRecord atomically checks if key is pending and records it if not.
	// Returns true if key was already pending, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its work is done or could not be scheduled.
	Unrecord(ctx context.Context, key string)

	// Keys returns the pending keys, oldest first.
	Keys() []string

	Size() int64
}

type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]time.Time // key -> recorded at
	maxSize int                  // 0 or negative = unbounded
	ttl     time.Duration        // 0 = entries never expire
	now     func() time.Time
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 1024,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]time.Time)
	return d
}

// SeenAndRecord implements Deduper. An entry older than the TTL counts as
// released; its work is assumed lost.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.seen[key]; ok {
		if d.ttl <= 0 || now.Sub(at) < d.ttl {
			return true
		}
	}

	if _, ok := d.seen[key]; !ok && d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = now
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
}

// Keys implements Deduper.
func (d *inMemoryDeduper) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make([]string, 0, len(d.seen))
	for k := range d.seen {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := d.seen[a].Compare(d.seen[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

// Size implements Deduper.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	var (
		oldest string
		at     time.Time
		found  bool
	)
	for k, t := range d.seen {
		if !found || t.Before(at) || (t.Equal(at) && k < oldest) {
			oldest, at, found = k, t, true
		}
	}
	if found {
		delete(d.seen, oldest)
	}
}
