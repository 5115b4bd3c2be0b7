// Package packs indexes the packs of a list: lookup by level and the
// "completed every level" membership test.
package packs

import (
	"github.com/okian/tally/internal/domain/model"
)

// Pack is a named group of levels.
type Pack = model.Pack

// CompletedBy reports whether levels contains every level of p.
func CompletedBy(p Pack, levels map[string]struct{}) bool {
	for _, l := range p.Levels {
		if _, ok := levels[l]; !ok {
			return false
		}
	}
	return true
}

// Index is an immutable, ordered set of packs.
type Index struct {
	packs   []Pack
	byLevel map[string][]int
	byName  map[string]int
}

// New builds an Index. A pack without levels is kept; every contributor
// holds its empty level set.
func New(all []Pack) *Index {
	idx := &Index{
		packs:   make([]Pack, 0, len(all)),
		byLevel: make(map[string][]int),
		byName:  make(map[string]int, len(all)),
	}
	for _, p := range all {
		i := len(idx.packs)
		idx.packs = append(idx.packs, p)
		if _, dup := idx.byName[p.Name]; !dup {
			idx.byName[p.Name] = i
		}
		seen := make(map[string]struct{}, len(p.Levels))
		for _, l := range p.Levels {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			idx.byLevel[l] = append(idx.byLevel[l], i)
		}
	}
	return idx
}

// Empty returns an Index with no packs.
func Empty() *Index { return New(nil) }

// All returns the packs in document order.
func (x *Index) All() []Pack {
	out := make([]Pack, len(x.packs))
	copy(out, x.packs)
	return out
}

// Len returns the number of packs.
func (x *Index) Len() int { return len(x.packs) }

// Find returns the first pack named name.
func (x *Index) Find(name string) (Pack, bool) {
	i, ok := x.byName[name]
	if !ok {
		return Pack{}, false
	}
	return x.packs[i], true
}

// ForLevel returns the packs containing path, in document order.
func (x *Index) ForLevel(path string) []Pack {
	ids := x.byLevel[path]
	out := make([]Pack, 0, len(ids))
	for _, i := range ids {
		out = append(out, x.packs[i])
	}
	return out
}

// Earned returns, in document order, every pack whose levels are all in
// levels.
func (x *Index) Earned(levels map[string]struct{}) []Pack {
	var out []Pack
	for _, p := range x.packs {
		if CompletedBy(p, levels) {
			out = append(out, p)
		}
	}
	return out
}
