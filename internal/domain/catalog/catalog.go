// Package catalog assigns list ranks to the ordered catalog of level
// identifiers.
package catalog

import "strings"

// PendingMarker prefixes identifiers of provisional levels. Pending levels
// are listed but hold no rank.
const PendingMarker = "(p)_"

// Entry is one position of the catalog.
type Entry struct {
	// ID is the identifier exactly as it appears in the catalog.
	ID string
	// Path is ID without the pending marker; it addresses the level document.
	Path string
	// Pending is true for provisional entries.
	Pending bool
	// Rank is 1-based for ranked entries and 0 for pending ones.
	Rank int
}

// IsPending reports whether id carries the pending marker.
func IsPending(id string) bool { return strings.HasPrefix(id, PendingMarker) }

// StripPending removes the pending marker from id, if present.
func StripPending(id string) string { return strings.TrimPrefix(id, PendingMarker) }

// Parse ranks ids in order. A ranked entry's rank is the number of ranked
// entries up to and including it, so ranks run 1..K over the K ranked
// entries and follow catalog order.
func Parse(ids []string) []Entry {
	entries := make([]Entry, len(ids))
	rank := 0
	for i, id := range ids {
		e := Entry{ID: id, Path: StripPending(id), Pending: IsPending(id)}
		if !e.Pending {
			rank++
			e.Rank = rank
		}
		entries[i] = e
	}
	return entries
}

// Ranks maps each ranked path to its rank. Pending entries are absent.
// When a path repeats, its first position wins.
func Ranks(entries []Entry) map[string]int {
	ranks := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Pending {
			continue
		}
		if _, ok := ranks[e.Path]; !ok {
			ranks[e.Path] = e.Rank
		}
	}
	return ranks
}
