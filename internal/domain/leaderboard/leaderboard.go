// Package leaderboard merges the per-level records of a loaded catalog into
// a ranked board of contributors.
//
// Each ranked level contributes a verification entry for its verifier and
// one entry per record: full completions land in Completed, anything less
// in Progressed. Contributor names are matched case-insensitively and keep
// the casing they were first seen with. Packs are awarded after every level
// has been processed and carry no points.
package leaderboard

import (
	"cmp"
	"slices"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/packs"
	"github.com/okian/tally/internal/domain/scoring"
)

// Default weighting constants.
const (
	defaultVerificationMultiplier = 1.1
	defaultCompletionMultiplier   = 1.1
	defaultCompletionBonusSlots   = 2
)

// FailedListMessage is the single error reported when a list cannot be
// loaded at all.
const FailedListMessage = "Failed to load list."

// Entry is one scored contribution to a level.
type Entry struct {
	Rank    int     `json:"rank"`
	Level   string  `json:"level"`
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Link    string  `json:"link"`
	Percent float64 `json:"percent,omitempty"`
}

// Row is a contributor's line on the board.
type Row struct {
	Position   int          `json:"position"`
	User       string       `json:"user"`
	Total      float64      `json:"total"`
	Verified   []Entry      `json:"verified"`
	Completed  []Entry      `json:"completed"`
	Progressed []Entry      `json:"progressed"`
	Packs      []model.Pack `json:"packs"`
}

// Board is the sorted leaderboard plus the identifiers of levels that
// failed to load.
type Board struct {
	Rows   []Row    `json:"rows"`
	Errors []string `json:"errors"`
}

// Unavailable is the board reported when the catalog itself failed.
func Unavailable() Board {
	return Board{Rows: nil, Errors: []string{FailedListMessage}}
}

// PacksAwarded counts pack badges across all rows.
func (b Board) PacksAwarded() int {
	n := 0
	for _, r := range b.Rows {
		n += len(r.Packs)
	}
	return n
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithVerificationMultiplier sets the weight of verification entries.
func WithVerificationMultiplier(m float64) Option {
	return func(a *Aggregator) {
		if m > 0 {
			a.verificationMultiplier = m
		}
	}
}

// WithCompletionBonus sets the weight given to the first slots full
// completions of every level.
func WithCompletionBonus(multiplier float64, slots int) Option {
	return func(a *Aggregator) {
		if multiplier > 0 {
			a.completionMultiplier = multiplier
		}
		if slots >= 0 {
			a.completionBonusSlots = slots
		}
	}
}

// Aggregator builds boards. It holds no state between calls and is safe for
// concurrent use if its Scorer is.
type Aggregator struct {
	scorer                 scoring.Scorer
	verificationMultiplier float64
	completionMultiplier   float64
	completionBonusSlots   int
}

// New creates an Aggregator scoring with scorer.
func New(scorer scoring.Scorer, opts ...Option) *Aggregator {
	a := &Aggregator{
		scorer:                 scorer,
		verificationMultiplier: defaultVerificationMultiplier,
		completionMultiplier:   defaultCompletionMultiplier,
		completionBonusSlots:   defaultCompletionBonusSlots,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// aggregate accumulates one contributor's entries.
type aggregate struct {
	user       string
	verified   []Entry
	completed  []Entry
	progressed []Entry
	packs      []model.Pack
}

func (g *aggregate) sum() float64 {
	total := 0.0
	for _, list := range [][]Entry{g.verified, g.completed, g.progressed} {
		for _, e := range list {
			total += e.Score
		}
	}
	return total
}

// clearedLevels returns the paths of levels g verified or completed.
func (g *aggregate) clearedLevels() map[string]struct{} {
	out := make(map[string]struct{}, len(g.verified)+len(g.completed))
	for _, e := range g.verified {
		out[e.Path] = struct{}{}
	}
	for _, e := range g.completed {
		out[e.Path] = struct{}{}
	}
	return out
}

// Aggregate builds the board for results, which must be in catalog order
// with records already sorted by percent descending. idx may be nil.
func (a *Aggregator) Aggregate(results []model.LevelResult, idx *packs.Index) Board {
	if idx == nil {
		idx = packs.Empty()
	}

	ids := newIdentities()
	var order []*aggregate
	byKey := make(map[string]*aggregate)
	lookup := func(name string) *aggregate {
		key, canonical := ids.resolve(name)
		g, ok := byKey[key]
		if !ok {
			g = &aggregate{user: canonical}
			byKey[key] = g
			order = append(order, g)
		}
		return g
	}

	errs := []string{}
	for _, res := range results {
		if res.Failed() {
			errs = append(errs, res.Err)
			continue
		}
		if res.Rank == 0 || res.Level == nil {
			continue
		}
		a.addLevel(res.Rank, res.Level, lookup)
	}

	for _, g := range order {
		g.packs = idx.Earned(g.clearedLevels())
	}

	rows := make([]Row, len(order))
	for i, g := range order {
		rows[i] = Row{
			User:       g.user,
			Total:      scoring.Round(g.sum()),
			Verified:   nonNil(g.verified),
			Completed:  nonNil(g.completed),
			Progressed: nonNil(g.progressed),
			Packs:      nonNil(g.packs),
		}
	}

	// Stable: equal totals keep first-seen order.
	slices.SortStableFunc(rows, func(x, y Row) int {
		return cmp.Compare(y.Total, x.Total)
	})
	for i := range rows {
		rows[i].Position = i + 1
	}

	return Board{Rows: rows, Errors: errs}
}

func (a *Aggregator) addLevel(rank int, level *model.Level, lookup func(string) *aggregate) {
	full := a.scorer.Score(rank, model.FullCompletion, level.PercentToQualify)

	v := lookup(level.Verifier)
	v.verified = append(v.verified, Entry{
		Rank:  rank,
		Level: level.Name,
		Path:  level.Path,
		Score: full * a.verificationMultiplier,
		Link:  level.Verification,
	})

	for i, rec := range level.Records {
		g := lookup(rec.User)
		if rec.Complete() {
			score := full
			if i < a.completionBonusSlots {
				score = full * a.completionMultiplier
			}
			g.completed = append(g.completed, Entry{
				Rank:  rank,
				Level: level.Name,
				Path:  level.Path,
				Score: score,
				Link:  rec.Link,
			})
			continue
		}
		g.progressed = append(g.progressed, Entry{
			Rank:    rank,
			Level:   level.Name,
			Path:    level.Path,
			Score:   a.scorer.Score(rank, rec.Percent, level.PercentToQualify),
			Link:    rec.Link,
			Percent: rec.Percent,
		})
	}
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
