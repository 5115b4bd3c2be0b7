// Package scoring defines the contract for turning a list rank and a
// completion percent into points, and the list's default formula.
package scoring

import (
	"math"
)

// Default scoring configuration constants.
const (
	defaultMaxRank        = 150
	defaultProgressCutoff = 75
	defaultDecimals       = 3

	curveOffset   = 200
	curveSlope    = -24.9975
	curveExponent = 0.4
	fullPercent   = 100
)

// Scorer maps (rank, percent, percentToQualify) to points. Implementations
// must be pure: non-increasing in rank, non-decreasing in percent, and
// never negative.
type Scorer interface {
	Score(rank int, percent, percentToQualify float64) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(rank int, percent, percentToQualify float64) float64

// Score calls f.
func (f ScorerFunc) Score(rank int, percent, percentToQualify float64) float64 {
	return f(rank, percent, percentToQualify)
}

// Option applies a configuration option to the ListScorer.
type Option func(*ListScorer)

// WithMaxRank sets the last rank that earns points.
func WithMaxRank(rank int) Option {
	return func(s *ListScorer) {
		if rank > 0 {
			s.maxRank = rank
		}
	}
}

// WithProgressCutoff sets the last rank where partial records earn points.
func WithProgressCutoff(rank int) Option {
	return func(s *ListScorer) {
		if rank > 0 {
			s.progressCutoff = rank
		}
	}
}

// ListScorer is the list's published formula. The base value decays with
// rank along 200 - 24.9975*(rank-1)^0.4 and is scaled by how far percent
// sits between percentToQualify-1 and 100. Partial records keep two thirds.
type ListScorer struct {
	maxRank        int
	progressCutoff int
}

// NewListScorer creates a ListScorer with configuration options.
func NewListScorer(opts ...Option) *ListScorer {
	s := &ListScorer{
		maxRank:        defaultMaxRank,
		progressCutoff: defaultProgressCutoff,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score implements Scorer.
func (s *ListScorer) Score(rank int, percent, percentToQualify float64) float64 {
	if rank < 1 || rank > s.maxRank {
		return 0
	}
	if rank > s.progressCutoff && percent < fullPercent {
		return 0
	}

	floor := percentToQualify - 1
	span := fullPercent - floor
	if span <= 0 {
		return 0
	}

	base := curveSlope*math.Pow(float64(rank-1), curveExponent) + curveOffset
	score := math.Max(0, base*((percent-floor)/span))

	if percent != fullPercent {
		return Round(score - score/3)
	}
	return math.Max(Round(score), 0)
}

// Round rounds x to three decimal places, halves away from zero.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow10(defaultDecimals)
	return math.Round(x*p) / p
}
