package probe

import (
	"fmt"
	"math"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/scoring"
)

// totalTolerance absorbs summation order differences at the rounding step.
const totalTolerance = 0.0011

// Violation is one broken leaderboard property.
type Violation struct {
	Position int    `json:"position"`
	User     string `json:"user"`
	Problem  string `json:"problem"`
}

func (v Violation) String() string {
	return fmt.Sprintf("#%d %s: %s", v.Position, v.User, v.Problem)
}

// Verify checks rows for the properties every served leaderboard holds:
// totals never increase down the board, positions run 1..n, no two rows
// name the same contributor ignoring case, and each total is the rounded
// sum of its entries.
func Verify(rows []leaderboard.Row) []Violation {
	var out []Violation
	seen := make(map[string]string, len(rows))

	for i, r := range rows {
		bad := func(format string, args ...any) {
			out = append(out, Violation{Position: r.Position, User: r.User, Problem: fmt.Sprintf(format, args...)})
		}

		if r.Position != i+1 {
			bad("position %d, want %d", r.Position, i+1)
		}
		if i > 0 && r.Total > rows[i-1].Total {
			bad("total %.3f above previous %.3f", r.Total, rows[i-1].Total)
		}
		key := leaderboard.FoldKey(r.User)
		if prev, dup := seen[key]; dup {
			bad("duplicate of %q", prev)
		} else {
			seen[key] = r.User
		}
		if sum := entrySum(r); math.Abs(scoring.Round(sum)-r.Total) > totalTolerance {
			bad("total %.3f, entries sum to %.3f", r.Total, scoring.Round(sum))
		}
	}
	return out
}

func entrySum(r leaderboard.Row) float64 {
	sum := 0.0
	for _, group := range [][]leaderboard.Entry{r.Verified, r.Completed, r.Progressed} {
		for _, e := range group {
			sum += e.Score
		}
	}
	return sum
}
