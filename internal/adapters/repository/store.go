// Package repository holds the last built leaderboard of every list.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
)

// Snapshot is an immutable, fully built view of one list.
type Snapshot struct {
	ID      string
	List    string
	BuiltAt time.Time
	Board   leaderboard.Board
	Levels  []model.LevelResult
	Packs   []model.Pack

	// folded contributor name -> row index
	byUser map[string]int
}

// NewSnapshot wraps a built board. It must not be modified afterwards.
func NewSnapshot(list string, board leaderboard.Board, levels []model.LevelResult, packs []model.Pack) *Snapshot {
	s := &Snapshot{
		ID:      uuid.NewString(),
		List:    list,
		BuiltAt: time.Now(),
		Board:   board,
		Levels:  levels,
		Packs:   packs,
		byUser:  make(map[string]int, len(board.Rows)),
	}
	for i, r := range board.Rows {
		s.byUser[leaderboard.FoldKey(r.User)] = i
	}
	return s
}

// Age returns how long ago the snapshot was built.
func (s *Snapshot) Age(now time.Time) time.Duration { return now.Sub(s.BuiltAt) }

// Row looks up a contributor case-insensitively.
func (s *Snapshot) Row(user string) (leaderboard.Row, bool) {
	i, ok := s.byUser[leaderboard.FoldKey(user)]
	if !ok {
		return leaderboard.Row{}, false
	}
	return s.Board.Rows[i], true
}

// Top returns up to n leading rows.
func (s *Snapshot) Top(n int) []leaderboard.Row {
	n = max(0, min(n, len(s.Board.Rows)))
	return s.Board.Rows[:n:n]
}

// Store provides access to the latest snapshot of each list.
type Store interface {
	// Put publishes snap as the current snapshot of snap.List.
	Put(ctx context.Context, snap *Snapshot) error

	// Get returns the current snapshot of list.
	// Returns ErrNotFound if none was published.
	Get(ctx context.Context, list string) (*Snapshot, error)

	// Rank returns the row of user in list's current snapshot.
	Rank(ctx context.Context, list, user string) (leaderboard.Row, error)

	// TopN returns list's current snapshot with its leading n rows.
	// Returns ErrInvalidLimit if n < 1.
	TopN(ctx context.Context, list string, n int) (*Snapshot, []leaderboard.Row, error)

	// Invalidate drops list's snapshot.
	Invalidate(ctx context.Context, list string)

	// Lists returns the lists holding a snapshot.
	Lists(ctx context.Context) []string

	// Count returns the number of contributors in list's snapshot.
	Count(ctx context.Context, list string) int
}
