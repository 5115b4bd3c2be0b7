package leaderboard_test

import (
	"testing"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/packs"
	"github.com/okian/tally/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// linear scores 100/rank for a full completion and scales by percent.
var linear = scoring.ScorerFunc(func(rank int, percent, _ float64) float64 {
	return 100 / float64(rank) * percent / 100
})

func level(rank int, path, verifier string, records ...model.Record) model.LevelResult {
	return model.LevelResult{
		Rank: rank,
		Level: &model.Level{
			Name:         path + " level",
			Path:         path,
			Rank:         rank,
			Verifier:     verifier,
			Verification: "https://video/" + path,
			Records:      records,
		},
	}
}

func rec(user string, percent float64) model.Record {
	return model.Record{User: user, Percent: percent, Link: "https://video/" + user}
}

func rowFor(b leaderboard.Board, user string) (leaderboard.Row, bool) {
	for _, r := range b.Rows {
		if r.User == user {
			return r, true
		}
	}
	return leaderboard.Row{}, false
}

func TestAggregate_Identity(t *testing.T) {
	Convey("Given a verifier who also holds a record under different casing", t, func() {
		agg := leaderboard.New(linear)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "Alice", rec("alice", 100)),
			level(2, "b", "ALICE"),
		}, nil)

		Convey("Then both spellings merge into the first-seen one", func() {
			So(board.Rows, ShouldHaveLength, 1)
			row := board.Rows[0]
			So(row.User, ShouldEqual, "Alice")
			So(row.Verified, ShouldHaveLength, 2)
			So(row.Completed, ShouldHaveLength, 1)
		})

		Convey("Then the total sums every entry", func() {
			// 110 verify + 110 first completion + 55 verify of rank 2.
			So(board.Rows[0].Total, ShouldEqual, 275)
		})
	})

	Convey("Given names equal only under full case folding", t, func() {
		agg := leaderboard.New(linear)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "Straße", rec("STRASSE", 50)),
		}, nil)

		Convey("Then they stay separate contributors", func() {
			So(board.Rows, ShouldHaveLength, 2)
			straße, ok := rowFor(board, "Straße")
			So(ok, ShouldBeTrue)
			So(straße.Verified, ShouldHaveLength, 1)
			So(straße.Progressed, ShouldBeEmpty)
			_, ok = rowFor(board, "STRASSE")
			So(ok, ShouldBeTrue)
			So(leaderboard.FoldKey("Straße"), ShouldNotEqual, leaderboard.FoldKey("STRASSE"))
		})
	})

	Convey("Given names differing in non-ASCII letter case", t, func() {
		board := leaderboard.New(linear).Aggregate([]model.LevelResult{
			level(1, "a", "Ölaf", rec("ÖLAF", 50)),
		}, nil)

		So(board.Rows, ShouldHaveLength, 1)
		So(board.Rows[0].User, ShouldEqual, "Ölaf")
		So(leaderboard.FoldKey("ÖLAF"), ShouldEqual, "ölaf")
	})
}

func TestAggregate_Tiers(t *testing.T) {
	Convey("Given a level with several completions and a partial record", t, func() {
		agg := leaderboard.New(linear)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "V", rec("A", 100), rec("B", 100), rec("C", 100), rec("D", 60)),
		}, nil)

		Convey("Then the verifier earns the verification multiplier", func() {
			row, ok := rowFor(board, "V")
			So(ok, ShouldBeTrue)
			So(row.Verified[0].Score, ShouldAlmostEqual, 110)
			So(row.Verified[0].Link, ShouldEqual, "https://video/a")
		})

		Convey("Then only the first two completions earn the bonus", func() {
			a, _ := rowFor(board, "A")
			b, _ := rowFor(board, "B")
			c, _ := rowFor(board, "C")
			So(a.Completed[0].Score, ShouldAlmostEqual, 110)
			So(b.Completed[0].Score, ShouldAlmostEqual, 110)
			So(c.Completed[0].Score, ShouldAlmostEqual, 100)
		})

		Convey("Then the partial record keeps its percent", func() {
			d, _ := rowFor(board, "D")
			So(d.Completed, ShouldBeEmpty)
			So(d.Progressed, ShouldHaveLength, 1)
			So(d.Progressed[0].Percent, ShouldEqual, 60)
			So(d.Progressed[0].Score, ShouldAlmostEqual, 60)
		})
	})

	Convey("Given custom multipliers", t, func() {
		agg := leaderboard.New(linear,
			leaderboard.WithVerificationMultiplier(2),
			leaderboard.WithCompletionBonus(1.5, 1),
		)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "V", rec("A", 100), rec("B", 100)),
		}, nil)

		v, _ := rowFor(board, "V")
		a, _ := rowFor(board, "A")
		b, _ := rowFor(board, "B")
		So(v.Total, ShouldEqual, 200)
		So(a.Total, ShouldEqual, 150)
		So(b.Total, ShouldEqual, 100)
	})
}

func TestAggregate_Packs(t *testing.T) {
	Convey("Given a pack of two levels", t, func() {
		idx := packs.New([]model.Pack{{Name: "Duo", Colour: "#fff", Levels: []string{"a", "b"}}})
		agg := leaderboard.New(linear)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "Full", rec("Half", 100)),
			level(2, "b", "Other", rec("full", 100), rec("Half", 90)),
		}, idx)

		Convey("Then a contributor who verified one and completed the other earns it", func() {
			row, _ := rowFor(board, "Full")
			So(row.Packs, ShouldHaveLength, 1)
			So(row.Packs[0].Name, ShouldEqual, "Duo")
		})

		Convey("Then partial progress does not count toward a pack", func() {
			row, _ := rowFor(board, "Half")
			So(row.Packs, ShouldBeEmpty)
		})

		Convey("Then packs add no points", func() {
			row, _ := rowFor(board, "Full")
			So(row.Total, ShouldEqual, 165)
			So(board.PacksAwarded(), ShouldEqual, 1)
		})
	})
}

func TestAggregate_EmptyPack(t *testing.T) {
	Convey("Given a pack without levels next to a regular pack", t, func() {
		idx := packs.New([]model.Pack{{Name: "Empty"}, {Name: "P", Levels: []string{"a"}}})
		board := leaderboard.New(linear).Aggregate([]model.LevelResult{
			level(1, "a", "Vee", rec("Partial", 50)),
		}, idx)

		Convey("Then every contributor earns the empty pack", func() {
			vee, _ := rowFor(board, "Vee")
			So(vee.Packs, ShouldHaveLength, 2)
			So(vee.Packs[0].Name, ShouldEqual, "Empty")

			partial, _ := rowFor(board, "Partial")
			So(partial.Packs, ShouldHaveLength, 1)
			So(partial.Packs[0].Name, ShouldEqual, "Empty")
			So(board.PacksAwarded(), ShouldEqual, 3)
		})
	})
}

func TestAggregate_Ordering(t *testing.T) {
	Convey("Given contributors with equal totals", t, func() {
		agg := leaderboard.New(linear)
		board := agg.Aggregate([]model.LevelResult{
			level(2, "b", "Zed", rec("Amy", 100)),
			level(1, "a", "Top"),
			level(3, "c", "Bob"),
		}, nil)

		Convey("Then rows sort by total and ties keep first-seen order", func() {
			users := make([]string, len(board.Rows))
			for i, r := range board.Rows {
				users[i] = r.User
			}
			// Top 110, Zed 55, Amy 55, Bob 36.667
			So(users, ShouldResemble, []string{"Top", "Zed", "Amy", "Bob"})
		})

		Convey("Then positions are contiguous from one", func() {
			for i, r := range board.Rows {
				So(r.Position, ShouldEqual, i+1)
			}
		})

		Convey("Then totals are rounded to three places", func() {
			bob, _ := rowFor(board, "Bob")
			So(bob.Total, ShouldEqual, 36.667)
		})
	})

	Convey("Given many tiny scores", t, func() {
		tiny := scoring.ScorerFunc(func(int, float64, float64) float64 { return 0.0004 })
		agg := leaderboard.New(tiny,
			leaderboard.WithVerificationMultiplier(1),
			leaderboard.WithCompletionBonus(1, 0),
		)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "V"),
			level(2, "b", "V"),
			level(3, "c", "V"),
		}, nil)

		Convey("Then entries are summed before rounding", func() {
			So(board.Rows[0].Total, ShouldEqual, 0.001)
			So(board.Rows[0].Verified[0].Score, ShouldEqual, 0.0004)
		})
	})
}

func TestAggregate_Results(t *testing.T) {
	Convey("Given a catalog with a failed and a pending level", t, func() {
		agg := leaderboard.New(linear)
		board := agg.Aggregate([]model.LevelResult{
			level(1, "a", "V"),
			{Err: "broken"},
			level(0, "pend", "Ghost", rec("Ghost2", 100)),
			{Err: "(p)_missing"},
		}, nil)

		Convey("Then failed identifiers are reported in order", func() {
			So(board.Errors, ShouldResemble, []string{"broken", "(p)_missing"})
		})

		Convey("Then pending levels contribute nothing", func() {
			So(board.Rows, ShouldHaveLength, 1)
			_, ok := rowFor(board, "Ghost")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given no results", t, func() {
		board := leaderboard.New(linear).Aggregate(nil, packs.Empty())

		So(board.Rows, ShouldBeEmpty)
		So(board.Errors, ShouldNotBeNil)
		So(board.Errors, ShouldBeEmpty)
	})

	Convey("Given an unavailable list", t, func() {
		board := leaderboard.Unavailable()

		So(board.Rows, ShouldBeNil)
		So(board.Errors, ShouldResemble, []string{leaderboard.FailedListMessage})
	})

	Convey("Given empty entry groups", t, func() {
		board := leaderboard.New(linear).Aggregate([]model.LevelResult{level(1, "a", "V")}, nil)

		Convey("Then every slice is non-nil", func() {
			row := board.Rows[0]
			So(row.Completed, ShouldNotBeNil)
			So(row.Progressed, ShouldNotBeNil)
			So(row.Packs, ShouldNotBeNil)
		})
	})
}
