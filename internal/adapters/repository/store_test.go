package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func board(users ...string) leaderboard.Board {
	rows := make([]leaderboard.Row, len(users))
	for i, u := range users {
		rows[i] = leaderboard.Row{Position: i + 1, User: u, Total: float64(100 - i)}
	}
	return leaderboard.Board{Rows: rows, Errors: []string{}}
}

func TestSnapshot(t *testing.T) {
	Convey("Given a snapshot", t, func() {
		snap := repository.NewSnapshot("dl", board("Alice", "Bob", "Carol"), nil, nil)

		Convey("Then it has a build id and time", func() {
			So(snap.ID, ShouldNotBeEmpty)
			So(snap.BuiltAt, ShouldHappenWithin, time.Second, time.Now())
			So(snap.Age(snap.BuiltAt.Add(time.Minute)), ShouldEqual, time.Minute)
		})

		Convey("Then rows are found case-insensitively", func() {
			row, ok := snap.Row("bOB")
			So(ok, ShouldBeTrue)
			So(row.User, ShouldEqual, "Bob")
			So(row.Position, ShouldEqual, 2)

			_, ok = snap.Row("dave")
			So(ok, ShouldBeFalse)
		})

		Convey("Then Top clamps to the board size", func() {
			So(snap.Top(2), ShouldHaveLength, 2)
			So(snap.Top(10), ShouldHaveLength, 3)
			So(snap.Top(-1), ShouldBeEmpty)
		})

		Convey("Then two snapshots never share an id", func() {
			other := repository.NewSnapshot("dl", board(), nil, nil)
			So(other.ID, ShouldNotEqual, snap.ID)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore()

		Convey("When reading an unknown list", func() {
			_, err := s.Get(ctx, "dl")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(s.Count(ctx, "dl"), ShouldEqual, 0)
			So(s.Lists(ctx), ShouldBeEmpty)
		})

		Convey("When putting nil", func() {
			So(errors.Is(s.Put(ctx, nil), repository.ErrNilSnapshot), ShouldBeTrue)
		})

		Convey("When snapshots are published for two lists", func() {
			dl := repository.NewSnapshot("dl", board("Alice", "Bob"), nil, nil)
			cl := repository.NewSnapshot("cl", board("Zed"), nil, nil)
			So(s.Put(ctx, dl), ShouldBeNil)
			So(s.Put(ctx, cl), ShouldBeNil)

			Convey("Then each list keeps its own snapshot", func() {
				got, err := s.Get(ctx, "dl")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, dl.ID)
				So(s.Count(ctx, "dl"), ShouldEqual, 2)
				So(s.Count(ctx, "cl"), ShouldEqual, 1)
				So(s.Lists(ctx), ShouldResemble, []string{"cl", "dl"})
			})

			Convey("Then rank lookups are scoped to the list", func() {
				row, err := s.Rank(ctx, "dl", "ALICE")
				So(err, ShouldBeNil)
				So(row.User, ShouldEqual, "Alice")

				_, err = s.Rank(ctx, "cl", "Alice")
				So(errors.Is(err, repository.ErrUserNotFound), ShouldBeTrue)

				_, err = s.Rank(ctx, "gone", "Alice")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then TopN validates its limit", func() {
				snap, rows, err := s.TopN(ctx, "dl", 1)
				So(err, ShouldBeNil)
				So(snap.ID, ShouldEqual, dl.ID)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].User, ShouldEqual, "Alice")

				_, _, err = s.TopN(ctx, "dl", 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)

				_, _, err = s.TopN(ctx, "gone", 1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a newer snapshot replaces the old one", func() {
				next := repository.NewSnapshot("dl", board("Bob"), nil, nil)
				So(s.Put(ctx, next), ShouldBeNil)
				got, _ := s.Get(ctx, "dl")
				So(got.ID, ShouldEqual, next.ID)
				So(dl.Board.Rows, ShouldHaveLength, 2)
			})

			Convey("Then Invalidate drops only that list", func() {
				s.Invalidate(ctx, "dl")
				s.Invalidate(ctx, "never")
				_, err := s.Get(ctx, "dl")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(s.Count(ctx, "cl"), ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore()
		const workers = 8

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(2)
			list := fmt.Sprintf("list-%d", i)
			go func() {
				defer wg.Done()
				for range 50 {
					_ = s.Put(ctx, repository.NewSnapshot(list, board("A", "B"), nil, nil))
				}
			}()
			go func() {
				defer wg.Done()
				for range 50 {
					_, _ = s.Rank(ctx, list, "a")
					_ = s.Lists(ctx)
				}
			}()
		}
		wg.Wait()

		Convey("Then every list is present", func() {
			So(s.Lists(ctx), ShouldHaveLength, workers)
			for i := range workers {
				So(s.Count(ctx, fmt.Sprintf("list-%d", i)), ShouldEqual, 2)
			}
		})
	})
}
