package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/okian/tally/internal/adapters/http/api"
	"github.com/okian/tally/internal/adapters/loader"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/adapters/storage"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Mock implementations for testing
type mockDependencies struct {
	snap       *repository.Snapshot
	snapErr    error
	rankErr    error
	packErr    error
	refreshed  bool
	refreshErr error
	lastList   string
}

func (m *mockDependencies) Standings(_ context.Context, list string, n int) (*repository.Snapshot, []leaderboard.Row, error) {
	m.lastList = list
	if m.snapErr != nil {
		return nil, nil, m.snapErr
	}
	if n < 1 {
		return m.snap, m.snap.Board.Rows, nil
	}
	return m.snap, m.snap.Top(n), nil
}

func (m *mockDependencies) Rank(_ context.Context, list, user string) (leaderboard.Row, error) {
	m.lastList = list
	if m.rankErr != nil {
		return leaderboard.Row{}, m.rankErr
	}
	row, ok := m.snap.Row(user)
	if !ok {
		return leaderboard.Row{}, fmt.Errorf("%w: %s", repository.ErrUserNotFound, user)
	}
	return row, nil
}

func (m *mockDependencies) Levels(context.Context, string) ([]model.LevelResult, error) {
	return m.snap.Levels, m.snapErr
}

func (m *mockDependencies) Packs(context.Context, string) ([]model.Pack, error) {
	return m.snap.Packs, m.snapErr
}

func (m *mockDependencies) Pack(_ context.Context, _, name string) ([]model.PackLevel, error) {
	if m.packErr != nil {
		return nil, m.packErr
	}
	return []model.PackLevel{{Path: "a", ListRank: 1}}, nil
}

func (m *mockDependencies) Editors(context.Context) ([]model.Editor, error) {
	return []model.Editor{{Name: "Ed", Role: "owner"}}, nil
}

func (m *mockDependencies) Refresh(_ context.Context, list string) (bool, error) {
	m.lastList = list
	return m.refreshed, m.refreshErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func testSnapshot() *repository.Snapshot {
	board := leaderboard.Board{
		Rows: []leaderboard.Row{
			{Position: 1, User: "Alice", Total: 300},
			{Position: 2, User: "Bob", Total: 200},
			{Position: 3, User: "Cleo", Total: 100},
		},
		Errors: []string{"broken"},
	}
	levels := []model.LevelResult{{Rank: 1, Level: &model.Level{Name: "A"}}, {Err: "broken"}}
	packs := []model.Pack{{Name: "Duo", Colour: "#fff", Levels: []string{"a", "b"}}}
	return repository.NewSnapshot("dl", board, levels, packs)
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, api.WithMaxLimit(10)).Register(mux)
	return mux
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(w.Body).Decode(&body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&mockDependencies{snap: testSnapshot()})

		Convey("Then health endpoint serves metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats endpoint serves JSON", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then every read route answers", func() {
			for _, path := range []string{"/leaderboard", "/rank/alice", "/levels", "/packs", "/packs/Duo", "/editors"} {
				w := serve(mux, http.MethodGet, path)
				So(w.Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("Then unknown routes are not found", func() {
			w := serve(mux, http.MethodGet, "/unknown")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then read routes reject other methods", func() {
			w := serve(mux, http.MethodPost, "/leaderboard")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard with three rows", t, func() {
		deps := &mockDependencies{snap: testSnapshot()}
		mux := newMux(deps)

		Convey("When no limit is given", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?list=dl")

			Convey("Then every row and error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					List   string            `json:"list"`
					Rows   []leaderboard.Row `json:"rows"`
					Errors []string          `json:"errors"`
				}
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.List, ShouldEqual, "dl")
				So(body.Rows, ShouldHaveLength, 3)
				So(body.Errors, ShouldResemble, []string{"broken"})
				So(deps.lastList, ShouldEqual, "dl")
			})
		})

		Convey("When a limit is given", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=2")

			Convey("Then only the leading rows are returned", func() {
				var body struct {
					Rows []leaderboard.Row `json:"rows"`
				}
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.Rows, ShouldHaveLength, 2)
				So(body.Rows[0].User, ShouldEqual, "Alice")
			})
		})

		Convey("When the limit is malformed or too large", func() {
			for _, q := range []string{"limit=0", "limit=-3", "limit=abc", "limit=11"} {
				w := serve(mux, http.MethodGet, "/leaderboard?"+q)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			}
		})
	})

	Convey("Given a list that fails to load", t, func() {
		deps := &mockDependencies{snapErr: fmt.Errorf("%w: dl", service.ErrListUnavailable)}
		w := serve(newMux(deps), http.MethodGet, "/leaderboard")

		Convey("Then the unavailable board is returned", func() {
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"rows":null,"errors":["Failed to load list."]}`)
		})
	})

	Convey("Given an unknown list", t, func() {
		deps := &mockDependencies{snapErr: fmt.Errorf("%w: %q", service.ErrUnknownList, "zz")}
		w := serve(newMux(deps), http.MethodGet, "/leaderboard?list=zz")

		So(w.Code, ShouldEqual, http.StatusNotFound)
		So(errorCode(w), ShouldEqual, "unknown_list")
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given a leaderboard", t, func() {
		mux := newMux(&mockDependencies{snap: testSnapshot()})

		Convey("When looking up a contributor in another casing", func() {
			w := serve(mux, http.MethodGet, "/rank/BOB")

			Convey("Then the row is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var row leaderboard.Row
				So(json.NewDecoder(w.Body).Decode(&row), ShouldBeNil)
				So(row.User, ShouldEqual, "Bob")
				So(row.Position, ShouldEqual, 2)
			})
		})

		Convey("When the contributor is unknown", func() {
			w := serve(mux, http.MethodGet, "/rank/nobody")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("When the path is malformed", func() {
			So(serve(mux, http.MethodGet, "/rank/").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/rank/a/b").Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given an unexpected failure", t, func() {
		mux := newMux(&mockDependencies{snap: testSnapshot(), rankErr: errors.New("boom")})
		w := serve(mux, http.MethodGet, "/rank/alice")

		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		So(errorCode(w), ShouldEqual, "internal_error")
	})
}

func TestCatalogHandler(t *testing.T) {
	Convey("Given a pack that does not exist", t, func() {
		mux := newMux(&mockDependencies{snap: testSnapshot(), packErr: fmt.Errorf("%w: Nope", loader.ErrPackNotFound)})
		w := serve(mux, http.MethodGet, "/packs/Nope")

		So(w.Code, ShouldEqual, http.StatusNotFound)
	})

	Convey("Given levels with a failed entry", t, func() {
		w := serve(newMux(&mockDependencies{snap: testSnapshot()}), http.MethodGet, "/levels")

		var levels []model.LevelResult
		So(json.NewDecoder(w.Body).Decode(&levels), ShouldBeNil)
		So(levels, ShouldHaveLength, 2)
		So(levels[1].Err, ShouldEqual, "broken")
	})
}

func TestRefreshHandler(t *testing.T) {
	Convey("Given a refresh request", t, func() {
		Convey("When the rebuild is queued", func() {
			deps := &mockDependencies{refreshed: true}
			w := serve(newMux(deps), http.MethodPost, "/refresh?list=dl")

			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
			So(deps.lastList, ShouldEqual, "dl")
		})

		Convey("When a rebuild is already pending", func() {
			w := serve(newMux(&mockDependencies{}), http.MethodPost, "/refresh")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("When the queue is full", func() {
			deps := &mockDependencies{refreshErr: fmt.Errorf("%w: full", service.ErrBackpressure)}
			w := serve(newMux(deps), http.MethodPost, "/refresh")

			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})

		Convey("When the workers are not running", func() {
			deps := &mockDependencies{refreshErr: service.ErrNotStarted}
			w := serve(newMux(deps), http.MethodPost, "/refresh")

			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(w), ShouldEqual, "not_started")
		})

		Convey("When the method is not POST", func() {
			w := serve(newMux(&mockDependencies{refreshed: true}), http.MethodGet, "/refresh")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestID(r.Context())
		}))

		Convey("When the client sends no id", func() {
			w := serve(h, http.MethodGet, "/")

			Convey("Then one is generated and echoed", func() {
				So(seen, ShouldNotBeEmpty)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})

		Convey("When the client sends an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is kept", func() {
				So(seen, ShouldEqual, "abc-123")
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})
	})
}

func TestServer_WithService(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		fsys := fstest.MapFS{
			"dl/_list.json": &fstest.MapFile{Data: []byte(`["a","b"]`)},
			"dl/a.json": &fstest.MapFile{Data: []byte(`{"name":"A","verifier":"Vee","verification":"v",
				"percentToQualify":50,"records":[{"user":"vee","percent":100,"link":"l"}]}`)},
		}
		svc := service.New(service.WithStore(storage.NewFSStore(fsys)))
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(mux)
		h := api.RequestIDMiddleware(mux)

		Convey("When the leaderboard is requested", func() {
			w := serve(h, http.MethodGet, "/leaderboard")

			Convey("Then the merged contributor and the failed level are reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
				var body struct {
					Rows   []leaderboard.Row `json:"rows"`
					Errors []string          `json:"errors"`
				}
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.Rows, ShouldHaveLength, 1)
				So(body.Rows[0].User, ShouldEqual, "Vee")
				So(body.Errors, ShouldResemble, []string{"b"})
			})
		})

		Convey("When a limited leaderboard is requested", func() {
			w := serve(h, http.MethodGet, "/leaderboard?limit=1")

			Convey("Then rows and snapshot id come from the same build", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Snapshot string            `json:"snapshot"`
					Rows     []leaderboard.Row `json:"rows"`
				}
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.Rows, ShouldHaveLength, 1)
				snap, err := svc.Leaderboard(context.Background(), "")
				So(err, ShouldBeNil)
				So(body.Snapshot, ShouldEqual, snap.ID)
			})
		})

		Convey("When a list without a catalog is requested", func() {
			w := serve(h, http.MethodGet, "/leaderboard?list=cl")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When a refresh is posted before the workers start", func() {
			w := serve(h, http.MethodPost, "/refresh")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}
