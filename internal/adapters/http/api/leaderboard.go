package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/tally/internal/adapters/repository"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/pkg/logger"
)

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	Standings(ctx context.Context, list string, n int) (*repository.Snapshot, []leaderboard.Row, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
	responder
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:      deps,
		maxLimit:  maxLimit,
		responder: newResponder(log),
	}
}

type leaderboardResponse struct {
	List     string            `json:"list"`
	Snapshot string            `json:"snapshot"`
	BuiltAt  time.Time         `json:"builtAt"`
	Rows     []leaderboard.Row `json:"rows"`
	Errors   []string          `json:"errors"`
}

// HandleGetLeaderboard handles GET /leaderboard?list=L&limit=N requests
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, rows, err := h.deps.Standings(r.Context(), r.URL.Query().Get("list"), n)
	if errors.Is(err, service.ErrListUnavailable) {
		h.logger.Warn(r.Context(), "list unavailable",
			logger.String("requestId", RequestID(r.Context())),
			logger.Error(err),
		)
		writeJSON(w, http.StatusServiceUnavailable, leaderboard.Unavailable())
		return
	}
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		List:     snap.List,
		Snapshot: snap.ID,
		BuiltAt:  snap.BuiltAt,
		Rows:     rows,
		Errors:   snap.Board.Errors,
	})
}
