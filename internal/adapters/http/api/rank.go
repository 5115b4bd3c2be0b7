package api

import (
	"context"
	"net/http"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/pkg/logger"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, list, user string) (leaderboard.Row, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
	responder
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies, log logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, responder: newResponder(log)}
}

// HandleGetRank handles GET /rank/{user}?list=L requests. The user is
// matched case-insensitively.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user, ok := pathParam(r, "/rank/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	row, err := h.deps.Rank(r.Context(), r.URL.Query().Get("list"), user)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
