package api

import (
	"context"
	"net/http"

	"github.com/okian/tally/pkg/logger"
)

// RefreshDependencies defines the interface for scheduling rebuilds.
type RefreshDependencies interface {
	Refresh(ctx context.Context, list string) (bool, error)
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
	responder
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies, log logger.Logger) *RefreshHandler {
	return &RefreshHandler{deps: deps, responder: newResponder(log)}
}

type ackResponse struct {
	Status    string `json:"status"`
	List      string `json:"list,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostRefresh handles POST /refresh?list=L requests. A rebuild that
// is already pending absorbs the request.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	list := r.URL.Query().Get("list")
	queued, err := h.deps.Refresh(r.Context(), list)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if !queued {
		writeJSON(w, http.StatusOK, ackResponse{Status: "pending", List: list, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", List: list})
}
