package api

import (
	"context"
	"net/http"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
)

// CatalogDependencies defines the read operations over a list's documents.
type CatalogDependencies interface {
	Levels(ctx context.Context, list string) ([]model.LevelResult, error)
	Packs(ctx context.Context, list string) ([]model.Pack, error)
	Pack(ctx context.Context, list, name string) ([]model.PackLevel, error)
	Editors(ctx context.Context) ([]model.Editor, error)
}

// CatalogHandler serves levels, packs and editors.
type CatalogHandler struct {
	deps CatalogDependencies
	responder
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{deps: deps, responder: newResponder(log)}
}

// HandleGetLevels handles GET /levels?list=L requests.
func (h *CatalogHandler) HandleGetLevels(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_levels"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	levels, err := h.deps.Levels(r.Context(), r.URL.Query().Get("list"))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// HandleGetPacks handles GET /packs?list=L requests.
func (h *CatalogHandler) HandleGetPacks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_packs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	packs, err := h.deps.Packs(r.Context(), r.URL.Query().Get("list"))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, packs)
}

// HandleGetPack handles GET /packs/{name}?list=L requests.
func (h *CatalogHandler) HandleGetPack(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pack"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name, ok := pathParam(r, "/packs/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	levels, err := h.deps.Pack(r.Context(), r.URL.Query().Get("list"), name)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// HandleGetEditors handles GET /editors requests.
func (h *CatalogHandler) HandleGetEditors(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_editors"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	editors, err := h.deps.Editors(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, editors)
}
