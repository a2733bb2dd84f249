package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/winnermind/internal/models"
)

// ProgramsHandler serves the learning program catalog.
type ProgramsHandler struct {
	base
}

// List handles GET /api/programs.
func (h *ProgramsHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok || !h.refresh(w, r, ws.Programs) {
		return
	}
	writeJSON(w, http.StatusOK, ws.Programs.List())
}

// Create handles POST /api/programs.
func (h *ProgramsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var in models.ProgramInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := ws.Programs.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PATCH /api/programs/{id}.
func (h *ProgramsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var patch models.ProgramPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := ws.Programs.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/programs/{id}.
func (h *ProgramsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Programs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
