package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/winnermind/internal/models"
)

// ChallengesHandler serves the community challenges.
type ChallengesHandler struct {
	base
}

// List handles GET /api/challenges.
func (h *ChallengesHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok || !h.refresh(w, r, ws.Challenges) {
		return
	}
	writeJSON(w, http.StatusOK, ws.Challenges.List())
}

// Create handles POST /api/challenges.
func (h *ChallengesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var in models.ChallengeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := ws.Challenges.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PATCH /api/challenges/{id}.
func (h *ChallengesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var patch models.ChallengePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := ws.Challenges.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/challenges/{id}.
func (h *ChallengesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Challenges.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Join handles POST /api/challenges/{id}/participants.
func (h *ChallengesHandler) Join(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Challenges.Join(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave handles DELETE /api/challenges/{id}/participants.
func (h *ChallengesHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Challenges.Leave(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
