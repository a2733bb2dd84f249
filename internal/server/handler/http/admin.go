package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/service"
)

// AdminHandler serves the account administration endpoints.
type AdminHandler struct {
	base
}

func (h *AdminHandler) users(w http.ResponseWriter, r *http.Request) (*service.AdminUsers, bool) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return nil, false
	}
	if ws.Users == nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return ws.Users, true
}

// List handles GET /api/admin/users.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok || !h.refresh(w, r, users) {
		return
	}
	writeJSON(w, http.StatusOK, users.List())
}

// UpdateRole handles PUT /api/admin/users/{id}/role.
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := users.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok {
		return
	}
	if err := users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
