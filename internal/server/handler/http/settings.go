package http

import (
	"net/http"

	"github.com/atinyakov/winnermind/internal/middleware"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/service"
)

// SettingsHandler serves the effective settings of the caller and the
// global record.
type SettingsHandler struct {
	base
	Resolver *service.SettingsResolver
}

// SettingsResponse is the settings view of a session.
type SettingsResponse struct {
	Settings models.Settings `json:"settings"`
	// Persistent is false for anonymous callers: their changes are not kept.
	Persistent bool `json:"persistent"`
}

// Get handles GET /api/settings. Anonymous callers get the defaults.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()) == nil {
		res := h.Resolver.Resolve(r.Context(), nil)
		writeJSON(w, http.StatusOK, SettingsResponse{Settings: res.Settings, Persistent: res.Persistent})
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	res := ws.Settings.Resolution()
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: res.Settings, Persistent: res.Persistent})
}

// Update handles PATCH /api/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var patch models.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s, err := ws.Settings.Update(r.Context(), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: s, Persistent: true})
}

// GetGlobal handles GET /api/admin/settings/global.
func (h *SettingsHandler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	s, err := h.Resolver.Global(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutGlobal handles PUT /api/admin/settings/global. Fields missing from the
// body keep their current global value.
func (h *SettingsHandler) PutGlobal(w http.ResponseWriter, r *http.Request) {
	s, err := h.Resolver.Global(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !decodeJSON(w, r, &s) {
		return
	}
	if err := h.Resolver.SetGlobal(r.Context(), s); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
