package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/models"
)

const streamWriteWait = 10 * time.Second

// GoalsHandler serves the goal list of the caller.
type GoalsHandler struct {
	base
	Upgrader websocket.Upgrader
}

// List handles GET /api/goals.
func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok || !h.refresh(w, r, ws.Goals) {
		return
	}
	writeJSON(w, http.StatusOK, ws.Goals.List())
}

// Categories handles GET /api/goals/categories.
func (h *GoalsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ws.Goals.Categories())
}

// Create handles POST /api/goals.
func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var in models.GoalInput
	if !decodeJSON(w, r, &in) {
		return
	}
	g, err := ws.Goals.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// Update handles PATCH /api/goals/{id}.
func (h *GoalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var patch models.GoalPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := ws.Goals.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/goals/{id}.
func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Goals.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSubGoal handles POST /api/goals/{id}/subgoals.
func (h *GoalsHandler) AddSubGoal(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sg, err := ws.Goals.AddSubGoal(r.Context(), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sg)
}

// UpdateSubGoal handles PATCH /api/goals/{id}/subgoals/{subID}.
func (h *GoalsHandler) UpdateSubGoal(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var patch models.SubGoalPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	err := ws.Goals.UpdateSubGoal(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subID"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSubGoal handles DELETE /api/goals/{id}/subgoals/{subID}.
func (h *GoalsHandler) DeleteSubGoal(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Goals.DeleteSubGoal(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /api/goals/stream. After the upgrade the current list
// is sent as a JSON text message, then again after every change, until the
// client goes away or the workspace is closed.
func (h *GoalsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// the client sends nothing; reading detects when it goes away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := h.logger().With(zap.String("userId", ws.Session.UserID))
	for goals := range ws.Goals.Watch(ctx) {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(goals); err != nil {
			log.Debug("goal stream ended", zap.Error(err))
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "workspace closed"),
		time.Now().Add(streamWriteWait))
}
