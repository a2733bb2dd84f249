package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/identity"
	"github.com/atinyakov/winnermind/internal/middleware"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/service"
)

// Workspaces gives handlers the per-user state of a session.
type Workspaces interface {
	Open(ctx context.Context, s models.Session) (*service.Workspace, error)
	Close(uid string)
}

// base carries what every handler needs.
type base struct {
	Workspaces Workspaces
	Log        *zap.Logger
}

func (b base) logger() *zap.Logger {
	if b.Log != nil {
		return b.Log
	}
	return zap.NewNop()
}

// workspace returns the workspace of the request session, writing the
// error response itself when there is none.
func (b base) workspace(w http.ResponseWriter, r *http.Request) (*service.Workspace, bool) {
	s := middleware.SessionFromContext(r.Context())
	if s == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	ws, err := b.Workspaces.Open(r.Context(), *s)
	if err != nil {
		b.fail(w, r, err)
		return nil, false
	}
	return ws, true
}

// fail maps err to a status code. Unexpected errors are logged and hidden.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var capErr *service.CapacityError
	switch {
	case errors.As(err, &capErr):
		http.Error(w, capErr.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, service.ErrGoalNotLoaded):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, identity.ErrAuth), errors.Is(err, service.ErrNoSession):
		http.Error(w, "authentication failed", http.StatusUnauthorized)
	default:
		b.logger().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type refresher interface {
	Freshness() service.Freshness
	Refresh(ctx context.Context) error
}

// refresh re-fetches a pull-mode view so a read sees writes of others.
func (b base) refresh(w http.ResponseWriter, r *http.Request, view refresher) bool {
	if view.Freshness() != service.Pull {
		return true
	}
	if err := view.Refresh(r.Context()); err != nil {
		b.fail(w, r, err)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
