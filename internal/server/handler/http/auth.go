// Package http provides the JSON API over the per-user workspaces:
// accounts, settings, goals, challenges, programs and administration.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/winnermind/internal/middleware"
	"github.com/atinyakov/winnermind/internal/models"
)

// IdentityService defines the account operations required by AuthHandler.
type IdentityService interface {
	// Register creates an account and signs it in.
	Register(ctx context.Context, email, password string) (models.Session, string, error)
	// Login signs an existing account in.
	Login(ctx context.Context, email, password string) (models.Session, string, error)
	// Logout ends the session of token.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	base
	Identity IdentityService
}

// Credentials is the JSON payload of register and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	Token   string         `json:"token"`
	Session models.Session `json:"session"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	s, token, err := h.Identity.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Token: token, Session: s})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	s, token, err := h.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Token: token, Session: s})
}

// Logout handles POST /api/logout. It ends the session and tears down the
// workspace of the user.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	if s == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err := h.Identity.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Workspaces.Close(s.UserID)
	w.WriteHeader(http.StatusNoContent)
}
