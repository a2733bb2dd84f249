// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/winnermind/internal/models"
)

type ctxKey string

const sessionKey ctxKey = "session"

// Authenticator resolves a bearer token to the session it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Session, error)
}

// TokenFromRequest returns the bearer token of r. Browsers cannot set
// headers on websocket upgrades, so the access_token query parameter is
// accepted as well.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// SessionAuth attaches the session of a valid bearer token to the request
// context. Requests without a token pass through anonymously; requests with
// an invalid token are rejected.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireSession rejects anonymous requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePrivileged rejects requests whose session is not privileged.
func RequirePrivileged(privileged func(*models.Session) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFromContext(r.Context())
			if s == nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if !privileged(s) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, &s)
}

// SessionFromContext returns the session stored by SessionAuth, or nil for
// anonymous requests.
func SessionFromContext(ctx context.Context) *models.Session {
	if s, ok := ctx.Value(sessionKey).(*models.Session); ok {
		cp := *s
		return &cp
	}
	return nil
}
