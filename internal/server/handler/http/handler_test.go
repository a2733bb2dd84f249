package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/identity"
	"github.com/atinyakov/winnermind/internal/service"
)

func TestFailStatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"capacity", &service.CapacityError{GoalID: "g1", Max: 5}, http.StatusConflict},
		{"invalid input", fmt.Errorf("%w: title is required", service.ErrInvalidInput), http.StatusBadRequest},
		{"invalid role", service.ErrInvalidRole, http.StatusBadRequest},
		{"not found", fmt.Errorf("update users/u1/goals/g1: %w", docstore.ErrNotFound), http.StatusNotFound},
		{"goal not loaded", service.ErrGoalNotLoaded, http.StatusNotFound},
		{"auth", fmt.Errorf("%w: login: bad password", identity.ErrAuth), http.StatusUnauthorized},
		{"no session", service.ErrNoSession, http.StatusUnauthorized},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			base{}.fail(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil), tt.err)
			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	base{}.fail(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil), errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal error\n", rec.Body.String())
}
