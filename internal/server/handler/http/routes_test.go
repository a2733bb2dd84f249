package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/identity"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
	"github.com/atinyakov/winnermind/internal/service"
)

type testServer struct {
	*httptest.Server
	manager *service.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := docstore.NewMemoryStore()
	provider := identity.NewProvider(store, identity.Options{
		Secret: []byte("test-secret"),
		Cost:   bcrypt.MinCost,
		Policy: identity.Policy{TrustedDomain: "winnermind.com"},
	}, nil)
	repos := service.Repositories{
		Settings:   repository.NewSettingsRepository(store),
		Goals:      repository.NewGoalRepository(store),
		Challenges: repository.NewChallengeRepository(store),
		Programs:   repository.NewProgramRepository(store),
		Users:      repository.NewUserRepository(store),
	}
	resolver := service.NewSettingsResolver(repos.Settings, models.LanguageEN, nil)
	privileged := provider.Policy().IsPrivileged
	manager := service.NewManager(repos, resolver, service.ManagerOptions{
		Modes:      service.DefaultFeedModes(),
		Privileged: privileged,
	})

	h := NewHandlers(manager, resolver, provider, zap.NewNop())
	srv := httptest.NewServer(NewRouter(h, provider, privileged, zap.NewNop()))
	t.Cleanup(func() {
		srv.Close()
		manager.CloseAll()
		_ = store.Close()
	})
	return &testServer{Server: srv, manager: manager}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, email string) SessionResponse {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/register", "", Credentials{Email: email, Password: "secret123"})
	require.Equal(t, http.StatusCreated, code, string(body))
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestSettings_AnonymousDefaults(t *testing.T) {
	srv := newTestServer(t)
	code, body := srv.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, code)

	g := goldie.New(t)
	g.Assert(t, "settings_defaults", body)
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	reg := srv.register(t, "alice@example.com")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice@example.com", reg.Session.Email)

	code, _ := srv.do(t, http.MethodPost, "/api/register", "", Credentials{Email: "alice@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, code, "duplicate registration")

	code, _ = srv.do(t, http.MethodPost, "/api/login", "", Credentials{Email: "alice@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := srv.do(t, http.MethodPost, "/api/login", "", Credentials{Email: "alice@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, code)
	login := decode[SessionResponse](t, body)
	assert.Equal(t, reg.Session.UserID, login.Session.UserID)

	code, _ = srv.do(t, http.MethodGet, "/api/goals", login.Token, nil)
	require.Equal(t, http.StatusOK, code)
	_, open := srv.manager.Get(login.Session.UserID)
	assert.True(t, open)

	code, _ = srv.do(t, http.MethodPost, "/api/logout", login.Token, nil)
	assert.Equal(t, http.StatusNoContent, code)
	_, open = srv.manager.Get(login.Session.UserID)
	assert.False(t, open, "logout closes the workspace")

	code, _ = srv.do(t, http.MethodGet, "/api/goals", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = srv.do(t, http.MethodGet, "/api/goals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSettings_SessionUpdate(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice@example.com").Token

	code, body := srv.do(t, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[SettingsResponse](t, body).Persistent)

	code, body = srv.do(t, http.MethodPatch, "/api/settings", token, map[string]any{"theme": "dark"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.ThemeDark, decode[SettingsResponse](t, body).Settings.Theme)

	code, _ = srv.do(t, http.MethodPatch, "/api/settings", token, map[string]any{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = srv.do(t, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[SettingsResponse](t, body).Settings
	assert.Equal(t, models.ThemeDark, got.Theme)
	assert.Equal(t, 5, got.MaxSubGoals)
}

func TestGoalsFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice@example.com").Token

	code, body := srv.do(t, http.MethodPost, "/api/goals", token, models.GoalInput{
		Title:      "Learn French",
		Category:   "Education",
		TargetDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	goal := decode[models.Goal](t, body)

	code, _ = srv.do(t, http.MethodPost, "/api/goals", token, models.GoalInput{Category: "Education"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodPatch, "/api/settings", token, map[string]any{"maxSubGoals": 1})
	require.Equal(t, http.StatusOK, code)

	code, body = srv.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/subgoals", token, map[string]string{"title": "A1 course"})
	require.Equal(t, http.StatusCreated, code, string(body))
	sub := decode[models.SubGoal](t, body)
	code, _ = srv.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/subgoals", token, map[string]string{"title": "A2 course"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = srv.do(t, http.MethodPatch, "/api/goals/"+goal.ID+"/subgoals/"+sub.ID, token, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = srv.do(t, http.MethodPatch, "/api/goals/"+goal.ID, token, map[string]int{"progress": 150})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = srv.do(t, http.MethodPatch, "/api/goals/"+goal.ID, token, map[string]int{"progress": 50})
	assert.Equal(t, http.StatusNoContent, code)

	code, body = srv.do(t, http.MethodGet, "/api/goals", token, nil)
	require.Equal(t, http.StatusOK, code)
	goals := decode[[]models.Goal](t, body)
	require.Len(t, goals, 1)
	assert.Equal(t, 50, goals[0].Progress)
	assert.Equal(t, []models.SubGoal{{ID: sub.ID, Title: "A1 course", Completed: true}}, goals[0].SubGoals)

	code, body = srv.do(t, http.MethodGet, "/api/goals/categories", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, decode[[]string](t, body), "Education")

	code, _ = srv.do(t, http.MethodDelete, "/api/goals/"+goal.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = srv.do(t, http.MethodPatch, "/api/goals/"+goal.ID, token, map[string]int{"progress": 60})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = srv.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/subgoals", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPrivilegedRoutes(t *testing.T) {
	srv := newTestServer(t)
	user := srv.register(t, "alice@example.com")
	admin := srv.register(t, "root@winnermind.com")

	program := models.ProgramInput{Title: "Habits 101", Level: models.LevelBeginner, Modules: 4}
	code, _ := srv.do(t, http.MethodPost, "/api/programs", user.Token, program)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = srv.do(t, http.MethodGet, "/api/admin/users", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := srv.do(t, http.MethodPost, "/api/programs", admin.Token, program)
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = srv.do(t, http.MethodGet, "/api/programs", user.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Program](t, body), 1, "pull views refresh on read")

	code, body = srv.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	users := decode[[]models.AdminUser](t, body)
	require.Len(t, users, 2)

	code, _ = srv.do(t, http.MethodPut, "/api/admin/users/"+user.Session.UserID+"/role", admin.Token, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = srv.do(t, http.MethodPut, "/api/admin/users/"+user.Session.UserID+"/role", admin.Token, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusNoContent, code)

	code, body = srv.do(t, http.MethodPut, "/api/admin/settings/global", admin.Token, map[string]any{"maxSubGoals": 8})
	require.Equal(t, http.StatusOK, code, string(body))
	global := decode[models.Settings](t, body)
	assert.Equal(t, 8, global.MaxSubGoals)
	assert.Equal(t, models.LanguageEN, global.Language)

	code, _ = srv.do(t, http.MethodPut, "/api/admin/settings/global", admin.Token, map[string]any{"maxSubGoals": -1})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChallengesParticipation(t *testing.T) {
	srv := newTestServer(t)
	user := srv.register(t, "alice@example.com")
	admin := srv.register(t, "root@winnermind.com")

	code, body := srv.do(t, http.MethodPost, "/api/challenges", admin.Token, models.ChallengeInput{Title: "Plank a day"})
	require.Equal(t, http.StatusCreated, code, string(body))
	ch := decode[models.Challenge](t, body)
	assert.Equal(t, models.ChallengeDraft, ch.Status)

	for range 2 {
		code, _ = srv.do(t, http.MethodPost, "/api/challenges/"+ch.ID+"/participants", user.Token, nil)
		require.Equal(t, http.StatusNoContent, code)
	}
	code, body = srv.do(t, http.MethodGet, "/api/challenges", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[[]models.Challenge](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, []string{user.Session.UserID}, list[0].Participants)

	code, _ = srv.do(t, http.MethodDelete, "/api/challenges/"+ch.ID+"/participants", user.Token, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = srv.do(t, http.MethodPatch, "/api/challenges/"+ch.ID, user.Token, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = srv.do(t, http.MethodPost, "/api/challenges/missing/participants", user.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGoalsStream(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice@example.com").Token

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/goals/stream?access_token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() []models.Goal {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var goals []models.Goal
		require.NoError(t, conn.ReadJSON(&goals))
		return goals
	}
	assert.Empty(t, read())

	code, _ := srv.do(t, http.MethodPost, "/api/goals", token, models.GoalInput{Title: "Sleep 8h", Category: "Health"})
	require.Equal(t, http.StatusCreated, code)

	for {
		goals := read()
		if len(goals) == 1 {
			assert.Equal(t, "Sleep 8h", goals[0].Title)
			break
		}
	}
}

func TestRejectsNonJSONBody(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/login", strings.NewReader("email=a"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
