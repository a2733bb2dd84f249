package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newMemStore(t *testing.T) *docstore.MemoryStore {
	t.Helper()
	s := docstore.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func alice() *models.Session {
	return &models.Session{UserID: "alice", Email: "alice@example.com"}
}

// staticSettings is a SettingsSource with a mutable value.
type staticSettings struct {
	mu sync.Mutex
	s  models.Settings
}

func (st *staticSettings) Current() models.Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Clone()
}

func (st *staticSettings) setMax(n int) {
	st.mu.Lock()
	st.s.MaxSubGoals = n
	st.mu.Unlock()
}

func withMax(n int) *staticSettings {
	s := models.DefaultSettings(models.LanguageEN)
	s.MaxSubGoals = n
	return &staticSettings{s: s}
}

// countingSettings records the calls made to a settings store.
type countingSettings struct {
	inner SettingsStore

	mu     sync.Mutex
	reads  int
	writes []string
}

func (c *countingSettings) Get(ctx context.Context, scope string) (models.SettingsPatch, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.inner.Get(ctx, scope)
}

func (c *countingSettings) Put(ctx context.Context, scope string, s models.Settings) error {
	c.mu.Lock()
	c.writes = append(c.writes, scope)
	c.mu.Unlock()
	return c.inner.Put(ctx, scope, s)
}

func (c *countingSettings) reset() {
	c.mu.Lock()
	c.reads = 0
	c.writes = nil
	c.mu.Unlock()
}

// mockSettingsStore is a func-field SettingsStore.
type mockSettingsStore struct {
	GetFunc func(ctx context.Context, scope string) (models.SettingsPatch, error)
	PutFunc func(ctx context.Context, scope string, s models.Settings) error
}

func (m *mockSettingsStore) Get(ctx context.Context, scope string) (models.SettingsPatch, error) {
	return m.GetFunc(ctx, scope)
}

func (m *mockSettingsStore) Put(ctx context.Context, scope string, s models.Settings) error {
	return m.PutFunc(ctx, scope, s)
}

// mockGoalStore is a func-field GoalStore; unset funcs fail the test.
type mockGoalStore struct {
	t                   *testing.T
	ListFunc            func(ctx context.Context, uid string) ([]models.Goal, error)
	CreateFunc          func(ctx context.Context, uid string, g models.Goal) (models.Goal, error)
	UpdateFunc          func(ctx context.Context, uid, id string, patch models.GoalPatch, at time.Time) error
	ReplaceSubGoalsFunc func(ctx context.Context, uid, id string, subs []models.SubGoal, at time.Time) error
	DeleteFunc          func(ctx context.Context, uid, id string) error
}

func (m *mockGoalStore) List(ctx context.Context, uid string) ([]models.Goal, error) {
	if m.ListFunc == nil {
		m.t.Fatal("unexpected List")
	}
	return m.ListFunc(ctx, uid)
}

func (m *mockGoalStore) Create(ctx context.Context, uid string, g models.Goal) (models.Goal, error) {
	if m.CreateFunc == nil {
		m.t.Fatal("unexpected Create")
	}
	return m.CreateFunc(ctx, uid, g)
}

func (m *mockGoalStore) Update(ctx context.Context, uid, id string, patch models.GoalPatch, at time.Time) error {
	if m.UpdateFunc == nil {
		m.t.Fatal("unexpected Update")
	}
	return m.UpdateFunc(ctx, uid, id, patch, at)
}

func (m *mockGoalStore) ReplaceSubGoals(ctx context.Context, uid, id string, subs []models.SubGoal, at time.Time) error {
	if m.ReplaceSubGoalsFunc == nil {
		m.t.Fatal("unexpected ReplaceSubGoals")
	}
	return m.ReplaceSubGoalsFunc(ctx, uid, id, subs, at)
}

func (m *mockGoalStore) Delete(ctx context.Context, uid, id string) error {
	if m.DeleteFunc == nil {
		m.t.Fatal("unexpected Delete")
	}
	return m.DeleteFunc(ctx, uid, id)
}

func (m *mockGoalStore) Subscribe(context.Context, string) (<-chan repository.Snapshot[models.Goal], error) {
	m.t.Fatal("unexpected Subscribe")
	return nil, nil
}
