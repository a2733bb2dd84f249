// Package service implements the settings cascade and the per-family
// collection views (goals, challenges, programs, admin users) kept in sync
// with the document store.
package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

// SettingsStore persists settings records by scope (repository.GlobalScope
// or a user id).
type SettingsStore interface {
	// Get returns the stored record; docstore.ErrNotFound when absent.
	Get(ctx context.Context, scope string) (models.SettingsPatch, error)
	// Put overwrites the whole record.
	Put(ctx context.Context, scope string, s models.Settings) error
}

// Source tells which layer an effective settings value came from.
type Source string

const (
	SourceDefaults Source = "defaults"
	SourceGlobal   Source = "global"
	SourceUser     Source = "user"
)

// Resolution is the outcome of resolving settings for a session.
type Resolution struct {
	Settings models.Settings
	// Persistent is false when there is no session to write updates to.
	Persistent bool
	Source     Source
}

// Cascade layers the stored user record over the global record over the
// defaults. Missing or invalid fields fall through to the layer below, so
// the result is always fully populated.
func Cascade(defaults models.Settings, global, user *models.SettingsPatch) models.Settings {
	s := defaults.Clone()
	for _, layer := range []*models.SettingsPatch{global, user} {
		if layer != nil {
			s = sanitize(*layer).Apply(s)
		}
	}
	return s
}

func sanitize(p models.SettingsPatch) models.SettingsPatch {
	if p.Language != nil && !p.Language.Valid() {
		p.Language = nil
	}
	if p.Theme != nil && !p.Theme.Valid() {
		p.Theme = nil
	}
	if p.MaxSubGoals != nil && *p.MaxSubGoals <= 0 {
		p.MaxSubGoals = nil
	}
	return p
}

// ValidateSettings checks an effective settings value before it is written.
func ValidateSettings(s models.Settings) error {
	switch {
	case !s.Language.Valid():
		return invalid("language %q", s.Language)
	case !s.Theme.Valid():
		return invalid("theme %q", s.Theme)
	case s.MaxSubGoals <= 0:
		return invalid("maxSubGoals must be positive, got %d", s.MaxSubGoals)
	}
	for _, c := range s.GoalCategories {
		if c == "" {
			return invalid("empty goal category")
		}
	}
	return nil
}

// SettingsResolver resolves the effective settings of a session and writes
// updates back to the user scope.
type SettingsResolver struct {
	repo     SettingsStore
	defaults models.Settings
	log      *zap.Logger
}

// NewSettingsResolver creates a resolver whose hardcoded defaults use lang.
func NewSettingsResolver(repo SettingsStore, lang models.Language, log *zap.Logger) *SettingsResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsResolver{repo: repo, defaults: models.DefaultSettings(lang), log: log}
}

// Defaults returns a copy of the hardcoded defaults.
func (r *SettingsResolver) Defaults() models.Settings {
	return r.defaults.Clone()
}

// Resolve returns the effective settings of s. Read failures fall back to
// the defaults and are only logged. When the user record is missing it is
// created from the resolved value, and the global record is seeded when
// that is missing too; failures of those writes are logged as well.
func (r *SettingsResolver) Resolve(ctx context.Context, s *models.Session) Resolution {
	if s == nil {
		return Resolution{Settings: r.Defaults(), Source: SourceDefaults}
	}
	log := r.log.With(zap.String("userId", s.UserID))

	user, err := r.repo.Get(ctx, s.UserID)
	if err == nil {
		return Resolution{Settings: Cascade(r.defaults, nil, &user), Persistent: true, Source: SourceUser}
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		log.Warn("failed to read user settings, using defaults", zap.Error(err))
		return Resolution{Settings: r.Defaults(), Persistent: true, Source: SourceDefaults}
	}

	global, err := r.repo.Get(ctx, repository.GlobalScope)
	switch {
	case err == nil:
		resolved := Cascade(r.defaults, &global, nil)
		if err := r.PersistUser(ctx, s.UserID, resolved); err != nil {
			log.Error("failed to persist user settings", zap.Error(err))
		}
		return Resolution{Settings: resolved, Persistent: true, Source: SourceGlobal}
	case errors.Is(err, docstore.ErrNotFound):
		if err := r.SeedGlobal(ctx); err != nil {
			log.Error("failed to seed global settings", zap.Error(err))
		}
		if err := r.PersistUser(ctx, s.UserID, r.defaults); err != nil {
			log.Error("failed to persist user settings", zap.Error(err))
		}
	default:
		log.Warn("failed to read global settings, using defaults", zap.Error(err))
	}
	return Resolution{Settings: r.Defaults(), Persistent: true, Source: SourceDefaults}
}

// SeedGlobal writes the defaults as the global record.
func (r *SettingsResolver) SeedGlobal(ctx context.Context) error {
	return r.repo.Put(ctx, repository.GlobalScope, r.defaults)
}

// PersistUser writes s as the whole user record of uid.
func (r *SettingsResolver) PersistUser(ctx context.Context, uid string, s models.Settings) error {
	return r.repo.Put(ctx, uid, s)
}

// Global returns the effective global settings: the stored global record
// over the defaults.
func (r *SettingsResolver) Global(ctx context.Context) (models.Settings, error) {
	global, err := r.repo.Get(ctx, repository.GlobalScope)
	if errors.Is(err, docstore.ErrNotFound) {
		return r.Defaults(), nil
	}
	if err != nil {
		return models.Settings{}, err
	}
	return Cascade(r.defaults, &global, nil), nil
}

// SetGlobal validates and overwrites the global record.
func (r *SettingsResolver) SetGlobal(ctx context.Context, s models.Settings) error {
	if err := ValidateSettings(s); err != nil {
		return err
	}
	return r.repo.Put(ctx, repository.GlobalScope, s)
}

// Update merges patch over current and writes the result wholesale to the
// user scope. Without a session it does nothing and returns current.
func (r *SettingsResolver) Update(ctx context.Context, s *models.Session, current models.Settings, patch models.SettingsPatch) (models.Settings, error) {
	if s == nil {
		return current, nil
	}
	merged := patch.Apply(current)
	if err := ValidateSettings(merged); err != nil {
		return current, err
	}
	if err := r.PersistUser(ctx, s.UserID, merged); err != nil {
		return current, err
	}
	return merged, nil
}

// SessionSettings holds the effective settings of one session.
type SessionSettings struct {
	resolver *SettingsResolver
	session  *models.Session

	mu      sync.RWMutex
	current Resolution
}

// ForSession returns a holder for s initialized with the defaults; call
// Load to resolve the stored records.
func (r *SettingsResolver) ForSession(s *models.Session) *SessionSettings {
	var cp *models.Session
	if s != nil {
		v := *s
		cp = &v
	}
	return &SessionSettings{
		resolver: r,
		session:  cp,
		current:  Resolution{Settings: r.Defaults(), Persistent: cp != nil, Source: SourceDefaults},
	}
}

// Load resolves the settings of the session and keeps the result.
func (ss *SessionSettings) Load(ctx context.Context) Resolution {
	res := ss.resolver.Resolve(ctx, ss.session)
	ss.mu.Lock()
	ss.current = res
	ss.mu.Unlock()
	return ss.Resolution()
}

// Current returns a copy of the effective settings.
func (ss *SessionSettings) Current() models.Settings {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.current.Settings.Clone()
}

// Resolution returns a copy of the last resolution.
func (ss *SessionSettings) Resolution() Resolution {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	res := ss.current
	res.Settings = res.Settings.Clone()
	return res
}

// Update applies patch and persists the merged record. On failure the held
// settings are unchanged and the error is returned.
func (ss *SessionSettings) Update(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	merged, err := ss.resolver.Update(ctx, ss.session, ss.current.Settings, patch)
	if err != nil {
		return ss.current.Settings.Clone(), err
	}
	ss.current.Settings = merged
	return merged.Clone(), nil
}
