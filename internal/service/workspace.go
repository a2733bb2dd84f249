package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/models"
)

// Repositories bundles the stores behind every family.
type Repositories struct {
	Settings   SettingsStore
	Goals      GoalStore
	Challenges ChallengeStore
	Programs   ProgramStore
	Users      UserStore
}

// FeedModes chooses the freshness of each family.
type FeedModes struct {
	Goals      Freshness
	Challenges Freshness
	Programs   Freshness
	Users      Freshness
}

// DefaultFeedModes keeps goals live and fetches the other families on
// demand.
func DefaultFeedModes() FeedModes {
	return FeedModes{Goals: Live, Challenges: Pull, Programs: Pull, Users: Pull}
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Modes FeedModes
	// Privileged decides whether a session gets the admin user list.
	Privileged func(*models.Session) bool
	Now        func() time.Time
	Log        *zap.Logger
}

// Workspace is the state of one signed-in user: effective settings and the
// collection views.
type Workspace struct {
	Session    models.Session
	Settings   *SessionSettings
	Goals      *Goals
	Challenges *Challenges
	Programs   *Programs
	// Users is nil for sessions that are not privileged.
	Users *AdminUsers

	mu       sync.Mutex
	lastUsed time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

func (w *Workspace) close() {
	w.Goals.Close()
	w.Challenges.Close()
	w.Programs.Close()
	if w.Users != nil {
		w.Users.Close()
	}
}

// Manager keeps one Workspace per signed-in user.
type Manager struct {
	repos    Repositories
	resolver *SettingsResolver
	opts     ManagerOptions
	log      *zap.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewManager creates a Manager.
func NewManager(repos Repositories, resolver *SettingsResolver, opts ManagerOptions) *Manager {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Privileged == nil {
		opts.Privileged = func(*models.Session) bool { return false }
	}
	return &Manager{
		repos:      repos,
		resolver:   resolver,
		opts:       opts,
		log:        opts.Log,
		workspaces: make(map[string]*Workspace),
	}
}

// Resolver returns the settings resolver shared by every workspace.
func (m *Manager) Resolver() *SettingsResolver {
	return m.resolver
}

// Open returns the workspace of s, creating it on first use: settings are
// resolved and every view is started.
func (m *Manager) Open(ctx context.Context, s models.Session) (*Workspace, error) {
	m.mu.Lock()
	if w, ok := m.workspaces[s.UserID]; ok {
		m.mu.Unlock()
		w.touch(m.opts.Now())
		return w, nil
	}
	m.mu.Unlock()

	w, err := m.build(ctx, s)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.workspaces[s.UserID]; ok {
		m.mu.Unlock()
		w.close()
		existing.touch(m.opts.Now())
		return existing, nil
	}
	m.workspaces[s.UserID] = w
	m.mu.Unlock()

	m.log.Info("workspace opened", zap.String("userId", s.UserID))
	return w, nil
}

func (m *Manager) build(ctx context.Context, s models.Session) (*Workspace, error) {
	session := s
	log := m.log.With(zap.String("userId", s.UserID))
	feedOpts := func(f Freshness) FeedOptions {
		return FeedOptions{Freshness: f, Now: m.opts.Now, Log: log}
	}

	settings := m.resolver.ForSession(&session)
	settings.Load(ctx)

	w := &Workspace{
		Session:    s,
		Settings:   settings,
		Goals:      NewGoals(m.repos.Goals, &session, settings, feedOpts(m.opts.Modes.Goals)),
		Challenges: NewChallenges(m.repos.Challenges, &session, feedOpts(m.opts.Modes.Challenges)),
		Programs:   NewPrograms(m.repos.Programs, feedOpts(m.opts.Modes.Programs)),
		lastUsed:   m.opts.Now(),
	}
	if m.opts.Privileged(&session) {
		w.Users = NewAdminUsers(m.repos.Users, feedOpts(m.opts.Modes.Users))
	}

	type starter struct {
		name  string
		start func(context.Context) error
	}
	starts := []starter{
		{"goals", w.Goals.Start},
		{"challenges", w.Challenges.Start},
		{"programs", w.Programs.Start},
	}
	if w.Users != nil {
		starts = append(starts, starter{"users", w.Users.Start})
	}
	for _, st := range starts {
		if err := st.start(ctx); err != nil {
			w.close()
			return nil, fmt.Errorf("start %s: %w", st.name, err)
		}
	}
	return w, nil
}

// Get returns the open workspace of uid.
func (m *Manager) Get(uid string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workspaces[uid]
	return w, ok
}

// Close tears down the workspace of uid, ending its live subscriptions.
func (m *Manager) Close(uid string) {
	m.mu.Lock()
	w, ok := m.workspaces[uid]
	delete(m.workspaces, uid)
	m.mu.Unlock()
	if ok {
		w.close()
		m.log.Info("workspace closed", zap.String("userId", uid))
	}
}

// CloseAll tears down every workspace.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	uids := make([]string, 0, len(m.workspaces))
	for uid := range m.workspaces {
		uids = append(uids, uid)
	}
	m.mu.Unlock()
	for _, uid := range uids {
		m.Close(uid)
	}
}

// CloseIdle tears down the workspaces unused for longer than idle and
// returns how many were closed.
func (m *Manager) CloseIdle(idle time.Duration) int {
	cutoff := m.opts.Now().Add(-idle)
	m.mu.Lock()
	var stale []string
	for uid, w := range m.workspaces {
		if w.idleSince().Before(cutoff) {
			stale = append(stale, uid)
		}
	}
	m.mu.Unlock()
	for _, uid := range stale {
		m.Close(uid)
	}
	return len(stale)
}

// StartIdleReaper runs CloseIdle every interval until ctx is cancelled.
func (m *Manager) StartIdleReaper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.CloseIdle(idle); n > 0 {
					m.log.Info("closed idle workspaces", zap.Int("closed", n))
				}
			}
		}
	}()
}

// SessionSource is a holder of the current session that reports changes,
// such as identity.Client.
type SessionSource interface {
	Current() *models.Session
	OnChange(fn func(*models.Session)) func()
}

// Follow keeps a workspace open for whoever is signed in to src: sign-in
// opens it, sign-out or a change of user closes the previous one. The
// returned func stops following and closes the current workspace.
func (m *Manager) Follow(ctx context.Context, src SessionSource) func() {
	var (
		mu      sync.Mutex
		current string
	)
	switchTo := func(s *models.Session) {
		mu.Lock()
		defer mu.Unlock()
		if s != nil && s.UserID == current {
			return
		}
		if current != "" {
			m.Close(current)
			current = ""
		}
		if s == nil {
			return
		}
		if _, err := m.Open(ctx, *s); err != nil {
			m.log.Error("failed to open workspace", zap.String("userId", s.UserID), zap.Error(err))
			return
		}
		current = s.UserID
	}

	unsubscribe := src.OnChange(switchTo)
	switchTo(src.Current())
	return func() {
		unsubscribe()
		switchTo(nil)
	}
}
