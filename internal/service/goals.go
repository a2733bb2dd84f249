package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

// GoalStore persists the goals of each user.
type GoalStore interface {
	List(ctx context.Context, uid string) ([]models.Goal, error)
	Create(ctx context.Context, uid string, g models.Goal) (models.Goal, error)
	Update(ctx context.Context, uid, id string, patch models.GoalPatch, at time.Time) error
	ReplaceSubGoals(ctx context.Context, uid, id string, subs []models.SubGoal, at time.Time) error
	Delete(ctx context.Context, uid, id string) error
	Subscribe(ctx context.Context, uid string) (<-chan repository.Snapshot[models.Goal], error)
}

// SettingsSource provides the current effective settings.
type SettingsSource interface {
	Current() models.Settings
}

// FeedOptions configures a collection view.
type FeedOptions struct {
	Freshness Freshness
	// Now overrides the clock used for timestamps.
	Now func() time.Time
	Log *zap.Logger
}

func (o FeedOptions) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

func (o FeedOptions) logger() *zap.Logger {
	if o.Log != nil {
		return o.Log
	}
	return zap.NewNop()
}

// Goals is the goal list of one session, newest first. Without a session
// the list is empty and every mutation is a no-op, except Create and
// AddSubGoal which return ErrNoSession.
type Goals struct {
	repo     GoalStore
	session  *models.Session
	settings SettingsSource
	now      func() time.Time
	feed     *feed[models.Goal]
}

// NewGoals creates the goal view of session.
func NewGoals(repo GoalStore, session *models.Session, settings SettingsSource, opts FeedOptions) *Goals {
	g := &Goals{repo: repo, session: session, settings: settings, now: opts.clock()}
	g.feed = newFeed("goals", opts.Freshness,
		func(goal models.Goal) string { return goal.ID },
		func(ctx context.Context) ([]models.Goal, error) {
			if g.session == nil {
				return []models.Goal{}, nil
			}
			return repo.List(ctx, g.session.UserID)
		},
		func(ctx context.Context) (<-chan repository.Snapshot[models.Goal], error) {
			return repo.Subscribe(ctx, g.session.UserID)
		},
		opts.logger(),
	)
	return g
}

// Start loads the list, opening the live subscription in Live mode.
func (g *Goals) Start(ctx context.Context) error {
	if g.session == nil {
		return nil
	}
	return g.feed.start(ctx)
}

// Freshness reports how the list stays current.
func (g *Goals) Freshness() Freshness {
	return g.feed.freshness()
}

// List returns the current known goals.
func (g *Goals) List() []models.Goal {
	return g.feed.snapshot()
}

// Refresh re-fetches the list from the store.
func (g *Goals) Refresh(ctx context.Context) error {
	return g.feed.refresh(ctx)
}

// Watch streams the list after every change until ctx ends.
func (g *Goals) Watch(ctx context.Context) <-chan []models.Goal {
	return g.feed.watch(ctx)
}

// Close ends the live subscription and every watcher.
func (g *Goals) Close() {
	g.feed.close()
}

// Categories returns the goal categories of the current settings.
func (g *Goals) Categories() []string {
	return g.settings.Current().GoalCategories
}

// Create stores a new goal with no progress and no sub-goals.
func (g *Goals) Create(ctx context.Context, in models.GoalInput) (models.Goal, error) {
	if g.session == nil {
		return models.Goal{}, ErrNoSession
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Goal{}, invalid("title is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return models.Goal{}, invalid("category is required")
	}

	now := g.now().UTC()
	created, err := g.repo.Create(ctx, g.session.UserID, models.Goal{
		Title:       in.Title,
		Description: in.Description,
		TargetDate:  in.TargetDate.UTC(),
		Progress:    0,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
		SubGoals:    []models.SubGoal{},
	})
	if err != nil {
		return models.Goal{}, err
	}
	g.feed.prepend(created)
	return created, nil
}

// Update writes the changed fields of a goal.
func (g *Goals) Update(ctx context.Context, id string, patch models.GoalPatch) error {
	if g.session == nil {
		return nil
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("title is required")
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		return invalid("category is required")
	}
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		return invalid("progress must be within 0..100, got %d", *patch.Progress)
	}

	now := g.now().UTC()
	if err := g.repo.Update(ctx, g.session.UserID, id, patch, now); err != nil {
		return err
	}
	g.feed.replace(id, func(goal models.Goal) models.Goal {
		goal = patch.Apply(goal)
		goal.UpdatedAt = now
		return goal
	})
	return nil
}

// Delete removes a goal with its embedded sub-goals.
func (g *Goals) Delete(ctx context.Context, id string) error {
	if g.session == nil {
		return nil
	}
	if err := g.repo.Delete(ctx, g.session.UserID, id); err != nil {
		return err
	}
	g.feed.remove(id)
	return nil
}

// AddSubGoal appends a sub-goal to a goal of the local list. It fails with a
// *CapacityError when the goal already holds the maxSubGoals of the current
// settings; the stored list is then left untouched.
func (g *Goals) AddSubGoal(ctx context.Context, goalID, title string) (models.SubGoal, error) {
	if g.session == nil {
		return models.SubGoal{}, ErrNoSession
	}
	if strings.TrimSpace(title) == "" {
		return models.SubGoal{}, invalid("title is required")
	}
	goal, ok := g.feed.get(goalID)
	if !ok {
		return models.SubGoal{}, ErrGoalNotLoaded
	}
	if limit := g.settings.Current().MaxSubGoals; len(goal.SubGoals) >= limit {
		return models.SubGoal{}, &CapacityError{GoalID: goalID, Max: limit}
	}

	sg := models.SubGoal{ID: uuid.NewString(), Title: title}
	subs := append(slices.Clone(goal.SubGoals), sg)
	if err := g.writeSubGoals(ctx, goalID, subs); err != nil {
		return models.SubGoal{}, err
	}
	return sg, nil
}

// UpdateSubGoal changes one sub-goal. Unknown goal or sub-goal ids are a
// no-op.
func (g *Goals) UpdateSubGoal(ctx context.Context, goalID, subID string, patch models.SubGoalPatch) error {
	return g.rewriteSubGoals(ctx, goalID, subID, func(subs []models.SubGoal, i int) []models.SubGoal {
		subs[i] = patch.Apply(subs[i])
		return subs
	})
}

// DeleteSubGoal removes one sub-goal. Unknown goal or sub-goal ids are a
// no-op.
func (g *Goals) DeleteSubGoal(ctx context.Context, goalID, subID string) error {
	return g.rewriteSubGoals(ctx, goalID, subID, func(subs []models.SubGoal, i int) []models.SubGoal {
		return slices.Delete(subs, i, i+1)
	})
}

func (g *Goals) rewriteSubGoals(ctx context.Context, goalID, subID string, fn func([]models.SubGoal, int) []models.SubGoal) error {
	if g.session == nil {
		return nil
	}
	goal, ok := g.feed.get(goalID)
	if !ok {
		return nil
	}
	i := slices.IndexFunc(goal.SubGoals, func(sg models.SubGoal) bool { return sg.ID == subID })
	if i < 0 {
		return nil
	}
	return g.writeSubGoals(ctx, goalID, fn(slices.Clone(goal.SubGoals), i))
}

func (g *Goals) writeSubGoals(ctx context.Context, goalID string, subs []models.SubGoal) error {
	now := g.now().UTC()
	if err := g.repo.ReplaceSubGoals(ctx, g.session.UserID, goalID, subs, now); err != nil {
		return err
	}
	g.feed.replace(goalID, func(goal models.Goal) models.Goal {
		goal.SubGoals = subs
		goal.UpdatedAt = now
		return goal
	})
	return nil
}
