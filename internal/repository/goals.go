package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

// GoalRepository stores the goals of each user under users/{uid}/goals.
type GoalRepository struct {
	Store docstore.Store
}

// NewGoalRepository creates a GoalRepository over store.
func NewGoalRepository(store docstore.Store) *GoalRepository {
	return &GoalRepository{Store: store}
}

func goalsOf(uid string) string {
	return docstore.Join("users", uid, "goals")
}

func (r *GoalRepository) query(uid string) docstore.Query {
	return docstore.Collection(goalsOf(uid)).Order("createdAt", docstore.Desc)
}

// List returns the goals of uid, newest first.
func (r *GoalRepository) List(ctx context.Context, uid string) ([]models.Goal, error) {
	docs, err := r.Store.Query(ctx, r.query(uid))
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return decodeAll(docs, decodeGoal), nil
}

// Get returns one goal.
func (r *GoalRepository) Get(ctx context.Context, uid, id string) (models.Goal, error) {
	doc, err := r.Store.Get(ctx, docstore.Join(goalsOf(uid), id))
	if err != nil {
		return models.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return decodeGoal(doc), nil
}

// Create stores g as a new document and returns it with its assigned id.
func (r *GoalRepository) Create(ctx context.Context, uid string, g models.Goal) (models.Goal, error) {
	doc, err := r.Store.Add(ctx, goalsOf(uid), encodeGoal(g))
	if err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return decodeGoal(doc), nil
}

// Update writes the fields set in patch and the update time.
func (r *GoalRepository) Update(ctx context.Context, uid, id string, patch models.GoalPatch, at time.Time) error {
	fields := goalPatchFields(patch)
	fields["updatedAt"] = at
	if err := r.Store.Update(ctx, docstore.Join(goalsOf(uid), id), fields); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// ReplaceSubGoals rewrites the whole embedded sub-goal list.
func (r *GoalRepository) ReplaceSubGoals(ctx context.Context, uid, id string, subs []models.SubGoal, at time.Time) error {
	err := r.Store.Update(ctx, docstore.Join(goalsOf(uid), id), docstore.Fields{
		"subGoals":  encodeSubGoals(subs),
		"updatedAt": at,
	})
	if err != nil {
		return fmt.Errorf("replace sub-goals: %w", err)
	}
	return nil
}

// Delete removes a goal.
func (r *GoalRepository) Delete(ctx context.Context, uid, id string) error {
	if err := r.Store.Delete(ctx, docstore.Join(goalsOf(uid), id)); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Subscribe streams the goal list of uid on every change.
func (r *GoalRepository) Subscribe(ctx context.Context, uid string) (<-chan Snapshot[models.Goal], error) {
	ch, err := subscribe(ctx, r.Store, r.query(uid), decodeGoal)
	if err != nil {
		return nil, fmt.Errorf("subscribe goals: %w", err)
	}
	return ch, nil
}
