package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

const challengesCollection = "challenges"

// ChallengeRepository stores the global challenges collection.
type ChallengeRepository struct {
	Store docstore.Store
}

// NewChallengeRepository creates a ChallengeRepository over store.
func NewChallengeRepository(store docstore.Store) *ChallengeRepository {
	return &ChallengeRepository{Store: store}
}

// List returns every challenge in id order.
func (r *ChallengeRepository) List(ctx context.Context) ([]models.Challenge, error) {
	docs, err := r.Store.Query(ctx, docstore.Collection(challengesCollection))
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return decodeAll(docs, decodeChallenge), nil
}

// Get returns one challenge.
func (r *ChallengeRepository) Get(ctx context.Context, id string) (models.Challenge, error) {
	doc, err := r.Store.Get(ctx, docstore.Join(challengesCollection, id))
	if err != nil {
		return models.Challenge{}, fmt.Errorf("get challenge: %w", err)
	}
	return decodeChallenge(doc), nil
}

// Create stores c as a new document.
func (r *ChallengeRepository) Create(ctx context.Context, c models.Challenge) (models.Challenge, error) {
	doc, err := r.Store.Add(ctx, challengesCollection, encodeChallenge(c))
	if err != nil {
		return models.Challenge{}, fmt.Errorf("create challenge: %w", err)
	}
	return decodeChallenge(doc), nil
}

// Update writes the fields set in patch and the update time.
func (r *ChallengeRepository) Update(ctx context.Context, id string, patch models.ChallengePatch, at time.Time) error {
	fields := challengePatchFields(patch)
	fields["updatedAt"] = at
	if err := r.Store.Update(ctx, docstore.Join(challengesCollection, id), fields); err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	return nil
}

// Delete removes a challenge. Participants are not notified.
func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, docstore.Join(challengesCollection, id)); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// AddParticipant adds uid to the participant set; adding twice is a no-op.
func (r *ChallengeRepository) AddParticipant(ctx context.Context, id, uid string, at time.Time) error {
	err := r.Store.Update(ctx, docstore.Join(challengesCollection, id), docstore.Fields{
		"participants": docstore.ArrayUnion(uid),
		"updatedAt":    at,
	})
	if err != nil {
		return fmt.Errorf("join challenge: %w", err)
	}
	return nil
}

// RemoveParticipant removes uid from the participant set; removing a
// non-member is a no-op.
func (r *ChallengeRepository) RemoveParticipant(ctx context.Context, id, uid string, at time.Time) error {
	err := r.Store.Update(ctx, docstore.Join(challengesCollection, id), docstore.Fields{
		"participants": docstore.ArrayRemove(uid),
		"updatedAt":    at,
	})
	if err != nil {
		return fmt.Errorf("leave challenge: %w", err)
	}
	return nil
}

// Subscribe streams the challenge list on every change.
func (r *ChallengeRepository) Subscribe(ctx context.Context) (<-chan Snapshot[models.Challenge], error) {
	ch, err := subscribe(ctx, r.Store, docstore.Collection(challengesCollection), decodeChallenge)
	if err != nil {
		return nil, fmt.Errorf("subscribe challenges: %w", err)
	}
	return ch, nil
}
