package service

import (
	"context"
	"strings"
	"time"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

// ChallengeStore persists the global challenges collection.
type ChallengeStore interface {
	List(ctx context.Context) ([]models.Challenge, error)
	Create(ctx context.Context, c models.Challenge) (models.Challenge, error)
	Update(ctx context.Context, id string, patch models.ChallengePatch, at time.Time) error
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, id, uid string, at time.Time) error
	RemoveParticipant(ctx context.Context, id, uid string, at time.Time) error
	Subscribe(ctx context.Context) (<-chan repository.Snapshot[models.Challenge], error)
}

// Challenges is the challenge list as seen by one session.
type Challenges struct {
	repo    ChallengeStore
	session *models.Session
	now     func() time.Time
	feed    *feed[models.Challenge]
}

// NewChallenges creates the challenge view of session.
func NewChallenges(repo ChallengeStore, session *models.Session, opts FeedOptions) *Challenges {
	return &Challenges{
		repo:    repo,
		session: session,
		now:     opts.clock(),
		feed: newFeed("challenges", opts.Freshness,
			func(c models.Challenge) string { return c.ID },
			repo.List, repo.Subscribe, opts.logger()),
	}
}

// Start loads the list.
func (c *Challenges) Start(ctx context.Context) error { return c.feed.start(ctx) }

// Freshness reports how the list stays current.
func (c *Challenges) Freshness() Freshness { return c.feed.freshness() }

// List returns the current known challenges.
func (c *Challenges) List() []models.Challenge { return c.feed.snapshot() }

// Refresh re-fetches the list from the store.
func (c *Challenges) Refresh(ctx context.Context) error { return c.feed.refresh(ctx) }

// Watch streams the list after every change until ctx ends.
func (c *Challenges) Watch(ctx context.Context) <-chan []models.Challenge { return c.feed.watch(ctx) }

// Close ends the live subscription and every watcher.
func (c *Challenges) Close() { c.feed.close() }

// Create stores a new challenge created by the session user with no
// participants. An empty status means draft.
func (c *Challenges) Create(ctx context.Context, in models.ChallengeInput) (models.Challenge, error) {
	if c.session == nil {
		return models.Challenge{}, ErrNoSession
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Challenge{}, invalid("title is required")
	}
	if in.Status == "" {
		in.Status = models.ChallengeDraft
	}
	if !in.Status.Valid() {
		return models.Challenge{}, invalid("status %q", in.Status)
	}

	now := c.now().UTC()
	created, err := c.repo.Create(ctx, models.Challenge{
		Title:        in.Title,
		Description:  in.Description,
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		Category:     in.Category,
		IsPublic:     in.IsPublic,
		Status:       in.Status,
		CreatorID:    c.session.UserID,
		Participants: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return models.Challenge{}, err
	}
	c.feed.append(created)
	return created, nil
}

// Update writes the changed fields of a challenge.
func (c *Challenges) Update(ctx context.Context, id string, patch models.ChallengePatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("title is required")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return invalid("status %q", *patch.Status)
	}
	now := c.now().UTC()
	if err := c.repo.Update(ctx, id, patch, now); err != nil {
		return err
	}
	c.feed.replace(id, func(ch models.Challenge) models.Challenge {
		ch = patch.Apply(ch)
		ch.UpdatedAt = now
		return ch
	})
	return nil
}

// Delete removes a challenge.
func (c *Challenges) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.feed.remove(id)
	return nil
}

// Join adds the session user to the participants. Joining twice has no
// further effect.
func (c *Challenges) Join(ctx context.Context, id string) error {
	if c.session == nil {
		return nil
	}
	uid := c.session.UserID
	now := c.now().UTC()
	if err := c.repo.AddParticipant(ctx, id, uid, now); err != nil {
		return err
	}
	c.feed.replace(id, func(ch models.Challenge) models.Challenge {
		if !ch.HasParticipant(uid) {
			ch.Participants = append(append([]string{}, ch.Participants...), uid)
		}
		ch.UpdatedAt = now
		return ch
	})
	return nil
}

// Leave removes the session user from the participants. Leaving a
// challenge the user has not joined has no effect.
func (c *Challenges) Leave(ctx context.Context, id string) error {
	if c.session == nil {
		return nil
	}
	uid := c.session.UserID
	now := c.now().UTC()
	if err := c.repo.RemoveParticipant(ctx, id, uid, now); err != nil {
		return err
	}
	c.feed.replace(id, func(ch models.Challenge) models.Challenge {
		kept := make([]string, 0, len(ch.Participants))
		for _, p := range ch.Participants {
			if p != uid {
				kept = append(kept, p)
			}
		}
		ch.Participants = kept
		ch.UpdatedAt = now
		return ch
	})
	return nil
}
