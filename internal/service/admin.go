package service

import (
	"context"
	"time"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

// UserStore persists the administrative projection of accounts.
type UserStore interface {
	List(ctx context.Context) ([]models.AdminUser, error)
	UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context) (<-chan repository.Snapshot[models.AdminUser], error)
}

// AdminUsers is the account list of the administration area.
type AdminUsers struct {
	repo UserStore
	now  func() time.Time
	feed *feed[models.AdminUser]
}

// NewAdminUsers creates the account list view.
func NewAdminUsers(repo UserStore, opts FeedOptions) *AdminUsers {
	return &AdminUsers{
		repo: repo,
		now:  opts.clock(),
		feed: newFeed("users", opts.Freshness,
			func(u models.AdminUser) string { return u.ID },
			repo.List, repo.Subscribe, opts.logger()),
	}
}

// Start loads the list.
func (a *AdminUsers) Start(ctx context.Context) error { return a.feed.start(ctx) }

// Freshness reports how the list stays current.
func (a *AdminUsers) Freshness() Freshness { return a.feed.freshness() }

// List returns the current known users.
func (a *AdminUsers) List() []models.AdminUser { return a.feed.snapshot() }

// Refresh re-fetches the list from the store.
func (a *AdminUsers) Refresh(ctx context.Context) error { return a.feed.refresh(ctx) }

// Close ends the live subscription and every watcher.
func (a *AdminUsers) Close() { a.feed.close() }

// Watch streams the list after every change until ctx ends.
func (a *AdminUsers) Watch(ctx context.Context) <-chan []models.AdminUser {
	return a.feed.watch(ctx)
}

// UpdateRole sets the role of an account; only admin and user are accepted.
func (a *AdminUsers) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := a.repo.UpdateRole(ctx, id, role, a.now().UTC()); err != nil {
		return err
	}
	a.feed.replace(id, func(u models.AdminUser) models.AdminUser {
		u.Role = role
		return u
	})
	return nil
}

// Delete removes the account profile. Sessions of the account stay valid
// until they end.
func (a *AdminUsers) Delete(ctx context.Context, id string) error {
	if err := a.repo.Delete(ctx, id); err != nil {
		return err
	}
	a.feed.remove(id)
	return nil
}
