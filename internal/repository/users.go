package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

const usersCollection = "users"

// UserRepository is the administrative view over account profiles.
type UserRepository struct {
	Store docstore.Store
}

// NewUserRepository creates a UserRepository over store.
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{Store: store}
}

func (r *UserRepository) query() docstore.Query {
	return docstore.Collection(usersCollection).Order("createdAt", docstore.Desc)
}

// List returns every account profile, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.AdminUser, error) {
	docs, err := r.Store.Query(ctx, r.query())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return decodeAll(docs, decodeAdminUser), nil
}

// UpdateRole writes the role of an account.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error {
	err := r.Store.Update(ctx, docstore.Join(usersCollection, id), docstore.Fields{
		"role":      string(role),
		"updatedAt": at,
	})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// Delete removes the account profile. Credentials and open sessions are
// left in place.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, docstore.Join(usersCollection, id)); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Subscribe streams the account list on every change.
func (r *UserRepository) Subscribe(ctx context.Context) (<-chan Snapshot[models.AdminUser], error) {
	ch, err := subscribe(ctx, r.Store, r.query(), decodeAdminUser)
	if err != nil {
		return nil, fmt.Errorf("subscribe users: %w", err)
	}
	return ch, nil
}
