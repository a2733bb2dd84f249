package repository

import (
	"context"
	"fmt"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

// GlobalScope addresses the global settings record.
const GlobalScope = "global"

const settingsCollection = "settings"

// SettingsRepository reads and writes settings records by scope: GlobalScope
// or a user id.
type SettingsRepository struct {
	// Store is the document store holding the records.
	Store docstore.Store
}

// NewSettingsRepository creates a SettingsRepository over store.
func NewSettingsRepository(store docstore.Store) *SettingsRepository {
	return &SettingsRepository{Store: store}
}

// Get returns the stored record of scope as a patch: fields absent or
// malformed in the document are nil. Returns docstore.ErrNotFound when the
// record does not exist.
func (r *SettingsRepository) Get(ctx context.Context, scope string) (models.SettingsPatch, error) {
	doc, err := r.Store.Get(ctx, docstore.Join(settingsCollection, scope))
	if err != nil {
		return models.SettingsPatch{}, fmt.Errorf("get settings %s: %w", scope, err)
	}
	return decodeSettings(doc.Fields), nil
}

// Put overwrites the whole record of scope.
func (r *SettingsRepository) Put(ctx context.Context, scope string, s models.Settings) error {
	if err := r.Store.Set(ctx, docstore.Join(settingsCollection, scope), encodeSettings(s)); err != nil {
		return fmt.Errorf("put settings %s: %w", scope, err)
	}
	return nil
}
