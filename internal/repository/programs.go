package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

const programsCollection = "programs"

// ProgramRepository stores the global programs catalog.
type ProgramRepository struct {
	Store docstore.Store
}

// NewProgramRepository creates a ProgramRepository over store.
func NewProgramRepository(store docstore.Store) *ProgramRepository {
	return &ProgramRepository{Store: store}
}

// List returns every program in id order.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	docs, err := r.Store.Query(ctx, docstore.Collection(programsCollection))
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return decodeAll(docs, decodeProgram), nil
}

// Create stores p as a new document.
func (r *ProgramRepository) Create(ctx context.Context, p models.Program) (models.Program, error) {
	doc, err := r.Store.Add(ctx, programsCollection, encodeProgram(p))
	if err != nil {
		return models.Program{}, fmt.Errorf("create program: %w", err)
	}
	return decodeProgram(doc), nil
}

// Update writes the fields set in patch and the update time.
func (r *ProgramRepository) Update(ctx context.Context, id string, patch models.ProgramPatch, at time.Time) error {
	fields := programPatchFields(patch)
	fields["updatedAt"] = at
	if err := r.Store.Update(ctx, docstore.Join(programsCollection, id), fields); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// Delete removes a program.
func (r *ProgramRepository) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, docstore.Join(programsCollection, id)); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

// Subscribe streams the program list on every change.
func (r *ProgramRepository) Subscribe(ctx context.Context) (<-chan Snapshot[models.Program], error) {
	ch, err := subscribe(ctx, r.Store, docstore.Collection(programsCollection), decodeProgram)
	if err != nil {
		return nil, fmt.Errorf("subscribe programs: %w", err)
	}
	return ch, nil
}
