package service

import (
	"context"
	"strings"
	"time"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

// ProgramStore persists the global programs catalog.
type ProgramStore interface {
	List(ctx context.Context) ([]models.Program, error)
	Create(ctx context.Context, p models.Program) (models.Program, error)
	Update(ctx context.Context, id string, patch models.ProgramPatch, at time.Time) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context) (<-chan repository.Snapshot[models.Program], error)
}

// Programs is the programs catalog view.
type Programs struct {
	repo ProgramStore
	now  func() time.Time
	feed *feed[models.Program]
}

// NewPrograms creates a programs view.
func NewPrograms(repo ProgramStore, opts FeedOptions) *Programs {
	return &Programs{
		repo: repo,
		now:  opts.clock(),
		feed: newFeed("programs", opts.Freshness,
			func(p models.Program) string { return p.ID },
			repo.List, repo.Subscribe, opts.logger()),
	}
}

// Start loads the list.
func (p *Programs) Start(ctx context.Context) error { return p.feed.start(ctx) }

// Freshness reports how the list stays current.
func (p *Programs) Freshness() Freshness { return p.feed.freshness() }

// List returns the current known programs.
func (p *Programs) List() []models.Program { return p.feed.snapshot() }

// Refresh re-fetches the list from the store.
func (p *Programs) Refresh(ctx context.Context) error { return p.feed.refresh(ctx) }

// Watch streams the list after every change until ctx ends.
func (p *Programs) Watch(ctx context.Context) <-chan []models.Program { return p.feed.watch(ctx) }

// Close ends the live subscription and every watcher.
func (p *Programs) Close() { p.feed.close() }

func validateProgram(in models.ProgramInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return invalid("title is required")
	case !in.Level.Valid():
		return invalid("level %q", in.Level)
	case in.Modules <= 0:
		return invalid("modules must be positive, got %d", in.Modules)
	}
	return nil
}

// Create stores a new program.
func (p *Programs) Create(ctx context.Context, in models.ProgramInput) (models.Program, error) {
	if err := validateProgram(in); err != nil {
		return models.Program{}, err
	}
	now := p.now().UTC()
	created, err := p.repo.Create(ctx, models.Program{
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
		Level:       in.Level,
		Category:    in.Category,
		Modules:     in.Modules,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return models.Program{}, err
	}
	p.feed.append(created)
	return created, nil
}

// Update writes the changed fields of a program.
func (p *Programs) Update(ctx context.Context, id string, patch models.ProgramPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("title is required")
	}
	if patch.Level != nil && !patch.Level.Valid() {
		return invalid("level %q", *patch.Level)
	}
	if patch.Modules != nil && *patch.Modules <= 0 {
		return invalid("modules must be positive, got %d", *patch.Modules)
	}
	now := p.now().UTC()
	if err := p.repo.Update(ctx, id, patch, now); err != nil {
		return err
	}
	p.feed.replace(id, func(prog models.Program) models.Program {
		prog = patch.Apply(prog)
		prog.UpdatedAt = now
		return prog
	})
	return nil
}

// Delete removes a program.
func (p *Programs) Delete(ctx context.Context, id string) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		return err
	}
	p.feed.remove(id)
	return nil
}
