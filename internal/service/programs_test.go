package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
)

func TestPrograms_Validation(t *testing.T) {
	p := NewPrograms(repository.NewProgramRepository(newMemStore(t)), FeedOptions{Now: fixedNow})
	require.NoError(t, p.Start(context.Background()))
	defer p.Close()

	tests := []struct {
		name string
		in   models.ProgramInput
	}{
		{"missing title", models.ProgramInput{Level: models.LevelBeginner, Modules: 3}},
		{"unknown level", models.ProgramInput{Title: "Go", Level: "Expert", Modules: 3}},
		{"no modules", models.ProgramInput{Title: "Go", Level: models.LevelAll}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, p.List())
}

func TestPrograms_CRUD(t *testing.T) {
	store := newMemStore(t)
	p := NewPrograms(repository.NewProgramRepository(store), FeedOptions{Now: fixedNow})
	require.NoError(t, p.Start(context.Background()))
	defer p.Close()
	ctx := context.Background()

	created, err := p.Create(ctx, models.ProgramInput{
		Title:    "Mindful Leadership",
		Duration: "6 weeks",
		Level:    models.LevelIntermediate,
		Category: "Career",
		Modules:  8,
	})
	require.NoError(t, err)
	assert.Equal(t, testNow, created.CreatedAt)

	modules := 10
	require.NoError(t, p.Update(ctx, created.ID, models.ProgramPatch{Modules: &modules}))
	assert.Equal(t, 10, p.List()[0].Modules)

	zero := 0
	assert.ErrorIs(t, p.Update(ctx, created.ID, models.ProgramPatch{Modules: &zero}), ErrInvalidInput)

	require.NoError(t, p.Refresh(ctx))
	require.Len(t, p.List(), 1)
	assert.Equal(t, 10, p.List()[0].Modules)
	assert.Equal(t, models.LevelIntermediate, p.List()[0].Level)

	require.NoError(t, p.Delete(ctx, created.ID))
	assert.Empty(t, p.List())
}
