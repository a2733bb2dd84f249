package cli

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
	"github.com/atinyakov/winnermind/internal/service"
)

func TestSettingsShow_Defaults(t *testing.T) {
	out, err := execute(t, tempDSN(t), "", "settings", "show")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "settings_show_defaults", []byte(out))
}

func TestSettingsShow_DefaultLanguage(t *testing.T) {
	out, err := execute(t, tempDSN(t), "", "--language", "fr-CA", "--format", "json", "settings", "show")
	require.NoError(t, err)

	view := decodeOutput[SettingsView](t, out)
	assert.Equal(t, service.SourceDefaults, view.Source)
	assert.Equal(t, models.LanguageFR, view.Settings.Language)
}

func TestSettingsSetGlobal(t *testing.T) {
	dsn := tempDSN(t)

	_, err := execute(t, dsn, "", "settings", "set-global",
		"--max-subgoals", "3", "--theme", "dark", "--quote-author", "Anonymous")
	require.NoError(t, err)

	out, err := execute(t, dsn, "", "--format", "json", "settings", "show")
	require.NoError(t, err)
	view := decodeOutput[SettingsView](t, out)

	defaults := models.DefaultSettings(models.LanguageEN)
	assert.Equal(t, "global", view.Scope)
	assert.Equal(t, service.SourceGlobal, view.Source)
	assert.Equal(t, 3, view.Settings.MaxSubGoals)
	assert.Equal(t, models.ThemeDark, view.Settings.Theme)
	assert.Equal(t, defaults.DailyQuote.Text, view.Settings.DailyQuote.Text, "unset fields keep their value")
	assert.Equal(t, "Anonymous", view.Settings.DailyQuote.Author)
	assert.Equal(t, defaults.GoalCategories, view.Settings.GoalCategories)

	_, err = execute(t, dsn, "", "settings", "set-global", "--categories", "Health,Family")
	require.NoError(t, err)
	out, err = execute(t, dsn, "", "--format", "json", "settings", "show")
	require.NoError(t, err)
	view = decodeOutput[SettingsView](t, out)
	assert.Equal(t, []string{"Health", "Family"}, view.Settings.GoalCategories)
	assert.Equal(t, 3, view.Settings.MaxSubGoals)
}

func TestSettingsSetGlobal_Invalid(t *testing.T) {
	dsn := tempDSN(t)

	_, err := execute(t, dsn, "", "settings", "set-global", "--theme", "neon")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = execute(t, dsn, "", "settings", "set-global", "--max-subgoals", "0")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	out, err := execute(t, dsn, "", "--format", "json", "settings", "show")
	require.NoError(t, err)
	assert.Equal(t, service.SourceDefaults, decodeOutput[SettingsView](t, out).Source, "nothing was written")
}

func TestShowSettings_Layers(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSettingsRepository(docstore.NewMemoryStore())
	defaults := models.DefaultSettings(models.LanguageEN)

	view, err := showSettings(ctx, repo, defaults, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", view.Scope)
	assert.Equal(t, service.SourceDefaults, view.Source)
	assert.Equal(t, defaults, view.Settings)

	global := defaults.Clone()
	global.Theme = models.ThemeDark
	require.NoError(t, repo.Put(ctx, repository.GlobalScope, global))

	view, err = showSettings(ctx, repo, defaults, "u1")
	require.NoError(t, err)
	assert.Equal(t, service.SourceGlobal, view.Source)
	assert.Equal(t, models.ThemeDark, view.Settings.Theme)

	user := global.Clone()
	user.Language = models.LanguageFR
	require.NoError(t, repo.Put(ctx, "u1", user))

	view, err = showSettings(ctx, repo, defaults, "u1")
	require.NoError(t, err)
	assert.Equal(t, service.SourceUser, view.Source)
	assert.Equal(t, user, view.Settings)

	view, err = showSettings(ctx, repo, defaults, "")
	require.NoError(t, err)
	assert.Equal(t, service.SourceGlobal, view.Source, "other users do not leak into the global view")
	assert.Equal(t, models.LanguageEN, view.Settings.Language)
}
