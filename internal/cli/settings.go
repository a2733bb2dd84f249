package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
	"github.com/atinyakov/winnermind/internal/service"
)

// SettingsView is the output of settings show.
type SettingsView struct {
	Scope    string          `json:"scope"`
	Source   service.Source  `json:"source"`
	Settings models.Settings `json:"settings"`
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change settings",
	}
	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsSetGlobalCommand(rootOpts))
	return cmd
}

func newSettingsShowCommand(rootOpts *RootOptions) *cobra.Command {
	var uid string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective global or user settings",
		Long: `Show the effective settings without writing anything.

Without --user the global record over the defaults is shown. With --user the
stored user record is layered on top.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := showSettings(cmd.Context(), a.Repos.Settings, a.Resolver.Defaults(), uid)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).print(view, func(w io.Writer) error {
				fmt.Fprintf(w, "scope: %s (from %s)\n", view.Scope, view.Source)
				return writeSettings(w, view.Settings)
			})
		},
	}
	cmd.Flags().StringVarP(&uid, "user", "u", "", "user id")
	return cmd
}

func showSettings(ctx context.Context, repo service.SettingsStore, defaults models.Settings, uid string) (SettingsView, error) {
	view := SettingsView{Scope: repository.GlobalScope, Source: service.SourceDefaults}

	global, err := storedSettings(ctx, repo, repository.GlobalScope)
	if err != nil {
		return view, err
	}
	if global != nil {
		view.Source = service.SourceGlobal
	}

	var user *models.SettingsPatch
	if uid != "" {
		view.Scope = uid
		if user, err = storedSettings(ctx, repo, uid); err != nil {
			return view, err
		}
		if user != nil {
			view.Source = service.SourceUser
		}
	}
	view.Settings = service.Cascade(defaults, global, user)
	return view, nil
}

// storedSettings returns nil when the scope has no record.
func storedSettings(ctx context.Context, repo service.SettingsStore, scope string) (*models.SettingsPatch, error) {
	p, err := repo.Get(ctx, scope)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s settings: %w", scope, err)
	}
	return &p, nil
}

type globalFlags struct {
	language    string
	theme       string
	collapsed   bool
	categories  []string
	maxSubGoals int
	quote       string
	author      string
}

func newSettingsSetGlobalCommand(rootOpts *RootOptions) *cobra.Command {
	var gf globalFlags
	cmd := &cobra.Command{
		Use:   "set-global",
		Short: "Change fields of the global settings",
		Long: `Change fields of the global settings record.

Only the flags given are changed; the rest keep their current effective value.
The record is validated and written whole.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.Resolver.Global(cmd.Context())
			if err != nil {
				return err
			}
			next := gf.apply(cmd, current)
			if err := a.Resolver.SetGlobal(cmd.Context(), next); err != nil {
				return err
			}
			return rootOpts.printer(cmd).print(next, func(w io.Writer) error {
				fmt.Fprintln(w, "global settings updated")
				return writeSettings(w, next)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&gf.language, "language", "", "interface language (en|fr)")
	f.StringVar(&gf.theme, "theme", "", "colour theme (light|dark)")
	f.BoolVar(&gf.collapsed, "sidebar-collapsed", false, "collapse the sidebar")
	f.StringSliceVar(&gf.categories, "categories", nil, "goal categories, comma separated")
	f.IntVar(&gf.maxSubGoals, "max-subgoals", 0, "maximum sub-goals per goal")
	f.StringVar(&gf.quote, "quote", "", "daily quote text")
	f.StringVar(&gf.author, "quote-author", "", "daily quote author")
	return cmd
}

// apply overwrites current with the flags that were set on the command line.
func (gf *globalFlags) apply(cmd *cobra.Command, current models.Settings) models.Settings {
	var p models.SettingsPatch
	f := cmd.Flags()
	if f.Changed("language") {
		lang := models.Language(gf.language)
		p.Language = &lang
	}
	if f.Changed("theme") {
		theme := models.Theme(gf.theme)
		p.Theme = &theme
	}
	if f.Changed("sidebar-collapsed") {
		p.SidebarCollapsed = &gf.collapsed
	}
	if f.Changed("categories") {
		p.GoalCategories = gf.categories
	}
	if f.Changed("max-subgoals") {
		p.MaxSubGoals = &gf.maxSubGoals
	}

	next := p.Apply(current)
	if f.Changed("quote") {
		next.DailyQuote.Text = gf.quote
	}
	if f.Changed("quote-author") {
		next.DailyQuote.Author = gf.author
	}
	return next
}
