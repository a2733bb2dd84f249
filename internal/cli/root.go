// Package cli implements winnerctl, the operator command line for the
// winnermind document store.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/app"
	"github.com/atinyakov/winnermind/internal/config"
	"github.com/atinyakov/winnermind/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Store   *config.Options
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for winnerctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Store: config.Default()}

	cmd := &cobra.Command{
		Use:   "winnerctl",
		Short: "winnerctl - winnermind operator tool",
		Long:  "Inspect and change settings, accounts and the program and challenge catalog directly in the document store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.Store.Validate()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")
	f.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	f.StringVarP(&opts.Store.StoreDriver, "store", "s", opts.Store.StoreDriver, "store driver: memory, sqlite, postgres, firestore")
	f.StringVarP(&opts.Store.DatabaseDSN, "dsn", "d", opts.Store.DatabaseDSN, "postgres DSN or sqlite file")
	f.StringVarP(&opts.Store.FirestoreProject, "project", "p", opts.Store.FirestoreProject, "firestore project id")
	f.StringVarP(&opts.Store.DefaultLanguage, "language", "l", opts.Store.DefaultLanguage, "default language")
	f.StringVar(&opts.Store.TrustedDomain, "trusted-domain", opts.Store.TrustedDomain, "email domain of administrators")

	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))

	return cmd
}

// open wires the services over the configured store. The caller closes the
// returned App.
func (o *RootOptions) open(ctx context.Context) (*app.App, error) {
	log := zap.NewNop()
	if o.Verbose {
		l := logger.New()
		if err := l.Init("debug"); err != nil {
			return nil, err
		}
		log = l.Log
	}
	return app.New(ctx, o.Store, log.Named("winnerctl"))
}

func (o *RootOptions) printer(cmd *cobra.Command) *printer {
	return &printer{format: o.Format, w: cmd.OutOrStdout()}
}
