package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/service"
)

// Catalog is the YAML document read by seed.
//
//	programs:
//	  - title: Mindful Mornings
//	    level: Beginner
//	    modules: 6
//	challenges:
//	  - title: 30 days of running
//	    startDate: 2025-07-01T00:00:00Z
//	    status: active
type Catalog struct {
	Programs   []models.ProgramInput   `yaml:"programs"`
	Challenges []models.ChallengeInput `yaml:"challenges"`
}

// SeedResult counts the created documents.
type SeedResult struct {
	Programs   int `json:"programs"`
	Challenges int `json:"challenges"`
}

// LoadCatalog decodes a catalog and rejects unknown keys.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return c, errors.New("empty catalog")
		}
		return c, fmt.Errorf("decode catalog: %w", err)
	}
	return c, nil
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var creator string
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create programs and challenges from a YAML catalog",
		Long: `Create every program and challenge of a YAML catalog.

Entries are validated like the admin pages do. Invalid entries are skipped and
reported together; the valid ones are still created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			catalog, err := LoadCatalog(f)
			if err != nil {
				return err
			}

			a, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			session := &models.Session{UserID: creator}
			res, seedErr := Seed(cmd.Context(), catalog,
				service.NewPrograms(a.Repos.Programs, service.FeedOptions{Freshness: service.Pull}),
				service.NewChallenges(a.Repos.Challenges, session, service.FeedOptions{Freshness: service.Pull}))

			err = rootOpts.printer(cmd).print(res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "created %d programs and %d challenges\n", res.Programs, res.Challenges)
				return err
			})
			return multierr.Append(seedErr, err)
		},
	}
	cmd.Flags().StringVar(&creator, "creator", "winnerctl", "creator id stamped on challenges")
	return cmd
}

// Seed creates the catalog entries and returns every failure combined.
func Seed(ctx context.Context, c Catalog, programs *service.Programs, challenges *service.Challenges) (SeedResult, error) {
	var (
		res  SeedResult
		errs error
	)
	for i, in := range c.Programs {
		if _, err := programs.Create(ctx, in); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("programs[%d] %q: %w", i, in.Title, err))
			continue
		}
		res.Programs++
	}
	for i, in := range c.Challenges {
		if _, err := challenges.Create(ctx, in); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("challenges[%d] %q: %w", i, in.Title, err))
			continue
		}
		res.Challenges++
	}
	return res, errs
}
