package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/service"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd.Context(), rootOpts, func(users *service.AdminUsers) error {
				list := users.List()
				return rootOpts.printer(cmd).print(list, func(w io.Writer) error {
					return writeUsers(w, list)
				})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "role <id> <admin|user>",
		Short: "Set the role of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, role := args[0], models.Role(args[1])
			return withUsers(cmd.Context(), rootOpts, func(users *service.AdminUsers) error {
				if err := users.UpdateRole(cmd.Context(), id, role); err != nil {
					return fmt.Errorf("set role of %s: %w", id, err)
				}
				return done(rootOpts, cmd, id, fmt.Sprintf("%s is now %s", id, role))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the profile of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withUsers(cmd.Context(), rootOpts, func(users *service.AdminUsers) error {
				if err := users.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				return done(rootOpts, cmd, id, fmt.Sprintf("%s deleted", id))
			})
		},
	})
	return cmd
}

// withUsers runs fn over a pulled account list.
func withUsers(ctx context.Context, rootOpts *RootOptions, fn func(*service.AdminUsers) error) error {
	a, err := rootOpts.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	users := service.NewAdminUsers(a.Repos.Users, service.FeedOptions{Freshness: service.Pull})
	if err := users.Start(ctx); err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	defer users.Close()
	return fn(users)
}

func done(rootOpts *RootOptions, cmd *cobra.Command, id, msg string) error {
	return rootOpts.printer(cmd).print(map[string]string{"id": id, "status": "ok"}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}
