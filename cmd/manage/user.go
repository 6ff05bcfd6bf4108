package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/BradenHooton/nbatrivia/internal/repositories"
	"github.com/spf13/cobra"
)

// RoleUpdater changes a user's stored role by username.
type RoleUpdater interface {
	UpdateRole(ctx context.Context, username, role string) error
}

func newUserCommand() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "manages user roles",
	}

	user.AddCommand(
		newRoleCommand("promote", "grants the admin role to a user", models.RoleAdmin),
		newRoleCommand("demote", "returns an admin to the user role", models.RoleUser),
	)
	return user
}

func newRoleCommand(use, short, role string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || args[0] == "" {
				return fmt.Errorf("user %s (username) - requires a username", use)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := setRole(cmd.Context(), repositories.NewUserRepository(db), args[0], role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
			return nil
		},
	}
}

func setRole(ctx context.Context, users RoleUpdater, username, role string) error {
	err := users.UpdateRole(ctx, username, role)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("no user named %q", username)
	}
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}
