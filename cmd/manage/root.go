package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/BradenHooton/nbatrivia/internal/config"
	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "manage",
		Short:         "nbatrivia operator commands",
		Long:          `Runs schema migrations and manages user roles against the configured database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCommand(), newUserCommand())
	return root
}

// openDatabase loads configuration from the environment and connects.
func openDatabase(ctx context.Context) (*database.DB, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}
