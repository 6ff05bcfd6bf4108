package main

import (
	"fmt"

	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "applies or inspects schema migrations",
	}

	for _, direction := range []struct {
		name  string
		short string
	}{
		{database.MigrateUp, "applies all pending migrations"},
		{database.MigrateDown, "rolls back the most recent migration"},
		{database.MigrateStatus, "prints the migration status"},
	} {
		migrate.AddCommand(&cobra.Command{
			Use:   direction.name,
			Short: direction.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDatabase(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				if err := database.Migrate(cmd.Context(), db.Pool, direction.name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", direction.name)
				return nil
			},
		})
	}

	return migrate
}
