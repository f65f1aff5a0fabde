package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *env) *cobra.Command {
	var sql, seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update the database schema.

By default the schema comes from the gorm models. With --sql the embedded
SQL migrations are applied instead (postgres only).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sql {
				rt.cfg.Database.Migrations = true
			}
			app, err := NewApp(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Migrate(cmd.Context(), seed); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations completed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&sql, "sql", false, "Apply the embedded SQL migrations")
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed the default catalog and sample data")
	return cmd
}
