package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/internal/migrations"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/sqlitelocal"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, closeFn, err := sqlitelocal.Open(ctx, cfg.DB, sqlitelocal.Options{
			BusyTimeout:    cfg.BusyTimeout,
			SkipMigrations: true,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		defer closeFn()

		if err := migrations.Run(ctx, db, migrations.Config{BusyTimeout: cfg.BusyTimeout, Logger: logger}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, closeFn, err := sqlitelocal.Open(ctx, cfg.DB, sqlitelocal.Options{
			BusyTimeout:    cfg.BusyTimeout,
			SkipMigrations: true,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		defer closeFn()

		entries, err := migrations.Status(ctx, db)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tDESCRIPTION")
		for _, e := range entries {
			status := "pending"
			if e.Record != nil {
				status = string(e.Record.Status)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Migration.ID, status, e.Migration.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
