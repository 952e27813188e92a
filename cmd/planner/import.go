package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/catalog"
)

func newImportCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a catalog JSON bundle into a SQLite database",
		Long: `Load a catalog JSON bundle into a SQLite database.

The schema is created or migrated first. Records with an existing id are
replaced.

Example:
  planner import --catalog catalog.json --dsn catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("catalog")
			dsn, _ := cmd.Flags().GetString("dsn")

			src, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			db, err := catalog.OpenSQLite(cmd.Context(), dsn, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			b := src.Bundle()
			if err := db.Import(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ imported %d cities and %d train routes into %s\n", len(b.Cities), len(b.Trains), dsn)
			return nil
		},
	}
	cmd.Flags().String("catalog", "", "catalog JSON bundle")
	cmd.Flags().String("dsn", "", "SQLite DSN")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
