package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildhealth/internal/core"
	"buildhealth/internal/schema/sqlbundle"
)

func newSchemaCmd(a *app) *cobra.Command {
	var (
		dialect string
		apply   bool
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the result store DDL, or apply it to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !apply {
				switch core.StorageDriver(dialect) {
				case core.StorageSQLite:
					fmt.Fprint(out, sqlbundle.SQLite())
				case core.StoragePostgres:
					fmt.Fprint(out, sqlbundle.Postgres())
				default:
					return fmt.Errorf("unknown dialect %q", dialect)
				}
				return nil
			}
			cfg := core.LoadConfig()
			cfg.PostgresApplySchema = true
			_, db, err := core.OpenResultStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			a.logger.Debug("schema applied", "storage", cfg.StorageDriver)
			fmt.Fprintf(out, "schema applied to %s store\n", cfg.StorageDriver)
			return db.Close()
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", string(core.StorageSQLite), "DDL dialect to print: sqlite or postgres")
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the DDL to the configured store instead of printing it")
	return cmd
}
