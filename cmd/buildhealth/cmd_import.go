package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildhealth/internal/blob"
	"buildhealth/internal/core"
	"buildhealth/internal/metadata"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Publish a <dir>/<system>/<document> tree into the metadata store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := core.LoadConfig()
			store, err := blob.OpenDriver(ctx, cfg.BlobDriver, cfg.BlobFSRoot)
			if err != nil {
				return err
			}
			report, err := metadata.NewWriter(store, a.logger).ImportDir(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d documents for %d systems into %s\n", report.Documents, len(report.Systems), store.Driver())
			for _, s := range report.Skipped {
				fmt.Fprintf(out, "skipped %s\n", s)
			}
			return nil
		},
	}
}
