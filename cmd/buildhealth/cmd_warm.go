package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildhealth/internal/core"
	"buildhealth/internal/results"
)

func newWarmCmd(a *app) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Load and validate the metadata of every system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *core.Service) error {
				var systems []*core.System
				err := svc.WithSession(ctx, func(sess *results.Session) error {
					var err error
					systems, err = svc.ListSystems(ctx, sess)
					return err
				})
				if err != nil {
					return err
				}
				if err := svc.WarmMetadata(ctx, systems, workers); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "metadata ok for %d systems\n", len(systems))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent systems")
	return cmd
}
