package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"buildhealth/internal/core"
	"buildhealth/internal/results"
)

func newTestsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tests <system-id> <build-id>",
		Short: "List the individual tests of one system in one build",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			systemID, err := parseID(args[0], "system id")
			if err != nil {
				return err
			}
			buildID, err := parseID(args[1], "build id")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			return a.withService(ctx, func(svc *core.Service) error {
				return svc.WithSession(ctx, func(sess *results.Session) error {
					sys, err := svc.GetSystem(ctx, sess, systemID)
					if err != nil {
						return err
					}
					byID, err := svc.AttachBuildResult(ctx, sess, []*core.System{sys}, buildID)
					if err != nil {
						return err
					}
					r, ok := byID[sys.ID]
					if !ok {
						return fmt.Errorf("system %s has no result for build %d", sys.Name, buildID)
					}
					fmt.Fprintf(out, "%s build #%d on %s: %s\n", sys.Name, buildID, r.Build.Branch, passFail(r.Passed))
					info, err := r.Info(ctx, sess)
					if err != nil {
						return err
					}
					if info != nil {
						fmt.Fprintf(out, "Log: %s (flavor %s)\n", info.URL, info.Flavor)
					}

					tests, err := svc.TestDetail(ctx, sess, sys.ID, buildID)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "TEST\tSTATUS\tRUNTIME")
					for _, t := range tests {
						fmt.Fprintf(tw, "%s\t%s\t%.2fs\n", t.Name, passFail(t.Passed()), t.Runtime)
					}
					if err := tw.Flush(); err != nil {
						return err
					}
					for _, t := range tests {
						if !t.Passed() && t.Stderr != "" {
							fmt.Fprintf(out, "--- %s (exit %d)\n%s\n", t.Name, t.ReturnCode, t.Stderr)
						}
					}
					return nil
				})
			})
		},
	}
}
