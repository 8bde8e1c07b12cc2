package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"buildhealth/internal/core"
	"buildhealth/internal/results"
	"buildhealth/pkg/domain"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List systems with their latest develop and main outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			return a.withService(ctx, func(svc *core.Service) error {
				return svc.WithSession(ctx, func(sess *results.Session) error {
					if asJSON {
						sums, err := svc.ListSummaries(ctx, sess)
						if err != nil {
							return err
						}
						enc := json.NewEncoder(out)
						enc.SetIndent("", "  ")
						return enc.Encode(sums)
					}
					systems, err := svc.ListSystems(ctx, sess)
					if err != nil {
						return err
					}
					if err := svc.AttachLatestResults(ctx, sess, systems); err != nil {
						return err
					}
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tDEVELOP\tMAIN")
					for _, sys := range systems {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", sys.ID, sys.Name,
							latestStatus(sys, domain.BranchDevelop), latestStatus(sys, domain.BranchMain))
					}
					return tw.Flush()
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metadata summaries as JSON")
	return cmd
}

func latestStatus(sys *core.System, b domain.Branch) string {
	r, ok := sys.History.Latest(b)
	if !ok {
		return "-"
	}
	return passFail(r.Passed)
}

func passFail(passed bool) string {
	if passed {
		return "pass"
	}
	return "FAIL"
}
