package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"buildhealth/internal/core"
	"buildhealth/internal/results"
)

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <system-id>",
		Short: "Show a system's metadata and per-branch build history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "system id")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *core.Service) error {
				return svc.WithSession(ctx, func(sess *results.Session) error {
					sys, err := svc.GetSystem(ctx, sess, id)
					if err != nil {
						return err
					}
					if err := svc.AttachLatestResults(ctx, sess, []*core.System{sys}); err != nil {
						return err
					}
					return printSystem(ctx, cmd.OutOrStdout(), sys)
				})
			})
		},
	}
}

func printSystem(ctx context.Context, out io.Writer, sys *core.System) error {
	meta := sys.Meta
	title, err := meta.Title(ctx)
	if err != nil {
		return err
	}
	homepage, err := meta.Homepage(ctx)
	if err != nil {
		return err
	}
	modules, err := meta.ModuleNames(ctx)
	if err != nil {
		return err
	}
	citation, cited, err := meta.Citation(ctx)
	if err != nil {
		return err
	}
	thumb, err := meta.HasThumbnail(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s)\n", sys.Name, sys.Repo)
	fmt.Fprintf(out, "Title:     %s\n", title)
	if homepage != "" {
		fmt.Fprintf(out, "Homepage:  %s\n", homepage)
	}
	if cited {
		fmt.Fprintf(out, "Citation:  %s\n", citation)
	}
	fmt.Fprintf(out, "Modules:   %s\n", strings.Join(modules, " "))
	fmt.Fprintf(out, "Thumbnail: %t\n", thumb)

	if sys.InDevelopment() {
		fmt.Fprintln(out, "No results yet (in development)")
		return nil
	}
	for _, b := range sys.History.Branches() {
		hist := sys.History.Results(b)
		if len(hist) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s:\n", b)
		for _, r := range hist {
			version := "-"
			if r.Build.Version != nil {
				version = *r.Build.Version
			}
			fmt.Fprintf(out, "  #%d  %s  %-8s %s\n", r.Build.ID, r.Build.Date.Format("2006-01-02"), version, passFail(r.Passed))
		}
	}
	return nil
}
