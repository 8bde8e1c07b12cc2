package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"buildhealth/internal/core"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	verbose     bool
	metricsFile string

	logger   *slog.Logger
	registry *prometheus.Registry
	recorder *core.PrometheusRecorder
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "buildhealth",
		Short:         "Nightly build health for integrative modeling systems",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.flushMetrics()
		},
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile on exit")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newTestsCmd(a),
		newImportCmd(a),
		newWarmCmd(a),
		newSchemaCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if a.metricsFile == "" {
		return nil
	}
	a.registry = prometheus.NewRegistry()
	rec, err := core.NewPrometheusRecorder(a.registry)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	a.recorder = rec
	return nil
}

func (a *app) flushMetrics() error {
	if a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// openService connects the configured stores. Callers must Close it.
func (a *app) openService(ctx context.Context) (*core.Service, error) {
	opts := []core.Option{core.WithLogger(a.logger)}
	if a.recorder != nil {
		opts = append(opts, core.WithMetrics(a.recorder))
	}
	return core.Open(ctx, core.LoadConfig(), opts...)
}

// withService runs fn against a freshly opened service.
func (a *app) withService(ctx context.Context, fn func(*core.Service) error) (err error) {
	svc, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}
