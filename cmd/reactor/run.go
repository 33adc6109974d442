package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/internal/scenario"
	"github.com/vango-dev/reactor/pkg/instrument"
	"github.com/vango-dev/reactor/pkg/reactive"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		metrics  bool
		jsonOut  bool
		quiet    bool
		enhancer string
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its transcript",
		Long: `Run a scenario against a fresh reactive runtime.

Each transcript line is printed as it happens. With --metrics the
change, veto, transaction and reaction counters are printed at the end.

Examples:
  reactor run cart.yaml
  reactor run cart.yaml --metrics
  reactor run cart.yaml --json
  reactor run cart.yaml --enhancer=ref`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if enhancer != "" {
				cfg.Enhancer = enhancer
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if metrics {
				cfg.Metrics.Enabled = true
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runScenario(ctx, cmd, cfg, args[0], runOutput{json: jsonOut, quiet: quiet})
		},
	}

	cmd.Flags().BoolVarP(&metrics, "metrics", "m", false, "Print runtime metrics after the run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")
	cmd.Flags().StringVar(&enhancer, "enhancer", "", "Default enhancer (deep, shallow, ref, struct)")

	return cmd
}

type runOutput struct {
	json  bool
	quiet bool
}

// runReport is the JSON form of a run.
type runReport struct {
	*scenario.Report
	Metrics *instrument.Snapshot  `json:"metrics,omitempty"`
	Error   *errors.ReactorError `json:"error,omitempty"`
}

func runScenario(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, out runOutput) error {
	sc, err := scenario.LoadFile(path)
	if err != nil {
		return err
	}

	cfg.Apply()
	logger := cfg.Logger(cmd.ErrOrStderr())

	var spies []reactive.Spy
	var m *instrument.Metrics
	if cfg.Metrics.Enabled {
		m = instrument.NewMetrics(
			instrument.WithRegistry(prometheus.NewRegistry()),
			instrument.WithNamespace(cfg.Metrics.Namespace),
		)
		spies = append(spies, m)
	}
	if cfg.Tracing.Enabled {
		spies = append(spies, instrument.NewTracing(
			instrument.WithTracerName(cfg.Tracing.Tracer),
			instrument.WithIncludeValues(cfg.Tracing.IncludeValues),
			instrument.WithParentContext(ctx),
		))
	}

	rt := reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithMaxFlushIterations(cfg.MaxFlushIterations),
		reactive.WithSpy(reactive.MultiSpy(spies...)),
	)

	opts := []scenario.RunnerOption{
		scenario.WithRuntime(rt),
		scenario.WithEnhancer(cfg.Enhancer),
		scenario.WithLogger(logger),
	}
	if !out.json && !out.quiet {
		opts = append(opts, scenario.WithOutput(cmd.OutOrStdout()))
	}

	logger.Debug("running scenario", "name", sc.Name, "path", path, "steps", sc.Count())
	report, runErr := scenario.NewRunner(opts...).Run(ctx, sc)

	var snap *instrument.Snapshot
	if m != nil {
		s := m.Snapshot()
		snap = &s
	}

	w := cmd.OutOrStdout()
	if out.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runReport{
			Report:  report,
			Metrics: snap,
			Error:   errors.FromError(runErr, "S003"),
		}); err != nil {
			return err
		}
		return runErr
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(w)
	success(w, "%s: %d steps, %d changes, %d vetoes", report.Name, report.Steps, report.Changes, report.Vetoes)
	if snap != nil {
		printSnapshot(w, snap)
	}
	return nil
}

func printSnapshot(w io.Writer, s *instrument.Snapshot) {
	info(w, "transactions:   %.0f", s.Transactions)
	info(w, "reaction runs:  %.0f (%.0f failed)", s.ReactionRuns, s.ReactionErrors)
	for _, kind := range sortedKeys(s.Changes) {
		info(w, "changes %-7s %.0f", kind+":", s.Changes[kind])
	}
	for _, kind := range sortedKeys(s.Vetoes) {
		info(w, "vetoes %-8s %.0f", kind+":", s.Vetoes[kind])
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
