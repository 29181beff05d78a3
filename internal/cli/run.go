package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/harness"
	"github.com/roach88/cascade/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a board scenario through the engine",
		Long: `Run a board scenario through the cascade engine.

Loads the scenario, builds the board, fires one chain at the trigger
position, checks the scenario's assertions, and prints the executed
pattern trace. With --db, the chain is also recorded to a journal.

Example:
  cascade run scenarios/line-of-three.yaml
  cascade run scenarios/two-round-cascade.yaml --db ./chains.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to a SQLite journal (optional)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	scenario, err := harness.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	slog.Info("running scenario", "name", scenario.Name, "trigger", scenario.Trigger.String())
	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario run failed", err)
	}

	if opts.Database != "" {
		jnl, err := journal.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := jnl.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()

		if err := jnl.WriteChain(context.Background(), result.Chain); err != nil {
			return WrapExitError(ExitCommandError, "failed to journal chain", err)
		}
		slog.Info("chain journaled", "chain", result.Chain.Token, "db", opts.Database)
	}

	if err := harness.Check(result); err != nil {
		_ = out.Error("E_ASSERT", "scenario assertions failed", err.Error())
		return NewExitError(ExitFailure, "scenario assertions failed")
	}

	return out.Success(formatResult(result, opts.Format))
}

// formatResult shapes the run output per format.
func formatResult(result *harness.Result, format string) any {
	if format == "json" {
		return map[string]any{
			"scenario": result.Scenario.Name,
			"chain":    result.Chain.Token,
			"executed": result.Trace,
			"faults":   len(result.Chain.Faults),
			"rounds":   result.Chain.Rounds,
			"abort":    string(result.Chain.Abort),
		}
	}

	text := fmt.Sprintf("scenario %s: %d pattern(s) executed in %d round(s)",
		result.Scenario.Name, len(result.Trace), result.Chain.Rounds)
	for _, ev := range result.Trace {
		text += fmt.Sprintf("\n  #%d %s %s size=%d", ev.Seq, ev.Kind, ev.Effect, len(ev.Positions))
	}
	if result.Chain.Abort != "" {
		text += fmt.Sprintf("\n  chain aborted: %s", result.Chain.Abort)
	}
	return text
}

// configureLogging sets the global slog handler for CLI runs.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
