package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [token]",
		Short: "Inspect journaled chains",
		Long: `Inspect chains recorded by a previous run.

With no arguments, lists every chain in the journal in creation order.
With a chain token, prints that chain's full execution trace.

Example:
  cascade replay --db ./chains.db
  cascade replay --db ./chains.db line-of-three-chain`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return replayChain(opts, args[0], cmd)
			}
			return listChains(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func listChains(opts *ReplayOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	jnl, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jnl.Close()

	chains, err := jnl.ListChains(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list chains", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"chains": chains})
	}

	if len(chains) == 0 {
		return out.Success("no chains recorded")
	}
	text := fmt.Sprintf("%d chain(s)", len(chains))
	for _, c := range chains {
		text += fmt.Sprintf("\n  %s trigger=%s executed=%d rounds=%d",
			c.Token, c.Trigger.String(), c.ExecutedCount, c.Rounds)
		if c.AbortReason != "" {
			text += fmt.Sprintf(" abort=%s", c.AbortReason)
		}
	}
	return out.Success(text)
}

func replayChain(opts *ReplayOptions, token string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	jnl, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jnl.Close()

	rec, err := jnl.ReadChain(context.Background(), token)
	if errors.Is(err, journal.ErrChainNotFound) {
		_ = out.Error("E_NOT_FOUND", "chain not found", token)
		return NewExitError(ExitFailure, "chain not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read chain", err)
	}

	if opts.Format == "json" {
		return out.Success(rec)
	}

	text := fmt.Sprintf("chain %s trigger=%s rounds=%d executed=%d faults=%d",
		rec.Token, rec.Trigger.String(), rec.Rounds, rec.ExecutedCount, rec.FaultCount)
	if rec.AbortReason != "" {
		text += fmt.Sprintf("\n  aborted: %s", rec.AbortReason)
	}
	for _, ex := range rec.Executions {
		text += fmt.Sprintf("\n  #%d %s %s %s tier=%d size=%d removed=%d altered=%d",
			ex.Seq, ex.Kind, ex.Effect, ex.BlockType, ex.Tier,
			len(ex.Positions), len(ex.Removed), len(ex.Altered))
	}
	return out.Success(text)
}
