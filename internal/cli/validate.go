package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/pattern"
	"github.com/roach88/cascade/internal/rules"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules.cue>",
		Short: "Validate a CUE rules file",
		Long: `Compile a CUE rules file and report the effective kind configuration.

Example:
  cascade validate rules/default.cue
  cascade validate rules/endgame.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateRules(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func validateRules(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	cfg, err := rules.CompileFile(path)
	if err != nil {
		_ = out.Error("E_COMPILE", "rules compilation failed", err.Error())
		return WrapExitError(ExitCommandError, "rules compilation failed", err)
	}

	if opts.Format == "json" {
		kinds := make([]map[string]any, 0, len(pattern.Kinds()))
		for _, k := range pattern.Kinds() {
			kc, _ := cfg.Kind(k)
			kinds = append(kinds, map[string]any{
				"kind":      string(k),
				"priority":  k.Priority(),
				"enabled":   kc.Enabled,
				"min_group": kc.MinGroup,
			})
		}
		return out.Success(map[string]any{"file": path, "kinds": kinds})
	}

	text := fmt.Sprintf("%s: valid", path)
	for _, k := range pattern.Kinds() {
		kc, _ := cfg.Kind(k)
		state := "locked"
		if kc.Enabled {
			state = "enabled"
		}
		text += fmt.Sprintf("\n  %-9s priority=%d min_group=%d %s", k, k.Priority(), kc.MinGroup, state)
	}
	return out.Success(text)
}
