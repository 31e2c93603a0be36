package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules.cue>",
		Short: "Validate a CUE rule file without writing anything",
		Long: `Compile a declarative CUE rule file and run the full batch
validation against the site catalog, without touching the store.
Faster feedback than import for iterating on a rule file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	e, err := openEnv(opts, true)
	if err != nil {
		return err
	}
	defer e.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rules, err := compileAndValidate(path, e, formatter)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"valid": true, "rules": len(rules)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d rule(s))\n", path, len(rules))
	return nil
}
