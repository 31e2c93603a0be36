package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/templatefall/templatefall/internal/rule"
	"github.com/templatefall/templatefall/internal/rulefile"
	"github.com/templatefall/templatefall/internal/validate"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and mutate the stored rule list",
	}

	cmd.AddCommand(newRulesListCommand(rootOpts))
	cmd.AddCommand(newRulesImportCommand(rootOpts))
	cmd.AddCommand(newRulesResetCommand(rootOpts))

	return cmd
}

func newRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Print the stored rule list in evaluation order metadata",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(rootOpts, cmd)
		},
	}
}

func runRulesList(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, false)
	if err != nil {
		return err
	}
	defer e.Close()

	rules, err := e.store.GetAll(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "read rules", err)
	}
	hash, err := rule.ListHash(rules)
	if err != nil {
		return WrapExitError(ExitCommandError, "hash rules", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"rules": rules, "hash": hash})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d rule(s), hash %s\n", len(rules), hash[:12])
	for i, r := range rules {
		role := r.UserRole
		if role == "" {
			role = "(any)"
		}
		terms := "(none)"
		if len(r.TaxTermIDs) > 0 {
			terms = strings.Trim(strings.Join(strings.Fields(fmt.Sprint(r.TaxTermIDs)), ","), "[]")
		}
		fmt.Fprintf(w, "%3d. template=%d priority=%d types=%s role=%s terms=%s\n",
			i, r.TemplateID, r.Priority, strings.Join(r.PostTypes, ","), role, terms)
	}
	return nil
}

func newRulesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <rules.cue>",
		Short: "Validate a CUE rule file and atomically replace the stored list",
		Long: `Compile a declarative CUE rule file, validate the resulting batch
against the site catalog, and on success perform one atomic
replace-all of the stored rule list. Any violation rejects the whole
file and leaves the stored list untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesImport(rootOpts, cmd, args[0])
		},
	}
}

func runRulesImport(opts *RootOptions, cmd *cobra.Command, path string) error {
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

	if err := e.store.ReplaceAll(cmd.Context(), rules); err != nil {
		return WrapExitError(ExitCommandError, "persist rules", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"imported": len(rules)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rule(s) from %s\n", len(rules), path)
	return nil
}

// compileAndValidate runs the shared import/validate pipeline:
// CUE compile, then full batch validation against the catalog.
func compileAndValidate(path string, e *env, formatter *OutputFormatter) ([]rule.Rule, error) {
	entries, err := rulefile.CompileFile(path)
	if err != nil {
		_ = formatter.Error("COMPILE", err.Error())
		return nil, WrapExitError(ExitFailure, "rule file rejected", err)
	}
	formatter.VerboseLog("Compiled %d entr(ies) from %s", len(entries), path)

	rules, err := validate.ValidateBatch(entries, e.catalog)
	if err != nil {
		_ = formatter.Error("VALIDATE", err.Error())
		return nil, WrapExitError(ExitFailure, "rule file rejected", err)
	}
	return rules, nil
}

func newRulesResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset",
		Short:         "Replace the stored list with the single default inert rule",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesReset(rootOpts, cmd)
		},
	}
}

func runRulesReset(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.store.Reset(cmd.Context()); err != nil {
		return WrapExitError(ExitCommandError, "reset rules", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{"rules": 1})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Rules reset to the single default rule")
	return nil
}
