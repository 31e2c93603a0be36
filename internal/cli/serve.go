package cli

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/templatefall/templatefall/internal/admin"
	"github.com/templatefall/templatefall/internal/resolver"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr   string
		tokens []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin and resolution HTTP server",
		Long: `Run the HTTP server exposing the administration endpoints and the
host resolution endpoint.

Admin endpoints are capability-gated by bearer tokens from the config
file; mutations additionally require an anti-forgery nonce issued by
GET /admin/nonce.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, addr, tokens)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringSliceVar(&tokens, "token", nil,
		"admin bearer token granted the manage-rules capability (repeatable, adds to config)")

	return cmd
}

func runServe(opts *RootOptions, addr string, tokens []string) error {
	e, err := openEnv(opts, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if addr == "" {
		addr = e.cfg.Listen
	}
	for _, token := range tokens {
		e.cfg.Tokens[token] = []string{admin.CapabilityManageRules}
	}
	if len(e.cfg.Tokens) == 0 {
		return &ExitError{
			Code:    ExitCommandError,
			Message: "no admin tokens configured: every admin endpoint would reject",
		}
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	res := resolver.New(e.store, resolver.WithLogger(logger))
	srv := admin.NewServer(
		e.store,
		e.catalog,
		res,
		admin.NewAuthorizer(e.cfg.Tokens),
		admin.WithServerLogger(logger),
	)

	logger.Info("listening", "addr", addr, "database", e.cfg.Database)
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		return WrapExitError(ExitCommandError, "server stopped", err)
	}
	return nil
}
