package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ferroscope/internal/errors"
	"github.com/coral-mesh/ferroscope/internal/mcp"
	"github.com/coral-mesh/ferroscope/pkg/version"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the debugging tools over MCP on stdio",
		Long: `Starts the MCP server on stdin/stdout. Point an MCP client at this command,
for example in a Claude Desktop configuration:

  {"mcpServers": {"ferroscope": {"command": "ferroscope", "args": ["serve"]}}}

Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return err
	}

	a := newApp(cfg, cmd.ErrOrStderr())
	// The debugger must not outlive the server.
	defer errors.DeferClose(a.logger, a.registry, "failed to terminate debugger on shutdown")

	server, err := mcp.New(a.dispatcher, mcp.Config{
		Name:         cfg.MCP.Name,
		Version:      version.Version,
		EnabledTools: cfg.MCP.EnabledTools,
		AuditEnabled: cfg.MCP.AuditEnabled,
	}, a.logger.With().Str("component", "mcp").Logger())
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("config", path).
		Str("debugger", cfg.Debugger.Path).
		Dur("response_timeout", cfg.Debugger.ResponseTimeout).
		Msg("Ferroscope starting")

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
