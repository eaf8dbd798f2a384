package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/taskgraph/internal/mcp"
	"github.com/felixgeelhaar/taskgraph/pkg/config"
	"github.com/spf13/cobra"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP server over HTTP exposing the task, tree and dependency tools.

Set MCP_AUTH_TOKEN to require a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.MCPAddr = addr
		}

		ctx := cmd.Context()
		logger := slog.Default()
		if app.WatchEvents != nil {
			go func() {
				if err := app.WatchEvents(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("event relay stopped", "error", err)
				}
			}()
		}

		err = mcpinternal.Serve(ctx, mcpinternal.ServeConfig{
			Addr:      cfg.MCPAddr,
			AuthToken: cfg.MCPAuthToken,
			Version:   cli.Version,
		}, app, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default MCP_ADDR)")
}
