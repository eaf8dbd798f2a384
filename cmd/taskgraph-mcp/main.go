package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/internal/app"
	mcpinternal "github.com/felixgeelhaar/taskgraph/internal/mcp"
	"github.com/felixgeelhaar/taskgraph/pkg/config"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		logger.Error("invalid TASKGRAPH_USER_ID", "error", err)
		os.Exit(1)
	}

	if err := container.StartOutboxProcessor(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	cliApp := mcpinternal.NewCLIApp(container, userID)
	serveCfg := mcpinternal.ServeConfig{
		Addr:      cfg.MCPAddr,
		AuthToken: cfg.MCPAuthToken,
		Version:   cli.Version,
	}
	if err := mcpinternal.Serve(ctx, serveCfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
