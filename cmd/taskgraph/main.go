package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/adapter/cli/dep"
	"github.com/felixgeelhaar/taskgraph/adapter/cli/events"
	"github.com/felixgeelhaar/taskgraph/adapter/cli/mcp"
	"github.com/felixgeelhaar/taskgraph/adapter/cli/task"
	"github.com/felixgeelhaar/taskgraph/adapter/cli/tree"
	"github.com/felixgeelhaar/taskgraph/internal/app"
	"github.com/felixgeelhaar/taskgraph/pkg/config"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.AddCommand(task.Cmd)
	cli.AddCommand(tree.Cmd)
	cli.AddCommand(dep.Cmd)
	cli.AddCommand(events.Cmd)
	cli.AddCommand(mcp.Cmd)
	cli.SetInitializer(initialize)

	cli.Execute(ctx)
}

// initialize builds the App once global flags are parsed.
func initialize(ctx context.Context, opts cli.Options) (*cli.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.PolicyFile != "" {
		if err := cfg.LoadPolicyFile(opts.PolicyFile); err != nil {
			return nil, nil, err
		}
	}

	logCfg := observability.DefaultLogConfig()
	logCfg.Level = observability.LogLevelWarn
	if opts.Verbose {
		logCfg.Level = observability.LogLevelDebug
	}
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid TASKGRAPH_USER_ID: %w", err)
	}

	var container *app.Container
	if opts.Memory {
		container, err = app.NewMemoryContainer(cfg, logger)
	} else {
		container, err = app.NewContainer(ctx, cfg, logger)
	}
	if err != nil {
		return nil, nil, err
	}

	cliApp := cli.NewApp(container.Engine, container.Health)
	cliApp.SetCurrentUserID(userID)
	cliApp.FlushEvents = container.FlushOutbox
	cliApp.WatchEvents = container.WatchEvents
	return cliApp, container.Close, nil
}
