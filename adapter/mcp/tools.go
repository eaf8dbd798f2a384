// Package mcp exposes the graph engine as MCP tools, resources and prompts.
package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskgraph/adapter/cli"
)

// ToolDependencies provides the engine and caller identity for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// toolset holds the tool handlers. Every handler acts for App.CurrentUserID.
type toolset struct {
	app *cli.App
}

// RegisterTools registers the task, tree and dependency tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	ts := &toolset{app: deps.App}

	srv.Tool("graph.health").
		Description("Check storage, lock and broker health").
		Handler(ts.health)

	registerTaskTools(srv, ts)
	registerTreeTools(srv, ts)
	registerDependencyTools(srv, ts)
	return nil
}

type healthOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (ts *toolset) health(ctx context.Context, _ struct{}) (*healthOutput, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	overall := app.Health.GetOverallHealth(ctx)
	out := &healthOutput{Status: string(overall.Status), Checks: make(map[string]string, len(overall.Checks))}
	for name, check := range overall.Checks {
		out.Checks[name] = string(check.Status)
	}
	return out, nil
}

func (ts *toolset) require() (*cli.App, error) {
	if ts.app == nil || ts.app.Engine == nil {
		return nil, cli.ErrNotInitialized
	}
	return ts.app, nil
}
