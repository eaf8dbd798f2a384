// Package mcp serves the graph engine to MCP clients over HTTP.
package mcp

import (
	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/internal/app"
	"github.com/google/uuid"
)

// NewCLIApp creates a CLI application instance backed by the provided
// container, acting for currentUser.
func NewCLIApp(container *app.Container, currentUser uuid.UUID) *cli.App {
	cliApp := cli.NewApp(container.Engine, container.Health)
	cliApp.SetCurrentUserID(currentUser)
	cliApp.FlushEvents = container.FlushOutbox
	cliApp.WatchEvents = container.WatchEvents
	return cliApp
}
