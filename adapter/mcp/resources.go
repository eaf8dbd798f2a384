package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers read-only resources describing the engine.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	ts := &toolset{app: deps.App}

	srv.Resource("taskgraph://limits").
		Name("Graph limits").
		Description("Depth, size and retry limits enforced on every change").
		MimeType("application/json").
		Handler(ts.limitsResource)

	srv.Resource("taskgraph://health").
		Name("Health").
		Description("Status of storage, owner locks and the event broker").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
			out, err := ts.health(ctx, struct{}{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, out)
		})

	return nil
}

type limitsOutput struct {
	MaxTreeDepth       int `json:"max_tree_depth"`
	MaxDependencyDepth int `json:"max_dependency_depth"`
	MaxTasksPerOwner   int `json:"max_tasks_per_owner"`
	TraversalCeiling   int `json:"traversal_ceiling"`
	ConflictRetries    int `json:"conflict_retries"`
}

func (ts *toolset) limitsResource(_ context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	l := app.Engine.Limits()
	return jsonResource(uri, limitsOutput{
		MaxTreeDepth:       l.MaxTreeDepth,
		MaxDependencyDepth: l.MaxDependencyDepth,
		MaxTasksPerOwner:   l.MaxTasksPerOwner,
		TraversalCeiling:   l.TraversalCeiling,
		ConflictRetries:    l.ConflictRetries,
	})
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
