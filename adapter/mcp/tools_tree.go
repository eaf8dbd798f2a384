package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
)

type treeSetParentInput struct {
	TaskID   string `json:"task_id" jsonschema:"required"`
	ParentID string `json:"parent_id" jsonschema:"required"`
}

type depthOutput struct {
	TaskID string `json:"task_id"`
	Depth  int    `json:"depth"`
}

func registerTreeTools(srv *mcp.Server, ts *toolset) {
	srv.Tool("tree.set_parent").
		Description("Move a task under parent_id. Rejects loops and moves past the depth limit").
		Handler(ts.setParent)

	srv.Tool("tree.clear_parent").
		Description("Make a task a top-level task").
		Handler(ts.clearParent)

	srv.Tool("tree.children").
		Description("List the active direct subtasks of a task").
		Handler(ts.children)

	srv.Tool("tree.depth").
		Description("Number of ancestors above a task; top-level tasks have depth 0").
		Handler(ts.depth)
}

func (ts *toolset) setParent(ctx context.Context, input treeSetParentInput) (*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	parentID, err := parseUUID("parent_id", input.ParentID)
	if err != nil {
		return nil, err
	}
	t, err := app.Engine.Hierarchy().SetParent(ctx, app.CurrentUserID, taskID, parentID)
	if err != nil {
		return nil, toolError("set parent", err)
	}
	return toTaskDTO(t), nil
}

func (ts *toolset) clearParent(ctx context.Context, input taskIDInput) (*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	t, err := app.Engine.Hierarchy().ClearParent(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("clear parent", err)
	}
	return toTaskDTO(t), nil
}

func (ts *toolset) children(ctx context.Context, input taskIDInput) ([]*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	children, err := app.Engine.Hierarchy().ListChildren(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("list children", err)
	}
	return toTaskDTOs(children), nil
}

func (ts *toolset) depth(ctx context.Context, input taskIDInput) (*depthOutput, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	depth, err := app.Engine.Hierarchy().ComputeDepth(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("compute depth", err)
	}
	return &depthOutput{TaskID: taskID.String(), Depth: depth}, nil
}
