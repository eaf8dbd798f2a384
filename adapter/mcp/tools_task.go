package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
)

type taskAddInput struct {
	Title    string `json:"title" jsonschema:"required"`
	ParentID string `json:"parent_id,omitempty"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type taskDeleteOutput struct {
	DeactivatedTaskIDs []string `json:"deactivated_task_ids"`
	RemovedEdgeIDs     []string `json:"removed_dependency_ids"`
}

type canStartOutput struct {
	TaskID   string     `json:"task_id"`
	CanStart bool       `json:"can_start"`
	Blocking []*taskDTO `json:"blocking,omitempty"`
}

func registerTaskTools(srv *mcp.Server, ts *toolset) {
	srv.Tool("task.add").
		Description("Add a task, optionally as a subtask of parent_id").
		Handler(ts.addTask)

	srv.Tool("task.get").
		Description("Get an active task").
		Handler(ts.getTask)

	srv.Tool("task.complete").
		Description("Mark a task as complete so its dependents can start").
		Handler(ts.completeTask)

	srv.Tool("task.reopen").
		Description("Mark a completed task as open again").
		Handler(ts.reopenTask)

	srv.Tool("task.delete").
		Description("Delete a task with its subtree and every dependency touching it").
		Handler(ts.deleteTask)

	srv.Tool("task.can_start").
		Description("Report whether every prerequisite of a task is complete").
		Handler(ts.canStart)
}

func (ts *toolset) addTask(ctx context.Context, input taskAddInput) (*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	parent, err := parseOptionalUUID("parent_id", input.ParentID)
	if err != nil {
		return nil, err
	}
	t, err := app.Engine.Registry().Register(ctx, app.CurrentUserID, input.Title, parent)
	if err != nil {
		return nil, toolError("add task", err)
	}
	return toTaskDTO(t), nil
}

func (ts *toolset) getTask(ctx context.Context, input taskIDInput) (*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	t, err := app.Engine.Registry().Get(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("get task", err)
	}
	return toTaskDTO(t), nil
}

func (ts *toolset) completeTask(ctx context.Context, input taskIDInput) (*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	t, err := app.Engine.Registry().Complete(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("complete task", err)
	}
	return toTaskDTO(t), nil
}

func (ts *toolset) reopenTask(ctx context.Context, input taskIDInput) (*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	t, err := app.Engine.Registry().Reopen(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("reopen task", err)
	}
	return toTaskDTO(t), nil
}

func (ts *toolset) deleteTask(ctx context.Context, input taskIDInput) (*taskDeleteOutput, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	result, err := app.Engine.DeleteTask(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("delete task", err)
	}

	out := &taskDeleteOutput{
		DeactivatedTaskIDs: make([]string, len(result.DeactivatedTaskIDs)),
		RemovedEdgeIDs:     make([]string, len(result.RemovedEdgeIDs)),
	}
	for i, id := range result.DeactivatedTaskIDs {
		out.DeactivatedTaskIDs[i] = id.String()
	}
	for i, id := range result.RemovedEdgeIDs {
		out.RemovedEdgeIDs[i] = id.String()
	}
	return out, nil
}

func (ts *toolset) canStart(ctx context.Context, input taskIDInput) (*canStartOutput, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	blocking, err := app.Engine.Dependencies().BlockingPrerequisites(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("check task", err)
	}
	return &canStartOutput{
		TaskID:   taskID.String(),
		CanStart: len(blocking) == 0,
		Blocking: toTaskDTOs(blocking),
	}, nil
}
