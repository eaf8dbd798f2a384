package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskgraph/internal/graph/application/services"
	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/google/uuid"
)

type dependencyAddInput struct {
	DependentID    string `json:"dependent_id" jsonschema:"required"`
	PrerequisiteID string `json:"prerequisite_id" jsonschema:"required"`
	Type           string `json:"type,omitempty"`
	Description    string `json:"description,omitempty"`
}

type dependencyAddManyInput struct {
	Dependencies []dependencyAddInput `json:"dependencies" jsonschema:"required"`
}

type dependencyUpdateInput struct {
	DependencyID string `json:"dependency_id" jsonschema:"required"`
	Type         string `json:"type,omitempty"`
	Description  string `json:"description,omitempty"`
}

type dependencyRemoveInput struct {
	DependencyIDs []string `json:"dependency_ids" jsonschema:"required"`
}

type dependencyListInput struct {
	TaskID     string `json:"task_id" jsonschema:"required"`
	Dependents bool   `json:"dependents,omitempty"`
}

type batchItemOutput struct {
	Index        int      `json:"index"`
	DependencyID string   `json:"dependency_id,omitempty"`
	Dependency   *edgeDTO `json:"dependency,omitempty"`
	Removed      bool     `json:"removed,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func registerDependencyTools(srv *mcp.Server, ts *toolset) {
	srv.Tool("dependency.add").
		Description("Make dependent_id wait for prerequisite_id. Rejects cycles, duplicates and chains past the depth limit").
		Handler(ts.addDependency)

	srv.Tool("dependency.add_many").
		Description("Add several dependencies; each one succeeds or fails on its own").
		Handler(ts.addDependencies)

	srv.Tool("dependency.update").
		Description("Change the type or description of a dependency").
		Handler(ts.updateDependency)

	srv.Tool("dependency.remove").
		Description("Remove dependencies by id; unknown ids are reported as not removed").
		Handler(ts.removeDependencies)

	srv.Tool("dependency.list").
		Description("List the prerequisites of a task, or its dependents").
		Handler(ts.listDependencies)

	srv.Tool("dependency.blocking").
		Description("List the incomplete prerequisites holding a task back").
		Handler(ts.blocking)
}

func (in dependencyAddInput) parse() (services.AddDependencyInput, error) {
	dependent, err := parseUUID("dependent_id", in.DependentID)
	if err != nil {
		return services.AddDependencyInput{}, err
	}
	prerequisite, err := parseUUID("prerequisite_id", in.PrerequisiteID)
	if err != nil {
		return services.AddDependencyInput{}, err
	}
	return services.AddDependencyInput{
		DependentID:    dependent,
		PrerequisiteID: prerequisite,
		Type:           in.Type,
		Description:    in.Description,
	}, nil
}

func (ts *toolset) addDependency(ctx context.Context, input dependencyAddInput) (*edgeDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	in, err := input.parse()
	if err != nil {
		return nil, err
	}
	e, err := app.Engine.Dependencies().AddDependency(ctx, app.CurrentUserID, in)
	if err != nil {
		return nil, toolError("add dependency", err)
	}
	return toEdgeDTO(e), nil
}

func (ts *toolset) addDependencies(ctx context.Context, input dependencyAddManyInput) ([]batchItemOutput, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	inputs := make([]services.AddDependencyInput, len(input.Dependencies))
	for i, raw := range input.Dependencies {
		if inputs[i], err = raw.parse(); err != nil {
			return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
		}
	}

	results := app.Engine.Dependencies().AddMany(ctx, app.CurrentUserID, inputs)
	out := make([]batchItemOutput, len(results))
	for i, r := range results {
		out[i] = batchItemOutput{Index: r.Index}
		if !r.OK() {
			out[i].Error = toolError("add dependency", r.Err).Error()
			continue
		}
		out[i].DependencyID = r.EdgeID.String()
		out[i].Dependency = toEdgeDTO(r.Edge)
	}
	return out, nil
}

func (ts *toolset) updateDependency(ctx context.Context, input dependencyUpdateInput) (*edgeDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	edgeID, err := parseUUID("dependency_id", input.DependencyID)
	if err != nil {
		return nil, err
	}
	e, err := app.Engine.Dependencies().UpdateDependency(ctx, app.CurrentUserID, edgeID, input.Type, input.Description)
	if err != nil {
		return nil, toolError("update dependency", err)
	}
	return toEdgeDTO(e), nil
}

func (ts *toolset) removeDependencies(ctx context.Context, input dependencyRemoveInput) ([]batchItemOutput, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(input.DependencyIDs))
	for i, raw := range input.DependencyIDs {
		if ids[i], err = parseUUID(fmt.Sprintf("dependency_ids[%d]", i), raw); err != nil {
			return nil, err
		}
	}

	results := app.Engine.Dependencies().RemoveMany(ctx, app.CurrentUserID, ids)
	out := make([]batchItemOutput, len(results))
	for i, r := range results {
		out[i] = batchItemOutput{Index: r.Index, DependencyID: r.EdgeID.String(), Removed: r.Removed}
		if !r.OK() {
			out[i].Error = toolError("remove dependency", r.Err).Error()
		}
	}
	return out, nil
}

func (ts *toolset) listDependencies(ctx context.Context, input dependencyListInput) ([]*edgeDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}

	deps := app.Engine.Dependencies()
	var edges []*domain.Edge
	if input.Dependents {
		edges, err = deps.ListDependents(ctx, app.CurrentUserID, taskID)
	} else {
		edges, err = deps.ListPrerequisites(ctx, app.CurrentUserID, taskID)
	}
	if err != nil {
		return nil, toolError("list dependencies", err)
	}
	return toEdgeDTOs(edges), nil
}

func (ts *toolset) blocking(ctx context.Context, input taskIDInput) ([]*taskDTO, error) {
	app, err := ts.require()
	if err != nil {
		return nil, err
	}
	taskID, err := parseUUID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	blockers, err := app.Engine.Dependencies().BlockingPrerequisites(ctx, app.CurrentUserID, taskID)
	if err != nil {
		return nil, toolError("list blocking prerequisites", err)
	}
	return toTaskDTOs(blockers), nil
}
