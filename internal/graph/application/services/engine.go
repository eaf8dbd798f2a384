// Package services implements the graph engine: the hierarchy manager, the
// dependency manager, the task registry and the integrity facade that ties
// them together. All of them share one runner, so every structural
// mutation of an owner is serialized and transactional.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	sharedApplication "github.com/felixgeelhaar/taskgraph/internal/shared/application"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

// EngineConfig wires the engine to its collaborators. Store is required.
// UnitOfWork defaults to the store when it implements one; Locker defaults
// to an in-process keyed mutex; Outbox may be nil to drop events.
type EngineConfig struct {
	Store      domain.Store
	UnitOfWork sharedApplication.UnitOfWork
	Outbox     outbox.Repository
	Locker     lock.OwnerLocker
	Limits     domain.Limits
	Logger     *slog.Logger
	Metrics    observability.Metrics
}

// DeleteResult lists what DeleteTask soft-deleted.
type DeleteResult struct {
	DeactivatedTaskIDs []uuid.UUID
	RemovedEdgeIDs     []uuid.UUID
}

// Engine is the graph integrity facade.
type Engine struct {
	run          *runner
	hierarchy    *HierarchyManager
	dependencies *DependencyManager
	registry     *Registry
}

// NewEngine validates cfg and builds the managers.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	uow := cfg.UnitOfWork
	if uow == nil {
		var ok bool
		if uow, ok = cfg.Store.(sharedApplication.UnitOfWork); !ok {
			return nil, errors.New("engine: unit of work is required")
		}
	}
	locker := cfg.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics observability.Metrics = observability.NoopMetrics{}
	if cfg.Metrics != nil {
		metrics = cfg.Metrics
	}

	run := &runner{
		store:   cfg.Store,
		uow:     uow,
		outbox:  cfg.Outbox,
		locker:  locker,
		limits:  cfg.Limits,
		logger:  logger.With("component", "graph_engine"),
		metrics: metrics,
	}
	hierarchy := &HierarchyManager{run: run}
	return &Engine{
		run:          run,
		hierarchy:    hierarchy,
		dependencies: &DependencyManager{run: run},
		registry:     &Registry{run: run, tree: hierarchy},
	}, nil
}

func (e *Engine) Hierarchy() *HierarchyManager     { return e.hierarchy }
func (e *Engine) Dependencies() *DependencyManager { return e.dependencies }
func (e *Engine) Registry() *Registry              { return e.registry }

// Limits returns the policy the engine enforces.
func (e *Engine) Limits() domain.Limits { return e.run.limits }

// DeleteTask deactivates taskID with its subtree and removes every active
// edge touching a deactivated or already inactive node of that subtree, in
// one transaction.
func (e *Engine) DeleteTask(ctx context.Context, owner, taskID uuid.UUID) (*DeleteResult, error) {
	const op = "task.delete"
	var result *DeleteResult
	err := e.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		cascade, err := e.hierarchy.cascade(ctx, w, owner, taskID)
		if err != nil {
			return err
		}
		edges, err := e.run.store.GetEdges(ctx, owner, domain.EdgeFilter{Touching: cascade.Visited})
		if err != nil {
			return fmt.Errorf("load dependencies of subtree: %w", err)
		}

		result = &DeleteResult{DeactivatedTaskIDs: cascade.Deactivated}
		for _, edge := range edges {
			if !edge.Remove() {
				continue
			}
			if err := w.saveEdge(ctx, edge); err != nil {
				return err
			}
			result.RemovedEdgeIDs = append(result.RemovedEdgeIDs, edge.ID())
		}
		return nil
	})
	if err != nil {
		return nil, e.run.rejected(ctx, observability.MetricTreeRejected, op, owner, err)
	}
	e.run.logger.InfoContext(ctx, "task deleted",
		observability.OwnerIDKey, owner,
		observability.TaskIDKey, taskID,
		"tasks", len(result.DeactivatedTaskIDs),
		"dependencies", len(result.RemovedEdgeIDs),
	)
	return result, nil
}

// CanTaskStart reports whether taskID has no blocking prerequisite.
func (e *Engine) CanTaskStart(ctx context.Context, owner, taskID uuid.UUID) (bool, error) {
	blocked, err := e.dependencies.IsBlocked(ctx, owner, taskID)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}
