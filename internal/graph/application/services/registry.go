package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

// Registry creates task nodes and toggles their completion state.
type Registry struct {
	run  *runner
	tree *HierarchyManager
}

// Register creates an active, incomplete task. When parentID is set the
// task is attached in the same transaction, so a rejected parent leaves no
// task behind.
func (r *Registry) Register(ctx context.Context, owner uuid.UUID, title string, parentID *uuid.UUID) (*domain.Task, error) {
	const op = "task.register"
	var result *domain.Task
	err := r.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		count, err := r.run.store.CountTasks(ctx, owner)
		if err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		if count >= r.run.limits.MaxTasksPerOwner {
			return domain.NewGraphError(domain.ErrTaskLimitReached, op)
		}

		t, err := domain.NewTask(owner, title)
		if err != nil {
			return domain.NewGraphError(err, op)
		}
		if err := w.saveTask(ctx, t); err != nil {
			return err
		}
		if parentID != nil {
			if t, err = r.tree.setParent(ctx, w, owner, t.ID(), *parentID); err != nil {
				return err
			}
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, r.run.rejected(ctx, observability.MetricTreeRejected, op, owner, err)
	}
	r.run.logger.InfoContext(ctx, "task registered",
		observability.OwnerIDKey, owner,
		observability.TaskIDKey, result.ID(),
	)
	return result, nil
}

// Complete marks the task done. Completing a done task writes nothing.
func (r *Registry) Complete(ctx context.Context, owner, taskID uuid.UUID) (*domain.Task, error) {
	return r.toggle(ctx, owner, taskID, "task.complete", (*domain.Task).IsCompleted, (*domain.Task).Complete)
}

// Reopen marks a done task as not done.
func (r *Registry) Reopen(ctx context.Context, owner, taskID uuid.UUID) (*domain.Task, error) {
	return r.toggle(ctx, owner, taskID, "task.reopen",
		func(t *domain.Task) bool { return !t.IsCompleted() },
		(*domain.Task).Reopen,
	)
}

func (r *Registry) toggle(ctx context.Context, owner, taskID uuid.UUID, op string, done func(*domain.Task) bool, apply func(*domain.Task) error) (*domain.Task, error) {
	var result *domain.Task
	err := r.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		t, err := activeTask(ctx, r.run.store, owner, taskID, op)
		if err != nil {
			return err
		}
		result = t
		if done(t) {
			return nil
		}
		if err := apply(t); err != nil {
			return domain.NewGraphError(err, op, taskID)
		}
		return w.saveTask(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns an active task. Removed tasks are ErrNotFound.
func (r *Registry) Get(ctx context.Context, owner, taskID uuid.UUID) (*domain.Task, error) {
	const op = "task.get"
	return query(ctx, r.run, op, func(ctx context.Context) (*domain.Task, error) {
		t, err := activeTask(ctx, r.run.store, owner, taskID, op)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get task %s: %w", taskID, err)
		}
		return t, err
	})
}
