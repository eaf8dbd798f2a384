package services

import (
	"context"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

// CascadeResult lists the subtree a cascade walked and the tasks it
// actually deactivated. Both include the root.
type CascadeResult struct {
	Visited     []uuid.UUID
	Deactivated []uuid.UUID
}

// HierarchyManager maintains the containment tree.
type HierarchyManager struct {
	run *runner
}

// SetParent moves taskID under newParentID. The whole moved subtree must
// stay within MaxTreeDepth.
func (m *HierarchyManager) SetParent(ctx context.Context, owner, taskID, newParentID uuid.UUID) (*domain.Task, error) {
	const op = "tree.set_parent"
	var result *domain.Task
	err := m.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		t, err := m.setParent(ctx, w, owner, taskID, newParentID)
		result = t
		return err
	})
	if err != nil {
		return nil, m.run.rejected(ctx, observability.MetricTreeRejected, op, owner, err)
	}
	return result, nil
}

func (m *HierarchyManager) setParent(ctx context.Context, w *writer, owner, taskID, newParentID uuid.UUID) (*domain.Task, error) {
	const op = "tree.set_parent"
	if taskID == newParentID {
		return nil, domain.NewGraphError(domain.ErrSelfReference, op, taskID)
	}

	store := m.run.store
	t, err := activeTask(ctx, store, owner, taskID, op)
	if err != nil {
		return nil, err
	}
	if _, err := activeTask(ctx, store, owner, newParentID, op); err != nil {
		return nil, err
	}
	if t.HasParent(newParentID) {
		return t, nil
	}

	ceiling := m.run.limits.TraversalCeiling
	chain, err := ancestors(ctx, store, owner, newParentID, newBudget(op, ceiling, newParentID), taskID)
	if err != nil {
		return nil, err
	}
	height, err := subtreeHeight(ctx, store, owner, taskID, newBudget(op, ceiling, taskID))
	if err != nil {
		return nil, err
	}
	parentDepth := len(chain)
	if parentDepth+1+height > m.run.limits.MaxTreeDepth {
		return nil, domain.NewGraphError(domain.ErrDepthLimitExceeded, op, taskID, newParentID)
	}

	if err := t.AttachTo(newParentID); err != nil {
		return nil, domain.NewGraphError(err, op, taskID)
	}
	if err := w.saveTask(ctx, t); err != nil {
		return nil, err
	}
	m.run.logger.InfoContext(ctx, "task reparented",
		observability.OwnerIDKey, owner,
		observability.TaskIDKey, taskID,
		"parent_id", newParentID,
		"depth", parentDepth+1,
	)
	return t, nil
}

// ClearParent makes taskID a root. Clearing a root writes nothing.
func (m *HierarchyManager) ClearParent(ctx context.Context, owner, taskID uuid.UUID) (*domain.Task, error) {
	const op = "tree.clear_parent"
	var result *domain.Task
	err := m.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		t, err := activeTask(ctx, m.run.store, owner, taskID, op)
		if err != nil {
			return err
		}
		result = t
		if t.IsRoot() {
			return nil
		}
		if err := t.Detach(); err != nil {
			return domain.NewGraphError(err, op, taskID)
		}
		if err := w.saveTask(ctx, t); err != nil {
			return err
		}
		m.run.logger.InfoContext(ctx, "task detached",
			observability.OwnerIDKey, owner,
			observability.TaskIDKey, taskID,
		)
		return nil
	})
	if err != nil {
		return nil, m.run.rejected(ctx, observability.MetricTreeRejected, op, owner, err)
	}
	return result, nil
}

// ComputeDepth returns the number of ancestors of taskID. Roots and
// unknown tasks are at depth 0.
func (m *HierarchyManager) ComputeDepth(ctx context.Context, owner, taskID uuid.UUID) (int, error) {
	const op = "tree.depth"
	return query(ctx, m.run, op, func(ctx context.Context) (int, error) {
		chain, err := ancestors(ctx, m.run.store, owner, taskID, newBudget(op, m.run.limits.TraversalCeiling, taskID))
		if err != nil {
			return 0, err
		}
		return len(chain), nil
	})
}

// ListChildren returns the active direct children of parentID, oldest
// first.
func (m *HierarchyManager) ListChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*domain.Task, error) {
	return query(ctx, m.run, "tree.children", func(ctx context.Context) ([]*domain.Task, error) {
		children, err := m.run.store.GetChildren(ctx, owner, parentID)
		if err != nil {
			return nil, err
		}
		active := make([]*domain.Task, 0, len(children))
		for _, child := range children {
			if child.IsActive() {
				active = append(active, child)
			}
		}
		return active, nil
	})
}

// CascadeDeactivate deactivates taskID and its whole subtree. Already
// inactive nodes are visited but not written, and the walk does not go
// below them, so a second cascade over the same subtree writes nothing.
func (m *HierarchyManager) CascadeDeactivate(ctx context.Context, owner, taskID uuid.UUID) (*CascadeResult, error) {
	const op = "tree.cascade_deactivate"
	var result *CascadeResult
	err := m.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		r, err := m.cascade(ctx, w, owner, taskID)
		result = r
		return err
	})
	if err != nil {
		return nil, m.run.rejected(ctx, observability.MetricTreeRejected, op, owner, err)
	}
	return result, nil
}

func (m *HierarchyManager) cascade(ctx context.Context, w *writer, owner, taskID uuid.UUID) (*CascadeResult, error) {
	const op = "tree.cascade_deactivate"
	store := m.run.store

	root, err := store.GetTask(ctx, owner, taskID)
	if err != nil {
		if domain.Kind(err) == domain.ErrNotFound {
			return nil, domain.NewGraphError(domain.ErrNotFound, op, taskID)
		}
		return nil, err
	}

	levels, err := descend(ctx, store, owner, taskID, newBudget(op, m.run.limits.TraversalCeiling, taskID))
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{}
	nodes := []*domain.Task{root}
	for _, level := range levels {
		nodes = append(nodes, level...)
	}
	for _, t := range nodes {
		result.Visited = append(result.Visited, t.ID())
		if !t.Deactivate() {
			continue
		}
		if err := w.saveTask(ctx, t); err != nil {
			return nil, err
		}
		result.Deactivated = append(result.Deactivated, t.ID())
	}

	m.run.metrics.Counter(observability.MetricCascadeDeactivated, int64(len(result.Deactivated)))
	m.run.logger.InfoContext(ctx, "subtree deactivated",
		observability.OwnerIDKey, owner,
		observability.TaskIDKey, taskID,
		"visited", len(result.Visited),
		"deactivated", len(result.Deactivated),
	)
	return result, nil
}
