package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

// AddDependencyInput describes one prerequisite link: DependentID cannot
// start until PrerequisiteID is complete. An empty Type means
// finish_to_start.
type AddDependencyInput struct {
	DependentID    uuid.UUID
	PrerequisiteID uuid.UUID
	Type           string
	Description    string
}

// BatchResult is the outcome of one item of AddMany or RemoveMany.
type BatchResult struct {
	Index   int
	EdgeID  uuid.UUID
	Edge    *domain.Edge
	Removed bool
	Err     error
}

// OK reports whether the item succeeded.
func (r BatchResult) OK() bool { return r.Err == nil }

// DependencyManager maintains the prerequisite graph.
type DependencyManager struct {
	run *runner
}

// AddDependency creates the edge, or reactivates the removed record of the
// same pair. Checks run in a fixed order: type, self reference, cycle,
// depth, endpoint validity, duplicate.
func (m *DependencyManager) AddDependency(ctx context.Context, owner uuid.UUID, in AddDependencyInput) (*domain.Edge, error) {
	const op = "dependency.add"
	var result *domain.Edge
	err := m.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		e, err := m.add(ctx, w, owner, in)
		result = e
		return err
	})
	if err != nil {
		return nil, m.run.rejected(ctx, observability.MetricDependencyRejected, op, owner, err)
	}
	return result, nil
}

func (m *DependencyManager) add(ctx context.Context, w *writer, owner uuid.UUID, in AddDependencyInput) (*domain.Edge, error) {
	const op = "dependency.add"
	dependent, prerequisite := in.DependentID, in.PrerequisiteID

	depType, err := domain.ParseDependencyType(in.Type)
	if err != nil {
		return nil, domain.NewGraphError(err, op, dependent, prerequisite)
	}
	if dependent == prerequisite {
		return nil, domain.NewGraphError(domain.ErrSelfReference, op, dependent)
	}

	store := m.run.store
	limits := m.run.limits
	// The new edge closes a cycle iff the dependent is already a
	// (transitive) prerequisite of the prerequisite.
	cycle, path, err := reachable(ctx, store, owner, prerequisite, dependent, towardPrerequisites,
		newBudget(op, limits.TraversalCeiling, prerequisite))
	if err != nil {
		return nil, err
	}
	if cycle {
		return nil, domain.NewGraphError(domain.ErrCycleDetected, op, dependent, prerequisite).
			WithPath(append([]uuid.UUID{dependent}, path...))
	}

	above, err := longestChain(ctx, store, owner, dependent, towardDependents, limits.MaxDependencyDepth,
		newBudget(op, limits.TraversalCeiling, dependent))
	if err != nil {
		return nil, err
	}
	below, err := longestChain(ctx, store, owner, prerequisite, towardPrerequisites, limits.MaxDependencyDepth,
		newBudget(op, limits.TraversalCeiling, prerequisite))
	if err != nil {
		return nil, err
	}
	if above+1+below > limits.MaxDependencyDepth {
		return nil, domain.NewGraphError(domain.ErrDepthLimitExceeded, op, dependent, prerequisite)
	}

	tasks, err := store.GetTasks(ctx, owner, []uuid.UUID{dependent, prerequisite})
	if err != nil {
		return nil, fmt.Errorf("load endpoints: %w", err)
	}
	for _, id := range []uuid.UUID{dependent, prerequisite} {
		if _, ok := domain.Classify(owner, id, tasks[id]).(domain.ActiveNode); !ok {
			return nil, domain.NewGraphError(domain.ErrInvalidReference, op, id)
		}
	}

	existing, err := store.GetEdges(ctx, owner, domain.EdgeFilter{
		DependentIDs:    []uuid.UUID{dependent},
		PrerequisiteIDs: []uuid.UUID{prerequisite},
		IncludeInactive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load existing dependency: %w", err)
	}

	var e *domain.Edge
	if len(existing) > 0 {
		e = existing[0]
		if e.IsActive() {
			return nil, domain.NewGraphError(domain.ErrDuplicateEdge, op, dependent, prerequisite)
		}
		if err := e.Reactivate(depType, in.Description); err != nil {
			return nil, domain.NewGraphError(err, op, dependent, prerequisite)
		}
	} else {
		e, err = domain.NewEdge(owner, dependent, prerequisite, depType, in.Description)
		if err != nil {
			return nil, domain.NewGraphError(err, op, dependent, prerequisite)
		}
	}
	if err := w.saveEdge(ctx, e); err != nil {
		return nil, err
	}

	m.run.logger.InfoContext(ctx, "dependency added",
		observability.OwnerIDKey, owner,
		"dependency_id", e.ID(),
		"dependent_id", dependent,
		"prerequisite_id", prerequisite,
		"type", depType.String(),
	)
	return e, nil
}

// UpdateDependency changes the type and description of an active edge.
func (m *DependencyManager) UpdateDependency(ctx context.Context, owner, edgeID uuid.UUID, depType, description string) (*domain.Edge, error) {
	const op = "dependency.update"
	var result *domain.Edge
	err := m.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		parsed, err := domain.ParseDependencyType(depType)
		if err != nil {
			return domain.NewGraphError(err, op)
		}
		e, err := m.activeEdge(ctx, owner, edgeID, op)
		if err != nil {
			return err
		}
		if err := e.Update(parsed, description); err != nil {
			return domain.NewGraphError(err, op)
		}
		if err := w.saveEdge(ctx, e); err != nil {
			return err
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, m.run.rejected(ctx, observability.MetricDependencyRejected, op, owner, err)
	}
	return result, nil
}

// RemoveDependency soft-deletes an edge. It reports false when the edge
// does not exist or was already removed.
func (m *DependencyManager) RemoveDependency(ctx context.Context, owner, edgeID uuid.UUID) (bool, error) {
	const op = "dependency.remove"
	removed := false
	err := m.run.mutate(ctx, owner, op, func(ctx context.Context, w *writer) error {
		removed = false
		e, err := m.activeEdge(ctx, owner, edgeID, op)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !e.Remove() {
			return nil
		}
		if err := w.saveEdge(ctx, e); err != nil {
			return err
		}
		removed = true
		m.run.logger.InfoContext(ctx, "dependency removed",
			observability.OwnerIDKey, owner,
			"dependency_id", edgeID,
		)
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (m *DependencyManager) activeEdge(ctx context.Context, owner, edgeID uuid.UUID, op string) (*domain.Edge, error) {
	e, err := m.run.store.GetEdge(ctx, owner, edgeID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewGraphError(domain.ErrNotFound, op)
	}
	if err != nil {
		return nil, fmt.Errorf("load dependency %s: %w", edgeID, err)
	}
	if !e.IsActive() || e.OwnerID() != owner {
		return nil, domain.NewGraphError(domain.ErrNotFound, op)
	}
	return e, nil
}

// IsBlocked reports whether taskID has an active prerequisite that is not
// complete. Removed or missing prerequisites never block.
func (m *DependencyManager) IsBlocked(ctx context.Context, owner, taskID uuid.UUID) (bool, error) {
	return query(ctx, m.run, "dependency.is_blocked", func(ctx context.Context) (bool, error) {
		blocking, err := m.blocking(ctx, owner, taskID, true)
		if err != nil {
			return false, err
		}
		return len(blocking) > 0, nil
	})
}

// BlockingPrerequisites returns the incomplete active prerequisites of
// taskID in edge order.
func (m *DependencyManager) BlockingPrerequisites(ctx context.Context, owner, taskID uuid.UUID) ([]*domain.Task, error) {
	return query(ctx, m.run, "dependency.blocking", func(ctx context.Context) ([]*domain.Task, error) {
		return m.blocking(ctx, owner, taskID, false)
	})
}

func (m *DependencyManager) blocking(ctx context.Context, owner, taskID uuid.UUID, firstOnly bool) ([]*domain.Task, error) {
	edges, err := edgesFrom(ctx, m.run.store, owner, []uuid.UUID{taskID}, towardPrerequisites)
	if err != nil || len(edges) == 0 {
		return nil, err
	}
	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.PrerequisiteID()
	}
	tasks, err := m.run.store.GetTasks(ctx, owner, ids)
	if err != nil {
		return nil, fmt.Errorf("load prerequisites: %w", err)
	}

	var blocking []*domain.Task
	for _, id := range ids {
		node, ok := domain.Classify(owner, id, tasks[id]).(domain.ActiveNode)
		if !ok || node.Task.IsCompleted() {
			continue
		}
		blocking = append(blocking, node.Task)
		if firstOnly {
			break
		}
	}
	return blocking, nil
}

// ListPrerequisites returns the active edges leaving taskID.
func (m *DependencyManager) ListPrerequisites(ctx context.Context, owner, taskID uuid.UUID) ([]*domain.Edge, error) {
	return query(ctx, m.run, "dependency.list_prerequisites", func(ctx context.Context) ([]*domain.Edge, error) {
		return edgesFrom(ctx, m.run.store, owner, []uuid.UUID{taskID}, towardPrerequisites)
	})
}

// ListDependents returns the active edges pointing at taskID.
func (m *DependencyManager) ListDependents(ctx context.Context, owner, taskID uuid.UUID) ([]*domain.Edge, error) {
	return query(ctx, m.run, "dependency.list_dependents", func(ctx context.Context) ([]*domain.Edge, error) {
		return edgesFrom(ctx, m.run.store, owner, []uuid.UUID{taskID}, towardDependents)
	})
}

// AddMany adds each input in its own transaction. A failed item is
// recorded in its result and does not stop the batch.
func (m *DependencyManager) AddMany(ctx context.Context, owner uuid.UUID, inputs []AddDependencyInput) []BatchResult {
	results := make([]BatchResult, len(inputs))
	for i, in := range inputs {
		e, err := m.AddDependency(ctx, owner, in)
		results[i] = BatchResult{Index: i, Edge: e, Err: err}
		if e != nil {
			results[i].EdgeID = e.ID()
		}
	}
	return results
}

// RemoveMany removes each edge in its own transaction.
func (m *DependencyManager) RemoveMany(ctx context.Context, owner uuid.UUID, edgeIDs []uuid.UUID) []BatchResult {
	results := make([]BatchResult, len(edgeIDs))
	for i, id := range edgeIDs {
		removed, err := m.RemoveDependency(ctx, owner, id)
		results[i] = BatchResult{Index: i, EdgeID: id, Removed: removed, Err: err}
	}
	return results
}
