package services

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallOwner(max int) func(*domain.Limits) {
	return func(l *domain.Limits) {
		l.MaxTasksPerOwner = max
		l.TraversalCeiling = max
	}
}

// inject writes a task straight into the store, bypassing every check.
func (e *testEngine) inject(t *testing.T, parent *uuid.UUID) *domain.Task {
	t.Helper()
	now := time.Now().UTC()
	task := domain.RehydrateTask(domain.TaskSnapshot{
		ID:        uuid.New(),
		OwnerID:   e.owner,
		Title:     "injected",
		ParentID:  parent,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, e.store.MemoryStore.SaveTask(context.Background(), task))
	return task
}

// injectEdge writes an edge straight into the store.
func (e *testEngine) injectEdge(t *testing.T, dependent, prerequisite *domain.Task) {
	t.Helper()
	edge, err := domain.NewEdge(e.owner, dependent.ID(), prerequisite.ID(), domain.FinishToStart, "")
	require.NoError(t, err)
	require.NoError(t, e.store.MemoryStore.SaveEdge(context.Background(), edge))
}

func TestTraversalCeiling_ValidDataNeverTrips(t *testing.T) {
	ctx := context.Background()

	t.Run("wide prerequisite set", func(t *testing.T) {
		e := newTestEngine(t, smallOwner(100))
		p := e.task(t, "P")
		for i := 0; i < 60; i++ {
			e.dependsOn(t, p, e.task(t, "leaf"))
		}
		d := e.task(t, "D")

		_, err := e.Dependencies().AddDependency(ctx, e.owner, AddDependencyInput{
			DependentID: d.ID(), PrerequisiteID: p.ID(),
		})

		require.NoError(t, err)
	})

	t.Run("wide dependent set", func(t *testing.T) {
		e := newTestEngine(t, smallOwner(100))
		d := e.task(t, "D")
		for i := 0; i < 60; i++ {
			e.dependsOn(t, e.task(t, "waiter"), d)
		}
		p := e.task(t, "P")
		for i := 0; i < 30; i++ {
			e.dependsOn(t, p, e.task(t, "leaf"))
		}

		_, err := e.Dependencies().AddDependency(ctx, e.owner, AddDependencyInput{
			DependentID: d.ID(), PrerequisiteID: p.ID(),
		})

		require.NoError(t, err)
	})

	t.Run("deleted children do not count", func(t *testing.T) {
		e := newTestEngine(t, smallOwner(10))
		x := e.task(t, "X")
		for i := 0; i < 15; i++ {
			c := e.child(t, "churn", x)
			_, err := e.DeleteTask(ctx, e.owner, c.ID())
			require.NoError(t, err)
		}

		result, err := e.DeleteTask(ctx, e.owner, x.ID())

		require.NoError(t, err)
		assert.Equal(t, ids(x), result.DeactivatedTaskIDs)
		assert.False(t, e.reload(t, x).IsActive())
	})

	t.Run("reparenting a full subtree", func(t *testing.T) {
		e := newTestEngine(t, smallOwner(20))
		root := e.task(t, "Root")
		moved := e.task(t, "Moved")
		for i := 0; i < 18; i++ {
			e.child(t, "child", moved)
		}

		_, err := e.Hierarchy().SetParent(ctx, e.owner, moved.ID(), root.ID())

		require.NoError(t, err)
	})
}

func TestTraversalCeiling_TripsOnCorruptData(t *testing.T) {
	ctx := context.Background()

	t.Run("subtree larger than the task limit", func(t *testing.T) {
		e := newTestEngine(t, smallOwner(5))
		x := e.task(t, "X")
		id := x.ID()
		for i := 0; i < 8; i++ {
			e.inject(t, &id)
		}
		before := e.store.writes()

		_, err := e.DeleteTask(ctx, e.owner, x.ID())

		assert.ErrorIs(t, err, domain.ErrTraversalLimit)
		assert.True(t, e.reload(t, x).IsActive())
		assert.Equal(t, before, e.store.writes())
	})

	t.Run("prerequisite set larger than the task limit", func(t *testing.T) {
		e := newTestEngine(t, smallOwner(5))
		d := e.task(t, "D")
		p := e.task(t, "P")
		for i := 0; i < 8; i++ {
			e.injectEdge(t, p, e.inject(t, nil))
		}

		_, err := e.Dependencies().AddDependency(ctx, e.owner, AddDependencyInput{
			DependentID: d.ID(), PrerequisiteID: p.ID(),
		})

		assert.ErrorIs(t, err, domain.ErrTraversalLimit)
	})

	t.Run("cyclic parent chain terminates", func(t *testing.T) {
		e := newTestEngine(t)
		a := e.inject(t, nil)
		aID := a.ID()
		b := e.inject(t, &aID)
		a = e.reload(t, a)
		require.NoError(t, a.AttachTo(b.ID()))
		require.NoError(t, e.store.MemoryStore.SaveTask(ctx, a))
		c := e.task(t, "C")

		_, err := e.Hierarchy().ComputeDepth(ctx, e.owner, a.ID())
		assert.ErrorIs(t, err, domain.ErrCircularReference)

		_, err = e.Hierarchy().SetParent(ctx, e.owner, c.ID(), a.ID())
		assert.ErrorIs(t, err, domain.ErrCircularReference)

		result, err := e.DeleteTask(ctx, e.owner, a.ID())
		require.NoError(t, err)
		assert.ElementsMatch(t, ids(a, b), result.DeactivatedTaskIDs)
	})

	t.Run("cyclic edge set terminates", func(t *testing.T) {
		e := newTestEngine(t)
		a := e.task(t, "A")
		b := e.task(t, "B")
		c := e.task(t, "C")
		e.injectEdge(t, a, b)
		e.injectEdge(t, b, a)

		_, err := e.Dependencies().AddDependency(ctx, e.owner, AddDependencyInput{
			DependentID: c.ID(), PrerequisiteID: a.ID(),
		})
		assert.ErrorIs(t, err, domain.ErrDepthLimitExceeded)

		blocked, err := e.Dependencies().IsBlocked(ctx, e.owner, a.ID())
		require.NoError(t, err)
		assert.True(t, blocked)
	})
}
