package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/application"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) (domain.Store, application.UnitOfWork)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func taskAt(owner uuid.UUID, title string, parent *uuid.UUID, offset time.Duration) *domain.Task {
	at := base.Add(offset)
	return domain.RehydrateTask(domain.TaskSnapshot{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     title,
		ParentID:  parent,
		Active:    true,
		CreatedAt: at,
		UpdatedAt: at,
	})
}

func saveTask(t *testing.T, store domain.Store, task *domain.Task) *domain.Task {
	t.Helper()
	require.NoError(t, store.SaveTask(context.Background(), task))
	return task
}

func saveEdge(t *testing.T, store domain.Store, owner, dependent, prerequisite uuid.UUID) *domain.Edge {
	t.Helper()
	e, err := domain.NewEdge(owner, dependent, prerequisite, domain.FinishToStart, "")
	require.NoError(t, err)
	require.NoError(t, store.SaveEdge(context.Background(), e))
	return e
}

func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("task round trip", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()
		owner := uuid.New()
		parent := saveTask(t, store, taskAt(owner, "plan", nil, 0))
		parentID := parent.ID()
		child := saveTask(t, store, taskAt(owner, "draft", &parentID, time.Second))
		assert.Equal(t, 1, child.Version())

		got, err := store.GetTask(ctx, owner, child.ID())
		require.NoError(t, err)
		assert.Equal(t, "draft", got.Title())
		assert.True(t, got.HasParent(parentID))
		assert.True(t, got.IsActive())
		assert.False(t, got.IsCompleted())
		assert.Equal(t, 1, got.Version())
		assert.True(t, base.Add(time.Second).Equal(got.CreatedAt()))

		_, err = store.GetTask(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.GetTask(ctx, uuid.New(), child.ID())
		assert.ErrorIs(t, err, domain.ErrNotFound, "other owners are invisible")
	})

	t.Run("update bumps version and rejects stale writes", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()
		owner := uuid.New()
		task := saveTask(t, store, taskAt(owner, "ship", nil, 0))

		first, err := store.GetTask(ctx, owner, task.ID())
		require.NoError(t, err)
		second, err := store.GetTask(ctx, owner, task.ID())
		require.NoError(t, err)

		require.NoError(t, first.Complete())
		require.NoError(t, store.SaveTask(ctx, first))
		assert.Equal(t, 2, first.Version())

		second.Deactivate()
		assert.ErrorIs(t, store.SaveTask(ctx, second), domain.ErrConflict)

		got, err := store.GetTask(ctx, owner, task.ID())
		require.NoError(t, err)
		assert.True(t, got.IsCompleted())
		assert.True(t, got.IsActive())

		assert.ErrorIs(t, store.SaveTask(ctx, taskAtID(task)), domain.ErrConflict, "insert of an existing id")
	})

	t.Run("batched loads", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()
		owner := uuid.New()
		a := saveTask(t, store, taskAt(owner, "a", nil, 0))
		b := saveTask(t, store, taskAt(owner, "b", nil, time.Second))
		foreign := saveTask(t, store, taskAt(uuid.New(), "foreign", nil, 0))

		got, err := store.GetTasks(ctx, owner, []uuid.UUID{a.ID(), b.ID(), foreign.ID(), uuid.New()})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Contains(t, got, a.ID())
		assert.Contains(t, got, b.ID())

		empty, err := store.GetTasks(ctx, owner, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("children oldest first across parents", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()
		owner := uuid.New()
		p1 := saveTask(t, store, taskAt(owner, "p1", nil, 0)).ID()
		p2 := saveTask(t, store, taskAt(owner, "p2", nil, 0)).ID()
		late := saveTask(t, store, taskAt(owner, "late", &p1, 3*time.Second))
		early := saveTask(t, store, taskAt(owner, "early", &p2, time.Second))
		inactive := taskAt(owner, "gone", &p1, 2*time.Second)
		inactive.Deactivate()
		saveTask(t, store, inactive)

		children, err := store.GetChildrenOf(ctx, owner, []uuid.UUID{p1, p2})
		require.NoError(t, err)
		require.Len(t, children, 3, "inactive children are returned")
		assert.Equal(t, early.ID(), children[0].ID())
		assert.Equal(t, inactive.ID(), children[1].ID())
		assert.Equal(t, late.ID(), children[2].ID())

		direct, err := store.GetChildren(ctx, owner, p2)
		require.NoError(t, err)
		require.Len(t, direct, 1)

		none, err := store.GetChildren(ctx, uuid.New(), p1)
		require.NoError(t, err)
		assert.Empty(t, none)

		count, err := store.CountTasks(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 4, count, "only active tasks count")
	})

	t.Run("edges", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()
		owner := uuid.New()
		a := saveTask(t, store, taskAt(owner, "a", nil, 0)).ID()
		b := saveTask(t, store, taskAt(owner, "b", nil, 0)).ID()
		c := saveTask(t, store, taskAt(owner, "c", nil, 0)).ID()

		ab := saveEdge(t, store, owner, a, b)
		bc := saveEdge(t, store, owner, b, c)

		got, err := store.GetEdge(ctx, owner, ab.ID())
		require.NoError(t, err)
		assert.Equal(t, a, got.DependentID())
		assert.Equal(t, b, got.PrerequisiteID())
		assert.Equal(t, domain.FinishToStart, got.Type())
		_, err = store.GetEdge(ctx, uuid.New(), ab.ID())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		byDependent, err := store.GetEdges(ctx, owner, domain.EdgeFilter{DependentIDs: []uuid.UUID{a}})
		require.NoError(t, err)
		require.Len(t, byDependent, 1)
		assert.Equal(t, ab.ID(), byDependent[0].ID())

		byPrerequisite, err := store.GetEdges(ctx, owner, domain.EdgeFilter{PrerequisiteIDs: []uuid.UUID{c}})
		require.NoError(t, err)
		require.Len(t, byPrerequisite, 1)
		assert.Equal(t, bc.ID(), byPrerequisite[0].ID())

		touching, err := store.GetEdges(ctx, owner, domain.EdgeFilter{Touching: []uuid.UUID{b}})
		require.NoError(t, err)
		assert.Len(t, touching, 2)

		dup, err := domain.NewEdge(owner, a, b, domain.StartToStart, "")
		require.NoError(t, err)
		assert.ErrorIs(t, store.SaveEdge(ctx, dup), domain.ErrConflict, "pair is unique")

		require.True(t, got.Remove())
		require.NoError(t, store.SaveEdge(ctx, got))

		active, err := store.GetEdges(ctx, owner, domain.EdgeFilter{})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, bc.ID(), active[0].ID())

		all, err := store.GetEdges(ctx, owner, domain.EdgeFilter{IncludeInactive: true})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		require.NoError(t, got.Reactivate(domain.StartToFinish, "again"))
		require.NoError(t, store.SaveEdge(ctx, got))
		revived, err := store.GetEdge(ctx, owner, ab.ID())
		require.NoError(t, err)
		assert.True(t, revived.IsActive())
		assert.Equal(t, domain.StartToFinish, revived.Type())
		assert.Equal(t, "again", revived.Description())
		assert.Equal(t, 3, revived.Version())
	})

	t.Run("rollback undoes writes", func(t *testing.T) {
		store, uow := newStore(t)
		ctx := context.Background()
		owner := uuid.New()
		kept := saveTask(t, store, taskAt(owner, "kept", nil, 0))

		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		loaded, err := store.GetTask(txCtx, owner, kept.ID())
		require.NoError(t, err)
		loaded.Deactivate()
		require.NoError(t, store.SaveTask(txCtx, loaded))
		dropped := taskAt(owner, "dropped", nil, time.Second)
		require.NoError(t, store.SaveTask(txCtx, dropped))
		require.NoError(t, store.SaveEdge(txCtx, mustEdge(t, owner, dropped.ID(), kept.ID())))
		require.NoError(t, uow.Rollback(txCtx))

		got, err := store.GetTask(ctx, owner, kept.ID())
		require.NoError(t, err)
		assert.True(t, got.IsActive())
		assert.Equal(t, 1, got.Version())
		_, err = store.GetTask(ctx, owner, dropped.ID())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		edges, err := store.GetEdges(ctx, owner, domain.EdgeFilter{IncludeInactive: true})
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("commit keeps writes and nested units join", func(t *testing.T) {
		store, uow := newStore(t)
		ctx := context.Background()
		owner := uuid.New()

		err := application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
			if err := store.SaveTask(txCtx, taskAt(owner, "outer", nil, 0)); err != nil {
				return err
			}
			inner, err := uow.Begin(txCtx)
			if err != nil {
				return err
			}
			if err := store.SaveTask(inner, taskAt(owner, "inner", nil, time.Second)); err != nil {
				return err
			}
			return uow.Commit(inner)
		})
		require.NoError(t, err)

		count, err := store.CountTasks(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

// taskAtID returns a fresh, unsaved copy of task keeping its id.
func taskAtID(task *domain.Task) *domain.Task {
	snap := task.Snapshot()
	snap.Version = 0
	return domain.RehydrateTask(snap)
}

func mustEdge(t *testing.T, owner, dependent, prerequisite uuid.UUID) *domain.Edge {
	t.Helper()
	e, err := domain.NewEdge(owner, dependent, prerequisite, domain.FinishToStart, "")
	require.NoError(t, err)
	return e
}
