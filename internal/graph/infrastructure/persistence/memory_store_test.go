package persistence_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/graph/infrastructure/persistence"
	"github.com/felixgeelhaar/taskgraph/internal/shared/application"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) (domain.Store, application.UnitOfWork) {
		store := persistence.NewMemoryStore()
		return store, store
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()
	task := saveTask(t, store, taskAt(owner, "copy", nil, 0))

	loaded, err := store.GetTask(ctx, owner, task.ID())
	require.NoError(t, err)
	loaded.Deactivate()

	again, err := store.GetTask(ctx, owner, task.ID())
	require.NoError(t, err)
	assert.True(t, again.IsActive(), "unsaved changes are not visible")
}

func TestMemoryStore_CommitWithoutBegin(t *testing.T) {
	store := persistence.NewMemoryStore()
	assert.Error(t, store.Commit(context.Background()))
	assert.Error(t, store.Rollback(context.Background()))
}
