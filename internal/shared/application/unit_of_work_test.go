package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/taskgraph/internal/shared/application"
	"github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txKey struct{}

func TestWithUnitOfWork(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		var seen context.Context
		err := application.WithUnitOfWork(ctx, uow, func(c context.Context) error {
			seen = c
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, txCtx, seen)
		uow.AssertExpectations(t)
		uow.AssertNotCalled(t, "Rollback", mock.Anything)
	})

	t.Run("rolls back and returns fn error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")
		boom := errors.New("boom")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		err := application.WithUnitOfWork(ctx, uow, func(context.Context) error { return boom })

		assert.ErrorIs(t, err, boom)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("begin failure skips fn", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, errors.New("no connection"))

		called := false
		err := application.WithUnitOfWork(ctx, uow, func(context.Context) error {
			called = true
			return nil
		})

		assert.Error(t, err)
		assert.False(t, called)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	owner := uuid.New()
	meta := application.NewEventMetadata(owner, uuid.Nil)
	assert.Equal(t, owner, meta.OwnerID)
	assert.NotEqual(t, uuid.Nil, meta.CorrelationID)
	assert.NotEqual(t, uuid.Nil, meta.CausationID)

	event := domain.NewBaseEvent(uuid.New(), "Task", "graph.task.detached")
	events := []domain.DomainEvent{&event}
	application.ApplyEventMetadata(events, meta)
	assert.Equal(t, owner, events[0].Metadata().OwnerID)
}
