package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	Executor
	committed  int
	rolledBack int
}

func (t *fakeTx) Commit(context.Context) error   { t.committed++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack++; return nil }

type fakeConn struct {
	Executor
	txs []*fakeTx
}

func (c *fakeConn) BeginTx(context.Context) (Transaction, error) {
	tx := &fakeTx{}
	c.txs = append(c.txs, tx)
	return tx, nil
}
func (c *fakeConn) Close() error               { return nil }
func (c *fakeConn) Ping(context.Context) error { return nil }
func (c *fakeConn) Driver() Driver             { return DriverSQLite }

func TestGenericUnitOfWork_NestedBeginJoins(t *testing.T) {
	conn := &fakeConn{}
	uow := NewUnitOfWork(conn)

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	require.Len(t, conn.txs, 1)
	assert.Same(t, conn.txs[0], TxFromContext(inner))

	require.NoError(t, uow.Commit(inner))
	assert.Equal(t, 0, conn.txs[0].committed)

	require.NoError(t, uow.Commit(outer))
	assert.Equal(t, 1, conn.txs[0].committed)
}

func TestGenericUnitOfWork_WithoutTransaction(t *testing.T) {
	uow := NewUnitOfWork(&fakeConn{})

	assert.Error(t, uow.Commit(context.Background()))
	assert.Error(t, uow.Rollback(context.Background()))
}

func TestExecutorFromContext(t *testing.T) {
	conn := &fakeConn{}
	assert.Same(t, conn, ExecutorFromContext(context.Background(), conn))

	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx, true)
	assert.Same(t, tx, ExecutorFromContext(ctx, conn))
}
