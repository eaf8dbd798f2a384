package database

import "context"

type txKey struct{}

// TxInfo is the transaction carried in a context. Owned is false for units of
// work that joined an outer transaction.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxFromContext returns the transaction in ctx, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return nil
	}
	return info.Tx
}

// TxInfoFromContext returns the transaction info in ctx.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns the transaction in ctx if there is one,
// otherwise conn. Stores call this for every statement.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
