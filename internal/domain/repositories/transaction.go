package repositories

import "context"

// TxFn runs inside a database transaction. The transaction handle
// travels in the context; repositories pick it up through GetTx.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function atomically. Used wherever several
// writes must land together: a message append with its conversation
// metadata update, and the catalog sync upsert/inactive sweep.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
