package repositories

import "context"

// TxFn is a unit of catalog work. Repositories called with the ctx it
// receives take part in the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles catalog transactions
type TransactionManager interface {
	// ExecTx runs fn in a transaction and commits when fn returns nil.
	// Nested calls run in a savepoint of the outer transaction.
	ExecTx(ctx context.Context, fn TxFn) error
}
