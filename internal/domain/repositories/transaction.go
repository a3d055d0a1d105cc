package repositories

import "context"

// Tx is one unit of work. Both stores it hands out run against the same
// database transaction.
type Tx interface {
	Nodes() NodeStore
	Closure() ClosureStore
}

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context, tx Tx) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx runs fn inside a new transaction. It commits when fn returns nil
	// and rolls back otherwise.
	ExecTx(ctx context.Context, fn TxFn) error

	// View returns stores that run each statement on its own, outside any
	// explicit transaction. Reads only.
	View() Tx
}
