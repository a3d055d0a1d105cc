package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/repositories"
	"sortabletree/internal/repository/closure"
)

// TransactionManager implements the TransactionManager interface
type TransactionManager struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(config *RepositoryConfig) repositories.TransactionManager {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionManager{pool: config.Pool, tables: config.Tables, logger: logger}
}

// ExecTx executes a function within a READ COMMITTED transaction
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx, err := tm.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Defer rollback - safe even if commit succeeds
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			// Log rollback failure but don't return error (commit might have succeeded)
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(ctx, tm.scope(tx)); err != nil {
		if IsPgDeadlockError(err) {
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		}
		return err
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// View returns stores bound to the pool
func (tm *TransactionManager) View() repositories.Tx {
	return tm.scope(tm.pool)
}

func (tm *TransactionManager) scope(db DBTX) repositories.Tx {
	return &txScope{
		nodes:   NewNodeStore(db, tm.tables),
		closure: closure.New(NewEdgeStore(db, tm.tables)),
	}
}

type txScope struct {
	nodes   repositories.NodeStore
	closure repositories.ClosureStore
}

func (t *txScope) Nodes() repositories.NodeStore      { return t.nodes }
func (t *txScope) Closure() repositories.ClosureStore { return t.closure }
