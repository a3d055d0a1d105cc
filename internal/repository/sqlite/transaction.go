package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"sortabletree/internal/domain/repositories"
	"sortabletree/internal/repository/closure"
)

// Store implements the TransactionManager interface
type Store struct {
	db     *sql.DB
	tables *TableNames
	logger *slog.Logger
}

// NewStore creates a new transaction manager
func NewStore(config *RepositoryConfig) repositories.TransactionManager {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: config.DB, tables: config.Tables, logger: logger}
}

// ExecTx executes a function within a transaction
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Defer rollback - safe even if commit succeeds
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(ctx, s.scope(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// View returns stores bound to the pool
func (s *Store) View() repositories.Tx {
	return s.scope(s.db)
}

func (s *Store) scope(db DBTX) repositories.Tx {
	return &txScope{
		nodes:   NewNodeStore(db, s.tables),
		closure: closure.New(NewEdgeStore(db, s.tables)),
	}
}

type txScope struct {
	nodes   repositories.NodeStore
	closure repositories.ClosureStore
}

func (t *txScope) Nodes() repositories.NodeStore      { return t.nodes }
func (t *txScope) Closure() repositories.ClosureStore { return t.closure }
