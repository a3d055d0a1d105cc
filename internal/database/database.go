package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"sortabletree/internal/config"
	"sortabletree/internal/domain/repositories"
	"sortabletree/internal/repository/postgres"
	"sortabletree/internal/repository/sqlite"
)

// DB is an opened storage backend: a unit-of-work factory plus the schema and
// lifecycle hooks of the underlying connection.
type DB struct {
	Store  repositories.TransactionManager
	Driver string // "postgres" or "sqlite"

	ping   func(ctx context.Context) error
	ensure func(ctx context.Context) error
	drop   func(ctx context.Context) error
	close  func()
}

// Connect opens Postgres when cfg.DatabaseURL is set, SQLite at cfg.SQLitePath otherwise.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	if cfg.UsePostgres() {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			"driver", "postgres",
			"max_conns", pool.Config().MaxConns,
			"table_prefix", cfg.TablePrefix,
		)
		return fromPool(pool, postgres.NewTableNames(cfg.TablePrefix), logger), nil
	}

	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"driver", "sqlite",
		"path", cfg.SQLitePath,
		"table_prefix", cfg.TablePrefix,
	)
	return fromSQLite(db, sqlite.NewTableNames(cfg.TablePrefix), logger), nil
}

func fromPool(pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) *DB {
	return &DB{
		Store:  postgres.NewTransactionManager(&postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}),
		Driver: "postgres",
		ping:   pool.Ping,
		ensure: func(ctx context.Context) error { return postgres.EnsureSchema(ctx, pool, tables) },
		drop:   func(ctx context.Context) error { return postgres.DropSchema(ctx, pool, tables) },
		close:  pool.Close,
	}
}

func fromSQLite(db *sql.DB, tables *sqlite.TableNames, logger *slog.Logger) *DB {
	return &DB{
		Store:  sqlite.NewStore(&sqlite.RepositoryConfig{DB: db, Tables: tables, Logger: logger}),
		Driver: "sqlite",
		ping:   db.PingContext,
		ensure: func(ctx context.Context) error { return sqlite.EnsureSchema(ctx, db, tables) },
		drop:   func(ctx context.Context) error { return sqlite.DropSchema(ctx, db, tables) },
		close:  func() { db.Close() },
	}
}

// Ping checks that the database answers
func (db *DB) Ping(ctx context.Context) error {
	return db.ping(ctx)
}

// EnsureSchema creates the node and edge tables if missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	if err := db.ensure(ctx); err != nil {
		return fmt.Errorf("ensure %s schema: %w", db.Driver, err)
	}
	return nil
}

// DropSchema removes the node and edge tables
func (db *DB) DropSchema(ctx context.Context) error {
	if err := db.drop(ctx); err != nil {
		return fmt.Errorf("drop %s schema: %w", db.Driver, err)
	}
	return nil
}

func (db *DB) Close() {
	db.close()
}
