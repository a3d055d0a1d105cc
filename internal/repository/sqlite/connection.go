// Package sqlite stores the tree in an embedded SQLite database. Writers are
// serialised by the database itself (one connection, BEGIN IMMEDIATE), so the
// row and group locks of the Postgres backend are no-ops here.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

//go:embed schema.sql
var schemaSQL string

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	DB     *sql.DB
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Nodes string
	Edges string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Nodes: fmt.Sprintf("%stree_nodes", prefix),
		Edges: fmt.Sprintf("%stree_edges", prefix),
	}
}

// DBTX is implemented by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the database file at path.
//
// The pool is capped at one connection and transactions start with BEGIN
// IMMEDIATE, so a writer holds the database lock from its first statement
// and concurrent writers queue behind busy_timeout instead of failing with
// SQLITE_BUSY on upgrade.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "tree.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the node and edge tables if they don't exist
func EnsureSchema(ctx context.Context, db *sql.DB, tables *TableNames) error {
	ddl := strings.NewReplacer("{{nodes}}", tables.Nodes, "{{edges}}", tables.Edges).Replace(schemaSQL)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DropSchema drops the node and edge tables
func DropSchema(ctx context.Context, db *sql.DB, tables *TableNames) error {
	for _, table := range []string{tables.Edges, tables.Nodes} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
