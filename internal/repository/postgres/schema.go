package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the node and edge tables if they don't exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id BIGSERIAL PRIMARY KEY,
			parent_id BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 0,
			sort BIGINT NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			data JSONB,
			archived_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Nodes + `_parent_sort ON ` + tables.Nodes + `(parent_id, sort)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Nodes + `_level ON ` + tables.Nodes + `(level)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Edges + ` (
			id BIGSERIAL PRIMARY KEY,
			parent BIGINT NOT NULL,
			child BIGINT NOT NULL,
			UNIQUE(parent, child)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Edges + `_parent ON ` + tables.Edges + `(parent)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Edges + `_child ON ` + tables.Edges + `(child)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops the node and edge tables
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Edges, tables.Nodes} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
