package postgres

import (
	"context"
	"fmt"

	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// EdgeStore implements repositories.EdgeStore
type EdgeStore struct {
	db     DBTX
	tables *TableNames
}

// NewEdgeStore creates an edge store bound to db
func NewEdgeStore(db DBTX, tables *TableNames) *EdgeStore {
	return &EdgeStore{db: db, tables: tables}
}

func (s *EdgeStore) Ancestors(ctx context.Context, id int64) (models.IDSet, error) {
	query := fmt.Sprintf(`SELECT parent FROM %s WHERE child = $1`, s.tables.Edges)
	return s.collect(ctx, query, id)
}

func (s *EdgeStore) Descendants(ctx context.Context, id int64) (models.IDSet, error) {
	query := fmt.Sprintf(`SELECT child FROM %s WHERE parent = $1`, s.tables.Edges)
	return s.collect(ctx, query, id)
}

func (s *EdgeStore) collect(ctx context.Context, query string, id int64) (models.IDSet, error) {
	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := models.NewIDSet()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		set.Add(v)
	}
	return set, rows.Err()
}

// InsertEdges inserts ancestors x descendants, skipping pairs already present
func (s *EdgeStore) InsertEdges(ctx context.Context, ancestors, descendants []int64) error {
	if len(ancestors) == 0 || len(descendants) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (parent, child)
		SELECT a, d
		FROM unnest($1::bigint[]) AS a
		CROSS JOIN unnest($2::bigint[]) AS d
		ON CONFLICT (parent, child) DO NOTHING
	`, s.tables.Edges)

	if _, err := s.db.Exec(ctx, query, ancestors, descendants); err != nil {
		return fmt.Errorf("insert edges: %w", err)
	}
	return nil
}

func (s *EdgeStore) DeleteEdges(ctx context.Context, ancestors, descendants []int64) (int64, error) {
	if len(ancestors) == 0 || len(descendants) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE parent = ANY($1) AND child = ANY($2)
	`, s.tables.Edges)

	tag, err := s.db.Exec(ctx, query, ancestors, descendants)
	if err != nil {
		return 0, fmt.Errorf("delete edges: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *EdgeStore) DeleteByDescendants(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE child = ANY($1)`, s.tables.Edges)

	tag, err := s.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete edges: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Lock row-locks the node rows of ids in ascending id order. Rows deleted by
// a transaction that committed first are skipped.
func (s *EdgeStore) Lock(ctx context.Context, ids []int64, mode repositories.LockMode) error {
	if len(ids) == 0 {
		return nil
	}
	strength := "FOR SHARE"
	if mode == repositories.LockExclusive {
		strength = "FOR UPDATE"
	}
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1) ORDER BY id %s`, s.tables.Nodes, strength)

	if _, err := s.db.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("lock nodes: %w", err)
	}
	return nil
}
