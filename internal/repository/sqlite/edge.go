package sqlite

import (
	"context"
	"encoding/json"
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
	query := fmt.Sprintf(`SELECT parent FROM %s WHERE child = ?`, s.tables.Edges)
	return s.collect(ctx, query, id)
}

func (s *EdgeStore) Descendants(ctx context.Context, id int64) (models.IDSet, error) {
	query := fmt.Sprintf(`SELECT child FROM %s WHERE parent = ?`, s.tables.Edges)
	return s.collect(ctx, query, id)
}

func (s *EdgeStore) collect(ctx context.Context, query string, id int64) (models.IDSet, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
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

// InsertEdges inserts ancestors x descendants, ignoring pairs already present
func (s *EdgeStore) InsertEdges(ctx context.Context, ancestors, descendants []int64) error {
	if len(ancestors) == 0 || len(descendants) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (parent, child)
		SELECT a.value, d.value
		FROM json_each(?) a, json_each(?) d
	`, s.tables.Edges)

	if _, err := s.db.ExecContext(ctx, query, idList(ancestors), idList(descendants)); err != nil {
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
		WHERE parent IN (SELECT value FROM json_each(?))
		  AND child IN (SELECT value FROM json_each(?))
	`, s.tables.Edges)

	result, err := s.db.ExecContext(ctx, query, idList(ancestors), idList(descendants))
	if err != nil {
		return 0, fmt.Errorf("delete edges: %w", err)
	}
	return result.RowsAffected()
}

func (s *EdgeStore) DeleteByDescendants(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE child IN (SELECT value FROM json_each(?))`, s.tables.Edges)

	result, err := s.db.ExecContext(ctx, query, idList(ids))
	if err != nil {
		return 0, fmt.Errorf("delete edges: %w", err)
	}
	return result.RowsAffected()
}

// Lock is a no-op: the write transaction already holds the database lock
func (s *EdgeStore) Lock(ctx context.Context, ids []int64, mode repositories.LockMode) error {
	return nil
}

// idList encodes ids as a JSON array for json_each
func idList(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}
