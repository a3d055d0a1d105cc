package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

const nodeColumns = `n.id, n.parent_id, n.level, n.sort, n.title, n.data, n.archived_at, n.created_at, n.updated_at`

// NodeStore implements repositories.NodeStore
type NodeStore struct {
	db     DBTX
	tables *TableNames
}

// NewNodeStore creates a node store bound to db
func NewNodeStore(db DBTX, tables *TableNames) *NodeStore {
	return &NodeStore{db: db, tables: tables}
}

// Create inserts a node and fills in its ID
func (s *NodeStore) Create(ctx context.Context, node *models.Node) error {
	data, err := encodeData(node.Data)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (parent_id, level, sort, title, data, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, s.tables.Nodes)

	err = s.db.QueryRowContext(ctx, query,
		node.ParentID,
		node.Level,
		node.Sort,
		node.Title,
		data,
		encodeTimePtr(node.ArchivedAt),
		encodeTime(node.CreatedAt),
		encodeTime(node.UpdatedAt),
	).Scan(&node.ID)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// Get retrieves a node by ID
func (s *NodeStore) Get(ctx context.Context, id int64, opts repositories.ReadOptions) (*models.Node, error) {
	q := repositories.NewQuery(repositories.QueryGet).Where("n.id = ?", id)
	if err := opts.Prepare(q); err != nil {
		return nil, err
	}
	where, orderBy, args := q.Build()
	query := fmt.Sprintf(`SELECT %s FROM %s n%s%s`, nodeColumns, s.tables.Nodes, where, orderBy)

	node, err := scanNode(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NodeNotFound(id)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

func (s *NodeStore) UpdatePlacement(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = ?, level = ?, sort = ?, updated_at = ?
		WHERE id = ?
	`, s.tables.Nodes)

	result, err := s.db.ExecContext(ctx, query, node.ParentID, node.Level, node.Sort, encodeTime(node.UpdatedAt), node.ID)
	if err != nil {
		return fmt.Errorf("update placement: %w", err)
	}
	return expectOne(result, node.ID)
}

func (s *NodeStore) UpdateSort(ctx context.Context, id int64, sort int64) error {
	query := fmt.Sprintf(`UPDATE %s SET sort = ? WHERE id = ?`, s.tables.Nodes)

	result, err := s.db.ExecContext(ctx, query, sort, id)
	if err != nil {
		return fmt.Errorf("update sort: %w", err)
	}
	return expectOne(result, id)
}

func (s *NodeStore) UpdateAttributes(ctx context.Context, node *models.Node) error {
	data, err := encodeData(node.Data)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = ?, data = ?, archived_at = ?, updated_at = ?
		WHERE id = ?
	`, s.tables.Nodes)

	result, err := s.db.ExecContext(ctx, query,
		node.Title,
		data,
		encodeTimePtr(node.ArchivedAt),
		encodeTime(node.UpdatedAt),
		node.ID,
	)
	if err != nil {
		return fmt.Errorf("update attributes: %w", err)
	}
	return expectOne(result, node.ID)
}

func (s *NodeStore) ShiftLevels(ctx context.Context, ids []int64, delta int) (int64, error) {
	if len(ids) == 0 || delta == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`
		UPDATE %s SET level = level + ?
		WHERE id IN (SELECT value FROM json_each(?))
	`, s.tables.Nodes)

	result, err := s.db.ExecContext(ctx, query, delta, idList(ids))
	if err != nil {
		return 0, fmt.Errorf("shift levels: %w", err)
	}
	return result.RowsAffected()
}

func (s *NodeStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id IN (SELECT value FROM json_each(?))`, s.tables.Nodes)

	result, err := s.db.ExecContext(ctx, query, idList(ids))
	if err != nil {
		return 0, fmt.Errorf("delete nodes: %w", err)
	}
	return result.RowsAffected()
}

func (s *NodeStore) ListChildren(ctx context.Context, parentID int64, opts repositories.ReadOptions) ([]models.Node, error) {
	q := repositories.NewQuery(repositories.QueryChildren).
		Where("n.parent_id = ?", parentID).
		OrderBy("n.sort", "n.id")
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM %s n`, nodeColumns, s.tables.Nodes), q, opts)
}

func (s *NodeStore) ListByLevel(ctx context.Context, level int, parentID *int64, opts repositories.ReadOptions) ([]models.Node, error) {
	q := repositories.NewQuery(repositories.QueryLevel).Where("n.level = ?", level)
	if parentID != nil {
		q.Where("n.parent_id = ?", *parentID)
	}
	q.OrderBy("n.sort", "n.id")
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM %s n`, nodeColumns, s.tables.Nodes), q, opts)
}

func (s *NodeStore) ListByIDs(ctx context.Context, ids []int64, opts repositories.ReadOptions) ([]models.Node, error) {
	if len(ids) == 0 {
		return []models.Node{}, nil
	}
	q := repositories.NewQuery(repositories.QueryIDs).
		Where("n.id IN (SELECT value FROM json_each(?))", idList(ids)).
		OrderBy("n.level", "n.sort", "n.id")
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM %s n`, nodeColumns, s.tables.Nodes), q, opts)
}

func (s *NodeStore) ListRootIDs(ctx context.Context, opts repositories.ReadOptions) ([]int64, error) {
	q := repositories.NewQuery(repositories.QueryRoots).
		Where("n.parent_id = ?", models.RootID).
		OrderBy("n.sort", "n.id")
	if err := opts.Prepare(q); err != nil {
		return nil, err
	}
	where, orderBy, args := q.Build()
	query := fmt.Sprintf(`SELECT n.id FROM %s n%s%s`, s.tables.Nodes, where, orderBy)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan root: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *NodeStore) CountChildren(ctx context.Context, parentID int64, opts repositories.ReadOptions) (int, error) {
	q := repositories.NewQuery(repositories.QueryCount).Where("n.parent_id = ?", parentID)
	if err := opts.Prepare(q); err != nil {
		return 0, err
	}
	where, _, args := q.Build()
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s n%s`, s.tables.Nodes, where)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}

// FlatTree joins the nodes with the closure rows of id
func (s *NodeStore) FlatTree(ctx context.Context, id int64, dir repositories.Direction, maxLevel *int, opts repositories.ReadOptions) ([]models.Node, error) {
	var (
		join string
		q    *repositories.Query
	)
	switch dir {
	case repositories.Ascending:
		join = "e.parent = n.id"
		q = repositories.NewQuery(repositories.QueryAncestors).Where("e.child = ?", id)
	default:
		join = "e.child = n.id"
		q = repositories.NewQuery(repositories.QueryDescendants).Where("e.parent = ?", id)
	}
	if maxLevel != nil {
		q.Where("n.level <= ?", *maxLevel)
	}
	q.OrderBy("n.level", "n.sort", "n.id")

	base := fmt.Sprintf(`SELECT %s FROM %s n JOIN %s e ON %s`, nodeColumns, s.tables.Nodes, s.tables.Edges, join)
	return s.list(ctx, base, q, opts)
}

// LockGroup is a no-op: the write transaction already holds the database lock
func (s *NodeStore) LockGroup(ctx context.Context, parentID int64) error {
	return nil
}

func (s *NodeStore) list(ctx context.Context, base string, q *repositories.Query, opts repositories.ReadOptions) ([]models.Node, error) {
	if err := opts.Prepare(q); err != nil {
		return nil, err
	}
	where, orderBy, args := q.Build()

	rows, err := s.db.QueryContext(ctx, base+where+orderBy, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes (%s): %w", q.Kind(), err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}
	return nodes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		node               models.Node
		data, archivedAt   sql.NullString
		createdAt, updated string
	)
	if err := row.Scan(
		&node.ID,
		&node.ParentID,
		&node.Level,
		&node.Sort,
		&node.Title,
		&data,
		&archivedAt,
		&createdAt,
		&updated,
	); err != nil {
		return nil, err
	}

	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &node.Data); err != nil {
			return nil, fmt.Errorf("decode data of %d: %w", node.ID, err)
		}
	}
	var err error
	if archivedAt.Valid {
		t, err := decodeTime(archivedAt.String)
		if err != nil {
			return nil, err
		}
		node.ArchivedAt = &t
	}
	if node.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if node.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &node, nil
}

func expectOne(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NodeNotFound(id)
	}
	return nil
}

func encodeData(data map[string]any) (any, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	return string(b), nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", s, err)
	}
	return t, nil
}
