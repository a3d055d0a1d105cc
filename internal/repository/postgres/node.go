package postgres

import (
	"context"
	"encoding/json"
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
	query := fmt.Sprintf(`
		INSERT INTO %s (parent_id, level, sort, title, data, archived_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, s.tables.Nodes)

	err := s.db.QueryRow(ctx, query,
		node.ParentID,
		node.Level,
		node.Sort,
		node.Title,
		jsonOrNil(node.Data),
		node.ArchivedAt,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.ID)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("node '%s': %w", node.Title, domain.ErrConflict)
		}
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
	query := Rebind(fmt.Sprintf(`SELECT %s FROM %s n%s%s`, nodeColumns, s.tables.Nodes, where, orderBy))

	node, err := scanNode(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NodeNotFound(id)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

func (s *NodeStore) UpdatePlacement(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, level = $2, sort = $3, updated_at = $4
		WHERE id = $5
	`, s.tables.Nodes)

	tag, err := s.db.Exec(ctx, query, node.ParentID, node.Level, node.Sort, node.UpdatedAt, node.ID)
	if err != nil {
		return fmt.Errorf("update placement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NodeNotFound(node.ID)
	}
	return nil
}

func (s *NodeStore) UpdateSort(ctx context.Context, id int64, sort int64) error {
	query := fmt.Sprintf(`UPDATE %s SET sort = $1 WHERE id = $2`, s.tables.Nodes)

	tag, err := s.db.Exec(ctx, query, sort, id)
	if err != nil {
		return fmt.Errorf("update sort: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NodeNotFound(id)
	}
	return nil
}

func (s *NodeStore) UpdateAttributes(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, data = $2, archived_at = $3, updated_at = $4
		WHERE id = $5
	`, s.tables.Nodes)

	tag, err := s.db.Exec(ctx, query, node.Title, jsonOrNil(node.Data), node.ArchivedAt, node.UpdatedAt, node.ID)
	if err != nil {
		return fmt.Errorf("update attributes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NodeNotFound(node.ID)
	}
	return nil
}

func (s *NodeStore) ShiftLevels(ctx context.Context, ids []int64, delta int) (int64, error) {
	if len(ids) == 0 || delta == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`UPDATE %s SET level = level + $1 WHERE id = ANY($2)`, s.tables.Nodes)

	tag, err := s.db.Exec(ctx, query, delta, ids)
	if err != nil {
		return 0, fmt.Errorf("shift levels: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *NodeStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.tables.Nodes)

	tag, err := s.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete nodes: %w", err)
	}
	return tag.RowsAffected(), nil
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
		Where("n.id = ANY(?)", ids).
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
	query := Rebind(fmt.Sprintf(`SELECT n.id FROM %s n%s%s`, s.tables.Nodes, where, orderBy))

	rows, err := s.db.Query(ctx, query, args...)
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
	query := Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s n%s`, s.tables.Nodes, where))

	var count int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
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

// LockGroup takes a transaction-scoped advisory lock on the sibling group
func (s *NodeStore) LockGroup(ctx context.Context, parentID int64) error {
	if _, err := s.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, $2))`, s.tables.Nodes, parentID); err != nil {
		return fmt.Errorf("lock group %d: %w", parentID, err)
	}
	return nil
}

func (s *NodeStore) list(ctx context.Context, base string, q *repositories.Query, opts repositories.ReadOptions) ([]models.Node, error) {
	if err := opts.Prepare(q); err != nil {
		return nil, err
	}
	where, orderBy, args := q.Build()

	rows, err := s.db.Query(ctx, Rebind(base+where+orderBy), args...)
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
		node       models.Node
		data       []byte
		archivedAt *time.Time
	)
	if err := row.Scan(
		&node.ID,
		&node.ParentID,
		&node.Level,
		&node.Sort,
		&node.Title,
		&data,
		&archivedAt,
		&node.CreatedAt,
		&node.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &node.Data); err != nil {
			return nil, fmt.Errorf("decode data of %d: %w", node.ID, err)
		}
	}
	node.ArchivedAt = archivedAt
	return &node, nil
}

func jsonOrNil(data map[string]any) any {
	if data == nil {
		return nil
	}
	return data
}
