package repositories

import (
	"context"

	"sortabletree/internal/domain/models"
)

// Direction selects the side of the closure relation a flat tree read follows.
type Direction string

const (
	Descending Direction = "descending" // the node and everything below it
	Ascending  Direction = "ascending"  // the node and everything above it
)

// LockMode is the strength of a row lock.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// NodeStore defines data access operations for tree nodes
type NodeStore interface {
	// Create inserts a node and fills in its ID and timestamps
	Create(ctx context.Context, node *models.Node) error

	// Get retrieves a node by ID
	Get(ctx context.Context, id int64, opts ReadOptions) (*models.Node, error)

	// UpdatePlacement writes parent_id, level and sort
	UpdatePlacement(ctx context.Context, node *models.Node) error

	// UpdateSort writes the sort value of one node
	UpdateSort(ctx context.Context, id int64, sort int64) error

	// UpdateAttributes writes title, data and archived_at
	UpdateAttributes(ctx context.Context, node *models.Node) error

	// ShiftLevels adds delta to the level of every listed node
	ShiftLevels(ctx context.Context, ids []int64, delta int) (int64, error)

	// DeleteByIDs deletes node rows and reports how many were removed
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)

	// ListChildren lists direct children ordered by (sort, id)
	ListChildren(ctx context.Context, parentID int64, opts ReadOptions) ([]models.Node, error)

	// ListByLevel lists nodes on one level, optionally under one parent
	ListByLevel(ctx context.Context, level int, parentID *int64, opts ReadOptions) ([]models.Node, error)

	// ListByIDs lists the given nodes ordered by (level, sort, id)
	ListByIDs(ctx context.Context, ids []int64, opts ReadOptions) ([]models.Node, error)

	// ListRootIDs lists the ids of top-level nodes ordered by (sort, id)
	ListRootIDs(ctx context.Context, opts ReadOptions) ([]int64, error)

	// CountChildren counts direct children
	CountChildren(ctx context.Context, parentID int64, opts ReadOptions) (int, error)

	// FlatTree joins nodes with the closure relation of id and returns the
	// rows ordered by (level, sort, id). maxLevel, when set, bounds the level
	// of the returned nodes.
	FlatTree(ctx context.Context, id int64, dir Direction, maxLevel *int, opts ReadOptions) ([]models.Node, error)

	// LockGroup serialises writers that compute sort values for one sibling group
	LockGroup(ctx context.Context, parentID int64) error
}

// EdgeStore is the backend primitive behind ClosureStore
type EdgeStore interface {
	// Ancestors returns every a with an edge (a, id)
	Ancestors(ctx context.Context, id int64) (models.IDSet, error)

	// Descendants returns every d with an edge (id, d)
	Descendants(ctx context.Context, id int64) (models.IDSet, error)

	// InsertEdges inserts the cross product ancestors x descendants, skipping
	// pairs that already exist
	InsertEdges(ctx context.Context, ancestors, descendants []int64) error

	// DeleteEdges deletes the cross product ancestors x descendants
	DeleteEdges(ctx context.Context, ancestors, descendants []int64) (int64, error)

	// DeleteByDescendants deletes every edge whose descendant side is listed
	DeleteByDescendants(ctx context.Context, ids []int64) (int64, error)

	// Lock row-locks the listed nodes in ascending id order
	Lock(ctx context.Context, ids []int64, mode LockMode) error
}

// ClosureStore maintains the ancestor/descendant relation
type ClosureStore interface {
	// Ancestors returns the ancestors of id, id included. RootID has none.
	Ancestors(ctx context.Context, id int64) (models.IDSet, error)

	// Descendants returns the subtree of id, id included
	Descendants(ctx context.Context, id int64) (models.IDSet, error)

	// AddSelfEdge inserts (id, id)
	AddSelfEdge(ctx context.Context, id int64) error

	// AttachNewNode links a fresh node to every ancestor of its parent
	AttachNewNode(ctx context.Context, parentID, childID int64) error

	// Reparent rewrites the edges of the subtree of childID so that it hangs
	// below newParentID
	Reparent(ctx context.Context, childID, newParentID int64) error

	// DetachSubtree deletes every edge whose descendant lies in the subtree
	// of id and returns that subtree
	DetachSubtree(ctx context.Context, id int64) (models.IDSet, error)

	// LockSubtree locks the subtree of id exclusively and the ancestors of
	// id and newParentID in shared mode
	LockSubtree(ctx context.Context, id, newParentID int64) error

	// LockPath locks id and its ancestors in shared mode
	LockPath(ctx context.Context, id int64) error
}
