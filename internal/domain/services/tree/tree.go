package tree

import (
	"context"

	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// TreeService maintains the hierarchy. It is the only writer of parent_id,
// level, sort and of the closure relation; every mutation is one transaction.
type TreeService interface {
	// AddItem creates a node under req.ParentID, after every sibling or next to req.TargetID
	AddItem(ctx context.Context, req *AddItemRequest) (*models.Node, error)

	// MoveTo reparents a node together with its subtree
	MoveTo(ctx context.Context, req *MoveRequest) (*models.Node, error)

	// DeleteRecursive deletes a node and its subtree, returning the number of deleted nodes
	DeleteRecursive(ctx context.Context, id int64) (int, error)

	// UpdateAttributes changes title, data or archived state
	UpdateAttributes(ctx context.Context, id int64, req *UpdateAttributesRequest) (*models.Node, error)

	// Get retrieves a visible node
	Get(ctx context.Context, id int64) (*models.Node, error)

	// LevelOf returns the depth of a node, hidden or not
	LevelOf(ctx context.Context, id int64) (int, error)

	// HasChildren reports whether a node has visible direct children
	HasChildren(ctx context.Context, id int64) (bool, error)

	// CountChildren counts visible direct children
	CountChildren(ctx context.Context, id int64) (int, error)

	// FlattenDescending lists the subtree of id ordered by (level, sort, id).
	// depth, when set, keeps nodes at most depth levels below id.
	FlattenDescending(ctx context.Context, id int64, depth *int) ([]models.Node, error)

	// FlattenAscending lists id and its ancestors ordered by (level, sort, id)
	FlattenAscending(ctx context.Context, id int64) ([]models.Node, error)

	// DescendingTree is FlattenDescending assembled into a nested tree
	DescendingTree(ctx context.Context, id int64, depth *int) (*models.NestedNode, error)

	// AscendingTree is FlattenAscending assembled into a chain from the top-level node down to id
	AscendingTree(ctx context.Context, id int64) (*models.NestedNode, error)

	// DescendingForest returns one flat tree per visible root, in root order
	DescendingForest(ctx context.Context, depth *int) ([][]models.Node, error)

	// NestedForest returns one nested tree per visible root, in root order
	NestedForest(ctx context.Context, depth *int) ([]*models.NestedNode, error)

	// Roots lists the ids of visible top-level nodes
	Roots(ctx context.Context) ([]int64, error)

	// ItemsByLevel lists visible nodes on one level, optionally under one parent
	ItemsByLevel(ctx context.Context, level int, parentID *int64) ([]models.Node, error)
}

// Sequencer computes sort values inside a sibling group. It always runs with
// the unit of work of the write it orders.
type Sequencer interface {
	// SortAfterAll returns a value greater than every sort in the group
	SortAfterAll(ctx context.Context, tx repositories.Tx, groupID int64) (int64, error)

	// SortRelative returns a value placing a node right before or after targetID
	SortRelative(ctx context.Context, tx repositories.Tx, targetID int64, position models.Position, groupID int64) (int64, error)
}

// AddItemRequest represents a node creation request
type AddItemRequest struct {
	ParentID int64           `json:"parent_id"`           // 0 for a top-level node
	TargetID *int64          `json:"target_id,omitempty"` // sibling to insert next to; nil appends
	Position models.Position `json:"position,omitempty"`
	Title    string          `json:"title"`
	Data     map[string]any  `json:"data,omitempty"`
}

// MoveRequest represents a reparent request
type MoveRequest struct {
	ID          int64           `json:"-"`
	NewParentID int64           `json:"parent_id"`
	TargetID    *int64          `json:"target_id,omitempty"`
	Position    models.Position `json:"position,omitempty"`
}

// UpdateAttributesRequest represents a partial attribute update
type UpdateAttributesRequest struct {
	Title    *string        `json:"title,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Archived *bool          `json:"archived,omitempty"`
}
