package models

import (
	"fmt"
	"time"
)

// RootID is the parent value of top-level nodes.
const RootID int64 = 0

// Node is one record of the hierarchy.
type Node struct {
	ID         int64          `json:"id" db:"id"`
	ParentID   int64          `json:"parent_id" db:"parent_id"` // RootID = top level
	Level      int            `json:"level" db:"level"`
	Sort       int64          `json:"sort" db:"sort"`
	Title      string         `json:"title" db:"title"`
	Data       map[string]any `json:"data,omitempty" db:"data"`
	ArchivedAt *time.Time     `json:"archived_at,omitempty" db:"archived_at"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the node sits at the top of a tree.
func (n *Node) IsRoot() bool {
	return n.ParentID == RootID
}

// Edge is one row of the closure relation: Ancestor is an ancestor of, or
// equal to, Descendant.
type Edge struct {
	Ancestor   int64 `json:"ancestor" db:"parent"`
	Descendant int64 `json:"descendant" db:"child"`
}

// NestedNode is a node with its direct children attached, in sibling order.
type NestedNode struct {
	Node
	Children []*NestedNode `json:"children,omitempty"` // Pointers for proper nesting
}

// Position says where a node goes relative to a target sibling.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

// ParsePosition accepts "before" and "after"; the empty string is PositionAfter.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case PositionBefore:
		return PositionBefore, nil
	case PositionAfter, "":
		return PositionAfter, nil
	default:
		return "", fmt.Errorf("unknown position %q", s)
	}
}
