package tree

import (
	"errors"
	"fmt"
	"log/slog"

	"sortabletree/internal/domain/models"
)

// ErrMalformedTree is returned when a flat listing does not describe a tree,
// for example because it repeats a node or its parent links form a cycle.
var ErrMalformedTree = errors.New("malformed tree")

// Assembler turns flat subtree listings into nested trees
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler that reports malformed input to logger
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// BuildNested nests flat under its first element. flat must be ordered by
// (level, sort) so that children come out in sibling order. Nodes whose
// parent is missing from flat (hidden by a filter, say) are dropped.
// Empty input yields nil, nil.
//
// The traversal is bounded by n*n + n + 1 steps; running out, or reaching a
// node twice, yields ErrMalformedTree.
func (a *Assembler) BuildNested(flat []models.Node) (*models.NestedNode, error) {
	n := len(flat)
	if n == 0 {
		return nil, nil
	}

	nested := make([]*models.NestedNode, n)
	children := make(map[int64][]*models.NestedNode, n)
	for i := range flat {
		nested[i] = &models.NestedNode{Node: flat[i]}
		if i > 0 {
			children[flat[i].ParentID] = append(children[flat[i].ParentID], nested[i])
		}
	}

	budget := n*n + n + 1
	visited := make(map[int64]struct{}, n)
	stack := []*models.NestedNode{nested[0]}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if budget--; budget < 0 {
			return nil, a.malformed(flat[0].ID, n, "work budget exhausted")
		}
		if _, seen := visited[cur.ID]; seen {
			return nil, a.malformed(flat[0].ID, n, fmt.Sprintf("node %d reached twice", cur.ID))
		}
		visited[cur.ID] = struct{}{}

		for _, child := range children[cur.ID] {
			if budget--; budget < 0 {
				return nil, a.malformed(flat[0].ID, n, "work budget exhausted")
			}
			cur.Children = append(cur.Children, child)
			stack = append(stack, child)
		}
	}

	return nested[0], nil
}

func (a *Assembler) malformed(rootID int64, size int, reason string) error {
	a.logger.Warn("malformed tree listing",
		"root_id", rootID,
		"nodes", size,
		"reason", reason,
	)
	return fmt.Errorf("%w: root %d: %s", ErrMalformedTree, rootID, reason)
}

// Preorder lists a nested tree depth first, parents before children and
// siblings in order.
func Preorder(root *models.NestedNode) []models.Node {
	if root == nil {
		return nil
	}
	var out []models.Node
	stack := []*models.NestedNode{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.Node)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}
