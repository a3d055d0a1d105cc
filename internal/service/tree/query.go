package tree

import (
	"context"
	"errors"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// Get retrieves a visible node
func (s *treeService) Get(ctx context.Context, id int64) (*models.Node, error) {
	return s.store.View().Nodes().Get(ctx, id, s.visible())
}

// LevelOf returns the level of id whether or not the filter hides it
func (s *treeService) LevelOf(ctx context.Context, id int64) (int, error) {
	node, err := s.store.View().Nodes().Get(ctx, id, repositories.Unfiltered)
	if err != nil {
		return 0, err
	}
	return node.Level, nil
}

func (s *treeService) HasChildren(ctx context.Context, id int64) (bool, error) {
	count, err := s.CountChildren(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *treeService) CountChildren(ctx context.Context, id int64) (int, error) {
	return s.store.View().Nodes().CountChildren(ctx, id, s.visible())
}

// FlattenDescending lists the subtree of id ordered by (level, sort, id)
func (s *treeService) FlattenDescending(ctx context.Context, id int64, depth *int) ([]models.Node, error) {
	view := s.store.View()

	var maxLevel *int
	if depth != nil {
		if *depth < 0 {
			return nil, &domain.ValidationError{Message: "depth: must be no less than 0."}
		}
		start, err := view.Nodes().Get(ctx, id, repositories.Unfiltered)
		if err != nil {
			return nil, err
		}
		limit := start.Level + *depth
		maxLevel = &limit
	}

	nodes, err := view.Nodes().FlatTree(ctx, id, repositories.Descending, maxLevel, s.treeQuery(ctx))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, domain.NodeNotFound(id)
	}
	return nodes, nil
}

// FlattenAscending lists id and its ancestors, top-level node first
func (s *treeService) FlattenAscending(ctx context.Context, id int64) ([]models.Node, error) {
	nodes, err := s.store.View().Nodes().FlatTree(ctx, id, repositories.Ascending, nil, s.treeQuery(ctx))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, domain.NodeNotFound(id)
	}
	return nodes, nil
}

// DescendingTree nests the subtree of id. The subtree root must be visible.
func (s *treeService) DescendingTree(ctx context.Context, id int64, depth *int) (*models.NestedNode, error) {
	flat, err := s.FlattenDescending(ctx, id, depth)
	if err != nil {
		return nil, err
	}
	if flat[0].ID != id {
		return nil, domain.NodeNotFound(id)
	}
	return s.assembler.BuildNested(flat)
}

// AscendingTree nests the ancestor chain of id, from its top-level node down
// to id. Hidden ancestors cut the chain above id.
func (s *treeService) AscendingTree(ctx context.Context, id int64) (*models.NestedNode, error) {
	flat, err := s.FlattenAscending(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assembler.BuildNested(flat)
}

// DescendingForest returns the flat subtree of every visible root
func (s *treeService) DescendingForest(ctx context.Context, depth *int) ([][]models.Node, error) {
	roots, err := s.Roots(ctx)
	if err != nil {
		return nil, err
	}

	forest := make([][]models.Node, 0, len(roots))
	for _, id := range roots {
		flat, err := s.FlattenDescending(ctx, id, depth)
		if err != nil {
			// deleted since Roots ran
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		forest = append(forest, flat)
	}
	return forest, nil
}

// NestedForest returns the nested subtree of every visible root
func (s *treeService) NestedForest(ctx context.Context, depth *int) ([]*models.NestedNode, error) {
	flats, err := s.DescendingForest(ctx, depth)
	if err != nil {
		return nil, err
	}

	forest := make([]*models.NestedNode, 0, len(flats))
	for _, flat := range flats {
		nested, err := s.assembler.BuildNested(flat)
		if err != nil {
			return nil, err
		}
		if nested != nil {
			forest = append(forest, nested)
		}
	}
	return forest, nil
}

// Roots lists the ids of visible top-level nodes in sibling order
func (s *treeService) Roots(ctx context.Context) ([]int64, error) {
	return s.store.View().Nodes().ListRootIDs(ctx, s.visible())
}

// ItemsByLevel lists visible nodes on level, optionally under parentID
func (s *treeService) ItemsByLevel(ctx context.Context, level int, parentID *int64) ([]models.Node, error) {
	if level < 0 {
		return nil, &domain.ValidationError{Message: "level: must be no less than 0."}
	}
	return s.store.View().Nodes().ListByLevel(ctx, level, parentID, s.visible())
}
