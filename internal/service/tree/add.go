package tree

import (
	"context"
	"time"

	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// AddItem creates a node under req.ParentID. The parent must be visible.
func (s *treeService) AddItem(ctx context.Context, req *treeSvc.AddItemRequest) (*models.Node, error) {
	if err := validateAddRequest(req); err != nil {
		return nil, invalid(err)
	}

	var node *models.Node
	err := s.store.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var parent *models.Node
		if req.ParentID != models.RootID {
			if err := tx.Closure().LockPath(ctx, req.ParentID); err != nil {
				return err
			}
			p, err := tx.Nodes().Get(ctx, req.ParentID, s.visible())
			if err != nil {
				return err
			}
			parent = p
		}

		if err := tx.Nodes().LockGroup(ctx, req.ParentID); err != nil {
			return err
		}
		sort, err := s.sortFor(ctx, tx, req.ParentID, req.TargetID, req.Position)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		node = &models.Node{
			ParentID:  req.ParentID,
			Sort:      sort,
			Title:     req.Title,
			Data:      req.Data,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if parent != nil {
			node.Level = parent.Level + 1
		}
		if err := validatePlacement(node, parent); err != nil {
			return invalid(err)
		}

		if err := tx.Nodes().Create(ctx, node); err != nil {
			return err
		}
		if err := tx.Closure().AddSelfEdge(ctx, node.ID); err != nil {
			return err
		}
		if err := tx.Closure().AttachNewNode(ctx, req.ParentID, node.ID); err != nil {
			return err
		}

		return s.hooks.Fire(ctx, &Event{Point: AfterAdd, Node: node, Tx: tx})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tree item added",
		"id", node.ID,
		"parent_id", node.ParentID,
		"level", node.Level,
		"sort", node.Sort,
	)

	return node, nil
}
