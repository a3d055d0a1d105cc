package tree

import (
	"context"
	"time"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// MoveTo reparents req.ID with its whole subtree. Moving to models.RootID
// makes it a top-level node.
func (s *treeService) MoveTo(ctx context.Context, req *treeSvc.MoveRequest) (*models.Node, error) {
	if err := validateMoveRequest(req); err != nil {
		return nil, invalid(err)
	}

	var (
		moved     *models.Node
		oldParent int64
	)
	err := s.store.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Closure().LockSubtree(ctx, req.ID, req.NewParentID); err != nil {
			return err
		}

		node, err := tx.Nodes().Get(ctx, req.ID, repositories.Unfiltered)
		if err != nil {
			return err
		}
		var parent *models.Node
		if req.NewParentID != models.RootID {
			if parent, err = tx.Nodes().Get(ctx, req.NewParentID, s.visible()); err != nil {
				return err
			}
		}

		subtree, err := tx.Closure().Descendants(ctx, req.ID)
		if err != nil {
			return err
		}
		if subtree.Contains(req.NewParentID) {
			return &domain.InvalidMoveError{ID: req.ID, NewParentID: req.NewParentID}
		}

		if err := tx.Nodes().LockGroup(ctx, req.NewParentID); err != nil {
			return err
		}
		sort, err := s.sortFor(ctx, tx, req.NewParentID, req.TargetID, req.Position)
		if err != nil {
			return err
		}

		before := *node
		if err := s.hooks.Fire(ctx, &Event{
			Point:       BeforeMove,
			Node:        &before,
			NewParentID: req.NewParentID,
			TargetID:    req.TargetID,
			Position:    req.Position,
			Tx:          tx,
		}); err != nil {
			return err
		}

		if err := tx.Closure().Reparent(ctx, req.ID, req.NewParentID); err != nil {
			return err
		}

		oldParent = node.ParentID
		node.ParentID = req.NewParentID
		node.Sort = sort
		node.UpdatedAt = time.Now().UTC()
		if err := tx.Nodes().UpdatePlacement(ctx, node); err != nil {
			return err
		}

		newLevel := 0
		if parent != nil {
			newLevel = parent.Level + 1
		}
		if delta := newLevel - node.Level; delta != 0 {
			members := subtree.Sorted()
			shifted, err := tx.Nodes().ShiftLevels(ctx, members, delta)
			if err != nil {
				return err
			}
			if shifted != int64(len(members)) {
				return &domain.InconsistentError{Op: "shift levels", Expected: len(members), Affected: shifted}
			}
			node.Level = newLevel
		}
		if err := validatePlacement(node, parent); err != nil {
			return invalid(err)
		}

		moved = node
		return s.hooks.Fire(ctx, &Event{
			Point:            AfterMove,
			Node:             node,
			PreviousParentID: oldParent,
			Tx:               tx,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tree item moved",
		"id", moved.ID,
		"from_parent_id", oldParent,
		"parent_id", moved.ParentID,
		"level", moved.Level,
		"sort", moved.Sort,
	)

	return moved, nil
}
