package tree

import (
	"context"
	"time"

	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// UpdateAttributes changes title, data or archived state. Placement is left
// untouched; archived nodes stay in the tree but drop out of filtered reads.
func (s *treeService) UpdateAttributes(ctx context.Context, id int64, req *treeSvc.UpdateAttributesRequest) (*models.Node, error) {
	if err := validateUpdateRequest(req); err != nil {
		return nil, invalid(err)
	}

	var node *models.Node
	err := s.store.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		n, err := tx.Nodes().Get(ctx, id, repositories.Unfiltered)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if req.Title != nil {
			n.Title = *req.Title
		}
		if req.Data != nil {
			n.Data = req.Data
		}
		if req.Archived != nil {
			switch {
			case *req.Archived && n.ArchivedAt == nil:
				n.ArchivedAt = &now
			case !*req.Archived:
				n.ArchivedAt = nil
			}
		}
		n.UpdatedAt = now

		if err := tx.Nodes().UpdateAttributes(ctx, n); err != nil {
			return err
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tree item updated",
		"id", node.ID,
		"title", node.Title,
		"archived", node.ArchivedAt != nil,
	)

	return node, nil
}
