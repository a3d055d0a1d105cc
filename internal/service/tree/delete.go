package tree

import (
	"context"
	"slices"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// DeleteRecursive deletes id and everything below it. BeforeDelete listeners
// may rewrite the id set; if they empty it nothing is deleted.
func (s *treeService) DeleteRecursive(ctx context.Context, id int64) (int, error) {
	var deleted int
	err := s.store.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Closure().LockSubtree(ctx, id, models.RootID); err != nil {
			return err
		}

		node, err := tx.Nodes().Get(ctx, id, repositories.Unfiltered)
		if err != nil {
			return err
		}
		subtree, err := tx.Closure().Descendants(ctx, id)
		if err != nil {
			return err
		}
		if subtree.Len() == 0 {
			return domain.NodeNotFound(id)
		}

		// subtree root first, the rest ascending
		ids := slices.DeleteFunc(subtree.Sorted(), func(v int64) bool { return v == id })
		ids = append([]int64{id}, ids...)

		ev := &Event{Point: BeforeDelete, Node: node, IDs: ids, Tx: tx}
		if err := s.hooks.Fire(ctx, ev); err != nil {
			return err
		}
		ids = ev.IDs
		if len(ids) == 0 {
			return nil
		}

		affected, err := tx.Nodes().DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if affected != int64(len(ids)) {
			return &domain.InconsistentError{Op: "delete", Expected: len(ids), Affected: affected}
		}

		if _, err := tx.Closure().DetachSubtree(ctx, id); err != nil {
			return err
		}

		deleted = len(ids)
		return s.hooks.Fire(ctx, &Event{Point: AfterDelete, Node: node, IDs: ids, Deleted: deleted, Tx: tx})
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("tree item deleted",
		"id", id,
		"deleted", deleted,
	)

	return deleted, nil
}
