// Package closure maintains a closure table: for every node one row (a, d) per
// ancestor a of d, the node itself included. The algorithm is shared by all
// backends; each backend only supplies an EdgeStore.
package closure

import (
	"context"
	"fmt"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// Closure implements repositories.ClosureStore on top of an EdgeStore
type Closure struct {
	edges repositories.EdgeStore
}

// New creates a closure store
func New(edges repositories.EdgeStore) repositories.ClosureStore {
	return &Closure{edges: edges}
}

// Ancestors returns the ancestors of id, id included
func (c *Closure) Ancestors(ctx context.Context, id int64) (models.IDSet, error) {
	if id == models.RootID {
		return models.NewIDSet(), nil
	}
	set, err := c.edges.Ancestors(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ancestors of %d: %w", id, err)
	}
	return set, nil
}

// Descendants returns the subtree of id, id included
func (c *Closure) Descendants(ctx context.Context, id int64) (models.IDSet, error) {
	if id == models.RootID {
		return models.NewIDSet(), nil
	}
	set, err := c.edges.Descendants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("descendants of %d: %w", id, err)
	}
	return set, nil
}

func (c *Closure) AddSelfEdge(ctx context.Context, id int64) error {
	if err := c.edges.InsertEdges(ctx, []int64{id}, []int64{id}); err != nil {
		return fmt.Errorf("self edge %d: %w", id, err)
	}
	return nil
}

// AttachNewNode links childID to every ancestor of parentID. A top-level
// node gets no extra edges.
func (c *Closure) AttachNewNode(ctx context.Context, parentID, childID int64) error {
	if parentID == models.RootID {
		return nil
	}
	ancestors, err := c.Ancestors(ctx, parentID)
	if err != nil {
		return err
	}
	if ancestors.Len() == 0 {
		// a live node always has its self edge
		return domain.NodeNotFound(parentID)
	}
	if err := c.edges.InsertEdges(ctx, ancestors.Sorted(), []int64{childID}); err != nil {
		return fmt.Errorf("attach %d to %d: %w", childID, parentID, err)
	}
	return nil
}

// Reparent moves the subtree of childID below newParentID. Edges from
// ancestors the subtree keeps are left in place; edges from ancestors it
// loses are deleted; edges from the new ancestors are inserted if absent.
func (c *Closure) Reparent(ctx context.Context, childID, newParentID int64) error {
	subtree, err := c.Descendants(ctx, childID)
	if err != nil {
		return err
	}
	if subtree.Len() == 0 {
		return domain.NodeNotFound(childID)
	}
	if subtree.Contains(newParentID) {
		return &domain.InvalidMoveError{ID: childID, NewParentID: newParentID}
	}

	oldAncestors, err := c.Ancestors(ctx, childID)
	if err != nil {
		return err
	}
	newAncestors, err := c.Ancestors(ctx, newParentID)
	if err != nil {
		return err
	}
	newAncestors.Add(childID)

	members := subtree.Sorted()
	if obsolete := oldAncestors.Minus(newAncestors); obsolete.Len() > 0 {
		if _, err := c.edges.DeleteEdges(ctx, obsolete.Sorted(), members); err != nil {
			return fmt.Errorf("drop old ancestors of %d: %w", childID, err)
		}
	}
	if err := c.edges.InsertEdges(ctx, newAncestors.Sorted(), members); err != nil {
		return fmt.Errorf("link new ancestors of %d: %w", childID, err)
	}
	return nil
}

// DetachSubtree deletes every edge whose descendant side lies in the subtree
// of id and returns that subtree.
func (c *Closure) DetachSubtree(ctx context.Context, id int64) (models.IDSet, error) {
	subtree, err := c.Descendants(ctx, id)
	if err != nil {
		return nil, err
	}
	if subtree.Len() == 0 {
		return subtree, nil
	}
	if _, err := c.edges.DeleteByDescendants(ctx, subtree.Sorted()); err != nil {
		return nil, fmt.Errorf("detach subtree %d: %w", id, err)
	}
	return subtree, nil
}

// LockSubtree takes the row locks a move of id below newParentID (or a
// delete of id, with newParentID = RootID) needs: the subtree exclusively,
// the current and future ancestors shared.
func (c *Closure) LockSubtree(ctx context.Context, id, newParentID int64) error {
	subtree, err := c.Descendants(ctx, id)
	if err != nil {
		return err
	}
	oldAncestors, err := c.Ancestors(ctx, id)
	if err != nil {
		return err
	}
	newAncestors, err := c.Ancestors(ctx, newParentID)
	if err != nil {
		return err
	}
	if err := c.edges.Lock(ctx, subtree.Sorted(), repositories.LockExclusive); err != nil {
		return fmt.Errorf("lock subtree %d: %w", id, err)
	}
	shared := oldAncestors.Union(newAncestors).Minus(subtree)
	if err := c.edges.Lock(ctx, shared.Sorted(), repositories.LockShared); err != nil {
		return fmt.Errorf("lock ancestors of %d: %w", id, err)
	}
	return nil
}

// LockPath locks id and its ancestors in shared mode
func (c *Closure) LockPath(ctx context.Context, id int64) error {
	path, err := c.Ancestors(ctx, id)
	if err != nil {
		return err
	}
	if err := c.edges.Lock(ctx, path.Sorted(), repositories.LockShared); err != nil {
		return fmt.Errorf("lock path of %d: %w", id, err)
	}
	return nil
}
