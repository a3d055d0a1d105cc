package tree

import (
	"context"
	"fmt"

	"sortabletree/internal/config"
	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// GapSequencer spaces siblings gap apart and inserts between two neighbours
// at their midpoint. When the neighbours are adjacent the whole group is
// renumbered to (i+1)*gap first.
type GapSequencer struct {
	gap int64
}

// NewGapSequencer creates a sequencer. A gap below 2 leaves no room for a
// midpoint and falls back to config.DefaultSortGap.
func NewGapSequencer(gap int64) treeSvc.Sequencer {
	if gap < 2 {
		gap = config.DefaultSortGap
	}
	return &GapSequencer{gap: gap}
}

// SortAfterAll returns last+gap, or gap for an empty group
func (g *GapSequencer) SortAfterAll(ctx context.Context, tx repositories.Tx, groupID int64) (int64, error) {
	siblings, err := tx.Nodes().ListChildren(ctx, groupID, repositories.Unfiltered)
	if err != nil {
		return 0, err
	}
	if len(siblings) == 0 {
		return g.gap, nil
	}
	return siblings[len(siblings)-1].Sort + g.gap, nil
}

// SortRelative returns a value right before or after targetID
func (g *GapSequencer) SortRelative(ctx context.Context, tx repositories.Tx, targetID int64, position models.Position, groupID int64) (int64, error) {
	siblings, err := tx.Nodes().ListChildren(ctx, groupID, repositories.Unfiltered)
	if err != nil {
		return 0, err
	}

	idx := -1
	for i := range siblings {
		if siblings[i].ID == targetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, &domain.NotFoundError{Resource: fmt.Sprintf("sibling under %d", groupID), ID: targetID}
	}

	sort, ok := g.between(siblings, idx, position)
	if ok {
		return sort, nil
	}

	// neighbours are adjacent: spread the group out and try again
	for i := range siblings {
		want := int64(i+1) * g.gap
		if siblings[i].Sort == want {
			continue
		}
		if err := tx.Nodes().UpdateSort(ctx, siblings[i].ID, want); err != nil {
			return 0, fmt.Errorf("renumber group %d: %w", groupID, err)
		}
		siblings[i].Sort = want
	}

	sort, _ = g.between(siblings, idx, position)
	return sort, nil
}

// between computes the slot next to siblings[idx]. ok is false when the two
// neighbours leave no integer strictly between them.
func (g *GapSequencer) between(siblings []models.Node, idx int, position models.Position) (int64, bool) {
	var lo, hi int64
	if position == models.PositionBefore {
		hi = siblings[idx].Sort
		if idx == 0 {
			return hi - g.gap, true
		}
		lo = siblings[idx-1].Sort
	} else {
		lo = siblings[idx].Sort
		if idx == len(siblings)-1 {
			return lo + g.gap, true
		}
		hi = siblings[idx+1].Sort
	}
	if hi-lo < 2 {
		return 0, false
	}
	return lo + (hi-lo)/2, true
}
