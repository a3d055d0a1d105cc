package tree

import (
	"context"
	"log/slog"

	"sortabletree/internal/config"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// treeService implements the TreeService interface
type treeService struct {
	store     repositories.TransactionManager
	sequencer treeSvc.Sequencer
	hooks     *Hooks
	filter    repositories.Filter
	assembler *Assembler
	logger    *slog.Logger
}

// NewTreeService creates a new tree service.
//
// sequencer defaults to a GapSequencer with config.DefaultSortGap, hooks to an
// empty registry. A nil filter shows every node.
func NewTreeService(
	store repositories.TransactionManager,
	sequencer treeSvc.Sequencer,
	hooks *Hooks,
	filter repositories.Filter,
	logger *slog.Logger,
) treeSvc.TreeService {
	if sequencer == nil {
		sequencer = NewGapSequencer(config.DefaultSortGap)
	}
	if hooks == nil {
		hooks = NewHooks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &treeService{
		store:     store,
		sequencer: sequencer,
		hooks:     hooks,
		filter:    filter,
		assembler: NewAssembler(logger),
		logger:    logger,
	}
}

// visible narrows reads with the service filter
func (s *treeService) visible() repositories.ReadOptions {
	return repositories.ReadOptions{Filter: s.filter}
}

// treeQuery is visible plus the BeforeTreeQuery hook
func (s *treeService) treeQuery(ctx context.Context) repositories.ReadOptions {
	return repositories.ReadOptions{
		Filter: s.filter,
		BeforeQuery: func(q *repositories.Query) error {
			return s.hooks.Fire(ctx, &Event{Point: BeforeTreeQuery, Query: q})
		},
	}
}

// sortFor asks the sequencer for a slot in group, next to target when one is given
func (s *treeService) sortFor(ctx context.Context, tx repositories.Tx, group int64, target *int64, position models.Position) (int64, error) {
	if target == nil {
		return s.sequencer.SortAfterAll(ctx, tx, group)
	}
	if position == "" {
		position = models.PositionAfter
	}
	return s.sequencer.SortRelative(ctx, tx, *target, position, group)
}
