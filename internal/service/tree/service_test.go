package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// scenario builds
//
//	N1
//	├── N2
//	├── N4
//	├── N5
//	│   └── N6
//	└── N3
type scenario struct {
	n1, n2, n3, n4, n5, n6 *models.Node
}

func buildScenario(t *testing.T, f *fixture) scenario {
	t.Helper()
	var s scenario
	s.n1 = f.add(t, models.RootID, "N1")
	s.n2 = f.add(t, s.n1.ID, "N2")
	s.n3 = f.add(t, s.n1.ID, "N3")
	s.n4 = f.addAt(t, s.n1.ID, s.n3.ID, models.PositionBefore, "N4")
	s.n5 = f.addAt(t, s.n1.ID, s.n4.ID, models.PositionAfter, "N5")
	s.n6 = f.add(t, s.n5.ID, "N6")
	return s
}

func TestScenarioA_AddAndFlatten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	assert.Equal(t, int64(1000), s.n1.Sort)
	assert.Equal(t, int64(1000), s.n2.Sort)
	assert.Equal(t, int64(2000), s.n3.Sort)
	assert.Equal(t, int64(1500), s.n4.Sort)
	assert.Equal(t, int64(1750), s.n5.Sort)
	assert.Equal(t, int64(1000), s.n6.Sort)
	assert.Equal(t, 2, s.n6.Level)

	flat, err := f.service.FlattenDescending(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	// breadth ordered by (level, sort, id)
	assert.Equal(t, []int64{s.n1.ID, s.n2.ID, s.n4.ID, s.n5.ID, s.n3.ID, s.n6.ID}, idsOf(flat))

	nested, err := f.service.DescendingTree(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n2.ID, s.n4.ID, s.n5.ID, s.n3.ID}, childIDs(nested))
	assert.Equal(t, []int64{s.n6.ID}, childIDs(nested.Children[2]))
	// depth first
	assert.Equal(t, []int64{s.n1.ID, s.n2.ID, s.n4.ID, s.n5.ID, s.n6.ID, s.n3.ID}, idsOf(Preorder(nested)))

	f.assertTreeInvariants(t)
}

func TestScenarioB_Move(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	moved, err := f.service.MoveTo(ctx, &treeSvc.MoveRequest{ID: s.n5.ID, NewParentID: s.n3.ID})
	require.NoError(t, err)
	assert.Equal(t, s.n3.ID, moved.ParentID)
	assert.Equal(t, 2, moved.Level)
	assert.Equal(t, int64(1000), moved.Sort)

	anc, err := f.store.View().Closure().Ancestors(ctx, s.n6.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n1.ID, s.n3.ID, s.n5.ID, s.n6.ID}, anc.Sorted())

	assert.Equal(t, 2, f.node(t, s.n5.ID).Level)
	assert.Equal(t, 3, f.node(t, s.n6.ID).Level)

	nested, err := f.service.DescendingTree(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n2.ID, s.n4.ID, s.n3.ID}, childIDs(nested))
	assert.Equal(t, []int64{s.n5.ID}, childIDs(nested.Children[2]))
	assert.Equal(t, []int64{s.n6.ID}, childIDs(nested.Children[2].Children[0]))

	f.assertTreeInvariants(t)
}

func TestScenarioC_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	_, err := f.service.MoveTo(ctx, &treeSvc.MoveRequest{ID: s.n5.ID, NewParentID: s.n3.ID})
	require.NoError(t, err)

	deleted, err := f.service.DeleteRecursive(ctx, s.n5.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	flat, err := f.service.FlattenDescending(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n1.ID, s.n2.ID, s.n4.ID, s.n3.ID}, idsOf(flat))

	for _, id := range []int64{s.n5.ID, s.n6.ID} {
		_, err := f.service.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		desc, err := f.store.View().Closure().Descendants(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, desc.Len(), "edges of %d", id)
	}

	_, err = f.service.DeleteRecursive(ctx, s.n5.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.assertTreeInvariants(t)
}

func TestMoveTo_IntoOwnSubtreeLeavesRowsUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	before := f.allNodes(t)
	edgesBefore, err := f.store.View().Closure().Descendants(ctx, s.n1.ID)
	require.NoError(t, err)

	for _, target := range []int64{s.n5.ID, s.n6.ID} {
		_, err := f.service.MoveTo(ctx, &treeSvc.MoveRequest{ID: s.n5.ID, NewParentID: target})
		assert.ErrorIs(t, err, domain.ErrInvalidMove)
	}

	assert.Equal(t, before, f.allNodes(t))
	edgesAfter, err := f.store.View().Closure().Descendants(ctx, s.n1.ID)
	require.NoError(t, err)
	assert.Equal(t, edgesBefore.Sorted(), edgesAfter.Sorted())
	f.assertTreeInvariants(t)
}

func TestMoveTo_Root(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	moved, err := f.service.MoveTo(ctx, &treeSvc.MoveRequest{ID: s.n5.ID, NewParentID: models.RootID})
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Level)
	assert.Equal(t, int64(2000), moved.Sort)
	assert.Equal(t, 1, f.node(t, s.n6.ID).Level)

	roots, err := f.service.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n1.ID, s.n5.ID}, roots)

	f.assertTreeInvariants(t)
}

func TestMoveTo_RelativeToSibling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	// N6 up beside its grandparent's children, right before N2
	moved, err := f.service.MoveTo(ctx, &treeSvc.MoveRequest{
		ID:          s.n6.ID,
		NewParentID: s.n1.ID,
		TargetID:    &s.n2.ID,
		Position:    models.PositionBefore,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Level)
	assert.Equal(t, int64(0), moved.Sort)

	nested, err := f.service.DescendingTree(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n6.ID, s.n2.ID, s.n4.ID, s.n5.ID, s.n3.ID}, childIDs(nested))
	f.assertTreeInvariants(t)
}

func TestMoveTo_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	tests := []struct {
		name    string
		req     *treeSvc.MoveRequest
		wantErr error
	}{
		{
			name:    "missing node",
			req:     &treeSvc.MoveRequest{ID: 999, NewParentID: s.n1.ID},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "missing parent",
			req:     &treeSvc.MoveRequest{ID: s.n2.ID, NewParentID: 999},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "onto itself",
			req:     &treeSvc.MoveRequest{ID: s.n2.ID, NewParentID: s.n2.ID},
			wantErr: domain.ErrInvalidMove,
		},
		{
			name:    "relative to itself",
			req:     &treeSvc.MoveRequest{ID: s.n2.ID, NewParentID: s.n1.ID, TargetID: &s.n2.ID},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "target outside the group",
			req:     &treeSvc.MoveRequest{ID: s.n2.ID, NewParentID: s.n1.ID, TargetID: &s.n6.ID},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown position",
			req:     &treeSvc.MoveRequest{ID: s.n2.ID, NewParentID: s.n1.ID, TargetID: &s.n3.ID, Position: "inside"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing id",
			req:     &treeSvc.MoveRequest{NewParentID: s.n1.ID},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.MoveTo(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	f.assertTreeInvariants(t)
}

func TestAddItem_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.add(t, models.RootID, "root")

	tests := []struct {
		name    string
		req     *treeSvc.AddItemRequest
		wantErr error
	}{
		{
			name:    "empty title",
			req:     &treeSvc.AddItemRequest{ParentID: root.ID},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "negative parent",
			req:     &treeSvc.AddItemRequest{ParentID: -1, Title: "x"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing parent",
			req:     &treeSvc.AddItemRequest{ParentID: 999, Title: "x"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "target in another group",
			req:     &treeSvc.AddItemRequest{ParentID: models.RootID, TargetID: ptr(int64(999)), Title: "x"},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.AddItem(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Len(t, f.allNodes(t), 1)
}

func TestAddItem_UnderArchivedParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.add(t, models.RootID, "root")

	_, err := f.service.UpdateAttributes(ctx, root.ID, &treeSvc.UpdateAttributesRequest{Archived: ptr(true)})
	require.NoError(t, err)

	_, err = f.service.AddItem(ctx, &treeSvc.AddItemRequest{ParentID: root.ID, Title: "child"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRecursive_Hooks(t *testing.T) {
	t.Run("listener rewrites the id set", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		s := buildScenario(t, f)

		var seen []int64
		f.hooks.On(BeforeDelete, func(ctx context.Context, e *Event) error {
			seen = append([]int64(nil), e.IDs...)
			e.IDs = []int64{s.n6.ID}
			return nil
		})

		deleted, err := f.service.DeleteRecursive(ctx, s.n6.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		assert.Equal(t, []int64{s.n6.ID}, seen)
		f.assertTreeInvariants(t)
	})

	t.Run("subtree root comes first", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		s := buildScenario(t, f)

		var seen []int64
		f.hooks.On(BeforeDelete, func(ctx context.Context, e *Event) error {
			seen = append([]int64(nil), e.IDs...)
			return nil
		})

		_, err := f.service.DeleteRecursive(ctx, s.n5.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{s.n5.ID, s.n6.ID}, seen)
	})

	t.Run("emptied set deletes nothing", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		s := buildScenario(t, f)

		f.hooks.On(BeforeDelete, func(ctx context.Context, e *Event) error {
			e.IDs = nil
			return nil
		})
		fired := false
		f.hooks.On(AfterDelete, func(ctx context.Context, e *Event) error {
			fired = true
			return nil
		})

		deleted, err := f.service.DeleteRecursive(ctx, s.n5.ID)
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.False(t, fired)
		assert.Len(t, f.allNodes(t), 6)
		f.assertTreeInvariants(t)
	})

	t.Run("count mismatch rolls back", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		s := buildScenario(t, f)

		f.hooks.On(BeforeDelete, func(ctx context.Context, e *Event) error {
			e.IDs = append(e.IDs, 999)
			return nil
		})

		_, err := f.service.DeleteRecursive(ctx, s.n5.ID)
		var inconsistent *domain.InconsistentError
		require.ErrorAs(t, err, &inconsistent)
		assert.Equal(t, 3, inconsistent.Expected)
		assert.Equal(t, int64(2), inconsistent.Affected)
		assert.ErrorIs(t, err, domain.ErrInconsistent)

		assert.Len(t, f.allNodes(t), 6)
		f.assertTreeInvariants(t)
	})
}

func TestHooks_OrderAndAbort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	var calls []string
	f.hooks.On(BeforeMove, func(ctx context.Context, e *Event) error {
		calls = append(calls, "first")
		assert.Equal(t, s.n1.ID, e.Node.ParentID)
		assert.Equal(t, s.n3.ID, e.NewParentID)
		return nil
	})
	f.hooks.On(BeforeMove, func(ctx context.Context, e *Event) error {
		calls = append(calls, "second")
		return errors.New("vetoed")
	})
	f.hooks.On(AfterMove, func(ctx context.Context, e *Event) error {
		calls = append(calls, "after")
		return nil
	})

	_, err := f.service.MoveTo(ctx, &treeSvc.MoveRequest{ID: s.n5.ID, NewParentID: s.n3.ID})
	require.EqualError(t, err, "tree.before_move: vetoed")
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, s.n1.ID, f.node(t, s.n5.ID).ParentID)
	f.assertTreeInvariants(t)
}

func TestHooks_AfterAddAbortRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.hooks.On(AfterAdd, func(ctx context.Context, e *Event) error {
		if e.Node.Title == "refused" {
			return errors.New("no")
		}
		return nil
	})

	f.add(t, models.RootID, "kept")
	_, err := f.service.AddItem(ctx, &treeSvc.AddItemRequest{Title: "refused"})
	require.Error(t, err)

	roots, err := f.service.Roots(ctx)
	require.NoError(t, err)
	assert.Len(t, roots, 1)
}

func TestHooks_BeforeTreeQueryNarrows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	f.hooks.On(BeforeTreeQuery, func(ctx context.Context, e *Event) error {
		e.Query.Where("n.title <> ?", "N4")
		return nil
	})

	flat, err := f.service.FlattenDescending(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	assert.NotContains(t, idsOf(flat), s.n4.ID)
	assert.Len(t, flat, 5)
}

func TestFlattenDescending_Depth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	tests := []struct {
		name  string
		id    int64
		depth *int
		want  []int64
	}{
		{name: "unbounded", id: s.n5.ID, want: []int64{s.n5.ID, s.n6.ID}},
		{name: "zero", id: s.n1.ID, depth: ptr(0), want: []int64{s.n1.ID}},
		{name: "one", id: s.n1.ID, depth: ptr(1), want: []int64{s.n1.ID, s.n2.ID, s.n4.ID, s.n5.ID, s.n3.ID}},
		{name: "relative to the start level", id: s.n5.ID, depth: ptr(1), want: []int64{s.n5.ID, s.n6.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat, err := f.service.FlattenDescending(ctx, tt.id, tt.depth)
			require.NoError(t, err)
			assert.Equal(t, tt.want, idsOf(flat))
		})
	}

	_, err := f.service.FlattenDescending(ctx, 999, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.service.FlattenDescending(ctx, s.n1.ID, ptr(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFlattenAscending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	flat, err := f.service.FlattenAscending(ctx, s.n6.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n1.ID, s.n5.ID, s.n6.ID}, idsOf(flat))

	chain, err := f.service.AscendingTree(ctx, s.n6.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n1.ID, s.n5.ID, s.n6.ID}, idsOf(Preorder(chain)))

	_, err = f.service.FlattenAscending(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReads_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)

	_, err := f.service.UpdateAttributes(ctx, s.n5.ID, &treeSvc.UpdateAttributesRequest{Archived: ptr(true)})
	require.NoError(t, err)

	_, err = f.service.Get(ctx, s.n5.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	level, err := f.service.LevelOf(ctx, s.n5.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, level)

	count, err := f.service.CountChildren(ctx, s.n1.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	has, err := f.service.HasChildren(ctx, s.n2.ID)
	require.NoError(t, err)
	assert.False(t, has)

	// N6 is visible but its parent is not, so it drops out of the nested view
	nested, err := f.service.DescendingTree(ctx, s.n1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n1.ID, s.n2.ID, s.n4.ID, s.n3.ID}, idsOf(Preorder(nested)))

	byLevel, err := f.service.ItemsByLevel(ctx, 1, &s.n1.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.n2.ID, s.n4.ID, s.n3.ID}, idsOf(byLevel))

	empty, err := f.service.ItemsByLevel(ctx, 7, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.service.UpdateAttributes(ctx, s.n5.ID, &treeSvc.UpdateAttributesRequest{Archived: ptr(false), Title: ptr("N5*")})
	require.NoError(t, err)
	got, err := f.service.Get(ctx, s.n5.ID)
	require.NoError(t, err)
	assert.Equal(t, "N5*", got.Title)
}

func TestForests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := buildScenario(t, f)
	other := f.add(t, models.RootID, "other")
	child := f.add(t, other.ID, "child")

	flats, err := f.service.DescendingForest(ctx, ptr(0))
	require.NoError(t, err)
	require.Len(t, flats, 2)
	assert.Equal(t, []int64{s.n1.ID}, idsOf(flats[0]))
	assert.Equal(t, []int64{other.ID}, idsOf(flats[1]))

	nested, err := f.service.NestedForest(ctx, nil)
	require.NoError(t, err)
	require.Len(t, nested, 2)
	assert.Len(t, Preorder(nested[0]), 6)
	assert.Equal(t, []int64{child.ID}, childIDs(nested[1]))
}

func TestRoots_Empty(t *testing.T) {
	f := newFixture(t)

	roots, err := f.service.Roots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roots)
}
