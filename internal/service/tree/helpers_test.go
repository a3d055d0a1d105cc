package tree

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
	"sortabletree/internal/repository/sqlite"
)

type fixture struct {
	store   repositories.TransactionManager
	hooks   *Hooks
	service treeSvc.TreeService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

func newFixtureWith(t *testing.T, sequencer treeSvc.Sequencer) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "tree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tables := sqlite.NewTableNames("test_")
	require.NoError(t, sqlite.EnsureSchema(ctx, db, tables))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sqlite.NewStore(&sqlite.RepositoryConfig{DB: db, Tables: tables, Logger: logger})
	hooks := NewHooks()

	return &fixture{
		store:   store,
		hooks:   hooks,
		service: NewTreeService(store, sequencer, hooks, repositories.ExcludeArchived, logger),
	}
}

func (f *fixture) add(t *testing.T, parentID int64, title string) *models.Node {
	t.Helper()
	node, err := f.service.AddItem(context.Background(), &treeSvc.AddItemRequest{ParentID: parentID, Title: title})
	require.NoError(t, err)
	return node
}

func (f *fixture) addAt(t *testing.T, parentID, targetID int64, position models.Position, title string) *models.Node {
	t.Helper()
	node, err := f.service.AddItem(context.Background(), &treeSvc.AddItemRequest{
		ParentID: parentID,
		TargetID: &targetID,
		Position: position,
		Title:    title,
	})
	require.NoError(t, err)
	return node
}

func (f *fixture) node(t *testing.T, id int64) *models.Node {
	t.Helper()
	node, err := f.store.View().Nodes().Get(context.Background(), id, repositories.Unfiltered)
	require.NoError(t, err)
	return node
}

// allNodes returns every stored node, hidden or not, keyed by id
func (f *fixture) allNodes(t *testing.T) map[int64]models.Node {
	t.Helper()
	ctx := context.Background()
	nodes := f.store.View().Nodes()

	roots, err := nodes.ListRootIDs(ctx, repositories.Unfiltered)
	require.NoError(t, err)

	out := make(map[int64]models.Node)
	for _, root := range roots {
		flat, err := nodes.FlatTree(ctx, root, repositories.Descending, nil, repositories.Unfiltered)
		require.NoError(t, err)
		for _, n := range flat {
			out[n.ID] = n
		}
	}
	return out
}

// assertTreeInvariants checks levels against parents and the closure
// relation against the parent chains
func (f *fixture) assertTreeInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	closure := f.store.View().Closure()
	all := f.allNodes(t)

	for id, n := range all {
		if n.ParentID == models.RootID {
			assert.Equal(t, 0, n.Level, "level of top-level %d", id)
		} else {
			parent, ok := all[n.ParentID]
			require.True(t, ok, "parent %d of %d missing", n.ParentID, id)
			assert.Equal(t, parent.Level+1, n.Level, "level of %d", id)
		}

		want := models.NewIDSet(id)
		for p := n.ParentID; p != models.RootID; p = all[p].ParentID {
			want.Add(p)
		}
		anc, err := closure.Ancestors(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want.Sorted(), anc.Sorted(), "ancestors of %d", id)

		desc, err := closure.Descendants(ctx, id)
		require.NoError(t, err)
		assert.True(t, desc.Contains(id), "self edge of %d", id)
		for d := range desc {
			dAnc, err := closure.Ancestors(ctx, d)
			require.NoError(t, err)
			assert.True(t, dAnc.Contains(id), "%d among ancestors of %d", id, d)
		}
	}
}

func idsOf(nodes []models.Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func childIDs(n *models.NestedNode) []int64 {
	out := make([]int64, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }
