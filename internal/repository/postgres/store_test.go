package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// newTestManager connects to TEST_DATABASE_URL and provisions uniquely
// prefixed tables. Skipped when the variable is unset.
func newTestManager(t *testing.T) repositories.TransactionManager {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := CreateConnectionPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	tables := NewTableNames(fmt.Sprintf("test_%d_", time.Now().UnixNano()))
	require.NoError(t, EnsureSchema(ctx, pool, tables))
	t.Cleanup(func() { _ = DropSchema(context.Background(), pool, tables) })

	return NewTransactionManager(&RepositoryConfig{Pool: pool, Tables: tables})
}

func TestPostgres_AddMoveDelete(t *testing.T) {
	tm := newTestManager(t)
	ctx := context.Background()

	create := func(parentID int64, level int, title string) int64 {
		now := time.Now()
		node := &models.Node{ParentID: parentID, Level: level, Sort: 1000, Title: title, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, tm.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
			if err := tx.Nodes().LockGroup(ctx, parentID); err != nil {
				return err
			}
			if err := tx.Closure().LockPath(ctx, parentID); err != nil {
				return err
			}
			if err := tx.Nodes().Create(ctx, node); err != nil {
				return err
			}
			if err := tx.Closure().AddSelfEdge(ctx, node.ID); err != nil {
				return err
			}
			return tx.Closure().AttachNewNode(ctx, parentID, node.ID)
		}))
		return node.ID
	}

	a := create(models.RootID, 0, "a")
	b := create(a, 1, "b")
	c := create(b, 2, "c")
	d := create(models.RootID, 0, "d")

	require.NoError(t, tm.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Closure().LockSubtree(ctx, b, d); err != nil {
			return err
		}
		return tx.Closure().Reparent(ctx, b, d)
	}))

	anc, err := tm.View().Closure().Ancestors(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []int64{b, c, d}, anc.Sorted())

	err = tm.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.Closure().Reparent(ctx, d, c)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	visible := repositories.ReadOptions{Filter: repositories.ExcludeArchived}
	flat, err := tm.View().Nodes().FlatTree(ctx, d, repositories.Descending, nil, visible)
	require.NoError(t, err)
	require.Len(t, flat, 3)
	assert.Equal(t, d, flat[0].ID)

	require.NoError(t, tm.ExecTx(ctx, func(ctx context.Context, tx repositories.Tx) error {
		removed, err := tx.Closure().DetachSubtree(ctx, d)
		if err != nil {
			return err
		}
		n, err := tx.Nodes().DeleteByIDs(ctx, removed.Sorted())
		if err != nil {
			return err
		}
		assert.Equal(t, int64(3), n)
		return nil
	}))

	roots, err := tm.View().Nodes().ListRootIDs(ctx, repositories.Unfiltered)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, roots)
}
