package memstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

func TestTx_IsolatedUntilCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	form := mtree.Node{ID: idwrap.NewNow(), Kind: mtree.KindContainer, Rank: 1}

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertNode(ctx, form))

	_, ok := s.Get(form.ID)
	assert.False(t, ok, "uncommitted insert must not be visible")

	require.NoError(t, tx.Commit())
	_, ok = s.Get(form.ID)
	assert.True(t, ok)
	assert.ErrorIs(t, tx.Rollback(), sql.ErrTxDone)
	assert.ErrorIs(t, tx.Commit(), sql.ErrTxDone)
}

func TestTx_DeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	form := mtree.Node{ID: idwrap.NewNow(), Kind: mtree.KindContainer, Rank: 1}
	section := mtree.Node{ID: idwrap.NewNow(), Kind: mtree.KindGroup, Rank: 1, ContainerID: idwrap.Ptr(form.ID)}
	q1 := mtree.Node{ID: idwrap.NewNow(), Kind: mtree.KindItem, Rank: 1, GroupID: idwrap.Ptr(section.ID)}
	q2 := mtree.Node{ID: idwrap.NewNow(), Kind: mtree.KindItem, Rank: 1, ContainerID: idwrap.Ptr(form.ID)}
	opt := mtree.Node{ID: idwrap.NewNow(), Kind: mtree.KindOption, Rank: 1, ItemID: idwrap.Ptr(q1.ID)}
	s.Put(form, section, q1, q2, opt)

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteNode(ctx, section.ID))
	require.NoError(t, tx.Commit())

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(opt.ID)
	assert.False(t, ok)
	_, ok = s.Get(q2.ID)
	assert.True(t, ok)
}

func TestTx_GetMissing(t *testing.T) {
	t.Parallel()
	tx, err := New().BeginTx(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.GetNode(context.Background(), idwrap.NewNow())
	assert.ErrorIs(t, err, movable.ErrNodeNotFound)
}
