package movable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

func groupScope() mtree.Scope {
	return mtree.Scope{Parent: mtree.Ref{ID: idwrap.NewNow(), Kind: mtree.KindContainer}, Kind: mtree.KindGroup}
}

func TestScopeLocks_Exclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	locks := NewScopeLocks()
	s := groupScope()

	release, err := locks.Acquire(ctx, s)
	require.NoError(t, err)

	_, err = locks.AcquireTimeout(ctx, 20*time.Millisecond, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := locks.AcquireTimeout(ctx, time.Second, s)
	require.NoError(t, err)
	again()
	assert.Empty(t, locks.locks, "idle scopes are forgotten")
}

func TestScopeLocks_DuplicateScopesInOneCall(t *testing.T) {
	t.Parallel()
	locks := NewScopeLocks()
	s := groupScope()

	release, err := locks.AcquireTimeout(context.Background(), time.Second, s, s)
	require.NoError(t, err)
	release()
}

func TestScopeLocks_FailedAcquireReleasesHeld(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	locks := NewScopeLocks()
	a, b := groupScope(), groupScope()
	if a.Key() > b.Key() {
		a, b = b, a
	}

	holdB, err := locks.Acquire(ctx, b)
	require.NoError(t, err)

	_, err = locks.AcquireTimeout(ctx, 20*time.Millisecond, a, b)
	require.Error(t, err)

	// a must be free again even though the call above took it first
	holdA, err := locks.AcquireTimeout(ctx, time.Second, a)
	require.NoError(t, err)
	holdA()
	holdB()
}

func TestScopeLocks_OppositeOrderDoesNotDeadlock(t *testing.T) {
	t.Parallel()
	locks := NewScopeLocks()
	a, b := groupScope(), groupScope()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		first, second := a, b
		if i%2 == 1 {
			first, second = b, a
		}
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				release, err := locks.Acquire(ctx, first, second)
				if err != nil {
					return err
				}
				release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestCovers(t *testing.T) {
	t.Parallel()
	a, b := groupScope(), groupScope()
	assert.True(t, covers([]mtree.Scope{a, b}, []mtree.Scope{b}))
	assert.False(t, covers([]mtree.Scope{a}, []mtree.Scope{a, b}))
}
