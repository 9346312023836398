package movable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

func TestCheckRanks(t *testing.T) {
	t.Parallel()
	scope, q := optionScope()
	opts := rankedOptions(q, 3)
	assert.NoError(t, CheckRanks(NewSiblingSet(scope, opts)))
	assert.NoError(t, CheckRanks(NewSiblingSet(scope, nil)))

	opts[2].Rank = 5
	err := CheckRanks(NewSiblingSet(scope, opts))
	assert.ErrorIs(t, err, ErrRankIntegrity)
	assert.Contains(t, err.Error(), "[1 2 5]")

	gap := []mtree.Node{{ID: idwrap.NewNow(), Kind: mtree.KindOption, Rank: 2, ItemID: idwrap.Ptr(q)}}
	assert.ErrorIs(t, CheckRanks(NewSiblingSet(scope, gap)), ErrRankIntegrity)
}
