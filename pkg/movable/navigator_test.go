package movable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

func TestCanRelocate_Grammar(t *testing.T) {
	t.Parallel()
	allowed := map[relocationRule]bool{
		{mtree.KindContainer, mtree.KindContainer, mtree.DropAbove}: true,
		{mtree.KindContainer, mtree.KindContainer, mtree.DropBelow}: true,
		{mtree.KindGroup, mtree.KindGroup, mtree.DropAbove}:         true,
		{mtree.KindGroup, mtree.KindGroup, mtree.DropBelow}:         true,
		{mtree.KindGroup, mtree.KindContainer, mtree.DropOnTop}:     true,
		{mtree.KindItem, mtree.KindItem, mtree.DropAbove}:           true,
		{mtree.KindItem, mtree.KindItem, mtree.DropBelow}:           true,
		{mtree.KindItem, mtree.KindGroup, mtree.DropOnTop}:          true,
		{mtree.KindItem, mtree.KindContainer, mtree.DropOnTop}:      true,
		{mtree.KindOption, mtree.KindOption, mtree.DropAbove}:       true,
		{mtree.KindOption, mtree.KindOption, mtree.DropBelow}:       true,
		{mtree.KindOption, mtree.KindItem, mtree.DropOnTop}:         true,
	}

	directives := []mtree.DropDirective{mtree.DropAbove, mtree.DropBelow, mtree.DropOnTop}
	for _, moved := range mtree.Kinds {
		for _, target := range mtree.Kinds {
			for _, d := range directives {
				rule := relocationRule{moved, target, d}
				assert.Equal(t, allowed[rule], CanRelocate(moved, target, d), "%s %s %s", moved, d, target)

				err := ValidateRelocation(moved, target, d)
				if allowed[rule] {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, ErrUnsupportedRelocation)
				}
			}
		}
	}
}

func TestValidateRelocation_Message(t *testing.T) {
	t.Parallel()
	err := ValidateRelocation(mtree.KindOption, mtree.KindGroup, mtree.DropOnTop)
	require.Error(t, err)
	assert.Equal(t, "option can not be moved on_top group", err.Error())
}

func TestChildKinds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []mtree.Kind{mtree.KindContainer}, ChildKinds(mtree.KindUnspecified))
	assert.Equal(t, []mtree.Kind{mtree.KindGroup, mtree.KindItem}, ChildKinds(mtree.KindContainer))
	assert.Equal(t, []mtree.Kind{mtree.KindItem}, ChildKinds(mtree.KindGroup))
	assert.Equal(t, []mtree.Kind{mtree.KindOption}, ChildKinds(mtree.KindItem))
	assert.Empty(t, ChildKinds(mtree.KindOption))
}

func TestParentKinds(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ParentKinds(mtree.KindContainer))
	assert.Equal(t, []mtree.Kind{mtree.KindGroup, mtree.KindContainer}, ParentKinds(mtree.KindItem))
	assert.True(t, AcceptsChild(mtree.KindContainer, mtree.KindItem))
	assert.False(t, AcceptsChild(mtree.KindGroup, mtree.KindGroup))
	assert.False(t, AcceptsChild(mtree.KindUnspecified, mtree.KindGroup))
}
