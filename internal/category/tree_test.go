package category

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleNodes() []Node {
	return []Node{
		{ID: 1, ParentID: 0, Name: "Root"},
		{ID: 2, ParentID: 1, Name: "Home", IsRoot: true},
		{ID: 3, ParentID: 2, Name: "Clothes"},
		{ID: 4, ParentID: 3, Name: "Men"},
		{ID: 5, ParentID: 3, Name: "Women"},
		{ID: 6, ParentID: 2, Name: "Accessories"},
		{ID: 7, ParentID: 6, Name: "Stationery"},
	}
}

func TestBuildPaths(t *testing.T) {
	tree, err := Build(sampleNodes())
	require.NoError(t, err)
	require.Equal(t, int64(2), tree.Root())

	p, ok := tree.Path(5)
	require.True(t, ok)
	require.Equal(t, []string{"Clothes", "Women"}, p)
	require.Equal(t, "Accessories | Stationery", tree.Text(7, " | "))
	require.Equal(t, "", tree.Text(1, " | "), "categories above the root are excluded")
	require.Equal(t, "", tree.Text(2, " | "))
	require.Equal(t, []int64{3, 4, 5, 6, 7}, tree.Order())
	require.Equal(t, []int64{3, 6}, tree.Children(2))
}

func TestBuildPathsDoNotAlias(t *testing.T) {
	tree, err := Build(sampleNodes())
	require.NoError(t, err)
	men, _ := tree.Path(4)
	women, _ := tree.Path(5)
	require.Equal(t, "Men", men[1])
	require.Equal(t, "Women", women[1])
}

func TestBuildMissingRoot(t *testing.T) {
	_, err := Build([]Node{{ID: 1, Name: "A"}})
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "missing root category", se.Reason)
}

func TestBuildMultipleRoots(t *testing.T) {
	_, err := Build([]Node{{ID: 1, IsRoot: true}, {ID: 2, IsRoot: true}})
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	require.Equal(t, []int64{1, 2}, se.IDs)
}

func TestBuildDetectsParentCycle(t *testing.T) {
	nodes := append(sampleNodes(),
		Node{ID: 10, ParentID: 11, Name: "Loop A"},
		Node{ID: 11, ParentID: 10, Name: "Loop B"},
	)
	_, err := Build(nodes)
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	require.ElementsMatch(t, []int64{10, 11}, se.IDs)
}

func TestBuildDetectsCycleThroughRoot(t *testing.T) {
	_, err := Build([]Node{
		{ID: 2, ParentID: 3, IsRoot: true},
		{ID: 3, ParentID: 2},
	})
	var se *StructuralError
	require.True(t, errors.As(err, &se))
}

func TestBuildDuplicateID(t *testing.T) {
	_, err := Build([]Node{{ID: 1, IsRoot: true}, {ID: 1}})
	require.Error(t, err)
}
