package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear() *Graph {
	g := New()
	g.AddCommit("c1", nil)
	g.AddCommit("c2", []string{"c1"})
	g.AddCommit("c3", []string{"c2"})
	return g
}

func TestGraph_LinearHistory(t *testing.T) {
	g := linear()

	assert.Equal(t, 3, g.Len())
	assert.ElementsMatch(t, []string{"c1"}, g.Roots())
	assert.NoError(t, g.Validate())
}

func TestGraph_IsAncestor(t *testing.T) {
	g := linear()

	assert.True(t, g.IsAncestor("c3", "c1"))
	assert.True(t, g.IsAncestor("c3", "c3"))
	assert.False(t, g.IsAncestor("c1", "c3"))
	assert.False(t, g.IsAncestor("c3", "nonexistent"))
}

func TestGraph_Merge(t *testing.T) {
	g := New()
	g.AddCommit("a", nil)
	g.AddCommit("b", nil)
	g.AddCommit("merge", []string{"a", "b"})

	assert.ElementsMatch(t, []string{"a", "b"}, g.Parents("merge"))
	assert.ElementsMatch(t, []string{"merge"}, g.Children("a"))
	assert.ElementsMatch(t, []string{"merge"}, g.Children("b"))
	assert.NoError(t, g.Validate())
}

func TestGraph_TopoOrder_ParentsFirst(t *testing.T) {
	g := linear()

	order, err := g.TopoOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := make(map[string]int, len(order))
	for i, rev := range order {
		pos[rev] = i
	}
	assert.Less(t, pos["c1"], pos["c2"])
	assert.Less(t, pos["c2"], pos["c3"])
}

func TestGraph_ValidateDetectsCycle(t *testing.T) {
	g := New()
	// A DAG never actually produces this from a real repo walk, but the
	// validator must still refuse to pretend it's well-formed.
	g.AddCommit("x", []string{"y"})
	g.AddCommit("y", []string{"x"})

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestGraph_Has(t *testing.T) {
	g := linear()
	assert.True(t, g.Has("c2"))
	assert.False(t, g.Has("does-not-exist"))
}
