package deps_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, src string) (*ast.Tree, *deps.Graph, []deps.Cluster) {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	fc := calls.New(tree, nil)
	g := deps.BuildGraph(tree, fc)
	return tree, g, deps.Condense(tree, g, fc)
}

func TestCondenseLeafFunction(t *testing.T) {
	_, _, clusters := build(t, `
double: fn
  \ n -> n n add_s32
end

main: fn
  \ -> 1 double
end
`)
	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.Len(t, c.Functions, 1)
	}
}

func TestCondenseMutualRecursion(t *testing.T) {
	_, g, clusters := build(t, `
is_even: fn
  \ 0 -> 1
  \ n -> n is_odd
end

is_odd: fn
  \ 0 -> 0
  \ n -> n is_even
end
`)
	require.Len(t, clusters, 1)
	cl := clusters[0]
	assert.Len(t, cl.Functions, 2)
	assert.True(t, cl.IsRecursive(g))
	assert.Len(t, cl.Branches, 4)
}

func TestLeavesOrderedBeforeCallers(t *testing.T) {
	tree, _, clusters := build(t, `
helper: fn
  \ n -> n n add_s32
end

caller: fn
  \ n -> n helper
end
`)
	require.Len(t, clusters, 2)
	helperLoc, _, _ := ast.FindFunction(tree, "helper")
	assert.Equal(t, helperLoc, clusters[0].Functions[0])
}
