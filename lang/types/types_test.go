package types_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/crosscut-lang/crosscut/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func infer(t *testing.T, src string) (*ast.Tree, *types.Map) {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	fc := calls.New(tree, nil)
	g := deps.BuildGraph(tree, fc)
	clusters := deps.Condense(tree, g, fc)
	m, err := types.Infer(tree, fc, clusters, nil)
	require.NoError(t, err)
	return tree, m
}

func TestInferSimpleSignature(t *testing.T) {
	tree, m := infer(t, `
double: fn
  \ n -> n n add_s32
end
`)
	loc, _, ok := ast.FindFunction(tree, "double")
	require.True(t, ok)
	sig, ok := m.SignatureOf(loc)
	require.True(t, ok)
	require.Len(t, sig.Inputs, 1)
	assert.Equal(t, types.Number, sig.Inputs[0].Kind)
	// n is bound (popped) on entry, so only the sum is left.
	require.Len(t, sig.Outputs, 1)
	for _, o := range sig.Outputs {
		assert.Equal(t, types.Number, o.Kind)
	}
	assert.False(t, sig.Diverges)
}

func TestInferRecursiveSignature(t *testing.T) {
	tree, m := infer(t, `
is_even: fn
  \ 0 -> 1
  \ n -> n is_odd
end

is_odd: fn
  \ 0 -> 0
  \ n -> n is_even
end
`)
	loc, _, ok := ast.FindFunction(tree, "is_even")
	require.True(t, ok)
	sig, ok := m.SignatureOf(loc)
	require.True(t, ok)
	require.Len(t, sig.Inputs, 1)
	assert.Equal(t, types.Number, sig.Inputs[0].Kind)
	assert.False(t, sig.Diverges)
}

func TestSignatureString(t *testing.T) {
	sig := types.Signature{Inputs: []types.Type{types.NumberType, types.NumberType}, Outputs: []types.Type{types.NumberType}}
	assert.Equal(t, "(Number Number -> Number)", sig.String())

	div := types.Signature{Inputs: []types.Type{types.NumberType}, Diverges: true}
	assert.Equal(t, "(Number -> !)", div.String())
}
