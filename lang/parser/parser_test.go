package parser_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doubleSrc = `
double: fn
  \ n ->
    n n add_s32
end
`

func TestParseNamedFunction(t *testing.T) {
	tree, err := parser.Parse([]byte(doubleSrc))
	require.NoError(t, err)
	require.Equal(t, 1, tree.Functions.Len())

	nf, ok := tree.Functions.Get(0)
	require.True(t, ok)
	assert.Equal(t, "double", nf.Name)
	require.Equal(t, 1, nf.Inner.Branches.Len())

	br, ok := nf.Inner.Branches.Get(0)
	require.True(t, ok)
	require.Equal(t, 1, br.Parameters.Len())
	param, _ := br.Parameters.Get(0)
	assert.Equal(t, ast.Binding, param.Kind)
	assert.Equal(t, "n", param.Name)

	require.Equal(t, 3, br.Body.Len())
	m0, _ := br.Body.Get(0)
	assert.Equal(t, ast.Identifier, m0.Expr.Kind)
	assert.Equal(t, "n", m0.Expr.Name)
}

func TestParseMultipleBranches(t *testing.T) {
	src := `
max: fn
  \ a b -> a b gt a b eval
  \ a b -> b
end
`
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	nf, _ := tree.Functions.Get(0)
	assert.Equal(t, 2, nf.Inner.Branches.Len())
}

func TestParseLocalFunctionExpression(t *testing.T) {
	src := `
apply: fn
  \ x ->
    x fn \ v -> v v add_s32 end eval
end
`
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	nf, _ := tree.Functions.Get(0)
	br, _ := nf.Inner.Branches.Get(0)
	found := false
	for i := 0; i < br.Body.Len(); i++ {
		m, _ := br.Body.Get(ast.Index[ast.Member](i))
		if m.Kind == ast.ExpressionMember && m.Expr.Kind == ast.LocalFunctionExpr {
			found = true
			assert.Equal(t, 1, m.Expr.Local.Branches.Len())
		}
	}
	assert.True(t, found, "expected a local function expression in the body")
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing colon":   "bad fn \\ -> end end",
		"missing end":     "f: fn \\ -> 1",
		"empty function":  "f: fn end",
		"bad parameter":   "f: fn \\ fn -> 1 end end",
		"unexpected top":  "123",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse([]byte(src))
			assert.Error(t, err)
			var perr *parser.Error
			assert.ErrorAs(t, err, &perr)
		})
	}
}
