package calls_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = `
double: fn
  \ n ->
    n n add_s32
end

main: fn
  \ ->
    1 double send
end
`

func hostLookup(name string) (uint8, bool) {
	if name == "send" {
		return 7, true
	}
	return 0, false
}

// identByName walks tree for the first Identifier expression with the given
// name and returns its location.
func identByName(t *testing.T, tree *ast.Tree, name string) ast.MemberLocation {
	t.Helper()
	var found ast.MemberLocation
	var ok bool
	ast.WalkFunctionsDeep(tree, func(floc ast.FunctionLocation, fn ast.Function) {
		ast.WalkBranches(fn, floc, func(bloc ast.BranchLocation, br ast.Branch) {
			ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
				if !ok && m.Kind == ast.ExpressionMember && m.Expr.Kind == ast.Identifier && m.Expr.Name == name {
					found, ok = mloc, true
				}
			})
		})
	})
	require.True(t, ok, "identifier %q not found", name)
	return found
}

func TestFunctionCallsClassification(t *testing.T) {
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)

	fc := calls.New(tree, hostLookup)

	addLoc := identByName(t, tree, "add_s32")
	i, ok := fc.IntrinsicOf(addLoc)
	require.True(t, ok)
	assert.Equal(t, calls.AddS32, i)

	userLoc := identByName(t, tree, "double")
	u, ok := fc.User(userLoc)
	require.True(t, ok)
	wantLoc, _, _ := ast.FindFunction(tree, "double")
	assert.Equal(t, wantLoc, u)

	hostLoc := identByName(t, tree, "send")
	n, ok := fc.Host(hostLoc)
	require.True(t, ok)
	assert.Equal(t, uint8(7), n)
}

func TestResolvePrecedence(t *testing.T) {
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	fc := calls.New(tree, hostLookup)

	hostLoc := identByName(t, tree, "send")
	r := fc.Resolve(hostLoc, false)
	assert.Equal(t, calls.ToHost, r.Kind)

	r = fc.Resolve(hostLoc, true)
	assert.Equal(t, calls.Unresolved, r.Kind)
}

func TestUnresolvedIdentifier(t *testing.T) {
	tree, err := parser.Parse([]byte(`f: fn \ -> mystery end`))
	require.NoError(t, err)
	fc := calls.New(tree, hostLookup)

	loc := identByName(t, tree, "mystery")
	_, ok := fc.Host(loc)
	assert.False(t, ok)
	_, ok = fc.IntrinsicOf(loc)
	assert.False(t, ok)
	_, ok = fc.User(loc)
	assert.False(t, ok)
}
