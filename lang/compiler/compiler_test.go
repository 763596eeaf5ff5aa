package compiler_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/crosscut-lang/crosscut/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prog = `
double: fn
  \ n -> n n add_s32
end

main: fn
  \ -> 21 double
end
`

func compileSrc(t *testing.T, src string) *compiler.Program {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	fc := calls.New(tree, nil)
	g := deps.BuildGraph(tree, fc)
	clusters := deps.Condense(tree, g, fc)
	_, err = types.Infer(tree, fc, clusters, nil)
	require.NoError(t, err)
	hashes := ast.Freeze(tree)
	p, err := compiler.Compile(tree, hashes, fc, clusters)
	require.NoError(t, err)
	return p
}

func TestCompileProducesFunctionTable(t *testing.T) {
	p := compileSrc(t, prog)

	main, ok := p.Functions.ByName("main")
	require.True(t, ok)
	assert.Equal(t, "main", main.Name)
	assert.False(t, main.Hash.IsZero())
	assert.Less(t, int(main.Entry), len(p.Instructions))

	double, ok := p.Functions.ByName("double")
	require.True(t, ok)
	assert.NotEqual(t, main.Hash, double.Hash)
}

func TestCompileEmitsTailCallAndReturn(t *testing.T) {
	p := compileSrc(t, prog)
	require.NotEmpty(t, p.Instructions)

	var sawTailCall, sawReturn bool
	for _, instr := range p.Instructions {
		switch instr.Op {
		case compiler.CallFunction:
			if instr.IsTailCall {
				sawTailCall = true
			}
		case compiler.Return:
			sawReturn = true
		}
	}
	// main's body ends in a direct call to double, compiled as a tail call;
	// double's own body ends in an intrinsic call, so its branch gets an
	// explicit trailing Return.
	assert.True(t, sawTailCall, "expected a tail CallFunction instruction")
	assert.True(t, sawReturn, "expected an explicit Return instruction")
}

func TestCompileSourceMapRoundTrips(t *testing.T) {
	p := compileSrc(t, prog)

	var sawAny bool
	for addr := range p.Instructions {
		if loc, ok := p.SourceMap.InstructionToMember(compiler.InstructionAddress(addr)); ok {
			addrs, ok := p.SourceMap.MemberToInstructions(loc)
			require.True(t, ok)
			assert.Contains(t, addrs, compiler.InstructionAddress(addr))
			sawAny = true
		}
	}
	assert.True(t, sawAny, "expected at least one instruction to carry a source location")
}

func TestFunctionTableByHash(t *testing.T) {
	p := compileSrc(t, prog)
	main, ok := p.Functions.ByName("main")
	require.True(t, ok)

	entry, ok := p.Functions.ByHash(main.Hash)
	require.True(t, ok)
	assert.Equal(t, main.Entry, entry.Entry)
}
