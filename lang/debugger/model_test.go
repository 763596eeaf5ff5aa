package debugger_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/debugger"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/crosscut-lang/crosscut/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildModel(t *testing.T, src string) (*debugger.Model, *compiler.Program) {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	fc := calls.New(tree, nil)
	g := deps.BuildGraph(tree, fc)
	clusters := deps.Condense(tree, g, fc)
	tm, err := types.Infer(tree, fc, clusters, nil)
	require.NoError(t, err)
	hashes := ast.Freeze(tree)
	prog, err := compiler.Compile(tree, hashes, fc, clusters)
	require.NoError(t, err)
	return &debugger.Model{Tree: tree, FC: fc, Graph: g, Types: tm, Program: prog}, prog
}

// firstInstructionOf returns the address of the first compiled instruction
// for fn's sole branch's sole body member, used to arm a durable breakpoint
// that stops exactly on that call site rather than past it.
func firstInstructionOf(t *testing.T, tree *ast.Tree, prog *compiler.Program, fn string) compiler.InstructionAddress {
	t.Helper()
	var mloc ast.MemberLocation
	var found bool
	ast.WalkFunctions(tree, func(floc ast.FunctionLocation, nf ast.NamedFunction) {
		if found || nf.Name != fn {
			return
		}
		f, ok := ast.ResolveFunction(tree, floc)
		if !ok {
			return
		}
		ast.WalkBranches(f, floc, func(bloc ast.BranchLocation, br ast.Branch) {
			if found {
				return
			}
			ast.WalkMembers(br, bloc, func(loc ast.MemberLocation, m ast.Member) {
				if found || m.Kind != ast.ExpressionMember {
					return
				}
				mloc, found = loc, true
			})
		})
	})
	require.True(t, found, "no expression member found in function %q", fn)
	addrs, ok := prog.SourceMap.MemberToInstructions(mloc)
	require.True(t, ok)
	require.NotEmpty(t, addrs)
	return addrs[0]
}

// S5 -- main tail-calls f, f tail-calls g, g hits brk: tail calls collapse
// all three into a single physical frame, so the debugger must reconstruct
// both missing ancestors, not just the nearest one.
func TestNewReconstructsMultipleTailCallAncestors(t *testing.T) {
	m, prog := buildModel(t, `
main: fn
  \ -> f
end

f: fn
  \ -> g
end

g: fn
  \ -> brk
end
`)
	entry, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(entry.Entry))
	e.Breakpoints.Set(firstInstructionOf(t, m.Tree, prog, "g"))

	for {
		require.NoError(t, e.Step())
		if e.Effects.Len() > 0 || e.Halted {
			break
		}
	}

	active := debugger.New(m, e.Breakpoints, e)
	require.Len(t, active.Entries, 3)

	var names []string
	for _, entry := range active.Entries {
		require.Equal(t, debugger.EntryFunction, entry.Kind)
		names = append(names, entry.Function.Name)
	}
	assert.Equal(t, []string{"main", "f", "g"}, names)
}
