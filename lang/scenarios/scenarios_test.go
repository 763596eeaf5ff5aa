// Package scenarios exercises the full tokenizer -> parser -> calls -> deps
// -> types -> compiler -> machine -> update -> debugger pipeline end to end
// against the handful of scenarios concrete enough to pin down with a
// worked example rather than a property. Each scenario's source lives in a
// testdata/*.txtar archive so the fixture (and, where relevant, its
// hot-updated sibling) sits next to the test that drives it.
package scenarios_test

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/crosscut-lang/crosscut/host"
	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/debugger"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/crosscut-lang/crosscut/lang/types"
	"github.com/crosscut-lang/crosscut/lang/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

func load(t *testing.T, name string) *txtar.Archive {
	t.Helper()
	a, err := txtar.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return a
}

func file(t *testing.T, a *txtar.Archive, name string) string {
	t.Helper()
	for _, f := range a.Files {
		if f.Name == name {
			return string(f.Data)
		}
	}
	t.Fatalf("archive missing file %q", name)
	return ""
}

func wantInts(t *testing.T, a *txtar.Archive, name string) []int32 {
	t.Helper()
	fields := strings.Fields(file(t, a, name))
	out := make([]int32, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		require.NoError(t, err)
		out[i] = int32(n)
	}
	return out
}

func parseTree(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	return tree
}

func compileSrc(t *testing.T, src string, lookup calls.HostLookup, sig types.HostSignature) (*ast.Tree, *calls.FunctionCalls, *deps.Graph, *compiler.Program) {
	t.Helper()
	tree := parseTree(t, src)
	fc := calls.New(tree, lookup)
	g := deps.BuildGraph(tree, fc)
	clusters := deps.Condense(tree, g, fc)
	_, err := types.Infer(tree, fc, clusters, sig)
	require.NoError(t, err)
	hashes := ast.Freeze(tree)
	p, err := compiler.Compile(tree, hashes, fc, clusters)
	require.NoError(t, err)
	return tree, fc, g, p
}

func finalStack(e *machine.Evaluator) []int32 {
	snap := e.Stack.Snapshot()
	out := make([]int32, len(snap))
	for i, v := range snap {
		out[i] = v.Number
	}
	return out
}

// runToHalt steps e until it observes EffectHalted, failing the test if it
// doesn't within maxSteps.
func runToHalt(t *testing.T, e *machine.Evaluator, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		require.NoError(t, e.Step())
		for {
			eff, ok := e.Effects.Pop()
			if !ok {
				break
			}
			if eff.Kind == machine.EffectHalted {
				return
			}
		}
	}
	t.Fatalf("did not halt within %d steps", maxSteps)
}

// runUntilHostCall steps e until a host call effect fires, pops its one
// argument (the only host function these scenarios use takes a single
// Number and returns nothing) and returns it.
func runUntilHostCall(t *testing.T, e *machine.Evaluator, maxSteps int) machine.Value {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		require.NoError(t, e.Step())
		eff, ok := e.Effects.Pop()
		if !ok {
			continue
		}
		if eff.Kind == machine.EffectHostCall {
			v, err := e.Stack.PopOperand()
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("no host call observed within %d steps", maxSteps)
	return machine.Value{}
}

func runUntilBreakpoint(t *testing.T, e *machine.Evaluator, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		require.NoError(t, e.Step())
		eff, ok := e.Effects.Pop()
		if ok && eff.Kind == machine.EffectBreakpointHit {
			return
		}
	}
	t.Fatalf("no breakpoint hit observed within %d steps", maxSteps)
}

// memberNamed finds the body member of fn's sole branch whose expression is
// the identifier text, used to locate the instruction address a breakpoint
// test should target without hard-coding offsets.
func memberNamed(t *testing.T, tree *ast.Tree, fn, text string) ast.MemberLocation {
	t.Helper()
	var found ast.MemberLocation
	var ok bool
	ast.WalkFunctions(tree, func(floc ast.FunctionLocation, nf ast.NamedFunction) {
		if ok || nf.Name != fn {
			return
		}
		f, resolveOk := ast.ResolveFunction(tree, floc)
		if !resolveOk {
			return
		}
		ast.WalkBranches(f, floc, func(bloc ast.BranchLocation, br ast.Branch) {
			if ok {
				return
			}
			ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, mem ast.Member) {
				if ok || mem.Kind != ast.ExpressionMember || mem.Expr.Kind != ast.Identifier {
					return
				}
				if mem.Expr.Name == text {
					found, ok = mloc, true
				}
			})
		})
	})
	require.True(t, ok, "identifier %q not found in function %q", text, fn)
	return found
}

func newHost(name string, number uint8) (calls.HostLookup, types.HostSignature) {
	t := host.NewTable([]host.Function{{
		Name:      name,
		Number:    number,
		Signature: types.Signature{Inputs: []types.Type{types.NumberType}},
	}})
	lookup := func(n string) (uint8, bool) {
		fn, ok := t.Lookup(n)
		return fn.Number, ok
	}
	sig := func(n uint8) types.Signature {
		fn, _ := t.ByNumber(n)
		return fn.Signature
	}
	return lookup, sig
}

func TestS1Arithmetic(t *testing.T) {
	a := load(t, "s1_arithmetic.txtar")
	_, _, _, prog := compileSrc(t, file(t, a, "main.crx"), nil, nil)

	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))
	runToHalt(t, e, 16)

	assert.Equal(t, wantInts(t, a, "want.txt"), finalStack(e))
}

func TestS2TailRecursionWithSend(t *testing.T) {
	a := load(t, "s2_tail_recursion_with_send.txtar")
	lookup, sig := newHost("send", 0)

	_, _, _, old := compileSrc(t, file(t, a, "main.crx"), lookup, sig)
	main, ok := old.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(old, 8)
	require.NoError(t, e.Start(main.Entry))

	first := runUntilHostCall(t, e, 16)
	assert.Equal(t, int32(0), first.Number)

	_, _, _, next := compileSrc(t, file(t, a, "updated.crx"), lookup, sig)
	update.Apply(e, old, next)

	second := runUntilHostCall(t, e, 16)
	assert.Equal(t, int32(1), second.Number)
}

func TestS3DivergentBranchSelection(t *testing.T) {
	a := load(t, "s3_divergent_branch.txtar")
	_, _, _, prog := compileSrc(t, file(t, a, "main.crx"), nil, nil)

	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 16)
	require.NoError(t, e.Start(main.Entry))
	runToHalt(t, e, 64)

	assert.Equal(t, wantInts(t, a, "want.txt"), finalStack(e))
}

func TestS4BreakpointStepOver(t *testing.T) {
	a := load(t, "s4_breakpoint_step_over.txtar")
	src := file(t, a, "main.crx")
	tree, _, _, prog := compileSrc(t, src, nil, nil)

	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	addLoc := memberNamed(t, tree, "main", "add_s32")
	nopLoc := memberNamed(t, tree, "main", "nop")
	addAddrs, ok := prog.SourceMap.MemberToInstructions(addLoc)
	require.True(t, ok)
	require.NotEmpty(t, addAddrs)
	nopAddrs, ok := prog.SourceMap.MemberToInstructions(nopLoc)
	require.True(t, ok)
	require.NotEmpty(t, nopAddrs)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))
	e.Breakpoints.Set(addAddrs[0])

	runUntilBreakpoint(t, e, 16)
	assert.Equal(t, addAddrs[0], e.PC)

	// step-over: run the breakpointed instruction once without re-triggering
	// the durable breakpoint, then arm the next member as an ephemeral stop.
	require.NoError(t, e.StepForce())
	e.Breakpoints.ArmEphemeral(nopAddrs[0])
	runUntilBreakpoint(t, e, 16)

	assert.Equal(t, nopAddrs[0], e.PC)
	assert.True(t, e.Breakpoints.HasDurable(addAddrs[0]), "durable breakpoint on add_s32 should survive stepping over it")
	assert.Equal(t, []int32{3}, finalStack(e))
}

func TestS5TailCallGapDisplay(t *testing.T) {
	a := load(t, "s5_tail_call_gap.txtar")
	src := file(t, a, "main.crx")
	tree, fc, g, prog := compileSrc(t, src, nil, nil)

	tm, err := types.Infer(tree, fc, deps.Condense(tree, g, fc), nil)
	require.NoError(t, err)

	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	brkLoc := memberNamed(t, tree, "g", "brk")
	brkAddrs, ok := prog.SourceMap.MemberToInstructions(brkLoc)
	require.True(t, ok)
	require.NotEmpty(t, brkAddrs)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))
	e.Breakpoints.Set(brkAddrs[0])
	// step without draining the effect queue: debugger.New only decorates a
	// process that still has its breakpoint effect pending.
	for i := 0; i < 16 && e.Effects.Len() == 0; i++ {
		require.NoError(t, e.Step())
	}
	require.Equal(t, 1, e.Effects.Len(), "no breakpoint hit observed within 16 steps")
	assert.Equal(t, brkAddrs[0], e.PC)

	m := &debugger.Model{Tree: tree, FC: fc, Graph: g, Types: tm, Program: prog}
	active := debugger.New(m, e.Breakpoints, e)

	require.Len(t, active.Entries, 3)
	var names []string
	for _, entry := range active.Entries {
		require.Equal(t, debugger.EntryFunction, entry.Kind)
		names = append(names, entry.Function.Name)
	}
	assert.Equal(t, []string{"main", "f", "g"}, names)
}

func TestS6HotUpdatePreservesLiveFrame(t *testing.T) {
	a := load(t, "s6_hot_update_preserves_live_frame.txtar")
	lookup, sig := newHost("send", 0)

	src := file(t, a, "main.crx")
	tree, _, _, old := compileSrc(t, src, lookup, sig)
	main, ok := old.Functions.ByName("main")
	require.True(t, ok)

	sendLoc := memberNamed(t, tree, "f", "send")
	sendAddrs, ok := old.SourceMap.MemberToInstructions(sendLoc)
	require.True(t, ok)
	require.NotEmpty(t, sendAddrs)

	e := machine.NewEvaluator(old, 8)
	require.NoError(t, e.Start(main.Entry))
	e.Breakpoints.Set(sendAddrs[0])

	runUntilBreakpoint(t, e, 16)
	assert.Equal(t, sendAddrs[0], e.PC)

	_, _, _, next := compileSrc(t, file(t, a, "updated.crx"), lookup, sig)
	update.Apply(e, old, next)

	require.NoError(t, e.StepForce())
	first, ok := e.Effects.Pop()
	require.True(t, ok)
	require.Equal(t, machine.EffectHostCall, first.Kind)
	firstValue, err := e.Stack.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(1), firstValue.Number, "the frame already running should finish on the old body")

	// the durable breakpoint on send was carried over to the updated body, so
	// the next call to f stops on it again before sending.
	runUntilBreakpoint(t, e, 16)
	require.NoError(t, e.StepForce())
	second := runUntilHostCall(t, e, 16)
	assert.Equal(t, int32(2), second.Number, "the next call to f should use the updated body")
}
