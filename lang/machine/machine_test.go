package machine_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	fc := calls.New(tree, nil)
	g := deps.BuildGraph(tree, fc)
	clusters := deps.Condense(tree, g, fc)
	hashes := ast.Freeze(tree)
	p, err := compiler.Compile(tree, hashes, fc, clusters)
	require.NoError(t, err)
	return p
}

func runToHalt(t *testing.T, e *machine.Evaluator, maxSteps int) []machine.Effect {
	t.Helper()
	var effects []machine.Effect
	for i := 0; i < maxSteps; i++ {
		require.NoError(t, e.Step())
		for {
			eff, ok := e.Effects.Pop()
			if !ok {
				break
			}
			effects = append(effects, eff)
			if eff.Kind == machine.EffectHalted {
				return effects
			}
		}
	}
	t.Fatalf("did not halt within %d steps", maxSteps)
	return nil
}

func TestEvaluatorRunsToHalt(t *testing.T) {
	prog := compile(t, `
double: fn
  \ n -> n n add_s32
end

main: fn
  \ -> 21 double
end
`)
	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))

	effects := runToHalt(t, e, 64)
	require.NotEmpty(t, effects)
	assert.Equal(t, machine.EffectHalted, effects[len(effects)-1].Kind)
}

func TestEvaluatorHostCallEffect(t *testing.T) {
	tree, err := parser.Parse([]byte(`
main: fn
  \ -> 1 send
end
`))
	require.NoError(t, err)
	fc := calls.New(tree, func(name string) (uint8, bool) { return 3, name == "send" })
	g := deps.BuildGraph(tree, fc)
	prog, err := compiler.Compile(tree, ast.Freeze(tree), fc, deps.Condense(tree, g, fc))
	require.NoError(t, err)
	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))

	// the first step pushes 1, the second executes the host call
	require.NoError(t, e.Step())
	require.NoError(t, e.Step())
	eff, ok := e.Effects.Pop()
	require.True(t, ok)
	assert.Equal(t, machine.EffectHostCall, eff.Kind)
	assert.Equal(t, uint8(3), eff.HostNumber)
}

func TestEvaluatorBreakpoint(t *testing.T) {
	prog := compile(t, `
main: fn
  \ -> 1 2 add_s32
end
`)
	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))
	e.Breakpoints.Set(main.Entry)

	require.NoError(t, e.Step())
	eff, ok := e.Effects.Pop()
	require.True(t, ok)
	assert.Equal(t, machine.EffectBreakpointHit, eff.Kind)
	assert.Equal(t, main.Entry, eff.Address)
}

// a non-leading literal parameter must still fall through to the next
// branch on mismatch, not assert and raise a build error.
func TestDispatchMatchesNonLeadingLiteralParameter(t *testing.T) {
	prog := compile(t, `
classify: fn
  \ a 0 -> a
  \ a b -> b
end

main: fn
  \ -> 5 0 classify
end
`)
	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))
	runToHalt(t, e, 64)

	snap := e.Stack.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int32(5), snap[0].Number)
}

// when the non-leading literal parameter doesn't match, dispatch falls
// through to the catch-all branch instead of raising a build error.
func TestDispatchFallsThroughNonLeadingLiteralMismatch(t *testing.T) {
	prog := compile(t, `
classify: fn
  \ a 0 -> a
  \ a b -> b
end

main: fn
  \ -> 5 3 classify
end
`)
	main, ok := prog.Functions.ByName("main")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 8)
	require.NoError(t, e.Start(main.Entry))
	runToHalt(t, e, 64)

	snap := e.Stack.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int32(3), snap[0].Number)
}

func TestStackDepthExceeded(t *testing.T) {
	// the recursive call to loop sits before the final drop, so it is not a
	// tail call and genuinely grows the frame each time.
	prog := compile(t, `
loop: fn
  \ n -> n 1 add_s32 loop drop
end
`)
	loop, ok := prog.Functions.ByName("loop")
	require.True(t, ok)

	e := machine.NewEvaluator(prog, 2)
	require.NoError(t, e.Start(loop.Entry))
	e.Stack.PushOperand(machine.NumberValue(0)) // loop's argument n

	var found bool
	for i := 0; i < 64 && !found; i++ {
		require.NoError(t, e.Step())
		for {
			eff, ok := e.Effects.Pop()
			if !ok {
				break
			}
			if eff.Kind == machine.EffectCallDepthExceeded {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a call-depth-exceeded effect")
}
