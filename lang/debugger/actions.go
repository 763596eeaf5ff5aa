package debugger

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/protocol"
)

// ActionKind is one of the user-facing debugger actions that translates to
// one or more runtime commands.
type ActionKind uint8

const (
	BreakpointSet ActionKind = iota
	BreakpointClear
	ActionContinue
	ActionStop
	ActionReset
	StepIn
	StepOut
	StepOver
)

// Action is one user request, carrying the location it applies to (ignored
// for Continue/Stop/Reset).
type Action struct {
	Kind     ActionKind
	Location ast.MemberLocation
}

// ErrLocationGone is returned when an action names a location that no
// longer exists in the currently installed source.
type ErrLocationGone struct{ Location ast.MemberLocation }

func (e *ErrLocationGone) Error() string {
	return fmt.Sprintf("debugger: location %s is not part of the current source", e.Location)
}

// Translate turns one user Action into the runtime commands that implement
// it, applying its effect to bp along the way (breakpoint commands mutate
// the durable set; step commands arm the ephemeral one).
func Translate(m *Model, bp *machine.Breakpoints, e *machine.Evaluator, a Action) ([]protocol.Command, error) {
	switch a.Kind {
	case BreakpointSet, BreakpointClear:
		addrs, ok := m.Program.SourceMap.MemberToInstructions(a.Location)
		if !ok || len(addrs) == 0 {
			return nil, &ErrLocationGone{a.Location}
		}
		for _, addr := range addrs {
			if a.Kind == BreakpointSet {
				bp.Set(addr)
			} else {
				bp.Clear(addr)
			}
		}
		return []protocol.Command{{Kind: protocol.UpdateCode, Program: withBreakpointsApplied(m.Program, bp)}}, nil

	case ActionContinue:
		return []protocol.Command{{Kind: protocol.Continue}}, nil

	case ActionReset:
		return []protocol.Command{{Kind: protocol.Reset}}, nil

	case ActionStop:
		bp.ArmEphemeral(e.PC)
		return nil, nil

	case StepIn, StepOut, StepOver:
		return translateStep(m, bp, e, a.Kind)
	}
	return nil, fmt.Errorf("debugger: unknown action kind %d", a.Kind)
}

// withBreakpointsApplied returns a copy of prog's instruction stream with
// every durable breakpoint overwritten to TriggerEffect{Breakpoint}, the
// wire representation of a breakpoint: there is no separate breakpoint
// opcode beyond this. The program's own function table and source map are
// unaffected, so installing this copy via UpdateCode doesn't look like a
// recompilation to lang/update.
func withBreakpointsApplied(prog *compiler.Program, bp *machine.Breakpoints) *compiler.Program {
	instrs := make([]compiler.Instruction, len(prog.Instructions))
	copy(instrs, prog.Instructions)
	for _, addr := range bp.Durable() {
		if int(addr) < len(instrs) {
			instrs[addr] = compiler.Instruction{Op: compiler.TriggerEffect, Effect: compiler.EffectBreakpoint}
		}
	}
	return &compiler.Program{Instructions: instrs, SourceMap: prog.SourceMap, Functions: prog.Functions}
}

// translateStep computes the target location for a step action, arms it as
// the ephemeral breakpoint, and issues Continue -- prefixed with
// IgnoreNextInstruction if the current instruction is itself an always-fire
// brk, and wrapped with a one-shot breakpoint bypass if a durable breakpoint
// already sits on the current instruction (so stepping off a breakpoint
// doesn't immediately re-trigger it).
func translateStep(m *Model, bp *machine.Breakpoints, e *machine.Evaluator, kind ActionKind) ([]protocol.Command, error) {
	loc, ok := m.Program.SourceMap.InstructionToMember(e.PC)
	if !ok {
		return nil, &ErrLocationGone{}
	}

	target, err := stepTarget(m, loc, kind)
	if err != nil {
		return nil, err
	}
	addrs, ok := m.Program.SourceMap.MemberToInstructions(target)
	if !ok || len(addrs) == 0 {
		return nil, &ErrLocationGone{target}
	}
	bp.ArmEphemeral(addrs[0])

	var cmds []protocol.Command
	if isBrkSite(m, loc) {
		cmds = append(cmds, protocol.Command{Kind: protocol.IgnoreNextInstruction})
	}
	if bp.HasDurable(e.PC) {
		cmds = append(cmds, protocol.Command{Kind: protocol.ClearBreakpointAndEvaluateNextInstruction})
	} else {
		cmds = append(cmds, protocol.Command{Kind: protocol.Continue})
	}
	return cmds, nil
}

func isBrkSite(m *Model, loc ast.MemberLocation) bool {
	mem, ok := ast.ResolveMember(m.Tree, loc)
	if !ok || mem.Kind != ast.ExpressionMember || mem.Expr.Kind != ast.Identifier {
		return false
	}
	i, ok := m.FC.IntrinsicOf(loc)
	return ok && i == calls.Brk
}

// stepTarget computes the MemberLocation a step action should land on: the
// entered local function's first member for StepIn, the caller's next
// expression for StepOut, or the next member in the same branch for
// StepOver.
func stepTarget(m *Model, loc ast.MemberLocation, kind ActionKind) (ast.MemberLocation, error) {
	switch kind {
	case StepIn:
		mem, ok := ast.ResolveMember(m.Tree, loc)
		if ok && mem.Kind == ast.ExpressionMember && mem.Expr.Kind == ast.LocalFunctionExpr {
			local := ast.LocalFunction(loc)
			fn, ok := ast.ResolveFunction(m.Tree, local)
			if ok && fn.Branches.Len() > 0 {
				first, _ := fn.Branches.Get(0)
				if first.Body.Len() > 0 {
					return local.Branch(0).Member(0), nil
				}
			}
		}
		return nextInBranch(m, loc)

	case StepOver:
		return nextInBranch(m, loc)

	case StepOut:
		if caller, ok := callerOf(m, loc.Branch.Function); ok {
			return nextMemberAfterCallSite(m, caller, loc.Branch.Function)
		}
		return ast.MemberLocation{}, &ErrLocationGone{loc}
	}
	return ast.MemberLocation{}, fmt.Errorf("debugger: unsupported step kind %d", kind)
}

// nextInBranch returns the member immediately after loc in its own branch.
// There is no well-defined "keep going" destination once the branch ends
// (sibling branches are alternative patterns, not a continuation), so the
// last member of a branch has no step-over/step-in target within it; the
// caller should treat that as equivalent to StepOut.
func nextInBranch(m *Model, loc ast.MemberLocation) (ast.MemberLocation, error) {
	fn, ok := ast.ResolveFunction(m.Tree, loc.Branch.Function)
	if !ok {
		return ast.MemberLocation{}, &ErrLocationGone{loc}
	}
	var br ast.Branch
	var bok bool
	fn.Branches.Each(func(i ast.Index[ast.Branch], b ast.Branch) bool {
		if loc.Branch.Function.Branch(i) == loc.Branch {
			br, bok = b, true
			return false
		}
		return true
	})
	if !bok {
		return ast.MemberLocation{}, &ErrLocationGone{loc}
	}

	n := br.Body.Len()
	for i := 0; i < n; i++ {
		cand := loc.Branch.Member(ast.Index[ast.Member](i))
		if cand == loc && i+1 < n {
			return loc.Branch.Member(ast.Index[ast.Member](i + 1)), nil
		}
	}
	return ast.MemberLocation{}, &ErrLocationGone{loc}
}

// callerOf returns the unique function that calls floc directly, if exactly
// one such function exists in the call graph; for an ambiguous or absent
// caller, StepOut returns ErrLocationGone rather than guessing.
func callerOf(m *Model, floc ast.FunctionLocation) (ast.FunctionLocation, bool) {
	var found ast.FunctionLocation
	count := 0
	for _, n := range m.Graph.Nodes() {
		for _, callee := range m.Graph.Callees(n) {
			if callee == floc {
				found = n
				count++
				break
			}
		}
	}
	if count == 1 {
		return found, true
	}
	return ast.FunctionLocation{}, false
}

// nextMemberAfterCallSite finds the member in caller that calls callee and
// returns the member immediately after it in the same branch, the natural
// "resume after the call returns" destination for StepOut.
func nextMemberAfterCallSite(m *Model, caller, callee ast.FunctionLocation) (ast.MemberLocation, error) {
	fn, ok := ast.ResolveFunction(m.Tree, caller)
	if !ok {
		return ast.MemberLocation{}, &ErrLocationGone{}
	}

	var callSite ast.MemberLocation
	var found bool
	ast.WalkBranches(fn, caller, func(bloc ast.BranchLocation, br ast.Branch) {
		if found {
			return
		}
		ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, mem ast.Member) {
			if found || mem.Kind != ast.ExpressionMember {
				return
			}
			switch mem.Expr.Kind {
			case ast.Identifier:
				if u, ok := m.FC.User(mloc); ok && u == callee {
					callSite, found = mloc, true
				}
			case ast.LocalFunctionExpr:
				if ast.LocalFunction(mloc) == callee {
					callSite, found = mloc, true
				}
			}
		})
	})
	if !found {
		return ast.MemberLocation{}, &ErrLocationGone{}
	}
	return nextInBranch(m, callSite)
}
