// Package debugger turns a running Evaluator's raw state (active
// instruction addresses, the operand stack, the effect queue) into data a
// UI can render directly: the chain of active functions with tail-call gaps
// reconstructed, and each function's expressions decorated with their
// current status. It never renders anything itself -- model produces data,
// the caller presents it.
package debugger

import (
	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/lang/types"
)

// Model is the static context a debugger session decorates a running
// process against: the tree, its call graph (for tail-call reconstruction
// and step-out targeting), and the currently installed compilation.
type Model struct {
	Tree    *ast.Tree
	FC      *calls.FunctionCalls
	Graph   *deps.Graph
	Types   *types.Map
	Program *compiler.Program
}

// Expression is one decorated body member.
type Expression struct {
	Text          string
	Location      ast.MemberLocation
	IsActive      bool
	HasBreakpoint bool
	Signature     string
	Effect        *machine.Effect // only set on the innermost active expression
}

// Branch is one decorated `\ ... -> ...` arm.
type Branch struct {
	Location    ast.BranchLocation
	Expressions []Expression
}

// Function is one decorated function: every branch, every member.
type Function struct {
	Name     string
	Location ast.FunctionLocation
	Branches []Branch
}

// EntryKind distinguishes a reconstructed/observed function frame from a gap
// left where a caller could not be uniquely determined.
type EntryKind uint8

const (
	EntryFunction EntryKind = iota
	EntryGap
)

// Entry is one slot in the active-function chain, outermost first.
type Entry struct {
	Kind     EntryKind
	Function Function // meaningful when Kind == EntryFunction
}

// ActiveFunctions is the reconstructed call chain, or a short message when
// there's nothing meaningful to show (no process, or one that is running
// freely rather than stopped).
type ActiveFunctions struct {
	Entries []Entry
	Message string
}

// New reconstructs the active-function chain for e, decorating every member
// of every function on it. Call only while e is stopped (halted, or with a
// pending effect) -- a freely running process has no stable call stack to
// decorate.
func New(m *Model, bp *machine.Breakpoints, e *machine.Evaluator) ActiveFunctions {
	if !e.Halted && e.Effects.Len() == 0 {
		return ActiveFunctions{Message: "process is running"}
	}

	addrs := e.Stack.ActiveAddresses(e.PC)
	var pendingEffect *machine.Effect
	if eff, ok := peekEffect(e); ok {
		pendingEffect = &eff
	}

	var entries []Entry
	expectedName := "main"
	haveExpected := true

	for i, addr := range addrs {
		isInnermost := i == len(addrs)-1
		loc, ok := m.Program.SourceMap.InstructionToMember(addr)
		if !ok {
			entries = append(entries, Entry{Kind: EntryGap})
			haveExpected = false
			continue
		}
		floc := loc.Branch.Function
		name := functionName(m.Tree, floc)

		if haveExpected && name != expectedName {
			ancestors, resolved := reconstructAncestors(m, floc, expectedName)
			if !resolved {
				entries = append(entries, Entry{Kind: EntryGap})
				haveExpected = false
			}
			for i := len(ancestors) - 1; i >= 0; i-- {
				entries = append(entries, buildEntry(m, bp, ancestors[i], ast.MemberLocation{}, false, nil))
			}
		}

		var effPtr *machine.Effect
		if isInnermost {
			effPtr = pendingEffect
		}
		entries = append(entries, buildEntry(m, bp, floc, loc, isInnermost, effPtr))

		expectedName, haveExpected = calleeNameOf(m, loc), true
	}

	return ActiveFunctions{Entries: entries}
}

// reconstructAncestors climbs single-branch callers starting from callee
// until it reaches a function named expectedName, returning every
// intermediate frame dropped by tail-call elimination, nearest-to-callee
// first. resolved is false when the chain hits a caller that cannot be
// uniquely determined (or a cycle) before expectedName is reached -- the
// caller should show a gap instead of a guess in that case.
func reconstructAncestors(m *Model, callee ast.FunctionLocation, expectedName string) ([]ast.FunctionLocation, bool) {
	var ancestors []ast.FunctionLocation
	seen := map[ast.FunctionLocation]bool{callee: true}
	cur := callee
	for {
		caller, ok := deps.SingleBranchCaller(m.Tree, m.Graph, cur)
		if !ok || seen[caller] {
			return ancestors, false
		}
		ancestors = append(ancestors, caller)
		if functionName(m.Tree, caller) == expectedName {
			return ancestors, true
		}
		seen[caller] = true
		cur = caller
	}
}

func peekEffect(e *machine.Evaluator) (machine.Effect, bool) {
	snap := e.Effects.Snapshot()
	if len(snap) == 0 {
		return machine.Effect{}, false
	}
	return snap[0], true
}

func functionName(tree *ast.Tree, floc ast.FunctionLocation) string {
	if !floc.IsRoot() {
		return ""
	}
	name := ""
	ast.WalkFunctions(tree, func(l ast.FunctionLocation, nf ast.NamedFunction) {
		if l == floc {
			name = nf.Name
		}
	})
	return name
}

// calleeNameOf returns the name the expression at loc calls, if it is an
// identifier naming a user-defined function -- used to predict the next
// frame expected further down the (outermost-first) address list.
func calleeNameOf(m *Model, loc ast.MemberLocation) string {
	member, ok := ast.ResolveMember(m.Tree, loc)
	if !ok || member.Kind != ast.ExpressionMember || member.Expr.Kind != ast.Identifier {
		return ""
	}
	callee, ok := m.FC.User(loc)
	if !ok {
		return ""
	}
	return functionName(m.Tree, callee)
}

func buildEntry(m *Model, bp *machine.Breakpoints, floc ast.FunctionLocation, active ast.MemberLocation, hasActive bool, eff *machine.Effect) Entry {
	fn, ok := ast.ResolveFunction(m.Tree, floc)
	if !ok {
		return Entry{Kind: EntryGap}
	}

	df := Function{Name: functionName(m.Tree, floc), Location: floc}
	ast.WalkBranches(fn, floc, func(bloc ast.BranchLocation, br ast.Branch) {
		db := Branch{Location: bloc}
		ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, mem ast.Member) {
			if mem.Kind != ast.ExpressionMember {
				return
			}
			isActive := hasActive && mloc == active
			expr := Expression{
				Text:     mem.Expr.Text(),
				Location: mloc,
				IsActive: isActive,
			}
			if addrs, ok := m.Program.SourceMap.MemberToInstructions(mloc); ok && len(addrs) > 0 {
				for _, a := range addrs {
					if bp.HasDurable(a) {
						expr.HasBreakpoint = true
						break
					}
				}
			}
			if sig, ok := m.Types.TypeOf(mloc); ok {
				expr.Signature = sig.Kind.String()
			}
			if isActive {
				expr.Effect = eff
			}
			db.Expressions = append(db.Expressions, expr)
		})
		df.Branches = append(df.Branches, db)
	})

	return Entry{Kind: EntryFunction, Function: df}
}
