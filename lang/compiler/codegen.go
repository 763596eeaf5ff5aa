// Package compiler also holds the code generator itself: walking clusters
// leaves-first (so every CallFunction target is already content-hashed) and
// emitting one linear Instruction stream.
package compiler

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/deps"
)

// Compile walks tree's clusters leaves-first and emits a Program. hashes
// supplies the content hash recorded against each function's FunctionEntry
// (the basis hot code update rebinds against), and fc resolves identifier
// expressions to intrinsics, user functions, or host calls.
func Compile(tree *ast.Tree, hashes *ast.Hashes, fc *calls.FunctionCalls, clusters []deps.Cluster) (*Program, error) {
	prog := &Program{SourceMap: newSourceMap(), Functions: newFunctionTable()}
	g := &generator{tree: tree, hashes: hashes, fc: fc, prog: prog}

	seen := make(map[ast.FunctionLocation]bool)
	for _, cl := range clusters {
		for _, floc := range cl.Functions {
			if seen[floc] {
				continue
			}
			seen[floc] = true
			if err := g.compileFunction(floc); err != nil {
				return nil, err
			}
		}
	}

	if len(g.errs) > 0 {
		return prog, g.errs
	}
	return prog, nil
}

type generator struct {
	tree   *ast.Tree
	hashes *ast.Hashes
	fc     *calls.FunctionCalls
	prog   *Program
	errs   ErrorList
}

// Error reports a code generation failure against the function it occurred
// in; unlike a type error this indicates a compiler-internal inconsistency
// (a location inference didn't already rule out), surfaced rather than
// panicking so `compile` can report it like any other build failure.
type Error struct {
	Location fmt.Stringer
	Message  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Location, e.Message) }

// ErrorList collects every code generation error found in one Compile call.
type ErrorList []*Error

func (el ErrorList) Error() string {
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0], len(el)-1)
}

func (el ErrorList) Unwrap() []error {
	out := make([]error, len(el))
	for i, e := range el {
		out[i] = e
	}
	return out
}

func (g *generator) fail(loc fmt.Stringer, msg string) {
	g.errs = append(g.errs, &Error{Location: loc, Message: msg})
}

func (g *generator) emit(instr Instruction, loc ast.MemberLocation, hasLoc bool) InstructionAddress {
	addr := InstructionAddress(len(g.prog.Instructions))
	g.prog.Instructions = append(g.prog.Instructions, instr)
	if hasLoc {
		g.prog.SourceMap.record(loc, addr)
	}
	return addr
}

// here returns the address the next emit call will use, for preamble
// back-patching.
func (g *generator) here() InstructionAddress {
	return InstructionAddress(len(g.prog.Instructions))
}

func (g *generator) patchTarget(addr InstructionAddress, target InstructionAddress) {
	g.prog.Instructions[addr].Target = target
}

func (g *generator) compileFunction(floc ast.FunctionLocation) error {
	fn, ok := ast.ResolveFunction(g.tree, floc)
	if !ok {
		g.fail(floc, "unresolved function location during code generation")
		return nil
	}

	entry := g.here()
	h := g.hashes.Of(floc)

	var pendingMismatch []InstructionAddress // JumpIfZero instructions awaiting the next branch's address

	fn.Branches.Each(func(i ast.Index[ast.Branch], br ast.Branch) bool {
		bloc := floc.Branch(i)
		branchStart := g.here()
		for _, addr := range pendingMismatch {
			g.patchTarget(addr, branchStart)
		}
		pendingMismatch = nil

		g.compileBranchDispatch(br, &pendingMismatch)
		g.compileBranchBody(bloc, br)
		return true
	})

	// every remaining mismatch -- left by a final branch that still tests at
	// least one literal parameter -- falls through to a build error: no
	// pattern matched the call's arguments.
	errAddr := g.here()
	for _, addr := range pendingMismatch {
		g.patchTarget(addr, errAddr)
	}
	if len(pendingMismatch) > 0 {
		g.emit(Instruction{Op: TriggerEffect, Effect: EffectBuildError}, ast.MemberLocation{}, false)
		g.emit(Instruction{Op: Return}, ast.MemberLocation{}, false)
	}

	name := ""
	if floc.IsRoot() {
		ast.WalkFunctions(g.tree, func(l ast.FunctionLocation, nf ast.NamedFunction) {
			if l == floc {
				name = nf.Name
			}
		})
	}
	arity := 0
	if fn.Branches.Len() > 0 {
		first, _ := fn.Branches.Get(0)
		arity = first.Parameters.Len()
	}
	g.prog.Functions.put(FunctionEntry{Hash: h, Entry: entry, Arity: arity, Name: name})
	return nil
}

// compileBranchDispatch pops every one of the branch's parameters into a
// binding -- a real name for an ast.Binding parameter, a synthetic one for
// an ast.Literal parameter -- then tests every literal position against its
// expected value. On the first mismatch it restores the operand stack to
// exactly the arrangement the next branch's own dispatch expects (every
// parameter pushed back, bottom to top) and jumps past the branch body; the
// jump's address is recorded in pending for the caller to patch once the
// next branch's start address (or the final BuildError) is known. A branch
// with no literal parameters needs no restore path: reaching it always
// matches, same as an unreachable catch-all arm.
func (g *generator) compileBranchDispatch(br ast.Branch, pending *[]InstructionAddress) {
	n := br.Parameters.Len()
	if n == 0 {
		return
	}

	names := make([]string, n)
	isLiteral := make([]bool, n)
	for i := n - 1; i >= 0; i-- {
		p, _ := br.Parameters.Get(ast.Index[ast.Parameter](i))
		name := p.Name
		if p.Kind == ast.Literal {
			name = fmt.Sprintf("$p%d", i)
			isLiteral[i] = true
		}
		names[i] = name
		g.emit(Instruction{Op: BindingDefine, Name: name}, ast.MemberLocation{}, false)
	}

	var mismatches []InstructionAddress
	for i := 0; i < n; i++ {
		if !isLiteral[i] {
			continue
		}
		p, _ := br.Parameters.Get(ast.Index[ast.Parameter](i))
		g.emit(Instruction{Op: BindingEvaluate, Name: names[i]}, ast.MemberLocation{}, false)
		g.emit(Instruction{Op: Push, PushValue: p.Value}, ast.MemberLocation{}, false)
		g.emit(Instruction{Op: CallIntrinsic, Intrinsic: calls.Eq}, ast.MemberLocation{}, false)
		jz := g.emit(Instruction{Op: JumpIfZero}, ast.MemberLocation{}, false)
		mismatches = append(mismatches, jz)
	}
	if len(mismatches) == 0 {
		return
	}

	matched := g.emit(Instruction{Op: Jump}, ast.MemberLocation{}, false)

	restoreAddr := g.here()
	for _, addr := range mismatches {
		g.patchTarget(addr, restoreAddr)
	}
	for i := 0; i < n; i++ {
		g.emit(Instruction{Op: BindingEvaluate, Name: names[i]}, ast.MemberLocation{}, false)
	}
	fallthroughJump := g.emit(Instruction{Op: Jump}, ast.MemberLocation{}, false)
	*pending = append(*pending, fallthroughJump)

	g.patchTarget(matched, g.here())
}

// compileBranchBody compiles the branch's body members in order --
// parameters are already bound by compileBranchDispatch -- eliminating the
// tail call when the final member is a direct call to a user-defined
// function.
func (g *generator) compileBranchBody(bloc ast.BranchLocation, br ast.Branch) {
	members := br.Body
	last := members.Len() - 1
	tailCallEmitted := false
	members.Each(func(i ast.Index[ast.Member], m ast.Member) bool {
		if m.Kind != ast.ExpressionMember {
			return true
		}
		mloc := bloc.Member(i)
		isTailPosition := int(i) == last
		tailCallEmitted = g.compileExpression(mloc, m.Expr, isTailPosition)
		return true
	})

	if !tailCallEmitted {
		g.emit(Instruction{Op: Return}, ast.MemberLocation{}, false)
	}
}

// compileExpression emits loc's expression and reports whether it ended in
// a CallFunction{IsTailCall: true} -- the only case that already reaches a
// Return (inside the callee) and so must not get a Return appended after it.
func (g *generator) compileExpression(loc ast.MemberLocation, e ast.Expression, tail bool) bool {
	switch e.Kind {
	case ast.LiteralNumber:
		g.emit(Instruction{Op: Push, PushValue: e.Value}, loc, true)

	case ast.LocalFunctionExpr:
		local := ast.LocalFunction(loc)
		// a local function's compiled code is (also) emitted right here,
		// inline with the branch that defines it, and its entry is
		// re-recorded under its precomputed hash -- it is never reached by
		// falling off the end of the previous instruction, so jump over it
		// first.
		skip := g.emit(Instruction{Op: Jump}, ast.MemberLocation{}, false)
		if err := g.compileFunction(local); err != nil {
			g.fail(loc, err.Error())
			return false
		}
		g.patchTarget(skip, g.here())
		h := g.hashes.Of(local)
		g.emit(Instruction{Op: PushFunction, Callee: h}, loc, true)

	case ast.Identifier:
		resolved := g.fc.Resolve(loc, false)
		switch resolved.Kind {
		case calls.ToUser:
			h := g.hashes.Of(resolved.User)
			g.emit(Instruction{Op: CallFunction, Callee: h, IsTailCall: tail}, loc, true)
			return tail
		case calls.ToIntrinsic:
			g.emit(Instruction{Op: CallIntrinsic, Intrinsic: resolved.Intrinsic}, loc, true)
		case calls.ToHost:
			g.emit(Instruction{Op: CallHost, HostNumber: resolved.Host}, loc, true)
		default:
			g.emit(Instruction{Op: BindingEvaluate, Name: e.Name}, loc, true)
		}

	case ast.UnresolvedLocalFunction:
		g.fail(loc, "local function did not parse correctly")
	}
	return false
}
