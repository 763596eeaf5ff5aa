package types

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/dolthub/swiss"
)

// Error is a unification failure reported against the offending
// MemberLocation. Compilation fails when any are produced; the previous good
// instruction table stays installed.
type Error struct {
	Location ast.MemberLocation
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// ErrorList collects every type error found during inference.
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

// HostSignature supplies the declared signature for a host function number,
// used when a call resolves to the host table.
type HostSignature func(number uint8) Signature

// Map is the output of inference: for every location, either a Type (a
// number or a function value) or a Signature (for a function location),
// kept as separate swiss.Map tables rather than a tagged union so callers
// ask for exactly the kind they expect.
type Map struct {
	exprTypes   *swiss.Map[ast.MemberLocation, Type]
	exprStack   *swiss.Map[ast.MemberLocation, []Type] // stack snapshot immediately before the expression
	signatures  *swiss.Map[ast.FunctionLocation, Signature]
	branchSigs  *swiss.Map[ast.BranchLocation, Signature]
}

func newMap() *Map {
	return &Map{
		exprTypes:  swiss.NewMap[ast.MemberLocation, Type](16),
		exprStack:  swiss.NewMap[ast.MemberLocation, []Type](16),
		signatures: swiss.NewMap[ast.FunctionLocation, Signature](8),
		branchSigs: swiss.NewMap[ast.BranchLocation, Signature](8),
	}
}

// TypeOf returns the inferred Type of the expression at loc.
func (m *Map) TypeOf(loc ast.MemberLocation) (Type, bool) { return m.exprTypes.Get(loc) }

// StackBefore returns the inferred local stack snapshot immediately before
// evaluating the expression at loc, topmost element last.
func (m *Map) StackBefore(loc ast.MemberLocation) ([]Type, bool) { return m.exprStack.Get(loc) }

// SignatureOf returns the inferred signature of the function at loc.
func (m *Map) SignatureOf(loc ast.FunctionLocation) (Signature, bool) { return m.signatures.Get(loc) }

// BranchSignature returns the inferred signature of one branch.
func (m *Map) BranchSignature(loc ast.BranchLocation) (Signature, bool) { return m.branchSigs.Get(loc) }

// Infer runs type inference over every cluster, leaves first. It returns
// the accumulated Map and a non-nil ErrorList if any expression failed to
// unify.
func Infer(tree *ast.Tree, fc *calls.FunctionCalls, clusters []deps.Cluster, hostSig HostSignature) (*Map, error) {
	m := newMap()
	var errs ErrorList

	for _, cl := range clusters {
		infr := &clusterInferer{
			tree: tree, fc: fc, out: m, hostSig: hostSig,
			divergent: make(map[ast.FunctionLocation]bool),
		}
		infr.run(cl)
		errs = append(errs, infr.errs...)
	}

	if len(errs) > 0 {
		return m, errs
	}
	return m, nil
}

type clusterInferer struct {
	tree      *ast.Tree
	fc        *calls.FunctionCalls
	out       *Map
	hostSig   HostSignature
	divergent map[ast.FunctionLocation]bool
	errs      ErrorList
}

func (c *clusterInferer) run(cl deps.Cluster) {
	// Divergence is a fixed point: start by assuming every function in the
	// cluster is divergent, and demote to non-divergent as soon as a branch
	// is found that can return normally given the current assumption.
	for _, f := range cl.Functions {
		c.divergent[f] = true
	}

	for iter := 0; iter < len(cl.Branches)+1; iter++ {
		changed := false
		for _, bloc := range cl.Branches {
			br, ok := c.resolveBranch(bloc)
			if !ok {
				continue
			}
			diverges := c.branchDiverges(bloc, br)
			if !diverges && c.divergent[bloc.Function] {
				c.divergent[bloc.Function] = false
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, bloc := range cl.Branches {
		br, ok := c.resolveBranch(bloc)
		if !ok {
			continue
		}
		sig := c.inferBranch(bloc, br)
		c.out.branchSigs.Put(bloc, sig)
		c.mergeSignature(bloc.Function, sig)
	}
}

func (c *clusterInferer) resolveBranch(loc ast.BranchLocation) (ast.Branch, bool) {
	fn, ok := ast.ResolveFunction(c.tree, loc.Function)
	if !ok {
		return ast.Branch{}, false
	}
	var found ast.Branch
	var fok bool
	fn.Branches.Each(func(i ast.Index[ast.Branch], br ast.Branch) bool {
		if loc.Function.Branch(i) == loc {
			found, fok = br, true
			return false
		}
		return true
	})
	return found, fok
}

// branchDiverges reports whether, under the current divergence assumption
// for the cluster, this branch cannot return: its last body member must be
// an unconditional call to a function currently assumed divergent.
func (c *clusterInferer) branchDiverges(loc ast.BranchLocation, br ast.Branch) bool {
	if br.Body.Len() == 0 {
		return false
	}
	last, _ := br.Body.Get(ast.Index[ast.Member](br.Body.Len() - 1))
	if last.Kind != ast.ExpressionMember || last.Expr.Kind != ast.Identifier {
		return false
	}
	mloc := loc.Member(ast.Index[ast.Member](br.Body.Len() - 1))
	callee, ok := c.fc.User(mloc)
	if !ok {
		return false
	}
	return c.divergent[callee]
}

func (c *clusterInferer) mergeSignature(f ast.FunctionLocation, sig Signature) {
	existing, ok := c.out.signatures.Get(f)
	if !ok {
		c.out.signatures.Put(f, sig)
		return
	}
	// multiple branches of the same function must agree on arity; a full
	// shape check happens per-branch during inferBranch via unification, so
	// here we only keep the first non-divergent signature as the function's
	// public shape (a divergent branch contributes nothing to the public
	// signature).
	if existing.Diverges && !sig.Diverges {
		c.out.signatures.Put(f, sig)
	}
}

// inferBranch runs a simple forward abstract-interpretation pass over one
// branch's body, maintaining a local stack of Type values via a union-find
// table so that unresolved elements (e.g. the polymorphic copy/drop/eval
// forms) can be unified once enough context is known.
func (c *clusterInferer) inferBranch(loc ast.BranchLocation, br ast.Branch) Signature {
	uf := newUnionFind()
	stack := newStackState(uf)

	scope := make(map[string]Type)
	br.Parameters.Each(func(i ast.Index[ast.Parameter], p ast.Parameter) bool {
		switch p.Kind {
		case ast.Binding:
			t := NumberType
			scope[p.Name] = t
			stack.push(t)
		case ast.Literal:
			stack.push(NumberType)
		}
		return true
	})
	inputs := stack.snapshot()
	// dispatch pops every parameter into a binding before the body runs, so
	// the body starts from an empty local stack.
	stack.stack = nil

	br.Body.Each(func(i ast.Index[ast.Member], m ast.Member) bool {
		if m.Kind != ast.ExpressionMember {
			return true
		}
		mloc := loc.Member(i)
		c.out.exprStack.Put(mloc, stack.snapshot())
		c.inferExpression(mloc, m.Expr, scope, stack)
		return true
	})

	if c.divergent[loc.Function] {
		return Signature{Inputs: inputs, Diverges: true}
	}
	return Signature{Inputs: inputs, Outputs: stack.snapshot()}
}

func (c *clusterInferer) inferExpression(loc ast.MemberLocation, e ast.Expression, scope map[string]Type, stack *stackState) {
	switch e.Kind {
	case ast.LiteralNumber:
		stack.push(NumberType)
		c.out.exprTypes.Put(loc, NumberType)

	case ast.LocalFunctionExpr:
		sig, ok := c.out.signatures.Get(ast.LocalFunction(loc))
		if !ok {
			// local functions are inferred as part of their own cluster, which
			// (since they are only reachable from their defining member) is
			// always processed before the enclosing branch if it has no other
			// callers; if this fires it means the cluster ordering invariant
			// was violated, a compiler bug rather than a user error.
			sig = Signature{}
		}
		t := FuncType(sig)
		stack.push(t)
		c.out.exprTypes.Put(loc, t)

	case ast.UnresolvedLocalFunction:
		c.fail(loc, "local function did not parse correctly")

	case ast.Identifier:
		if t, ok := scope[e.Name]; ok {
			stack.push(t)
			c.out.exprTypes.Put(loc, t)
			return
		}

		resolved := c.fc.Resolve(loc, false)
		switch resolved.Kind {
		case calls.ToIntrinsic:
			c.inferIntrinsic(loc, resolved.Intrinsic, stack)
		case calls.ToUser:
			sig, ok := c.out.signatures.Get(resolved.User)
			if !ok && c.divergent[resolved.User] {
				// a call into a same-cluster function known to diverge: it
				// never returns, so its outputs are unconstrained.
				return
			}
			if !ok {
				c.fail(loc, fmt.Sprintf("no signature yet for %s (cluster ordering bug)", resolved.User))
				return
			}
			c.applySignature(loc, sig, stack)
		case calls.ToHost:
			if c.hostSig == nil {
				c.fail(loc, "no host signature provider configured")
				return
			}
			c.applySignature(loc, c.hostSig(resolved.Host), stack)
		default:
			c.fail(loc, fmt.Sprintf("unresolved identifier %q", e.Name))
		}
	}
}

func (c *clusterInferer) inferIntrinsic(loc ast.MemberLocation, i calls.Intrinsic, stack *stackState) {
	switch i {
	case calls.AddS32, calls.SubS32, calls.MulS32, calls.DivS32, calls.ModS32:
		if !stack.popExpect(NumberType) || !stack.popExpect(NumberType) {
			c.fail(loc, "expected two numbers on the stack")
			return
		}
		stack.push(NumberType)
	case calls.NegS32:
		if !stack.popExpect(NumberType) {
			c.fail(loc, "expected a number on the stack")
			return
		}
		stack.push(NumberType)
	case calls.Eq, calls.Lt, calls.Gt:
		if !stack.popExpect(NumberType) || !stack.popExpect(NumberType) {
			c.fail(loc, "expected two numbers on the stack")
			return
		}
		stack.push(NumberType)
	case calls.Drop:
		if _, ok := stack.pop(); !ok {
			c.fail(loc, "drop on an empty stack")
		}
	case calls.Copy:
		t, ok := stack.pop()
		if !ok {
			c.fail(loc, "copy on an empty stack")
			return
		}
		stack.push(t)
		stack.push(t)
	case calls.Eval:
		t, ok := stack.pop()
		if !ok {
			c.fail(loc, "eval on an empty stack")
			return
		}
		if t.Kind != Func {
			c.fail(loc, "eval expects a function value")
			return
		}
		c.applySignature(loc, t.Signature, stack)
	case calls.Nop:
		// no stack effect
	case calls.Brk:
		// no stack effect; compiles to an always-firing breakpoint
	}
}

func (c *clusterInferer) applySignature(loc ast.MemberLocation, sig Signature, stack *stackState) {
	for i := len(sig.Inputs) - 1; i >= 0; i-- {
		if !stack.popExpect(sig.Inputs[i]) {
			c.fail(loc, fmt.Sprintf("expected %s on the stack", sig.Inputs[i].Kind))
			return
		}
	}
	if sig.Diverges {
		return
	}
	for _, t := range sig.Outputs {
		stack.push(t)
	}
}

func (c *clusterInferer) fail(loc ast.MemberLocation, msg string) {
	c.errs = append(c.errs, &Error{Location: loc, Message: msg})
}
