// Package calls classifies every identifier expression in the syntax tree
// as a reference to a host function, an intrinsic, or a user-defined
// function, without consulting bindings (that refinement is left to type
// inference, which tracks scope).
package calls

import (
	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/dolthub/swiss"
)

// Intrinsic is one of the fixed, compiler-provided operations.
type Intrinsic uint8

const (
	AddS32 Intrinsic = iota
	SubS32
	MulS32
	DivS32
	ModS32
	NegS32
	Eq
	Lt
	Gt
	Copy
	Drop
	Eval
	Nop
	Brk
)

var intrinsicNames = map[string]Intrinsic{
	"add_s32": AddS32,
	"sub_s32": SubS32,
	"mul_s32": MulS32,
	"div_s32": DivS32,
	"mod_s32": ModS32,
	"neg_s32": NegS32,
	"eq":      Eq,
	"lt":      Lt,
	"gt":      Gt,
	"copy":    Copy,
	"drop":    Drop,
	"eval":    Eval,
	"nop":     Nop,
	"brk":     Brk,
}

func (i Intrinsic) String() string {
	for name, v := range intrinsicNames {
		if v == i {
			return name
		}
	}
	return "?"
}

// LookupIntrinsic returns the Intrinsic named by name, if any.
func LookupIntrinsic(name string) (Intrinsic, bool) {
	i, ok := intrinsicNames[name]
	return i, ok
}

// HostLookup resolves an identifier to a host function number; returning
// false means the name is not a host function. It is supplied by the
// caller so this package doesn't depend on the host package's concrete
// Table type, keeping the dependency direction host -> calls free of a
// cycle back from calls -> host.
type HostLookup func(name string) (number uint8, ok bool)

// FunctionCalls stores, for every expression location, which of the three
// disjoint resolution maps it landed in. An identifier may legally resolve
// into more than one map until a later pass (type inference, which knows
// about local bindings) picks a winner by precedence: binding > user-defined
// > intrinsic > host.
type FunctionCalls struct {
	toHost      *swiss.Map[ast.MemberLocation, uint8]
	toIntrinsic *swiss.Map[ast.MemberLocation, Intrinsic]
	toUser      *swiss.Map[ast.MemberLocation, ast.FunctionLocation]
}

// New resolves every Identifier expression in tree against hostLookup and
// the fixed intrinsic table, and against tree's own named functions.
func New(tree *ast.Tree, hostLookup HostLookup) *FunctionCalls {
	fc := &FunctionCalls{
		toHost:      swiss.NewMap[ast.MemberLocation, uint8](8),
		toIntrinsic: swiss.NewMap[ast.MemberLocation, Intrinsic](8),
		toUser:      swiss.NewMap[ast.MemberLocation, ast.FunctionLocation](8),
	}

	var walk func(loc ast.FunctionLocation, fn ast.Function)
	walk = func(loc ast.FunctionLocation, fn ast.Function) {
		ast.WalkBranches(fn, loc, func(bloc ast.BranchLocation, br ast.Branch) {
			ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
				if m.Kind != ast.ExpressionMember {
					return
				}
				switch m.Expr.Kind {
				case ast.Identifier:
					fc.resolveIdentifier(tree, mloc, m.Expr.Name, hostLookup)
				case ast.LocalFunctionExpr:
					walk(ast.LocalFunction(mloc), m.Expr.Local)
				}
			})
		})
	}

	ast.WalkFunctions(tree, func(loc ast.FunctionLocation, nf ast.NamedFunction) {
		walk(loc, nf.Inner)
	})

	return fc
}

func (fc *FunctionCalls) resolveIdentifier(tree *ast.Tree, loc ast.MemberLocation, name string, hostLookup HostLookup) {
	if userLoc, _, ok := ast.FindFunction(tree, name); ok {
		fc.toUser.Put(loc, userLoc)
	}
	if i, ok := LookupIntrinsic(name); ok {
		fc.toIntrinsic.Put(loc, i)
	}
	if hostLookup != nil {
		if n, ok := hostLookup(name); ok {
			fc.toHost.Put(loc, n)
		}
	}
}

// Host returns the host function number that loc resolves to, if any.
func (fc *FunctionCalls) Host(loc ast.MemberLocation) (uint8, bool) {
	return fc.toHost.Get(loc)
}

// IntrinsicOf returns the Intrinsic that loc resolves to, if any.
func (fc *FunctionCalls) IntrinsicOf(loc ast.MemberLocation) (Intrinsic, bool) {
	return fc.toIntrinsic.Get(loc)
}

// User returns the user-defined function location that loc resolves to, if
// any.
func (fc *FunctionCalls) User(loc ast.MemberLocation) (ast.FunctionLocation, bool) {
	return fc.toUser.Get(loc)
}

// Kind is the resolved classification after applying the precedence order
// binding > user-defined > intrinsic > host. Bindings aren't tracked by this
// package (see the package doc), so callers that need to consider them
// (type inference) should check their own scope map before calling
// Resolve.
type Kind uint8

const (
	Unresolved Kind = iota
	ToUser
	ToIntrinsic
	ToHost
)

// Resolved is the outcome of applying precedence to a location's candidate
// resolutions.
type Resolved struct {
	Kind      Kind
	User      ast.FunctionLocation
	Intrinsic Intrinsic
	Host      uint8
}

// Resolve applies the binding > user-defined > intrinsic > host precedence
// order for loc, given whether it is locally bound (isBinding is supplied
// by the type inference pass, which tracks scope).
func (fc *FunctionCalls) Resolve(loc ast.MemberLocation, isBinding bool) Resolved {
	if isBinding {
		return Resolved{Kind: Unresolved}
	}
	if u, ok := fc.toUser.Get(loc); ok {
		return Resolved{Kind: ToUser, User: u}
	}
	if i, ok := fc.toIntrinsic.Get(loc); ok {
		return Resolved{Kind: ToIntrinsic, Intrinsic: i}
	}
	if n, ok := fc.toHost.Get(loc); ok {
		return Resolved{Kind: ToHost, Host: n}
	}
	return Resolved{Kind: Unresolved}
}
