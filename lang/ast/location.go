package ast

import "strconv"

// Location values are the stable keys every downstream pass (FunctionCalls,
// type inference, the source map, breakpoints, dependency clusters) uses to
// refer back into the syntax tree. They are built incrementally by
// composition (a FunctionLocation produces BranchLocations, which produce
// MemberLocations and ParameterLocations) rather than by chaining parent
// pointers: a pointer-chained location can't satisfy Go's comparable
// constraint with structural equality, and these need to be usable directly
// as swiss.Map / native map keys. See DESIGN.md for the full rationale.
//
// Each location wraps a canonical path string uniquely identifying its
// position from the root of the tree; two locations naming the same slot
// compare equal with ==.

// FunctionLocation identifies a function: either a top-level named function
// (by its index into the tree's Functions IndexMap) or a local function
// nested inside some branch's member (by that member's location).
type FunctionLocation struct{ path string }

// RootFunction returns the location of the i'th top-level named function.
func RootFunction(i Index[NamedFunction]) FunctionLocation {
	return FunctionLocation{"f" + strconv.Itoa(int(i))}
}

// LocalFunction returns the location of the local function expression
// defined at member location m. A member can define at most one local
// function, so the member's own location is sufficient to identify it.
func LocalFunction(m MemberLocation) FunctionLocation {
	return FunctionLocation{m.path}
}

func (f FunctionLocation) String() string { return f.path }

// IsRoot reports whether f names a top-level named function.
func (f FunctionLocation) IsRoot() bool {
	return len(f.path) > 0 && f.path[0] == 'f'
}

// Branch returns the location of branch i within function f.
func (f FunctionLocation) Branch(i Index[Branch]) BranchLocation {
	return BranchLocation{f.path + ".b" + strconv.Itoa(int(i)), f}
}

// BranchLocation identifies one branch (pattern-matched arm) of a function.
type BranchLocation struct {
	path     string
	Function FunctionLocation
}

func (b BranchLocation) String() string { return b.path }

// Member returns the location of body member i within branch b.
func (b BranchLocation) Member(i Index[Member]) MemberLocation {
	return MemberLocation{b.path + ".m" + strconv.Itoa(int(i)), b}
}

// Parameter returns the location of pattern parameter i within branch b.
func (b BranchLocation) Parameter(i Index[Parameter]) ParameterLocation {
	return ParameterLocation{b.path + ".p" + strconv.Itoa(int(i)), b}
}

// MemberLocation identifies one member (a comment or an expression) of a
// branch's body. This is the key every per-expression map (FunctionCalls,
// types, source map, breakpoints) uses.
type MemberLocation struct {
	path   string
	Branch BranchLocation
}

func (m MemberLocation) String() string { return m.path }

// ParameterLocation identifies one pattern parameter of a branch.
type ParameterLocation struct {
	path   string
	Branch BranchLocation
}

func (p ParameterLocation) String() string { return p.path }
