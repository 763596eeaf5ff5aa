package ast

// WalkFunctions calls fn for every top-level named function in the tree.
func WalkFunctions(tree *Tree, fn func(loc FunctionLocation, nf NamedFunction)) {
	tree.Functions.Each(func(i Index[NamedFunction], nf NamedFunction) bool {
		fn(RootFunction(i), nf)
		return true
	})
}

// WalkBranches calls fn for every branch of the function at loc.
func WalkBranches(f Function, loc FunctionLocation, fn func(BranchLocation, Branch)) {
	f.Branches.Each(func(i Index[Branch], br Branch) bool {
		fn(loc.Branch(i), br)
		return true
	})
}

// WalkMembers calls fn for every body member of the branch at loc.
func WalkMembers(br Branch, loc BranchLocation, fn func(MemberLocation, Member)) {
	br.Body.Each(func(i Index[Member], m Member) bool {
		fn(loc.Member(i), m)
		return true
	})
}

// WalkFunctionsDeep visits every function in the tree, named and local,
// depth-first, post-order (a local function's descendants are visited before
// the local function itself, and a function's local functions are visited
// before the function is passed to fn). Post-order traversal is what the
// hashing pass (lang/ast's Freeze) and dependency discovery need, since both
// require a local function's contents to be fully known before processing
// its enclosing function.
func WalkFunctionsDeep(tree *Tree, fn func(loc FunctionLocation, f Function)) {
	var visitFunction func(loc FunctionLocation, f Function)
	visitFunction = func(loc FunctionLocation, f Function) {
		f.Branches.Each(func(bi Index[Branch], br Branch) bool {
			bloc := loc.Branch(bi)
			br.Body.Each(func(mi Index[Member], m Member) bool {
				if m.Kind == ExpressionMember && m.Expr.Kind == LocalFunctionExpr {
					mloc := bloc.Member(mi)
					visitFunction(LocalFunction(mloc), m.Expr.Local)
				}
				return true
			})
			return true
		})
		fn(loc, f)
	}

	tree.Functions.Each(func(i Index[NamedFunction], nf NamedFunction) bool {
		visitFunction(RootFunction(i), nf.Inner)
		return true
	})
}

// FindFunction looks up a named function by name, returning its location and
// a copy of its declaration.
func FindFunction(tree *Tree, name string) (FunctionLocation, NamedFunction, bool) {
	var (
		loc   FunctionLocation
		found NamedFunction
		ok    bool
	)
	WalkFunctions(tree, func(l FunctionLocation, nf NamedFunction) {
		if ok || nf.Name != name {
			return
		}
		loc, found, ok = l, nf, true
	})
	return loc, found, ok
}

// ResolveFunction looks up the Function value (branches) named by loc,
// whether it is a top-level named function or a local function nested
// somewhere in the tree.
func ResolveFunction(tree *Tree, loc FunctionLocation) (Function, bool) {
	if loc.IsRoot() {
		var found Function
		var ok bool
		WalkFunctions(tree, func(l FunctionLocation, nf NamedFunction) {
			if !ok && l == loc {
				found, ok = nf.Inner, true
			}
		})
		return found, ok
	}

	var found Function
	var ok bool
	WalkFunctionsDeep(tree, func(l FunctionLocation, f Function) {
		if !ok && l == loc {
			found, ok = f, true
		}
	})
	return found, ok
}

// ResolveMember looks up the Member at loc.
func ResolveMember(tree *Tree, loc MemberLocation) (Member, bool) {
	fn, ok := ResolveFunction(tree, loc.Branch.Function)
	if !ok {
		return Member{}, false
	}
	return resolveMemberIn(fn, loc)
}

func resolveMemberIn(fn Function, loc MemberLocation) (Member, bool) {
	var found Member
	var ok bool
	fn.Branches.Each(func(bi Index[Branch], br Branch) bool {
		bloc := loc.Branch.Function.Branch(bi)
		if bloc.path != loc.Branch.path {
			return true
		}
		br.Body.Each(func(mi Index[Member], m Member) bool {
			if bloc.Member(mi).path == loc.path {
				found, ok = m, true
				return false
			}
			return true
		})
		return !ok
	})
	return found, ok
}
