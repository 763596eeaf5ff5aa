// Package deps builds the function call graph, condenses it into strongly
// connected clusters, and orders both the clusters and the branches inside
// each cluster leaves-first. The condensation algorithm (Tarjan's SCC) is
// textbook; see DESIGN.md for the small-pass style this is written in.
package deps

import (
	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"golang.org/x/exp/slices"
)

// Cluster is a strongly connected component of the function dependency
// graph, possibly a single non-recursive function, topologically ordered
// leaves-first alongside every other cluster.
type Cluster struct {
	// Functions is every function location that is part of this cluster's
	// mutual recursion (or just the one function, if it is not recursive).
	Functions []ast.FunctionLocation

	// Branches is every branch across Functions, ordered so that if branch B
	// calls a function F in the same cluster, some branch of F appears
	// earlier in this list than B. Once no remaining branch can be placed
	// that way, the rest follow in discovery order.
	Branches []ast.BranchLocation

	// Divergent is created empty by Condense and never filled in, so every
	// lookup reports false. Divergence is computed per function by
	// lang/types during inference.
	Divergent map[ast.BranchLocation]bool
}

// Graph is the directed call graph: an edge f -> g exists when some branch
// body in f calls g (identifier resolved to a user-defined function) or
// defines g as a local function expression.
type Graph struct {
	nodes []ast.FunctionLocation
	index map[ast.FunctionLocation]int
	edges map[ast.FunctionLocation][]ast.FunctionLocation
}

// BuildGraph walks tree and fc to produce the call graph.
func BuildGraph(tree *ast.Tree, fc *calls.FunctionCalls) *Graph {
	g := &Graph{index: make(map[ast.FunctionLocation]int), edges: make(map[ast.FunctionLocation][]ast.FunctionLocation)}

	addNode := func(loc ast.FunctionLocation) {
		if _, ok := g.index[loc]; ok {
			return
		}
		g.index[loc] = len(g.nodes)
		g.nodes = append(g.nodes, loc)
	}

	var walk func(loc ast.FunctionLocation, fn ast.Function)
	walk = func(loc ast.FunctionLocation, fn ast.Function) {
		addNode(loc)
		ast.WalkBranches(fn, loc, func(bloc ast.BranchLocation, br ast.Branch) {
			ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
				if m.Kind != ast.ExpressionMember {
					return
				}
				switch m.Expr.Kind {
				case ast.Identifier:
					if callee, ok := fc.User(mloc); ok {
						addNode(callee)
						g.edges[loc] = append(g.edges[loc], callee)
					}
				case ast.LocalFunctionExpr:
					local := ast.LocalFunction(mloc)
					addNode(local)
					g.edges[loc] = append(g.edges[loc], local)
					walk(local, m.Expr.Local)
				}
			})
		})
	}

	ast.WalkFunctions(tree, func(loc ast.FunctionLocation, nf ast.NamedFunction) {
		walk(loc, nf.Inner)
	})

	return g
}

// Condense runs Tarjan's algorithm and returns the clusters in leaves-first
// (reverse topological discovery) order.
func Condense(tree *ast.Tree, g *Graph, fc *calls.FunctionCalls) []Cluster {
	t := &tarjan{
		g:       g,
		index:   make(map[ast.FunctionLocation]int),
		lowlink: make(map[ast.FunctionLocation]int),
		onStack: make(map[ast.FunctionLocation]bool),
	}
	for _, n := range g.nodes {
		if _, seen := t.index[n]; !seen {
			t.strongconnect(n)
		}
	}

	clusters := make([]Cluster, len(t.sccs))
	for i, members := range t.sccs {
		clusters[i] = buildCluster(tree, fc, members)
	}
	return clusters
}

type tarjan struct {
	g        *Graph
	counter  int
	index    map[ast.FunctionLocation]int
	lowlink  map[ast.FunctionLocation]int
	onStack  map[ast.FunctionLocation]bool
	stack    []ast.FunctionLocation
	sccs     [][]ast.FunctionLocation
}

func (t *tarjan) strongconnect(v ast.FunctionLocation) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.strongconnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []ast.FunctionLocation
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		// sccs are discovered leaves-first already by construction (Tarjan
		// pops a fully-explored component once every callee has been
		// processed), so no extra reversal is needed here.
		t.sccs = append(t.sccs, scc)
	}
}

func buildCluster(tree *ast.Tree, fc *calls.FunctionCalls, members []ast.FunctionLocation) Cluster {
	memberSet := make(map[ast.FunctionLocation]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	c := Cluster{Functions: members, Divergent: make(map[ast.BranchLocation]bool)}

	type branchInfo struct {
		loc ast.BranchLocation
	}
	var infos []branchInfo
	calleesOf := make(map[ast.BranchLocation][]ast.FunctionLocation)

	for _, floc := range members {
		fn, ok := ast.ResolveFunction(tree, floc)
		if !ok {
			continue
		}
		ast.WalkBranches(fn, floc, func(bloc ast.BranchLocation, br ast.Branch) {
			var callees []ast.FunctionLocation
			ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
				if m.Kind != ast.ExpressionMember {
					return
				}
				switch m.Expr.Kind {
				case ast.Identifier:
					if callee, ok := fc.User(mloc); ok && memberSet[callee] {
						callees = append(callees, callee)
					}
				case ast.LocalFunctionExpr:
					local := ast.LocalFunction(mloc)
					if memberSet[local] {
						callees = append(callees, local)
					}
				}
			})
			infos = append(infos, branchInfo{loc: bloc})
			calleesOf[bloc] = callees
		})
	}

	// order branches by a simple fixed point: a branch is ready once every
	// same-cluster function it calls has at least one branch already placed
	// (or is known fully divergent).
	placed := make(map[ast.BranchLocation]bool)
	placedFn := make(map[ast.FunctionLocation]bool)
	remaining := infos
	for len(remaining) > 0 {
		progressed := false
		var next []branchInfo
		for _, bi := range remaining {
			ready := true
			for _, callee := range calleesOf[bi.loc] {
				if memberSet[callee] && !placedFn[callee] {
					ready = false
					break
				}
			}
			if ready {
				c.Branches = append(c.Branches, bi.loc)
				placed[bi.loc] = true
				placedFn[bi.loc.Function] = true
				progressed = true
			} else {
				next = append(next, bi)
			}
		}
		if !progressed {
			// every remaining branch is mutually recursive with no
			// already-placed callee: place them in discovery order, marking
			// them divergent is decided by lang/types (which has full
			// signature information); deps only guarantees an order exists.
			for _, bi := range next {
				c.Branches = append(c.Branches, bi.loc)
			}
			break
		}
		remaining = next
	}

	return c
}

// IsRecursive reports whether the cluster contains more than one function,
// or a single function that calls itself.
func (c Cluster) IsRecursive(g *Graph) bool {
	if len(c.Functions) > 1 {
		return true
	}
	if len(c.Functions) == 0 {
		return false
	}
	self := c.Functions[0]
	for _, callee := range g.edges[self] {
		if callee == self {
			return true
		}
	}
	return false
}

// Nodes returns every function location discovered while building the
// graph, in discovery order.
func (g *Graph) Nodes() []ast.FunctionLocation {
	return slices.Clone(g.nodes)
}

// Callees returns the direct callees of f.
func (g *Graph) Callees(f ast.FunctionLocation) []ast.FunctionLocation {
	return g.edges[f]
}

// SingleBranchCaller returns the unique function that has exactly one branch
// and whose only call in that branch's tail position is to callee, or false
// if no such caller exists or it is ambiguous. Used by the debugger's
// active-function reconstruction to insert a frame dropped by tail-call
// elimination.
func SingleBranchCaller(tree *ast.Tree, g *Graph, callee ast.FunctionLocation) (ast.FunctionLocation, bool) {
	var found ast.FunctionLocation
	count := 0
	for _, n := range g.nodes {
		fn, ok := ast.ResolveFunction(tree, n)
		if !ok || fn.Branches.Len() != 1 {
			continue
		}
		br, _ := fn.Branches.Get(0)
		if br.Body.Len() == 0 {
			continue
		}
		last, _ := br.Body.Get(ast.Index[ast.Member](br.Body.Len() - 1))
		if last.Kind == ast.ExpressionMember && last.Expr.Kind == ast.Identifier {
			if u, ok := lookupUser(tree, g, n, br); ok && u == callee {
				found = n
				count++
			}
		}
	}
	if count == 1 {
		return found, true
	}
	return ast.FunctionLocation{}, false
}

func lookupUser(tree *ast.Tree, g *Graph, n ast.FunctionLocation, br ast.Branch) (ast.FunctionLocation, bool) {
	// the tail target is the function named by the branch's last member; it
	// is a call only if that function is also one of n's graph edges.
	last, _ := br.Body.Get(ast.Index[ast.Member](br.Body.Len() - 1))
	target, _, ok := ast.FindFunction(tree, last.Expr.Name)
	if !ok {
		return ast.FunctionLocation{}, false
	}
	for _, callee := range g.edges[n] {
		if callee == target {
			return callee, true
		}
	}
	return ast.FunctionLocation{}, false
}
