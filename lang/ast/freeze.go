package ast

import "github.com/crosscut-lang/crosscut/lang/hash"

// Hashes maps every function in a tree -- named or local -- to its
// content-addressed Hash, computed once after parsing (the tree is
// considered frozen from this point: hashes are assigned once and never
// recomputed for the same AST shape). Comment lines are deliberately
// excluded from the canonical digest, so editing only a comment leaves
// every hash, and therefore every call site, untouched.
type Hashes struct {
	byFunction map[FunctionLocation]hash.Hash
}

// Freeze computes the Hashes for every function in tree, bottom-up (a local
// function's hash is folded into its enclosing function's digest, so a
// change anywhere inside a nested local function still changes every
// enclosing hash -- this is what lets the update protocol detect "this
// function's body changed" transitively).
func Freeze(tree *Tree) *Hashes {
	h := &Hashes{byFunction: make(map[FunctionLocation]hash.Hash)}
	WalkFunctionsDeep(tree, func(loc FunctionLocation, f Function) {
		h.byFunction[loc] = h.digestFunction(f)
	})
	return h
}

// Of returns the hash computed for the function at loc. It panics if loc was
// not part of the tree Freeze was called on -- this is a compiler-internal
// invariant violation, not a user-facing error.
func (h *Hashes) Of(loc FunctionLocation) hash.Hash {
	v, ok := h.byFunction[loc]
	if !ok {
		panic("ast: no hash recorded for " + loc.String())
	}
	return v
}

func (h *Hashes) digestFunction(f Function) hash.Hash {
	var b hash.Builder
	b.WriteUint32(uint32(f.Branches.Len()))
	f.Branches.Each(func(_ Index[Branch], br Branch) bool {
		h.digestBranch(&b, br)
		return true
	})
	return b.Sum()
}

func (h *Hashes) digestBranch(b *hash.Builder, br Branch) {
	b.WriteUint32(uint32(br.Parameters.Len()))
	br.Parameters.Each(func(_ Index[Parameter], p Parameter) bool {
		b.WriteByte(byte(p.Kind))
		switch p.Kind {
		case Binding:
			b.WriteString(p.Name)
			b.WriteString(p.Type)
		case Literal:
			b.WriteInt32(p.Value)
		}
		return true
	})

	b.WriteUint32(uint32(br.Body.Len()))
	br.Body.Each(func(_ Index[Member], m Member) bool {
		if m.Kind != ExpressionMember {
			// comments never affect the hash
			b.WriteByte(255)
			return true
		}
		b.WriteByte(byte(m.Expr.Kind))
		switch m.Expr.Kind {
		case Identifier:
			b.WriteString(m.Expr.Name)
		case LiteralNumber:
			b.WriteInt32(m.Expr.Value)
		case LocalFunctionExpr:
			b.WriteHash(h.digestFunction(m.Expr.Local))
		case UnresolvedLocalFunction:
			// a build error elsewhere; keep digesting deterministically anyway
		}
		return true
	})
}
