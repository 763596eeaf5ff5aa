// Package update diffs two compilations by function name and rewrites
// durable breakpoint addresses across a recompilation, then installs the
// new program as an Evaluator's Latest. The actual rebind of an in-flight
// call is lang/machine's job (it happens per CallFunction, lazily); this
// package only computes what changed and carries breakpoints across the
// source map boundary.
package update

import (
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/machine"
)

// ChangeKind classifies one named function across a recompilation.
type ChangeKind uint8

const (
	Unchanged ChangeKind = iota
	Added
	Updated
	Removed
)

// Diff is the per-name classification of every function known to either
// side of a recompilation.
type Diff map[string]ChangeKind

// Compare classifies every named function in old and next by comparing
// their content hashes.
func Compare(old, next *compiler.Program) Diff {
	d := make(Diff)
	oldNames := old.Functions.Names()
	newNames := next.Functions.Names()

	for name, oldHash := range oldNames {
		if newHash, ok := newNames[name]; !ok {
			d[name] = Removed
		} else if newHash != oldHash {
			d[name] = Updated
		} else {
			d[name] = Unchanged
		}
	}
	for name := range newNames {
		if _, ok := oldNames[name]; !ok {
			d[name] = Added
		}
	}
	return d
}

// Apply installs next as e's Latest compilation, first rewriting every
// durable breakpoint address from old's source map to next's. A breakpoint
// whose MemberLocation no longer exists in next is dropped. In-flight
// frames keep running under whatever *compiler.Program their own elemStart
// marker already holds (lang/machine/stack.go); nothing here touches them
// -- existing stack frames continue to reference their original return
// addresses.
func Apply(e *machine.Evaluator, old, next *compiler.Program) Diff {
	diff := Compare(old, next)

	carried := make([]compiler.InstructionAddress, 0, len(e.Breakpoints.Durable()))
	for _, addr := range e.Breakpoints.Durable() {
		if newAddr, ok := compiler.Translate(old.SourceMap, next.SourceMap, addr); ok {
			carried = append(carried, newAddr)
		}
	}
	e.Breakpoints.Replace(carried)

	e.SetLatest(next)
	return diff
}
