// Package host defines the interface the core consumes from an embedding
// host application: a numbered, typed function table plus an effect
// decoder. Hosts (game engines, pixel displays, input capture) are external
// collaborators -- this package specifies only their interface.
package host

import (
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/lang/types"
)

// Function describes one host-provided function: a stable number used by
// compiled code, a name used only during compilation, and a signature used
// by type inference.
type Function struct {
	Name      string
	Number    uint8
	Signature types.Signature
}

// Table is the opaque, numbered, typed table of host functions a compilation
// resolves identifiers against. It is immutable once built.
type Table struct {
	byName   map[string]Function
	byNumber map[uint8]Function
}

// NewTable builds a Table from a list of host functions. It panics if two
// functions share a name or a number -- that is a host-construction bug, not
// a compile-time or runtime error.
func NewTable(fns []Function) *Table {
	t := &Table{byName: make(map[string]Function, len(fns)), byNumber: make(map[uint8]Function, len(fns))}
	for _, fn := range fns {
		if _, ok := t.byName[fn.Name]; ok {
			panic("host: duplicate function name " + fn.Name)
		}
		if _, ok := t.byNumber[fn.Number]; ok {
			panic("host: duplicate function number for " + fn.Name)
		}
		t.byName[fn.Name] = fn
		t.byNumber[fn.Number] = fn
	}
	return t
}

// Lookup finds a host function by name, for use during compilation.
func (t *Table) Lookup(name string) (Function, bool) {
	fn, ok := t.byName[name]
	return fn, ok
}

// ByNumber finds a host function by its stable number, for use when
// decoding a runtime effect.
func (t *Table) ByNumber(n uint8) (Function, bool) {
	fn, ok := t.byNumber[n]
	return fn, ok
}

// Decoder turns a numbered host effect into a host-defined operation and
// services it against the operand stack. Args/Results let the core's
// runtime pop arguments and push results without knowing what the host
// function actually does.
type Decoder interface {
	// Decode services the effect raised for host function number, popping
	// its arguments from pop and pushing its results via push. It returns an
	// error if number is not a known host function or the host operation
	// itself fails.
	Decode(number uint8, pop func() (machine.Value, error), push func(machine.Value)) error
}
