package compiler

import (
	"github.com/crosscut-lang/crosscut/lang/hash"
	"github.com/dolthub/swiss"
)

// FunctionEntry records where one named or local function's compiled code
// begins, and how many parameters its public signature expects -- enough for
// a caller to validate an arity before emitting a CallFunction instruction.
type FunctionEntry struct {
	Hash      hash.Hash
	Entry     InstructionAddress
	Arity     int
	Name      string // empty for anonymous local functions
}

// FunctionTable is the name/hash-indexed directory of every compiled
// function's entry point, used both to resolve CallFunction{hash} at build
// time and to diff two compilations by name for the update protocol.
type FunctionTable struct {
	byHash *swiss.Map[hash.Hash, FunctionEntry]
	byName map[string]hash.Hash
}

func newFunctionTable() *FunctionTable {
	return &FunctionTable{
		byHash: swiss.NewMap[hash.Hash, FunctionEntry](16),
		byName: make(map[string]hash.Hash),
	}
}

func (ft *FunctionTable) put(e FunctionEntry) {
	ft.byHash.Put(e.Hash, e)
	if e.Name != "" {
		ft.byName[e.Name] = e.Hash
	}
}

// ByHash returns the entry for a content hash, as used by CallFunction.
func (ft *FunctionTable) ByHash(h hash.Hash) (FunctionEntry, bool) {
	return ft.byHash.Get(h)
}

// ByName returns the entry for a top-level function's name.
func (ft *FunctionTable) ByName(name string) (FunctionEntry, bool) {
	h, ok := ft.byName[name]
	if !ok {
		return FunctionEntry{}, false
	}
	return ft.byHash.Get(h)
}

// Names returns every named (non-anonymous) function this table knows, for
// diffing two FunctionTables by name across a recompilation.
func (ft *FunctionTable) Names() map[string]hash.Hash {
	out := make(map[string]hash.Hash, len(ft.byName))
	for k, v := range ft.byName {
		out[k] = v
	}
	return out
}

// Program is the full output of compilation: a linear instruction stream,
// its bidirectional source map, and the function table used to resolve
// calls and to diff against a later recompilation.
type Program struct {
	Instructions []Instruction
	SourceMap    *SourceMap
	Functions    *FunctionTable
}
