package compiler

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/dolthub/swiss"
)

// SourceMap is a bidirectional mapping: one MemberLocation compiles to one
// or more InstructionAddresses (forward), and each InstructionAddress maps
// back to exactly one MemberLocation (reverse).
type SourceMap struct {
	forward *swiss.Map[ast.MemberLocation, []InstructionAddress]
	reverse *swiss.Map[InstructionAddress, ast.MemberLocation]
}

func newSourceMap() *SourceMap {
	return &SourceMap{
		forward: swiss.NewMap[ast.MemberLocation, []InstructionAddress](64),
		reverse: swiss.NewMap[InstructionAddress, ast.MemberLocation](64),
	}
}

func (sm *SourceMap) record(loc ast.MemberLocation, addr InstructionAddress) {
	addrs, _ := sm.forward.Get(loc)
	addrs = append(addrs, addr)
	sm.forward.Put(loc, addrs)
	sm.reverse.Put(addr, loc)
}

// MemberToInstructions returns every instruction address compiled from loc,
// in emission order.
func (sm *SourceMap) MemberToInstructions(loc ast.MemberLocation) ([]InstructionAddress, bool) {
	return sm.forward.Get(loc)
}

// InstructionToMember returns the single MemberLocation an instruction
// address was compiled from.
func (sm *SourceMap) InstructionToMember(addr InstructionAddress) (ast.MemberLocation, bool) {
	return sm.reverse.Get(addr)
}

// ErrLocationNotFound is returned when a lookup misses -- reported as an
// actionable error to callers, never a panic.
type ErrLocationNotFound struct {
	Location fmt.Stringer
}

func (e *ErrLocationNotFound) Error() string {
	return fmt.Sprintf("source map: no instruction for location %s", e.Location)
}

// ErrInstructionNotFound is returned when an instruction address has no
// recorded source location -- a build-time invariant violation, surfaced
// rather than panicking so the debugger can report it instead of crashing.
type ErrInstructionNotFound struct {
	Address InstructionAddress
}

func (e *ErrInstructionNotFound) Error() string {
	return fmt.Sprintf("source map: no location for instruction address %d", e.Address)
}

// Translate maps an instruction address in an old SourceMap to the
// equivalent address in a new one, by way of the MemberLocation it was
// compiled from; the update protocol uses it to rewrite breakpoint addresses
// across a recompilation. It returns the first new address for that
// location, since breakpoints are single addresses.
func Translate(oldMap, newMap *SourceMap, addr InstructionAddress) (InstructionAddress, bool) {
	loc, ok := oldMap.InstructionToMember(addr)
	if !ok {
		return 0, false
	}
	addrs, ok := newMap.MemberToInstructions(loc)
	if !ok || len(addrs) == 0 {
		return 0, false
	}
	return addrs[0], true
}
