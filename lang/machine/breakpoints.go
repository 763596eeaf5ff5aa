package machine

import (
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/dolthub/swiss"
)

// Breakpoints tracks two kinds of paused instruction addresses: durable
// breakpoints set by the debugger and left in place across many steps, and a
// single ephemeral one used to implement step-over/out by arming the
// address the evaluator should next stop at and clearing it the moment it
// fires.
type Breakpoints struct {
	durable  *swiss.Map[compiler.InstructionAddress, struct{}]
	ephemeral compiler.InstructionAddress
	hasEphemeral bool
}

// NewBreakpoints creates an empty breakpoint set.
func NewBreakpoints() *Breakpoints {
	return &Breakpoints{durable: swiss.NewMap[compiler.InstructionAddress, struct{}](8)}
}

// Set arms a durable breakpoint at addr.
func (b *Breakpoints) Set(addr compiler.InstructionAddress) {
	b.durable.Put(addr, struct{}{})
}

// Clear disarms a durable breakpoint at addr.
func (b *Breakpoints) Clear(addr compiler.InstructionAddress) {
	b.durable.Delete(addr)
}

// ArmEphemeral arms the one-shot breakpoint used for step commands.
func (b *Breakpoints) ArmEphemeral(addr compiler.InstructionAddress) {
	b.ephemeral, b.hasEphemeral = addr, true
}

// DisarmEphemeral clears the one-shot breakpoint without it having fired.
func (b *Breakpoints) DisarmEphemeral() {
	b.hasEphemeral = false
}

// Hits reports whether addr should pause execution, and whether that hit
// consumed the ephemeral breakpoint (so the caller knows to disarm it).
func (b *Breakpoints) Hits(addr compiler.InstructionAddress) (hit bool, ephemeral bool) {
	if _, ok := b.durable.Get(addr); ok {
		return true, false
	}
	if b.hasEphemeral && b.ephemeral == addr {
		b.hasEphemeral = false
		return true, true
	}
	return false, false
}

// HasDurable reports whether addr carries a durable breakpoint, without
// consuming the ephemeral one the way Hits does -- for display purposes
// (the debugger marking an expression as breakpointed) rather than
// execution control.
func (b *Breakpoints) HasDurable(addr compiler.InstructionAddress) bool {
	_, ok := b.durable.Get(addr)
	return ok
}

// Durable returns every durable breakpoint address currently armed, used by
// the update protocol to translate them across a recompilation.
func (b *Breakpoints) Durable() []compiler.InstructionAddress {
	var out []compiler.InstructionAddress
	b.durable.Iter(func(addr compiler.InstructionAddress, _ struct{}) bool {
		out = append(out, addr)
		return false
	})
	return out
}

// Replace installs a fresh set of durable breakpoint addresses, used after
// the update protocol has translated every address to the new program.
func (b *Breakpoints) Replace(addrs []compiler.InstructionAddress) {
	b.durable = swiss.NewMap[compiler.InstructionAddress, struct{}](uint32(len(addrs)) + 1)
	for _, a := range addrs {
		b.durable.Put(a, struct{}{})
	}
}
