// Package protocol implements the two typed sums that cross the boundary
// between a running process and whatever drives it (a CLI REPL, a networked
// debugger UI): debugger->runtime commands, runtime->debugger updates, and
// the persisted compilation artifact format.
package protocol

import "github.com/crosscut-lang/crosscut/lang/compiler"

// CommandKind discriminates the debugger -> runtime command sum.
type CommandKind uint8

const (
	UpdateCode CommandKind = iota
	Continue
	Reset
	IgnoreNextInstruction
	ClearBreakpointAndEvaluateNextInstruction
	Stop
)

func (k CommandKind) String() string {
	switch k {
	case UpdateCode:
		return "UpdateCode"
	case Continue:
		return "Continue"
	case Reset:
		return "Reset"
	case IgnoreNextInstruction:
		return "IgnoreNextInstruction"
	case ClearBreakpointAndEvaluateNextInstruction:
		return "ClearBreakpointAndEvaluateNextInstruction"
	case Stop:
		return "Stop"
	default:
		return "?"
	}
}

// Command is one message sent from the debugger to the runtime. Only the
// field relevant to Kind is meaningful, following the same flat-struct
// sum-type convention as lang/compiler.Instruction.
type Command struct {
	Kind CommandKind

	// UpdateCode: the new program to install, its durable breakpoints
	// already overwritten into TriggerEffect{Breakpoint} instructions --
	// breakpoints have no separate wire representation beyond this.
	Program *compiler.Program
}
