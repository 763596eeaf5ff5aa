package machine

import "github.com/crosscut-lang/crosscut/lang/compiler"

// EffectKind classifies why the Evaluator stopped stepping at an
// instruction: every non-local outcome (a breakpoint firing, a host call, a
// runtime error) is reported as an Effect rather than a Go panic or error
// return, so the debugger and the host embedder see the same uniform queue
// regardless of cause.
type EffectKind uint8

const (
	EffectHostCall EffectKind = iota
	EffectBreakpointHit
	EffectDivideByZero
	EffectModuloByZero
	EffectArithmeticOverflow
	EffectMissingOperand
	EffectUnknownFunctionHash
	EffectCallDepthExceeded
	EffectBuildErrorTriggered
	EffectHalted
)

func (k EffectKind) String() string {
	switch k {
	case EffectHostCall:
		return "HostCall"
	case EffectBreakpointHit:
		return "BreakpointHit"
	case EffectDivideByZero:
		return "DivideByZero"
	case EffectModuloByZero:
		return "ModuloByZero"
	case EffectArithmeticOverflow:
		return "ArithmeticOverflow"
	case EffectMissingOperand:
		return "MissingOperand"
	case EffectUnknownFunctionHash:
		return "UnknownFunctionHash"
	case EffectCallDepthExceeded:
		return "CallDepthExceeded"
	case EffectBuildErrorTriggered:
		return "BuildErrorTriggered"
	case EffectHalted:
		return "Halted"
	default:
		return "?"
	}
}

// Effect is one entry in the FIFO effect queue: what happened, where, and
// (for a host call) which host function number to run. The host call's
// arguments stay on the operand stack.
type Effect struct {
	Kind       EffectKind
	Address    compiler.InstructionAddress
	HostNumber uint8
	Message    string
}

// Effects is a simple FIFO queue. The evaluator enqueues at most one effect
// per Step call; the host embedder (or debugger) drains it between steps,
// acting on EffectHostCall by pushing a result value and resuming, and on
// every other kind by deciding whether to continue, reset, or stop.
type Effects struct {
	queue []Effect
}

func (e *Effects) Push(eff Effect) { e.queue = append(e.queue, eff) }

// Pop removes and returns the oldest queued effect.
func (e *Effects) Pop() (Effect, bool) {
	if len(e.queue) == 0 {
		return Effect{}, false
	}
	eff := e.queue[0]
	e.queue = e.queue[1:]
	return eff, true
}

func (e *Effects) Len() int { return len(e.queue) }

// Snapshot returns every queued effect, oldest first, without draining the
// queue -- used to report the effect queue contents in a process update
// without disturbing the FIFO Pop order a resume depends on.
func (e *Effects) Snapshot() []Effect {
	out := make([]Effect, len(e.queue))
	copy(out, e.queue)
	return out
}
