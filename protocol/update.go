package protocol

import "github.com/crosscut-lang/crosscut/lang/machine"

// RunState is the coarse state carried by a Process update.
type RunState uint8

const (
	Running RunState = iota
	Finished
	Stopped
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "Running"
	case Finished:
		return "Finished"
	case Stopped:
		return "Stopped"
	default:
		return "?"
	}
}

// UpdateKind discriminates the runtime -> debugger update sum.
type UpdateKind uint8

const (
	MemoryUpdate UpdateKind = iota
	ProcessUpdate
)

// Update is one message sent from the runtime to the debugger.
type Update struct {
	Kind UpdateKind

	// Memory: a host-specific snapshot, opaque to the core (e.g. a pixel
	// buffer or a game entity list). The core only relays it.
	Memory any

	// Process fields, meaningful when Kind == ProcessUpdate.
	State              RunState
	Effects            []machine.Effect
	ActiveInstructions []uint32
	Operands           []machine.Value
}

// NewProcessUpdate snapshots an Evaluator's externally visible state into a
// Process update: run state, effect queue contents, active instruction
// addresses (innermost last), and the operands in the current frame.
func NewProcessUpdate(e *machine.Evaluator) Update {
	state := Running
	if e.Halted {
		state = Finished
	} else if e.Effects.Len() > 0 {
		state = Stopped
	}

	addrs := e.Stack.ActiveAddresses(e.PC)
	active := make([]uint32, len(addrs))
	for i, a := range addrs {
		active[i] = uint32(a)
	}

	return Update{
		Kind:               ProcessUpdate,
		State:              state,
		Effects:            e.Effects.Snapshot(),
		ActiveInstructions: active,
		Operands:           e.Stack.Snapshot(),
	}
}
