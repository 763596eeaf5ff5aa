package machine

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/compiler"
)

// elementKind tags one slot of the interleaved stack vector: a single
// contiguous slice holds frame markers, return addresses,
// each frame's bindings, and every operand value, rather than a stack of
// per-frame structs. A tail call only has to reset the nearest Bindings
// element and leave every Operand element untouched, since the callee's
// arguments are already sitting on top as operands -- that's the property a
// separate per-frame Vec<StackFrame> design can't give for free.
type elementKind uint8

const (
	elemStart elementKind = iota
	elemReturn
	elemBindings
	elemOperand
)

type element struct {
	kind     elementKind
	program  *compiler.Program           // elemStart: which compilation this frame is executing
	ret      compiler.InstructionAddress // elemReturn
	bindings map[string]Value            // elemBindings
	operand  Value                       // elemOperand
}

// ErrStackOverflow is returned by PushFrame once the configured call depth
// is exceeded, so unbounded (non-tail) recursion fails as a catchable
// runtime effect rather than exhausting host memory.
type ErrStackOverflow struct{ MaxDepth int }

func (e *ErrStackOverflow) Error() string {
	return fmt.Sprintf("call stack exceeded max depth %d", e.MaxDepth)
}

// ErrEmptyOperand is returned by PopOperand when the stack holds no operand
// above the current frame's bindings.
type ErrEmptyOperand struct{}

func (e *ErrEmptyOperand) Error() string { return "operand stack underflow" }

// Stack is the single interleaved vector backing one Evaluator run.
type Stack struct {
	elems    []element
	depth    int
	maxDepth int
}

// NewStack creates an empty Stack with the top-level (frameless) call depth
// budget maxDepth; 0 means unlimited.
func NewStack(maxDepth int) *Stack {
	return &Stack{maxDepth: maxDepth}
}

// PushFrame starts a new call frame executing prog, returning to ret once
// the callee returns. prog is recorded on the frame marker (not just on the
// Evaluator) so that a function already running under an older compilation
// keeps running under it, even after a later CallFunction elsewhere has
// rebound to newer code.
func (s *Stack) PushFrame(ret compiler.InstructionAddress, prog *compiler.Program) error {
	if s.maxDepth > 0 && s.depth >= s.maxDepth {
		return &ErrStackOverflow{MaxDepth: s.maxDepth}
	}
	s.depth++
	s.elems = append(s.elems,
		element{kind: elemStart, program: prog},
		element{kind: elemReturn, ret: ret},
		element{kind: elemBindings, bindings: map[string]Value{}},
	)
	return nil
}

// PopFrame removes the innermost frame marker and its bindings, leaving any
// operand elements above it untouched so they flow across the frame
// boundary as the caller's result. It returns the frame's return address
// and whether a frame actually existed (false at the outermost level, where
// returning means the whole program is done).
func (s *Stack) PopFrame() (compiler.InstructionAddress, bool, error) {
	startIdx := s.findStart()
	if startIdx == -1 {
		return 0, false, nil
	}

	ret := s.elems[startIdx+1].ret
	// splice out [StartMarker, ReturnAddress, Bindings] (always the three
	// elements immediately after startIdx -- PushFrame and ReuseFrame never
	// let another marker intervene), leaving every operand before and after
	// untouched.
	tail := append([]element{}, s.elems[startIdx+3:]...)
	s.elems = append(s.elems[:startIdx], tail...)
	s.depth--
	return ret, true, nil
}

// ReuseFrame implements a tail call: it resets the innermost frame's
// bindings to empty and rebinds it to prog, without popping the frame or
// touching any operand, so the operands already pushed for the callee's
// arguments become its fresh bindings once it executes its own
// BindingDefine instructions.
func (s *Stack) ReuseFrame(prog *compiler.Program) error {
	startIdx := s.findStart()
	if startIdx == -1 {
		return fmt.Errorf("reuse frame: no active frame")
	}
	s.elems[startIdx].program = prog
	s.elems[startIdx+2].bindings = map[string]Value{}
	return nil
}

func (s *Stack) findStart() int {
	for i := len(s.elems) - 1; i >= 0; i-- {
		if s.elems[i].kind == elemStart {
			return i
		}
	}
	return -1
}

// CurrentProgram returns the compilation the innermost active frame is
// executing, or nil if the stack is empty.
func (s *Stack) CurrentProgram() *compiler.Program {
	i := s.findStart()
	if i == -1 {
		return nil
	}
	return s.elems[i].program
}

// PushOperand pushes v onto the top of the stack.
func (s *Stack) PushOperand(v Value) {
	s.elems = append(s.elems, element{kind: elemOperand, operand: v})
}

// PopOperand pops the topmost operand.
func (s *Stack) PopOperand() (Value, error) {
	if len(s.elems) == 0 || s.elems[len(s.elems)-1].kind != elemOperand {
		return Value{}, &ErrEmptyOperand{}
	}
	v := s.elems[len(s.elems)-1].operand
	s.elems = s.elems[:len(s.elems)-1]
	return v, nil
}

// PeekOperand returns the topmost operand without removing it.
func (s *Stack) PeekOperand() (Value, bool) {
	if len(s.elems) == 0 || s.elems[len(s.elems)-1].kind != elemOperand {
		return Value{}, false
	}
	return s.elems[len(s.elems)-1].operand, true
}

func (s *Stack) currentBindings() map[string]Value {
	for i := len(s.elems) - 1; i >= 0; i-- {
		if s.elems[i].kind == elemBindings {
			return s.elems[i].bindings
		}
	}
	return nil
}

// DefineBinding pops the top operand and binds it to name in the current
// frame.
func (s *Stack) DefineBinding(name string) error {
	v, err := s.PopOperand()
	if err != nil {
		return err
	}
	b := s.currentBindings()
	if b == nil {
		return fmt.Errorf("define binding %q: no active frame", name)
	}
	b[name] = v
	return nil
}

// LookupBinding searches the current frame's bindings for name.
func (s *Stack) LookupBinding(name string) (Value, bool) {
	b := s.currentBindings()
	if b == nil {
		return Value{}, false
	}
	v, ok := b[name]
	return v, ok
}

// Depth reports the current call depth, for debugger display.
func (s *Stack) Depth() int { return s.depth }

// ActiveAddresses returns the instruction address each live frame is
// currently paused at, outermost first and the innermost (currently
// executing, at currentPC) last. An outer frame's address is the CallFunction
// instruction that invoked its callee -- one before the return address
// recorded on the callee's frame -- since that is where it is paused, not
// where it resumes.
// Grounded on original_source/crates/capi-process/src/stack.rs's
// next_instruction/next_instruction_overall helpers, adapted from that
// per-frame cursor model onto this package's single flat PC.
func (s *Stack) ActiveAddresses(currentPC compiler.InstructionAddress) []compiler.InstructionAddress {
	var out []compiler.InstructionAddress
	outermost := true
	for i := 0; i < len(s.elems); i++ {
		if s.elems[i].kind != elemReturn {
			continue
		}
		if outermost {
			// the outermost frame's return address leads out of the program
			outermost = false
			continue
		}
		out = append(out, s.elems[i].ret-1)
	}
	out = append(out, currentPC)
	return out
}

// Snapshot returns the operand values currently above the innermost frame's
// bindings, topmost last -- used by the debugger to show the live stack.
func (s *Stack) Snapshot() []Value {
	var out []Value
	for i := len(s.elems) - 1; i >= 0; i-- {
		if s.elems[i].kind != elemOperand {
			break
		}
		out = append([]Value{s.elems[i].operand}, out...)
	}
	return out
}
