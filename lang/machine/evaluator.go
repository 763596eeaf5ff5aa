package machine

import (
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/hash"
)

// Evaluator executes one lang/compiler.Program instruction at a time: every
// Step either advances the program counter, or enqueues exactly one Effect
// and pauses, leaving the caller (the debugger, or a bare host embedder) to
// decide whether to resume, step, or stop.
type Evaluator struct {
	// Latest is the most recently installed compilation. CallFunction
	// consults it to decide whether the callee's name has been rebound to a
	// newer hash since the calling frame's own program was compiled; it is
	// swapped by lang/update between Step calls, never mid-instruction.
	Latest *compiler.Program

	Stack       *Stack
	Effects     *Effects
	Breakpoints *Breakpoints

	PC     compiler.InstructionAddress
	Halted bool

	funcRefs    []hash.Hash
	funcRefByID map[hash.Hash]int32
}

// NewEvaluator prepares an Evaluator to run prog, with a call stack bounded
// to maxDepth frames (0 means unbounded).
func NewEvaluator(prog *compiler.Program, maxDepth int) *Evaluator {
	return &Evaluator{
		Latest:      prog,
		Stack:       NewStack(maxDepth),
		Effects:     &Effects{},
		Breakpoints: NewBreakpoints(),
		funcRefByID: make(map[hash.Hash]int32),
	}
}

// Start pushes the initial call frame under the current Latest program and
// positions the program counter at entry, the FunctionEntry.Entry address
// of the function being run.
func (e *Evaluator) Start(entry compiler.InstructionAddress) error {
	if err := e.Stack.PushFrame(0, e.Latest); err != nil {
		return err
	}
	e.PC = entry
	e.Halted = false
	return nil
}

// SetLatest installs a newly compiled program as the one future CallFunction
// rebinds now target, without disturbing any frame already executing an
// older compilation.
func (e *Evaluator) SetLatest(prog *compiler.Program) {
	e.Latest = prog
}

func (e *Evaluator) internFunc(h hash.Hash) int32 {
	if id, ok := e.funcRefByID[h]; ok {
		return id
	}
	id := int32(len(e.funcRefs))
	e.funcRefs = append(e.funcRefs, h)
	e.funcRefByID[h] = id
	return id
}

// Step executes the instruction at PC, unless a breakpoint (durable or the
// armed ephemeral one) is set there, in which case it enqueues
// EffectBreakpointHit and returns without touching PC or the stack; resuming
// past it is StepForce's job.
func (e *Evaluator) Step() error {
	if e.Halted {
		return nil
	}
	if hit, _ := e.Breakpoints.Hits(e.PC); hit {
		e.Effects.Push(Effect{Kind: EffectBreakpointHit, Address: e.PC})
		return nil
	}
	return e.StepForce()
}

// StepForce executes the instruction at PC without consulting breakpoints,
// used to resume after a breakpoint has already been reported and the
// debugger issued ClearBreakpointAndEvaluateNextInstruction.
func (e *Evaluator) StepForce() error {
	if e.Halted {
		return nil
	}
	prog := e.Stack.CurrentProgram()
	if prog == nil || int(e.PC) >= len(prog.Instructions) {
		e.Halted = true
		e.Effects.Push(Effect{Kind: EffectHalted, Address: e.PC})
		return nil
	}
	instr := prog.Instructions[e.PC]
	addr := e.PC

	switch instr.Op {
	case compiler.BindingDefine:
		if err := e.Stack.DefineBinding(instr.Name); err != nil {
			e.fail(EffectMissingOperand, addr)
			return nil
		}
		e.PC++

	case compiler.BindingEvaluate:
		v, ok := e.Stack.LookupBinding(instr.Name)
		if !ok {
			e.fail(EffectMissingOperand, addr)
			return nil
		}
		e.Stack.PushOperand(v)
		e.PC++

	case compiler.Push:
		e.Stack.PushOperand(NumberValue(instr.PushValue))
		e.PC++

	case compiler.PushFunction:
		e.Stack.PushOperand(FuncValue(e.internFunc(instr.Callee)))
		e.PC++

	case compiler.CallIntrinsic:
		if instr.Intrinsic == calls.Eval {
			if !e.evalTop(prog, addr) {
				return nil
			}
			break
		}
		if !e.callIntrinsic(instr.Intrinsic, addr) {
			return nil
		}
		e.PC++

	case compiler.CallHost:
		e.Effects.Push(Effect{Kind: EffectHostCall, Address: addr, HostNumber: instr.HostNumber})
		e.PC++

	case compiler.CallFunction:
		if !e.call(prog, instr.Callee, instr.IsTailCall, addr) {
			return nil
		}

	case compiler.Return:
		e.doReturn()

	case compiler.ReturnIfZero:
		v, err := e.Stack.PopOperand()
		if err != nil {
			e.fail(EffectMissingOperand, addr)
			return nil
		}
		if !v.Func && v.Number == 0 {
			e.doReturn()
		} else {
			e.PC++
		}

	case compiler.ReturnIfNonZero:
		v, err := e.Stack.PopOperand()
		if err != nil {
			e.fail(EffectMissingOperand, addr)
			return nil
		}
		if v.Func || v.Number != 0 {
			e.doReturn()
		} else {
			e.PC++
		}

	case compiler.TriggerEffect:
		switch instr.Effect {
		case compiler.EffectBreakpoint:
			e.Effects.Push(Effect{Kind: EffectBreakpointHit, Address: addr})
		case compiler.EffectBuildError:
			e.Effects.Push(Effect{Kind: EffectBuildErrorTriggered, Address: addr})
		}
		e.PC++

	case compiler.Jump:
		e.PC = instr.Target

	case compiler.JumpIfZero:
		v, err := e.Stack.PopOperand()
		if err != nil {
			e.fail(EffectMissingOperand, addr)
			return nil
		}
		if !v.Func && v.Number == 0 {
			e.PC = instr.Target
		} else {
			e.PC++
		}
	}

	return nil
}

func (e *Evaluator) doReturn() {
	ret, hasFrame, _ := e.Stack.PopFrame()
	if !hasFrame {
		e.Halted = true
		e.Effects.Push(Effect{Kind: EffectHalted, Address: e.PC})
		return
	}
	e.PC = ret
}

// call resolves callee hash h against callerProg's own function table, then
// checks whether e.Latest has since rebound that same name to a different
// hash -- the boundary where a running update takes effect. An unrebound
// call keeps running under callerProg, so a frame already executing an
// older compilation never jumps forward into instructions it never saw;
// only a call that actually crosses into changed code switches programs.
func (e *Evaluator) call(callerProg *compiler.Program, h hash.Hash, tail bool, addr compiler.InstructionAddress) bool {
	targetProg := callerProg
	entry, ok := callerProg.Functions.ByHash(h)
	if ok && entry.Name != "" && e.Latest != callerProg {
		if latest, lok := e.Latest.Functions.ByName(entry.Name); lok && latest.Hash != h {
			targetProg, entry = e.Latest, latest
		}
	}
	if !ok {
		// h isn't in the caller's own table at all -- the caller's program
		// predates a local function introduced since, or h was produced by
		// an eval value computed under different code. Fall back to Latest.
		if latest, lok := e.Latest.Functions.ByHash(h); lok {
			targetProg, entry, ok = e.Latest, latest, true
		}
	}
	if !ok {
		e.fail(EffectUnknownFunctionHash, addr)
		return false
	}
	if tail {
		if err := e.Stack.ReuseFrame(targetProg); err != nil {
			e.fail(EffectMissingOperand, addr)
			return false
		}
	} else {
		// move the callee's arguments above the new frame's bindings so its
		// BindingDefine instructions can pop them.
		args := make([]Value, entry.Arity)
		for i := entry.Arity - 1; i >= 0; i-- {
			v, err := e.Stack.PopOperand()
			if err != nil {
				e.fail(EffectMissingOperand, addr)
				return false
			}
			args[i] = v
		}
		if err := e.Stack.PushFrame(addr+1, targetProg); err != nil {
			e.fail(EffectCallDepthExceeded, addr)
			return false
		}
		for _, v := range args {
			e.Stack.PushOperand(v)
		}
	}
	e.PC = entry.Entry
	return true
}

// evalTop implements CallIntrinsic(Eval): pop a function value and call it
// under prog, the current frame's own program, advancing PC the same way
// CallFunction would.
func (e *Evaluator) evalTop(prog *compiler.Program, addr compiler.InstructionAddress) bool {
	v, err := e.Stack.PopOperand()
	if err != nil {
		e.fail(EffectMissingOperand, addr)
		return false
	}
	if !v.Func || int(v.FuncRef) >= len(e.funcRefs) {
		e.fail(EffectUnknownFunctionHash, addr)
		return false
	}
	return e.call(prog, e.funcRefs[v.FuncRef], false, addr)
}

func (e *Evaluator) fail(kind EffectKind, addr compiler.InstructionAddress) {
	e.Halted = true
	e.Effects.Push(Effect{Kind: kind, Address: addr})
}

// ResumeAfterHost is called by the host embedder once it has handled an
// EffectHostCall: it pushes result as the CallHost instruction's result. PC
// already points past the CallHost, so the next Step continues after it.
func (e *Evaluator) ResumeAfterHost(result Value) {
	e.Stack.PushOperand(result)
}

func (e *Evaluator) callIntrinsic(i calls.Intrinsic, addr compiler.InstructionAddress) bool {
	pop2 := func() (Value, Value, bool) {
		b, err := e.Stack.PopOperand()
		if err != nil {
			e.fail(EffectMissingOperand, addr)
			return Value{}, Value{}, false
		}
		a, err := e.Stack.PopOperand()
		if err != nil {
			e.fail(EffectMissingOperand, addr)
			return Value{}, Value{}, false
		}
		return a, b, true
	}

	switch i {
	case calls.AddS32, calls.SubS32, calls.MulS32:
		a, b, ok := pop2()
		if !ok {
			return false
		}
		sum := int64(a.Number)
		switch i {
		case calls.AddS32:
			sum = int64(a.Number) + int64(b.Number)
		case calls.SubS32:
			sum = int64(a.Number) - int64(b.Number)
		case calls.MulS32:
			sum = int64(a.Number) * int64(b.Number)
		}
		if sum > int64(1<<31-1) || sum < int64(-1<<31) {
			e.fail(EffectArithmeticOverflow, addr)
			return false
		}
		e.Stack.PushOperand(NumberValue(int32(sum)))

	case calls.DivS32:
		a, b, ok := pop2()
		if !ok {
			return false
		}
		if b.Number == 0 {
			e.fail(EffectDivideByZero, addr)
			return false
		}
		e.Stack.PushOperand(NumberValue(a.Number / b.Number))

	case calls.ModS32:
		a, b, ok := pop2()
		if !ok {
			return false
		}
		if b.Number == 0 {
			e.fail(EffectModuloByZero, addr)
			return false
		}
		e.Stack.PushOperand(NumberValue(a.Number % b.Number))

	case calls.NegS32:
		v, err := e.Stack.PopOperand()
		if err != nil {
			e.fail(EffectMissingOperand, addr)
			return false
		}
		e.Stack.PushOperand(NumberValue(-v.Number))

	case calls.Eq, calls.Lt, calls.Gt:
		a, b, ok := pop2()
		if !ok {
			return false
		}
		var r bool
		switch i {
		case calls.Eq:
			r = a.Number == b.Number
		case calls.Lt:
			r = a.Number < b.Number
		case calls.Gt:
			r = a.Number > b.Number
		}
		if r {
			e.Stack.PushOperand(NumberValue(1))
		} else {
			e.Stack.PushOperand(NumberValue(0))
		}

	case calls.Copy:
		v, ok := e.Stack.PeekOperand()
		if !ok {
			e.fail(EffectMissingOperand, addr)
			return false
		}
		e.Stack.PushOperand(v)

	case calls.Drop:
		if _, err := e.Stack.PopOperand(); err != nil {
			e.fail(EffectMissingOperand, addr)
			return false
		}

	case calls.Nop:
		// no stack effect

	case calls.Brk:
		e.Effects.Push(Effect{Kind: EffectBreakpointHit, Address: addr})
	}

	return true
}
