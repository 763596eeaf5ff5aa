// Package compiler walks the syntax tree in dependency order and emits a
// linear Instruction stream, a bidirectional SourceMap, and a
// content-hash-indexed function table. See DESIGN.md for the
// CFG-to-linear-instruction walk this is adapted from, here replaced with
// an explicit branch-dispatch and tail-call model.
package compiler

import (
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/hash"
)

// Opcode is the instruction set this language compiles to.
type Opcode uint8

const (
	BindingDefine Opcode = iota
	BindingEvaluate
	Push
	CallIntrinsic
	CallHost
	CallFunction
	Return
	ReturnIfZero
	ReturnIfNonZero
	TriggerEffect

	// Jump and JumpIfZero are compiler-internal: a compiled expression body
	// never produces them directly, but nothing specifies how a
	// multi-branch function picks which branch to run on its own. The dispatch
	// preamble needs an actual jump to skip over a non-matching branch's
	// body, which none of the Return* forms gives it (they leave the
	// function rather than continuing at a sibling branch), so these two
	// exist only in the preamble this package emits ahead of a function's
	// branch bodies -- never in a compiled expression. See DESIGN.md.
	Jump
	JumpIfZero

	// PushFunction pushes a function value referring to Callee, used when a
	// local function expression appears as a plain operand (so it can later
	// reach CallIntrinsic(Eval) or be passed to a host/user call), as
	// distinct from Push, which always pushes a Number.
	PushFunction
)

func (op Opcode) String() string {
	switch op {
	case BindingDefine:
		return "BindingDefine"
	case BindingEvaluate:
		return "BindingEvaluate"
	case Push:
		return "Push"
	case CallIntrinsic:
		return "CallIntrinsic"
	case CallHost:
		return "CallHost"
	case CallFunction:
		return "CallFunction"
	case Return:
		return "Return"
	case ReturnIfZero:
		return "ReturnIfZero"
	case ReturnIfNonZero:
		return "ReturnIfNonZero"
	case TriggerEffect:
		return "TriggerEffect"
	case Jump:
		return "Jump"
	case JumpIfZero:
		return "JumpIfZero"
	case PushFunction:
		return "PushFunction"
	default:
		return "?"
	}
}

// EffectKind identifies which effect a TriggerEffect instruction raises.
type EffectKind uint8

const (
	EffectBreakpoint EffectKind = iota
	EffectBuildError
)

func (k EffectKind) String() string {
	if k == EffectBreakpoint {
		return "Breakpoint"
	}
	return "BuildError"
}

// InstructionAddress indexes into a Program's Instructions.
type InstructionAddress uint32

// Instruction is one entry in the compiled instruction stream. Only the
// fields relevant to Op are meaningful; a tagged union as a flat struct is
// simpler in Go than a sum type and costs nothing since Instructions are
// small and numerous anyway.
type Instruction struct {
	Op Opcode

	Name       string          // BindingDefine, BindingEvaluate
	PushValue  int32           // Push
	Intrinsic  calls.Intrinsic // CallIntrinsic
	HostNumber uint8           // CallHost
	Callee     hash.Hash       // CallFunction
	IsTailCall bool            // CallFunction: reuse the current frame instead of pushing one
	Effect     EffectKind      // TriggerEffect
	Target     InstructionAddress // Jump, JumpIfZero
}
