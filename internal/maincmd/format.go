package maincmd

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/hash"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// sortedNames returns the keys of a function table's name index in
// deterministic order, so compile/run output doesn't depend on Go map
// iteration order.
func sortedNames(byName map[string]hash.Hash) []string {
	names := maps.Keys(byName)
	slices.Sort(names)
	return names
}

// formatInstruction renders one compiled instruction, showing only the
// operand fields relevant to its Op.
func formatInstruction(instr compiler.Instruction) string {
	switch instr.Op {
	case compiler.BindingDefine, compiler.BindingEvaluate:
		return fmt.Sprintf("%s %s", instr.Op, instr.Name)
	case compiler.Push:
		return fmt.Sprintf("%s %d", instr.Op, instr.PushValue)
	case compiler.CallIntrinsic:
		return fmt.Sprintf("%s %s", instr.Op, instr.Intrinsic)
	case compiler.CallHost:
		return fmt.Sprintf("%s #%d", instr.Op, instr.HostNumber)
	case compiler.CallFunction:
		return fmt.Sprintf("%s %s tail=%v", instr.Op, instr.Callee, instr.IsTailCall)
	case compiler.TriggerEffect:
		return fmt.Sprintf("%s %s", instr.Op, instr.Effect)
	case compiler.Jump, compiler.JumpIfZero:
		return fmt.Sprintf("%s %d", instr.Op, instr.Target)
	case compiler.PushFunction:
		return fmt.Sprintf("%s %s", instr.Op, instr.Callee)
	default:
		return instr.Op.String()
	}
}
