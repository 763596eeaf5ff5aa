package maincmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/crosscut-lang/crosscut/lang/machine"
)

var (
	stepStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
	effectStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8700")).Bold(true)
	breakpointStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	resultStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

// printStep writes one trace line for a single evaluator step, used by both
// run --trace and repl.
func printStep(w io.Writer, e *machine.Evaluator, n int) {
	fmt.Fprintln(w, stepStyle.Render(fmt.Sprintf("step %d: pc=%d depth=%d", n, e.PC, e.Stack.Depth())))
}

// printEffect writes one line describing an effect the evaluator paused on.
func printEffect(w io.Writer, eff machine.Effect) {
	style := effectStyle
	if eff.Kind == machine.EffectBreakpointHit {
		style = breakpointStyle
	}
	fmt.Fprintln(w, style.Render(fmt.Sprintf("effect %s at pc=%d", eff.Kind, eff.Address)))
}

// printResult writes the final operand stack once a run halts cleanly.
func printResult(w io.Writer, e *machine.Evaluator) {
	vals := e.Stack.Snapshot()
	fmt.Fprintln(w, resultStyle.Render(fmt.Sprintf("halted, stack=%v", formatValues(vals))))
}

func formatValues(vals []machine.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if v.Func {
			out[i] = fmt.Sprintf("fn#%d", v.FuncRef)
		} else {
			out[i] = fmt.Sprintf("%d", v.Number)
		}
	}
	return out
}
