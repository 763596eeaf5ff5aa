package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/crosscut-lang/crosscut/internal/config"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/crosscut-lang/crosscut/lang/update"
	"github.com/crosscut-lang/crosscut/protocol"
	"github.com/mna/mainer"
)

// Repl compiles a single source file, runs it under an interactive prompt,
// and recompiles the same file in place on an "update" command -- the
// simplest possible driver for the hot code-update protocol: the process
// keeps running, and the prompt is the one issuing the new compilation.
//
// Commands: step, run, update, stack, quit.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		return printError(stdio, fmt.Errorf("repl: exactly one source file is required"))
	}
	path := args[0]

	u, err := compileFile(path)
	if err != nil {
		return printError(stdio, err)
	}
	entry, ok := u.Program.Functions.ByName("main")
	if !ok {
		return printError(stdio, fmt.Errorf("%s: no main function", path))
	}

	cfg, err := config.Load()
	if err != nil {
		return printError(stdio, err)
	}

	e := machine.NewEvaluator(u.Program, cfg.MaxCallDepth)
	if err := e.Start(entry.Entry); err != nil {
		return printError(stdio, err)
	}

	fmt.Fprintf(stdio.Stdout, "crosscut repl -- %s loaded, type step/run/update/stack/quit\n", path)
	sc := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !sc.Scan() {
			return nil
		}
		line := strings.TrimSpace(sc.Text())

		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil

		case "step":
			if err := stepOnce(stdio, e); err != nil {
				return err
			}

		case "run":
			if err := runToStop(ctx, stdio, e, cfg, c.Trace); err != nil {
				return err
			}

		case "stack":
			printResult(stdio.Stdout, e)

		case "update":
			old := u.Program
			next, err := compileFile(path)
			if err != nil {
				printError(stdio, err)
				continue
			}
			diff := update.Apply(e, old, next.Program)
			u = next
			fmt.Fprintf(stdio.Stdout, "updated %d function(s)\n", countChanged(diff))

		default:
			fmt.Fprintf(stdio.Stdout, "unknown command: %s\n", line)
		}
	}
}

func stepOnce(stdio mainer.Stdio, e *machine.Evaluator) error {
	if err := e.Step(); err != nil {
		return printError(stdio, err)
	}
	up := protocol.NewProcessUpdate(e)
	fmt.Fprintf(stdio.Stdout, "state=%s effects=%d active=%v\n", up.State, len(up.Effects), up.ActiveInstructions)
	for {
		eff, ok := e.Effects.Pop()
		if !ok {
			break
		}
		printEffect(stdio.Stdout, eff)
	}
	return nil
}

func countChanged(diff update.Diff) int {
	n := 0
	for _, k := range diff {
		if k != update.Unchanged {
			n++
		}
	}
	return n
}
