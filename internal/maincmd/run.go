package maincmd

import (
	"context"
	"fmt"

	"github.com/crosscut-lang/crosscut/internal/config"
	"github.com/crosscut-lang/crosscut/lang/machine"
	"github.com/mna/mainer"
)

// Run compiles a single source file and executes it to completion. Host
// applications are out of scope for this repository, so an EffectHostCall
// the program raises is reported and treated as a stopping condition rather
// than serviced.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		err := fmt.Errorf("run: exactly one source file is required")
		return printError(stdio, err)
	}

	u, err := compileFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	entry, ok := u.Program.Functions.ByName("main")
	if !ok {
		return printError(stdio, fmt.Errorf("%s: no main function", args[0]))
	}

	cfg, err := config.Load()
	if err != nil {
		return printError(stdio, err)
	}

	e := machine.NewEvaluator(u.Program, cfg.MaxCallDepth)
	if err := e.Start(entry.Entry); err != nil {
		return printError(stdio, err)
	}

	return runToStop(ctx, stdio, e, cfg, c.Trace)
}

func runToStop(ctx context.Context, stdio mainer.Stdio, e *machine.Evaluator, cfg config.Runtime, trace bool) error {
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return printError(stdio, err)
		}
		if cfg.MaxSteps > 0 && n >= cfg.MaxSteps {
			return printError(stdio, fmt.Errorf("run: exceeded max steps (%d)", cfg.MaxSteps))
		}

		if err := e.Step(); err != nil {
			return printError(stdio, err)
		}
		if trace {
			printStep(stdio.Stdout, e, n)
		}

		for {
			eff, ok := e.Effects.Pop()
			if !ok {
				break
			}
			printEffect(stdio.Stdout, eff)
			if eff.Kind == machine.EffectHalted {
				printResult(stdio.Stdout, e)
				return nil
			}
			if eff.Kind == machine.EffectBreakpointHit {
				continue
			}
			return printError(stdio, fmt.Errorf("run: unhandled effect %s at pc=%d", eff.Kind, eff.Address))
		}
	}
}
