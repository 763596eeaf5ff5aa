package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Compile runs the full pipeline through code generation over every named
// file and prints the compiled instruction stream.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(stdio, args...)
}

func CompileFiles(stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "# %s\n", f)
		}
		u, err := compileFile(f)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, name := range sortedNames(u.Program.Functions.Names()) {
			entry, _ := u.Program.Functions.ByName(name)
			fmt.Fprintf(stdio.Stdout, "function %s hash=%s entry=%d\n", name, entry.Hash, entry.Entry)
		}
		for i, instr := range u.Program.Instructions {
			fmt.Fprintf(stdio.Stdout, "%04d %s\n", i, formatInstruction(instr))
		}
	}
	return firstErr
}
