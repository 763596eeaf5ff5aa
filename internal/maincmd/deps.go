package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Deps runs dependency clustering over every named file and prints every
// cluster leaves-first, along with its branch order and divergence flags.
func (c *Cmd) Deps(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DepsFiles(stdio, args...)
}

func DepsFiles(stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "# %s\n", f)
		}
		u, err := resolveDeps(f)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for i, cl := range u.Clusters {
			recursive := cl.IsRecursive(u.Graph)
			fmt.Fprintf(stdio.Stdout, "cluster %d (recursive=%v):\n", i, recursive)
			for _, fn := range cl.Functions {
				fmt.Fprintf(stdio.Stdout, "  function %s\n", fn)
			}
			for _, b := range cl.Branches {
				fmt.Fprintf(stdio.Stdout, "  branch %s divergent=%v\n", b, cl.Divergent[b])
			}
		}
	}
	return firstErr
}
