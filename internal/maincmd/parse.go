package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Parse runs the parser phase over every named file and prints the
// resulting syntax tree.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(stdio, args...)
}

func ParseFiles(stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "# %s\n", f)
		}
		tree, _, err := parseFile(f)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		printTree(stdio.Stdout, tree)
	}
	return firstErr
}
