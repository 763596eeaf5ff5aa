package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Tokenize runs the tokenizer phase over every named file and prints its
// token stream, one line per token.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		toks, _, err := tokenizeFile(f)
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "# %s\n", f)
		}
		for _, tv := range toks {
			fmt.Fprintf(stdio.Stdout, "%s %s %q\n", tv.Range, tv.Token, tv.Text)
		}
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
