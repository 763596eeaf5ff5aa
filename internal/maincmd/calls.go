package maincmd

import (
	"context"
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/mna/mainer"
)

// Calls runs function-call resolution over every named file and prints, for
// every identifier expression, what it resolves to.
func (c *Cmd) Calls(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CallsFiles(stdio, args...)
}

func CallsFiles(stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "# %s\n", f)
		}
		u, err := resolveCalls(f)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		printCalls(stdio, u.Tree, u.FC)
	}
	return firstErr
}

func printCalls(stdio mainer.Stdio, tree *ast.Tree, fc *calls.FunctionCalls) {
	ast.WalkFunctionsDeep(tree, func(floc ast.FunctionLocation, fn ast.Function) {
		ast.WalkBranches(fn, floc, func(bloc ast.BranchLocation, br ast.Branch) {
			ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
				if m.Kind != ast.ExpressionMember || m.Expr.Kind != ast.Identifier {
					return
				}
				if n, ok := fc.Host(mloc); ok {
					fmt.Fprintf(stdio.Stdout, "%s %s -> host #%d\n", mloc, m.Expr.Name, n)
					return
				}
				if i, ok := fc.IntrinsicOf(mloc); ok {
					fmt.Fprintf(stdio.Stdout, "%s %s -> intrinsic %s\n", mloc, m.Expr.Name, i)
					return
				}
				if u, ok := fc.User(mloc); ok {
					fmt.Fprintf(stdio.Stdout, "%s %s -> user %s\n", mloc, m.Expr.Name, u)
					return
				}
				fmt.Fprintf(stdio.Stdout, "%s %s -> unresolved\n", mloc, m.Expr.Name)
			})
		})
	})
}
