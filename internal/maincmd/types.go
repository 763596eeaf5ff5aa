package maincmd

import (
	"context"
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/mna/mainer"
)

// Types runs type inference over every named file and prints the inferred
// signature of every function and the type of every expression.
func (c *Cmd) Types(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TypesFiles(stdio, args...)
}

func TypesFiles(stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "# %s\n", f)
		}
		u, err := resolveTypes(f)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ast.WalkFunctions(u.Tree, func(floc ast.FunctionLocation, nf ast.NamedFunction) {
			if sig, ok := u.Types.SignatureOf(floc); ok {
				fmt.Fprintf(stdio.Stdout, "%s %s : %s\n", floc, nf.Name, sig)
			}
		})
		ast.WalkFunctionsDeep(u.Tree, func(floc ast.FunctionLocation, fn ast.Function) {
			ast.WalkBranches(fn, floc, func(bloc ast.BranchLocation, br ast.Branch) {
				ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
					if m.Kind != ast.ExpressionMember {
						return
					}
					if t, ok := u.Types.TypeOf(mloc); ok {
						fmt.Fprintf(stdio.Stdout, "%s %s : %s\n", mloc, m.Expr.Text(), t.Kind)
					}
				})
			})
		})
	}
	return firstErr
}
