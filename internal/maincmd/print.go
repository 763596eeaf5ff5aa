package maincmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/crosscut-lang/crosscut/lang/ast"
)

// printTree renders tree to w in a flat, indented text form: one line per
// function, branch, and body member, prefixed by their MemberLocation so
// output can be cross-referenced against calls/deps/types output for the
// same file.
func printTree(w io.Writer, tree *ast.Tree) {
	ast.WalkFunctions(tree, func(floc ast.FunctionLocation, nf ast.NamedFunction) {
		fmt.Fprintf(w, "%s %s:\n", floc, nf.Name)
		printFunction(w, nf.Inner, floc, 1)
	})
}

func printFunction(w io.Writer, fn ast.Function, floc ast.FunctionLocation, indent int) {
	pad := strings.Repeat("  ", indent)
	ast.WalkBranches(fn, floc, func(bloc ast.BranchLocation, br ast.Branch) {
		fmt.Fprintf(w, "%s%s \\", pad, bloc)
		br.Parameters.Each(func(_ ast.Index[ast.Parameter], p ast.Parameter) bool {
			fmt.Fprintf(w, " %s", printParameter(p))
			return true
		})
		fmt.Fprint(w, " ->\n")
		ast.WalkMembers(br, bloc, func(mloc ast.MemberLocation, m ast.Member) {
			printMember(w, m, mloc, indent+1)
		})
	})
}

func printParameter(p ast.Parameter) string {
	if p.Kind == ast.Literal {
		return fmt.Sprintf("%d", p.Value)
	}
	if p.Type != "" {
		return fmt.Sprintf("%s:%s", p.Name, p.Type)
	}
	return p.Name
}

func printMember(w io.Writer, m ast.Member, mloc ast.MemberLocation, indent int) {
	pad := strings.Repeat("  ", indent)
	if m.Kind == ast.CommentMember {
		for _, line := range m.Comment {
			fmt.Fprintf(w, "%s%s # %s\n", pad, mloc, line)
		}
		return
	}
	fmt.Fprintf(w, "%s%s %s\n", pad, mloc, m.Expr.Text())
	if m.Expr.Kind == ast.LocalFunctionExpr {
		printFunction(w, m.Expr.Local, ast.LocalFunction(mloc), indent+1)
	}
}
