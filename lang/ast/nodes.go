package ast

import "github.com/crosscut-lang/crosscut/lang/token"

// Tree is the parsed representation of one source file: an ordered set of
// named functions.
type Tree struct {
	Functions IndexMap[NamedFunction]
}

// NamedFunction is a top-level `name: fn ... end` declaration.
type NamedFunction struct {
	Comment []string // preceding comment lines, if any
	Name    string
	NamePos token.Range
	Inner   Function
}

// Function is the branches of a `fn ... end` form, named or anonymous.
type Function struct {
	Branches IndexMap[Branch]
	Range    token.Range // the full fn...end span
}

// Branch is one `\ p1 p2 -> body` arm of a function.
type Branch struct {
	Comment    []string
	Parameters IndexMap[Parameter]
	Body       IndexMap[Member]
	Range      token.Range
}

// ParameterKind distinguishes a binding pattern from a literal pattern.
type ParameterKind uint8

const (
	Binding ParameterKind = iota
	Literal
)

// Parameter is one pattern in a branch's parameter list: either a binding
// (optionally type-annotated) or a literal number to match against.
type Parameter struct {
	Kind ParameterKind

	// Binding fields.
	Name string
	Type string // optional type annotation text, e.g. "Number"; empty if none

	// Literal fields.
	Value int32

	Range token.Range
}

// MemberKind distinguishes a comment-only member from an expression member.
type MemberKind uint8

const (
	CommentMember MemberKind = iota
	ExpressionMember
)

// Member is one slot in a branch's body: either a standalone comment or an
// expression. MemberLocation is the key used by every later pass (type
// signatures, source map addresses, breakpoints) to refer back to it.
type Member struct {
	Kind    MemberKind
	Comment []string   // CommentMember
	Expr    Expression // ExpressionMember
}

// ExpressionKind distinguishes the four forms an expression can take.
type ExpressionKind uint8

const (
	Identifier ExpressionKind = iota
	LiteralNumber
	LocalFunctionExpr
	UnresolvedLocalFunction
)

// Expression is one evaluated unit in a branch's body.
type Expression struct {
	Kind  ExpressionKind
	Name  string      // Identifier
	Value int32       // LiteralNumber
	Local Function     // LocalFunctionExpr: the nested function's branches
	Range token.Range
}

// Text renders the expression the way it appeared in source, used by the
// debugger's per-expression decoration.
func (e Expression) Text() string {
	switch e.Kind {
	case Identifier:
		return e.Name
	case LiteralNumber:
		return itoa(e.Value)
	case LocalFunctionExpr:
		return "fn ... end"
	default:
		return "<unresolved local function>"
	}
}

func itoa(v int32) string {
	// avoid importing strconv in this tiny helper-heavy file twice; kept local
	// since Text() is the only caller that needs number formatting here.
	if v == 0 {
		return "0"
	}
	neg := v < 0
	var buf [12]byte
	i := len(buf)
	u := uint32(v)
	if neg {
		u = uint32(-v)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
