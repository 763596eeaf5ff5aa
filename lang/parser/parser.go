// Package parser consumes a tokenizer.TokenAndValue stream by peek/take and
// builds the ast.Tree using a recursive-descent shape.
package parser

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/token"
	"github.com/crosscut-lang/crosscut/lang/tokenizer"
)

// Error is a hard parse error carrying the offending token's range.
type Error struct {
	Range   token.Range
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Range, e.Message)
}

// Parse tokenizes and parses src in one step, returning the first parse
// error encountered (parsing stops at the first error: an unexpected token
// is a hard error per spec, there is no error-recovery resynchronization).
func Parse(src []byte) (*ast.Tree, error) {
	toks, err := tokenizer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens builds an ast.Tree from an already-tokenized stream.
func ParseTokens(toks []tokenizer.TokenAndValue) (*ast.Tree, error) {
	p := &parser{toks: toks}
	tree := &ast.Tree{}
	var pending []string
	for p.peek().Token != token.EOF {
		if p.peek().Token == token.COMMENT {
			pending = append(pending, p.take().Text)
			continue
		}
		nf, err := p.namedFunction(pending)
		if err != nil {
			return nil, err
		}
		pending = nil
		tree.Functions.Push(nf)
	}
	return tree, nil
}

type parser struct {
	toks []tokenizer.TokenAndValue
	pos  int
}

func (p *parser) peek() tokenizer.TokenAndValue {
	return p.toks[p.pos]
}

func (p *parser) take() tokenizer.TokenAndValue {
	tv := p.toks[p.pos]
	if tv.Token != token.EOF {
		p.pos++
	}
	return tv
}

func (p *parser) expect(tok token.Token) (tokenizer.TokenAndValue, error) {
	tv := p.peek()
	if tv.Token != tok {
		return tv, &Error{tv.Range, fmt.Sprintf("expected %#v, found %#v %q", tok, tv.Token, tv.Text)}
	}
	return p.take(), nil
}

// namedFunction parses `name: fn branch+ end`.
func (p *parser) namedFunction(comment []string) (ast.NamedFunction, error) {
	name, err := p.expect(token.IDENT)
	if err != nil {
		return ast.NamedFunction{}, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return ast.NamedFunction{}, err
	}
	fn, err := p.function()
	if err != nil {
		return ast.NamedFunction{}, err
	}
	return ast.NamedFunction{Comment: comment, Name: name.Text, NamePos: name.Range, Inner: fn}, nil
}

// function parses `fn branch+ end`, used both for named functions and for
// anonymous local function expressions.
func (p *parser) function() (ast.Function, error) {
	start, err := p.expect(token.FN)
	if err != nil {
		return ast.Function{}, err
	}

	var fn ast.Function
	for {
		if p.peek().Token == token.COMMENT {
			// a comment preceding a branch attaches to that branch
			var comment []string
			for p.peek().Token == token.COMMENT {
				comment = append(comment, p.take().Text)
			}
			br, err := p.branch(comment)
			if err != nil {
				return ast.Function{}, err
			}
			fn.Branches.Push(br)
			continue
		}
		if p.peek().Token != token.BACKSLASH {
			break
		}
		br, err := p.branch(nil)
		if err != nil {
			return ast.Function{}, err
		}
		fn.Branches.Push(br)
	}

	if fn.Branches.Len() == 0 {
		return ast.Function{}, &Error{p.peek().Range, "function must have at least one branch"}
	}

	end, err := p.expect(token.END)
	if err != nil {
		return ast.Function{}, err
	}
	fn.Range = token.Range{Start: start.Range.Start, End: end.Range.End}
	return fn, nil
}

// branch parses `\ p1 p2 -> body`, where body runs until the next `\` or the
// enclosing `end`.
func (p *parser) branch(comment []string) (ast.Branch, error) {
	start, err := p.expect(token.BACKSLASH)
	if err != nil {
		return ast.Branch{}, err
	}

	var br ast.Branch
	br.Comment = comment
	for p.peek().Token != token.ARROW {
		param, err := p.parameter()
		if err != nil {
			return ast.Branch{}, err
		}
		br.Parameters.Push(param)
	}
	if _, err := p.expect(token.ARROW); err != nil {
		return ast.Branch{}, err
	}

	for {
		tok := p.peek().Token
		if tok == token.BACKSLASH || tok == token.END {
			break
		}
		member, err := p.member()
		if err != nil {
			return ast.Branch{}, err
		}
		br.Body.Push(member)
	}
	br.Range = token.Range{Start: start.Range.Start, End: p.peek().Range.Start}
	return br, nil
}

// parameter parses one pattern: an identifier binding (optionally
// `name: Type` annotated) or an integer literal.
func (p *parser) parameter() (ast.Parameter, error) {
	tv := p.peek()
	switch tv.Token {
	case token.IDENT:
		p.take()
		param := ast.Parameter{Kind: ast.Binding, Name: tv.Text, Range: tv.Range}
		if p.peek().Token == token.COLON {
			p.take()
			typ, err := p.expect(token.IDENT)
			if err != nil {
				return ast.Parameter{}, err
			}
			param.Type = typ.Text
			param.Range.End = typ.Range.End
		}
		return param, nil
	case token.INT:
		p.take()
		v, err := parseInt(tv.Text)
		if err != nil {
			return ast.Parameter{}, &Error{tv.Range, err.Error()}
		}
		return ast.Parameter{Kind: ast.Literal, Value: v, Range: tv.Range}, nil
	default:
		return ast.Parameter{}, &Error{tv.Range, fmt.Sprintf("expected a parameter, found %#v %q", tv.Token, tv.Text)}
	}
}

// member parses one body slot: a standalone comment or an expression.
func (p *parser) member() (ast.Member, error) {
	if p.peek().Token == token.COMMENT {
		var comment []string
		for p.peek().Token == token.COMMENT {
			comment = append(comment, p.take().Text)
		}
		return ast.Member{Kind: ast.CommentMember, Comment: comment}, nil
	}

	expr, err := p.expression()
	if err != nil {
		return ast.Member{}, err
	}
	return ast.Member{Kind: ast.ExpressionMember, Expr: expr}, nil
}

// expression parses an identifier, an integer literal, or an anonymous local
// function.
func (p *parser) expression() (ast.Expression, error) {
	tv := p.peek()
	switch tv.Token {
	case token.IDENT:
		p.take()
		return ast.Expression{Kind: ast.Identifier, Name: tv.Text, Range: tv.Range}, nil
	case token.INT:
		p.take()
		v, err := parseInt(tv.Text)
		if err != nil {
			return ast.Expression{}, &Error{tv.Range, err.Error()}
		}
		return ast.Expression{Kind: ast.LiteralNumber, Value: v, Range: tv.Range}, nil
	case token.FN:
		fn, err := p.function()
		if err != nil {
			return ast.Expression{}, err
		}
		return ast.Expression{Kind: ast.LocalFunctionExpr, Local: fn, Range: fn.Range}, nil
	default:
		return ast.Expression{}, &Error{tv.Range, fmt.Sprintf("unexpected token %#v %q", tv.Token, tv.Text)}
	}
}

func parseInt(text string) (int32, error) {
	neg := false
	if len(text) > 0 && text[0] == '-' {
		neg = true
		text = text[1:]
	}
	var v int64
	for _, r := range text {
		v = v*10 + int64(r-'0')
		if v > 1<<31 {
			return 0, fmt.Errorf("integer literal %q out of range", text)
		}
	}
	if neg {
		v = -v
	} else if v > 1<<31-1 {
		return 0, fmt.Errorf("integer literal %q out of range", text)
	}
	return int32(v), nil
}
