// Package token defines the lexical tokens of the crosscut language and the
// position/range bookkeeping shared by the tokenizer, parser, and source map.
package token

import "fmt"

// A Token represents a lexical token kind.
type Token int8

//nolint:revive
const (
	ILLEGAL Token = iota
	EOF

	IDENT // an identifier: add_s32, main, n, send, ...
	INT   // an integer literal: 0, 1, 42

	COMMENT // a '#'-prefixed end-of-line comment

	COLON    // :
	BACKSLASH // \
	ARROW    // ->

	FN  // fn
	END // end

	maxToken
)

func (tok Token) String() string { return tokenNames[tok] }

// GoString is like String but quotes punctuation and keyword tokens, for use
// in Sprintf("%#v", tok) style error messages.
func (tok Token) GoString() string {
	switch tok {
	case IDENT, INT, COMMENT, EOF, ILLEGAL:
		return tokenNames[tok]
	default:
		return "'" + tokenNames[tok] + "'"
	}
}

var tokenNames = [...]string{
	ILLEGAL:   "illegal token",
	EOF:       "end of file",
	IDENT:     "identifier",
	INT:       "integer literal",
	COMMENT:   "comment",
	COLON:     ":",
	BACKSLASH: `\`,
	ARROW:     "->",
	FN:        "fn",
	END:       "end",
}

var keywords = map[string]Token{
	"fn":  FN,
	"end": END,
}

// LookupIdent returns KEYWORD if ident is a keyword, IDENT otherwise.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Range is a half-open byte range [Start, End) into the source text.
type Range struct {
	Start, End int
}

func (r Range) String() string { return fmt.Sprintf("[%d:%d)", r.Start, r.End) }

// Len returns the number of bytes spanned by the range.
func (r Range) Len() int { return r.End - r.Start }
