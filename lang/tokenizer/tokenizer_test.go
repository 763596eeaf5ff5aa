package tokenizer_test

import (
	"testing"

	"github.com/crosscut-lang/crosscut/lang/token"
	"github.com/crosscut-lang/crosscut/lang/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasic(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("double: fn \\ n -> n n add_s32 end end"))
	require.NoError(t, err)

	var kinds []token.Token
	for _, tv := range toks {
		kinds = append(kinds, tv.Token)
	}
	assert.Equal(t, []token.Token{
		token.IDENT, token.COLON, token.FN, token.BACKSLASH, token.IDENT, token.ARROW,
		token.IDENT, token.IDENT, token.IDENT, token.END, token.END, token.EOF,
	}, kinds)
}

func TestTokenizeComment(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("# a comment\nn"))
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.COMMENT, toks[0].Token)
	assert.Equal(t, " a comment", toks[0].Text)
	assert.Equal(t, token.IDENT, toks[1].Token)
	assert.Equal(t, token.EOF, toks[2].Token)
}

func TestTokenizeIntegerLiteral(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("42 -7"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.INT, toks[0].Token)
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, token.INT, toks[1].Token)
	assert.Equal(t, "-7", toks[1].Text)
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	_, err := tokenizer.Tokenize([]byte("n @ n"))
	require.Error(t, err)
	var el tokenizer.ErrorList
	require.ErrorAs(t, err, &el)
	assert.Len(t, el, 1)
}

func TestTokenizeAlwaysEndsInEOF(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte(""))
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Token)
}
