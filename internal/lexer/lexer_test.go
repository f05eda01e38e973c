package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []Token {
	t.Helper()
	l := New(input, "test.swift")
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			return tokens
		}
		require.NotEqual(t, ILLEGAL, tok.Type, "illegal token %q", tok.Literal)
		tokens = append(tokens, tok)
	}
}

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestDeclarationTokens(t *testing.T) {
	tokens := collect(t, "@Instantiable public struct Foo {}")
	assert.Equal(t, []TokenType{AT, IDENT, PUBLIC, STRUCT, IDENT, LBRACE, RBRACE}, types(tokens))
	assert.Equal(t, "Instantiable", tokens[1].Literal)
	assert.Equal(t, "Foo", tokens[4].Literal)
}

func TestMemberTokens(t *testing.T) {
	tokens := collect(t, "@Instantiated let boiler: Boiler")
	assert.Equal(t, []TokenType{AT, IDENT, LET, IDENT, COLON, IDENT}, types(tokens))
}

func TestSubmoduleImport(t *testing.T) {
	tokens := collect(t, "import struct Foundation.URL")
	assert.Equal(t, []TokenType{IMPORT, STRUCT, IDENT, DOT, IDENT}, types(tokens))
}

func TestGenericAndOptionalTokens(t *testing.T) {
	tokens := collect(t, "Instantiator<NoteView>?")
	assert.Equal(t, []TokenType{IDENT, LANGLE, IDENT, RANGLE, QUESTION}, types(tokens))
}

func TestArrowAndClosureType(t *testing.T) {
	tokens := collect(t, "(String) async throws -> Void")
	assert.Equal(t, []TokenType{LPAREN, IDENT, RPAREN, ASYNC, THROWS, ARROW, IDENT}, types(tokens))
}

func TestStringLiteral(t *testing.T) {
	tokens := collect(t, `@Instantiated(fulfilledByType: "DefaultUserService")`)
	require.Equal(t, []TokenType{AT, IDENT, LPAREN, IDENT, COLON, STRING, RPAREN}, types(tokens))
	assert.Equal(t, "DefaultUserService", tokens[5].Literal)
}

func TestStringEscapes(t *testing.T) {
	tokens := collect(t, `"a\n\"b\""`)
	require.Len(t, tokens, 1)
	assert.Equal(t, "a\n\"b\"", tokens[0].Literal)
}

func TestComments(t *testing.T) {
	input := `// line comment
/* block /* nested */ comment */
let x = 1`
	tokens := collect(t, input)
	assert.Equal(t, []TokenType{LET, IDENT, ASSIGN, INT}, types(tokens))
}

func TestBacktickIdentifier(t *testing.T) {
	tokens := collect(t, "let `class` = 1")
	require.Equal(t, []TokenType{LET, IDENT, ASSIGN, INT}, types(tokens))
	assert.Equal(t, "class", tokens[1].Literal)
}

func TestOperatorRuns(t *testing.T) {
	tokens := collect(t, "a == b ?? c")
	assert.Equal(t, []TokenType{IDENT, OPERATOR, IDENT, QUESTION, QUESTION, IDENT}, types(tokens))
}

func TestPositions(t *testing.T) {
	l := New("let x\nlet y", "test.swift")
	tok := l.NextToken()
	assert.Equal(t, 1, tok.Pos.Line)
	l.NextToken() // x
	tok = l.NextToken()
	assert.Equal(t, LET, tok.Type)
	assert.Equal(t, 2, tok.Pos.Line)
}

func TestNormalizeStripsBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("let x")...)
	assert.Equal(t, []byte("let x"), Normalize(src))
}

func TestNormalizeNFC(t *testing.T) {
	// "e" followed by a combining acute normalizes to the single NFC rune.
	nfd := "e\u0301"
	assert.Equal(t, "\u00e9", string(Normalize([]byte(nfd))))
}
