package parser

import (
	"github.com/safedi/safedi-go/internal/lexer"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// skimType consumes the tokens of a type annotation without interpreting
// them, then hands the raw source slice to typedesc.Parse. Keeping a single
// type grammar means inline annotations and string-literal annotations
// always agree on the canonical form.
//
// The skim stops at the first depth-zero token that cannot continue a type:
// '=', '{', ',', ')', '}', a member-introducing keyword, or an attribute
// that does not open a type.
func (p *Parser) skimType() (typedesc.Description, lexer.Span, error) {
	start := p.cur.Pos
	endOffset := start.Offset
	depth := 0
	prev := lexer.TokenType(-1)

	for p.cur.Type != lexer.EOF {
		stop := false
		switch p.cur.Type {
		case lexer.LANGLE, lexer.LPAREN, lexer.LBRACKET:
			depth++
		case lexer.RANGLE, lexer.RPAREN, lexer.RBRACKET:
			if depth == 0 {
				stop = true
			} else {
				depth--
			}
		case lexer.ASSIGN, lexer.LBRACE, lexer.RBRACE, lexer.SEMICOLON, lexer.WHERE, lexer.ELLIPSIS:
			if depth == 0 {
				stop = true
			}
		case lexer.COMMA:
			if depth == 0 {
				stop = true
			}
		case lexer.AT:
			// An attribute continues a type only in type-prefix position:
			// at the start or after a delimiter that expects a type.
			if depth == 0 && !typePrefixPosition(prev) {
				stop = true
			}
		case lexer.VAR, lexer.LET, lexer.FUNC, lexer.INIT, lexer.STATIC,
			lexer.PUBLIC, lexer.OPEN, lexer.PRIVATE, lexer.FILEPRIVATE, lexer.INTERNAL,
			lexer.STRUCT, lexer.CLASS, lexer.ACTOR, lexer.ENUM, lexer.EXTENSION, lexer.IMPORT:
			if depth == 0 {
				stop = true
			}
		}
		if stop {
			break
		}
		endOffset = p.cur.EndOffset
		prev = p.cur.Type
		p.advance()
	}

	span := lexer.Span{Start: start, End: lexer.Pos{
		Line:   start.Line,
		Column: start.Column + (endOffset - start.Offset),
		Offset: endOffset,
		File:   start.File,
	}}
	text := p.sliceSource(start.Offset, endOffset)
	d, err := typedesc.Parse(text)
	if err != nil {
		return &typedesc.Unknown{Text: text}, span, err
	}
	return d, span, nil
}

// typePrefixPosition reports whether an '@' following the given token is
// still inside the type being skimmed, e.g. "[@Sendable () -> Void]" or
// "(Int, @Sendable () -> Void)".
func typePrefixPosition(prev lexer.TokenType) bool {
	switch prev {
	case lexer.TokenType(-1), lexer.ARROW, lexer.LPAREN, lexer.LBRACKET,
		lexer.LANGLE, lexer.COMMA, lexer.COLON, lexer.AMP:
		return true
	}
	return false
}
