package parser

import (
	"github.com/safedi/safedi-go/internal/lexer"
)

// attribute is a parsed source attribute: its name, raw arguments, and the
// span of the whole attribute for diagnostics.
type attribute struct {
	Name    string
	Args    []attrArg
	HasArgs bool
	Span    lexer.Span
}

// arg returns the argument with the given label, or nil.
func (a *attribute) arg(label string) *attrArg {
	for i := range a.Args {
		if a.Args[i].Label == label {
			return &a.Args[i]
		}
	}
	return nil
}

// attrArg is one labeled attribute argument. Text is the raw source of the
// value; StringValue is set when the value is a single string literal.
type attrArg struct {
	Label       string
	Text        string
	StringValue string
	IsString    bool
	Span        lexer.Span
}

// parseAttributes consumes any run of attributes before a declaration.
func (p *Parser) parseAttributes() []attribute {
	var attrs []attribute
	for p.cur.Type == lexer.AT {
		start := p.cur.Pos
		p.advance()
		if p.cur.Type != lexer.IDENT {
			// Not an attribute we can model; leave the token for the
			// construct skipper.
			return attrs
		}
		attr := attribute{Name: p.cur.Literal}
		end := p.cur.Span().End
		p.advance()
		if p.cur.Type == lexer.LPAREN {
			attr.HasArgs = true
			attr.Args, end = p.parseAttributeArgs()
		}
		attr.Span = lexer.Span{Start: start, End: end}
		attrs = append(attrs, attr)
	}
	return attrs
}

// parseAttributeArgs consumes "(label: value, ...)" and returns the
// arguments plus the closing position. Values are captured as raw source
// text, balanced across nested delimiters.
func (p *Parser) parseAttributeArgs() ([]attrArg, lexer.Pos) {
	p.advance() // '('

	var args []attrArg
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		var arg attrArg
		if (p.cur.Type == lexer.IDENT || isKeywordLabel(p.cur.Type)) && p.peek.Type == lexer.COLON {
			arg.Label = p.cur.Literal
			p.advance()
			p.advance()
		}

		start := p.cur.Pos
		endOffset := p.cur.EndOffset
		if p.cur.Type == lexer.STRING && !isValueContinuation(p.peek.Type) {
			arg.IsString = true
			arg.StringValue = p.cur.Literal
		}

		depth := 0
		for p.cur.Type != lexer.EOF {
			if depth == 0 && (p.cur.Type == lexer.COMMA || p.cur.Type == lexer.RPAREN) {
				break
			}
			switch p.cur.Type {
			case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
				depth++
			case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
				depth--
			}
			endOffset = p.cur.EndOffset
			p.advance()
		}

		arg.Text = p.sliceSource(start.Offset, endOffset)
		arg.Span = lexer.Span{Start: start, End: lexer.Pos{
			Line: start.Line, Column: start.Column + (endOffset - start.Offset),
			Offset: endOffset, File: start.File,
		}}
		args = append(args, arg)

		if p.cur.Type == lexer.COMMA {
			p.advance()
		}
	}

	end := p.cur.Span().End
	if p.cur.Type == lexer.RPAREN {
		p.advance()
	}
	return args, end
}

// sliceSource returns the raw source between byte offsets.
func (p *Parser) sliceSource(start, end int) string {
	if start < 0 || end > len(p.source) || start > end {
		return ""
	}
	return p.source[start:end]
}

// isKeywordLabel reports whether a keyword token may act as an argument
// label, e.g. "class" in "@objc(class:)".
func isKeywordLabel(t lexer.TokenType) bool {
	switch t {
	case lexer.CLASS, lexer.STRUCT, lexer.ACTOR, lexer.ANY, lexer.SOME, lexer.ASYNC:
		return true
	}
	return false
}

// isValueContinuation reports whether the token continues an argument
// value, meaning a leading string literal is not the whole value.
func isValueContinuation(t lexer.TokenType) bool {
	switch t {
	case lexer.COMMA, lexer.RPAREN, lexer.EOF:
		return false
	}
	return true
}

// modifiers is the set of declaration modifiers the visitor tracks.
type modifiers struct {
	IsPublic bool // public or open
	IsOpen   bool
	IsStatic bool
	IsVarSet bool // private(set) etc. on the setter only
	IsFinal  bool
	HasOther bool
}

// parseModifiers consumes declaration modifiers, recording the ones the
// extraction rules depend on.
func (p *Parser) parseModifiers() modifiers {
	var m modifiers
	for {
		switch p.cur.Type {
		case lexer.PUBLIC:
			m.IsPublic = true
		case lexer.OPEN:
			m.IsPublic = true
			m.IsOpen = true
		case lexer.INTERNAL, lexer.FILEPRIVATE, lexer.PRIVATE:
			// Setter-scoped visibility like private(set) does not change
			// the declaration's own visibility.
			if p.peek.Type == lexer.LPAREN {
				p.advance()
				p.skipParens()
				m.IsVarSet = true
				continue
			}
		case lexer.STATIC:
			m.IsStatic = true
		case lexer.FINAL:
			m.IsFinal = true
		case lexer.CONVENIENCE, lexer.REQUIRED, lexer.OVERRIDE, lexer.LAZY,
			lexer.WEAK, lexer.UNOWNED, lexer.NONISOLATED:
			m.HasOther = true
			if p.peek.Type == lexer.LPAREN {
				p.advance()
				p.skipParens()
				continue
			}
		default:
			return m
		}
		p.advance()
	}
}

// skipParens consumes a balanced "( ... )" group. The current token must be
// the opening paren.
func (p *Parser) skipParens() {
	depth := 0
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}
