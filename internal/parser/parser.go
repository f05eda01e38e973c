// Package parser extracts the SafeDI data model from annotated Swift
// source. It is a single-pass visitor over the token stream: imports and
// file-scope type declarations are walked structurally, everything else is
// skipped by balancing delimiters. Unknown attributes are ignored.
package parser

import (
	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/lexer"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// InstantiableAttr is the attribute naming an injectable type.
const InstantiableAttr = "Instantiable"

// Lifecycle attribute names recognized on member variables.
const (
	InstantiatedAttr = "Instantiated"
	ReceivedAttr     = "Received"
	ForwardedAttr    = "Forwarded"
)

// FileResult is the outcome of parsing one source file.
type FileResult struct {
	Imports       []model.ImportStatement
	Instantiables []*model.Instantiable
	// NestedInstantiables records @Instantiable types declared inside other
	// types; nesting is rejected with a diagnostic.
	NestedInstantiables []typedesc.Description
	Diagnostics         []*errors.Report
}

// HasFatalDiagnostics reports whether any diagnostic blocks generation.
// Parse diagnostics are collected in batch; all of them block generation.
func (r *FileResult) HasFatalDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// Parser walks one source file's token stream.
type Parser struct {
	source string
	file   string
	l      *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token

	result FileResult
}

// New creates a Parser over the given source text.
func New(source, filename string) *Parser {
	p := &Parser{
		source: string(lexer.Normalize([]byte(source))),
		file:   filename,
		l:      lexer.New(source, filename),
	}
	p.advance()
	p.advance()
	return p
}

// ParseFile parses the file and returns everything extracted from it.
func ParseFile(source, filename string) *FileResult {
	p := New(source, filename)
	return p.Parse()
}

// Parse runs the visitor over the whole file.
func (p *Parser) Parse() *FileResult {
	for p.cur.Type != lexer.EOF {
		p.parseTopLevel()
	}
	return &p.result
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) report(r *errors.Report) {
	p.result.Diagnostics = append(p.result.Diagnostics, r)
}

// parseTopLevel dispatches one file-scope construct.
func (p *Parser) parseTopLevel() {
	attrs := p.parseAttributes()
	mods := p.parseModifiers()

	switch p.cur.Type {
	case lexer.IMPORT:
		p.parseImport(attrs)
	case lexer.STRUCT, lexer.CLASS, lexer.ACTOR:
		p.parseTypeDecl(attrs, mods)
	case lexer.EXTENSION:
		p.parseExtension(attrs, mods)
	case lexer.ENUM, lexer.PROTOCOL:
		// Not instantiable declaration kinds; walk the body anyway so any
		// nested @Instantiable is still rejected.
		p.advance()
		p.skipToBody()
		p.walkBodyForNested()
	case lexer.EOF:
		return
	default:
		// Free functions, globals, typealiases: skip one construct.
		p.skipConstruct()
	}
}

// parseImport parses "import", "@testable import", and submodule-kind
// imports like "import struct Foo.Bar".
func (p *Parser) parseImport(attrs []attribute) {
	p.advance() // 'import'

	imp := model.ImportStatement{}
	for _, a := range attrs {
		imp.Attributes = append(imp.Attributes, a.Name)
	}

	// Submodule import kind: struct/class/enum/protocol/typealias/func/let/var
	switch p.cur.Type {
	case lexer.STRUCT, lexer.CLASS, lexer.ENUM, lexer.PROTOCOL, lexer.TYPEALIAS, lexer.FUNC, lexer.LET, lexer.VAR, lexer.ACTOR:
		imp.Kind = p.cur.Literal
		p.advance()
	}

	if p.cur.Type != lexer.IDENT {
		p.report(errors.Newf(errors.PAR012, "expected module name after import, got %s", p.cur).WithSpan(p.cur.Span()))
		p.skipConstruct()
		return
	}
	imp.ModuleName = p.cur.Literal
	p.advance()

	var submodule string
	for p.cur.Type == lexer.DOT && p.peek.Type == lexer.IDENT {
		p.advance()
		if submodule != "" {
			submodule += "."
		}
		submodule += p.cur.Literal
		p.advance()
	}
	imp.Submodule = submodule

	p.result.Imports = append(p.result.Imports, imp)
}

// skipToBody consumes tokens (generic parameters, inheritance clauses,
// where clauses) up to the opening brace of a declaration body.
func (p *Parser) skipToBody() {
	depth := 0
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LANGLE, lexer.LPAREN, lexer.LBRACKET:
			depth++
		case lexer.RANGLE, lexer.RPAREN, lexer.RBRACKET:
			depth--
		case lexer.LBRACE:
			if depth <= 0 {
				p.advance() // consume '{'
				return
			}
		}
		p.advance()
	}
}

// skipBalancedBraces consumes a '{' ... '}' block, including nested blocks.
// The current token must be the opening brace.
func (p *Parser) skipBalancedBraces() {
	if p.cur.Type != lexer.LBRACE {
		return
	}
	depth := 0
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipConstruct skips a top-level construct we do not model: tokens up to
// and including the next balanced brace block, or to the next construct
// boundary if no block appears first. At least one token is always
// consumed so the visitor cannot stall.
func (p *Parser) skipConstruct() {
	if p.cur.Type != lexer.LBRACE && p.cur.Type != lexer.EOF {
		p.advance()
	}
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LBRACE:
			p.skipBalancedBraces()
			return
		case lexer.IMPORT, lexer.STRUCT, lexer.CLASS, lexer.ACTOR, lexer.ENUM,
			lexer.PROTOCOL, lexer.EXTENSION, lexer.AT:
			return
		}
		p.advance()
	}
}

// walkBodyForNested scans a declaration body (already entered) only for
// nested @Instantiable declarations, which are rejected.
func (p *Parser) walkBodyForNested() {
	for p.cur.Type != lexer.EOF && p.cur.Type != lexer.RBRACE {
		attrs := p.parseAttributes()
		p.parseModifiers()
		switch p.cur.Type {
		case lexer.STRUCT, lexer.CLASS, lexer.ACTOR, lexer.ENUM:
			p.rejectIfNestedInstantiable(attrs)
			p.advance()
			if p.cur.Type == lexer.IDENT {
				p.advance()
			}
			p.skipToBody()
			p.walkBodyForNested()
		case lexer.LBRACE:
			p.skipBalancedBraces()
		default:
			p.advance()
		}
	}
	if p.cur.Type == lexer.RBRACE {
		p.advance()
	}
}

// rejectIfNestedInstantiable records a nested-@Instantiable rejection when
// the attribute list contains the marker. The current token is the
// declaration keyword; the following identifier names the type.
func (p *Parser) rejectIfNestedInstantiable(attrs []attribute) {
	for _, a := range attrs {
		if a.Name != InstantiableAttr {
			continue
		}
		name := p.peek.Literal
		p.result.NestedInstantiables = append(p.result.NestedInstantiables, &typedesc.Simple{Name: name})
		p.report(errors.Newf(errors.PAR011,
			"@%s-decorated type %s must be declared at file scope", InstantiableAttr, name).
			WithSpan(a.Span).
			WithFix(errors.Fix{
				Suggestion: "move " + name + " to file scope",
				Span:       &lexer.Span{Start: a.Span.Start, End: a.Span.End},
			}))
		return
	}
}
