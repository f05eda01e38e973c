package typedesc

import (
	"fmt"

	"github.com/safedi/safedi-go/internal/lexer"
)

// Parse parses Swift type source into its canonical Description. Inline
// property types and string-literal types from annotation arguments both go
// through this single entry point, so the two spellings always agree.
func Parse(source string) (Description, error) {
	p := &typeParser{l: lexer.New(source, "")}
	p.advance()
	p.advance()
	d, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.EOF {
		return nil, fmt.Errorf("trailing tokens after type %q: %s", d, p.cur)
	}
	return d, nil
}

// ParseList parses a bracketed list of type references, the form of the
// fulfillingAdditionalTypes annotation argument: "[Foo.self, Bar.self]".
// A bare comma-separated list without brackets is also accepted.
func ParseList(source string) ([]Description, error) {
	p := &typeParser{l: lexer.New(source, "")}
	p.advance()
	p.advance()
	bracketed := p.cur.Type == lexer.LBRACKET
	if bracketed {
		p.advance()
	}
	var out []Description
	for p.cur.Type != lexer.EOF && p.cur.Type != lexer.RBRACKET {
		d, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if bracketed {
		if p.cur.Type != lexer.RBRACKET {
			return nil, p.errorf("expected ']' to close type list, got %s", p.cur)
		}
		p.advance()
	}
	if p.cur.Type != lexer.EOF {
		return nil, p.errorf("trailing tokens after type list: %s", p.cur)
	}
	return out, nil
}

// MustParse parses a type and panics on failure. For tests and internal
// constants only.
func MustParse(source string) Description {
	d, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return d
}

type typeParser struct {
	l         *lexer.Lexer
	cur, peek lexer.Token
}

func (p *typeParser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type parse error at %d:%d: %s", p.cur.Pos.Line, p.cur.Pos.Column, fmt.Sprintf(format, args...))
}

// parseType parses a full type, including leading attributes and protocol
// composition.
func (p *typeParser) parseType() (Description, error) {
	var attrs []string
	for p.cur.Type == lexer.AT {
		p.advance()
		if p.cur.Type != lexer.IDENT {
			return nil, p.errorf("expected attribute name after '@', got %s", p.cur)
		}
		attrs = append(attrs, p.cur.Literal)
		p.advance()
		// Attribute arguments, e.g. @available(iOS 13, *), are opaque.
		if p.cur.Type == lexer.LPAREN {
			if err := p.skipBalancedParens(); err != nil {
				return nil, err
			}
		}
	}

	d, err := p.parseComposed()
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		d = &Attributed{Attributes: attrs, Base: d}
	}
	return d, nil
}

func (p *typeParser) parseComposed() (Description, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.AMP {
		return first, nil
	}
	elements := []Description{first}
	for p.cur.Type == lexer.AMP {
		p.advance()
		next, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		elements = append(elements, next)
	}
	return &Composed{Elements: elements}, nil
}

// parsePostfix parses a primary type followed by any number of postfix
// operators: optionals, IUOs, metatypes, and member lookups. A trailing
// ".self" is not part of the type and is dropped.
func (p *typeParser) parsePostfix() (Description, error) {
	d, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case lexer.QUESTION:
			d = &Optional{Wrapped: d}
			p.advance()
		case lexer.BANG:
			d = &ImplicitlyUnwrappedOptional{Wrapped: d}
			p.advance()
		case lexer.DOT:
			p.advance()
			switch {
			case p.cur.Type == lexer.SELF:
				p.advance()
			case p.cur.Type == lexer.IDENT && p.cur.Literal == "Type":
				d = &Metatype{Base: d}
				p.advance()
			case p.cur.Type == lexer.IDENT:
				name := p.cur.Literal
				p.advance()
				args, err := p.parseGenericArgs()
				if err != nil {
					return nil, err
				}
				d = &Nested{Parent: d, Name: name, GenericArgs: args}
			default:
				return nil, p.errorf("expected member name after '.', got %s", p.cur)
			}
		default:
			return d, nil
		}
	}
}

func (p *typeParser) parsePrimary() (Description, error) {
	switch p.cur.Type {
	case lexer.SOME, lexer.ANY:
		spelling := p.cur.Literal
		p.advance()
		constraint, err := p.parseComposed()
		if err != nil {
			return nil, err
		}
		return &Existential{Spelling: spelling, Constraint: constraint}, nil

	case lexer.LBRACKET:
		p.advance()
		first, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.cur.Type == lexer.COLON {
			p.advance()
			value, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != lexer.RBRACKET {
				return nil, p.errorf("expected ']' to close dictionary type, got %s", p.cur)
			}
			p.advance()
			return &Dictionary{Key: first, Value: value}, nil
		}
		if p.cur.Type != lexer.RBRACKET {
			return nil, p.errorf("expected ']' to close array type, got %s", p.cur)
		}
		p.advance()
		return &Array{Element: first}, nil

	case lexer.LPAREN:
		return p.parseParenthesized()

	case lexer.IDENT:
		name := p.cur.Literal
		p.advance()
		args, err := p.parseGenericArgs()
		if err != nil {
			return nil, err
		}
		if name == "Void" && len(args) == 0 {
			return &Void{}, nil
		}
		return &Simple{Name: name, GenericArgs: args}, nil

	default:
		return nil, p.errorf("expected type, got %s", p.cur)
	}
}

// parseParenthesized parses tuple types, closure parameter lists, grouping
// parens, and the empty tuple.
func (p *typeParser) parseParenthesized() (Description, error) {
	p.advance() // '('

	var elements []TupleElement
	if p.cur.Type != lexer.RPAREN {
		for {
			var label string
			if (p.cur.Type == lexer.IDENT || p.cur.Type == lexer.UNDERSCORE) && p.peek.Type == lexer.COLON {
				label = p.cur.Literal
				if p.cur.Type == lexer.UNDERSCORE {
					label = ""
				}
				p.advance()
				p.advance()
			}
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elements = append(elements, TupleElement{Label: label, Type: elem})
			if p.cur.Type != lexer.COMMA {
				break
			}
			p.advance()
		}
	}
	if p.cur.Type != lexer.RPAREN {
		return nil, p.errorf("expected ')' in tuple type, got %s", p.cur)
	}
	p.advance()

	// A parameter list followed by async/throws/-> is a closure type.
	if p.cur.Type == lexer.ASYNC || p.cur.Type == lexer.THROWS || p.cur.Type == lexer.RETHROWS || p.cur.Type == lexer.ARROW {
		return p.parseClosureTail(elements)
	}

	if len(elements) == 0 {
		return &Void{}, nil
	}
	if len(elements) == 1 && elements[0].Label == "" {
		// Grouping parens, not a tuple.
		return elements[0].Type, nil
	}
	return &Tuple{Elements: elements}, nil
}

func (p *typeParser) parseClosureTail(params []TupleElement) (Description, error) {
	c := &Closure{}
	for _, e := range params {
		c.Params = append(c.Params, e.Type)
	}
	if p.cur.Type == lexer.ASYNC {
		c.IsAsync = true
		p.advance()
	}
	if p.cur.Type == lexer.THROWS || p.cur.Type == lexer.RETHROWS {
		c.Throws = true
		p.advance()
	}
	if p.cur.Type != lexer.ARROW {
		return nil, p.errorf("expected '->' in function type, got %s", p.cur)
	}
	p.advance()
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	c.Return = ret
	return c, nil
}

func (p *typeParser) parseGenericArgs() ([]Description, error) {
	if p.cur.Type != lexer.LANGLE {
		return nil, nil
	}
	p.advance()
	var args []Description
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if p.cur.Type != lexer.RANGLE {
		return nil, p.errorf("expected '>' to close generic arguments, got %s", p.cur)
	}
	p.advance()
	return args, nil
}

func (p *typeParser) skipBalancedParens() error {
	depth := 0
	for {
		switch p.cur.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				p.advance()
				return nil
			}
		case lexer.EOF:
			return p.errorf("unbalanced parentheses in attribute arguments")
		}
		p.advance()
	}
}
