package parser

import (
	"strings"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/lexer"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// parseInitDecl parses an initializer declaration and skips its body.
// Failable markers are tolerated; a generic parameter clause is skipped and
// not modeled.
func (p *Parser) parseInitDecl(mods modifiers) *model.Initializer {
	p.advance() // 'init'
	if p.cur.Type == lexer.QUESTION || p.cur.Type == lexer.BANG {
		p.advance()
	}
	if p.cur.Type == lexer.LANGLE {
		p.skipAngles()
	}
	if p.cur.Type != lexer.LPAREN {
		p.skipMemberTail()
		return nil
	}
	args := p.parseParameterList()

	ini := &model.Initializer{
		Arguments: args,
		IsPublic:  mods.IsPublic,
	}
	p.parseEffectsAndBody(&ini.IsAsync, &ini.Throws)
	return ini
}

// funcInfo records a function signature; only extension instantiate
// factories are consumed from it.
type funcInfo struct {
	Name        string
	IsStatic    bool
	IsPublic    bool
	HasGenerics bool
	HasWhere    bool
	IsAsync     bool
	Throws      bool
	Params      []model.Argument
	ReturnType  typedesc.Description
	Span        lexer.Span
}

// parseFuncDecl parses a function signature and skips its body.
func (p *Parser) parseFuncDecl(mods modifiers) *funcInfo {
	span := p.cur.Span()
	p.advance() // 'func'

	info := &funcInfo{
		IsStatic: mods.IsStatic,
		IsPublic: mods.IsPublic,
		Span:     span,
	}
	if p.cur.Type == lexer.IDENT {
		info.Name = p.cur.Literal
		p.advance()
	} else {
		// Operator functions and other exotica are skipped wholesale.
		p.skipMemberTail()
		return nil
	}

	if p.cur.Type == lexer.LANGLE {
		info.HasGenerics = true
		p.skipAngles()
	}
	if p.cur.Type != lexer.LPAREN {
		p.skipMemberTail()
		return nil
	}
	info.Params = p.parseParameterList()

	if p.cur.Type == lexer.ASYNC {
		info.IsAsync = true
		p.advance()
	}
	if p.cur.Type == lexer.THROWS || p.cur.Type == lexer.RETHROWS {
		info.Throws = true
		p.advance()
	}
	if p.cur.Type == lexer.ARROW {
		p.advance()
		ret, _, _ := p.skimType()
		info.ReturnType = ret
	}
	if p.cur.Type == lexer.WHERE {
		info.HasWhere = true
		for p.cur.Type != lexer.LBRACE && p.cur.Type != lexer.EOF {
			p.advance()
		}
	}
	if p.cur.Type == lexer.LBRACE {
		p.skipBalancedBraces()
	}
	return info
}

// parseEffectsAndBody consumes async/throws markers and the body block.
func (p *Parser) parseEffectsAndBody(isAsync, throws *bool) {
	if p.cur.Type == lexer.ASYNC {
		*isAsync = true
		p.advance()
	}
	if p.cur.Type == lexer.THROWS || p.cur.Type == lexer.RETHROWS {
		*throws = true
		p.advance()
	}
	if p.cur.Type == lexer.WHERE {
		for p.cur.Type != lexer.LBRACE && p.cur.Type != lexer.EOF {
			p.advance()
		}
	}
	if p.cur.Type == lexer.LBRACE {
		p.skipBalancedBraces()
	}
}

// parseParameterList parses "(outer inner: Type = default, ...)". The
// current token must be the opening paren.
func (p *Parser) parseParameterList() []model.Argument {
	p.advance() // '('

	var args []model.Argument
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		var arg model.Argument

		// "inner:", "outer inner:", or "_ inner:".
		first := p.cur
		if first.Type != lexer.IDENT && first.Type != lexer.UNDERSCORE {
			// Unparseable parameter; bail out of the list.
			p.skipParensFromInside()
			return args
		}
		p.advance()
		if p.cur.Type == lexer.IDENT || p.cur.Type == lexer.UNDERSCORE {
			if first.Type == lexer.UNDERSCORE {
				arg.OuterLabel = "_"
			} else {
				arg.OuterLabel = first.Literal
			}
			arg.InnerLabel = p.cur.Literal
			p.advance()
		} else {
			arg.InnerLabel = first.Literal
		}

		if p.cur.Type == lexer.COLON {
			p.advance()
			d, _, _ := p.skimType()
			arg.TypeDescription = typedesc.Describe(d)
		}
		if p.cur.Type == lexer.ELLIPSIS {
			p.advance()
		}
		if p.cur.Type == lexer.ASSIGN {
			arg.HasDefault = true
			p.skipDefaultValue()
		}

		args = append(args, arg)
		if p.cur.Type == lexer.COMMA {
			p.advance()
		}
	}
	if p.cur.Type == lexer.RPAREN {
		p.advance()
	}
	return args
}

// skipDefaultValue consumes a default-value expression up to the next
// depth-zero comma or closing paren.
func (p *Parser) skipDefaultValue() {
	depth := 0
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
			depth++
		case lexer.RBRACKET, lexer.RBRACE:
			depth--
		case lexer.RPAREN:
			if depth == 0 {
				return
			}
			depth--
		case lexer.COMMA:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

// skipParensFromInside consumes tokens until the parameter list's closing
// paren, assuming the opening paren was already consumed.
func (p *Parser) skipParensFromInside() {
	depth := 1
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

// skipAngles consumes a balanced "< ... >" group.
func (p *Parser) skipAngles() {
	depth := 0
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LANGLE:
			depth++
		case lexer.RANGLE:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// appendInstantiateFunc keeps only instantiate factories from a type or
// extension body.
func appendInstantiateFunc(funcs []funcInfo, info *funcInfo) []funcInfo {
	if info == nil || info.Name != "instantiate" {
		return funcs
	}
	return append(funcs, *info)
}

// parseExtension parses an extension declaration. @Instantiable extensions
// declare external instantiables built through a static instantiate()
// factory.
func (p *Parser) parseExtension(attrs []attribute, mods modifiers) {
	p.advance() // 'extension'

	extended, extendedSpan, err := p.skimType()
	if err != nil {
		p.report(errors.Newf(errors.PAR012, "could not parse extended type: %v", err).WithSpan(extendedSpan))
	}
	// Inheritance clause and where clause up to the body.
	if p.cur.Type != lexer.LBRACE {
		p.skipToBody()
	} else {
		p.advance()
	}

	marker := findAttr(attrs, InstantiableAttr)
	if marker == nil {
		p.walkBodyForNested()
		return
	}

	inst := &model.Instantiable{
		ConcreteType:    typedesc.Describe(extended),
		DeclarationType: model.DeclarationExtension,
	}
	p.applyInstantiableArgs(inst, marker)

	body := p.parseTypeBody(inst)
	p.finishExtensionInstantiable(inst, body, extendedSpan)
	p.result.Instantiables = append(p.result.Instantiables, inst)
}

// finishExtensionInstantiable validates the instantiate factory contract:
// exactly one public static func instantiate() -> ExtendedType, with no
// generics, effects, or where clause.
func (p *Parser) finishExtensionInstantiable(inst *model.Instantiable, body *typeBody, extendedSpan lexer.Span) {
	name := inst.TypeName()
	expected := "public static func instantiate() -> " + name

	if len(body.InstantiateFuncs) != 1 {
		p.report(errors.Newf(errors.PAR009,
			"@%s extension of %s must declare exactly one instantiate() factory, found %d",
			InstantiableAttr, name, len(body.InstantiateFuncs)).
			WithSpan(extendedSpan).
			WithFix(errors.Fix{Suggestion: "declare " + expected}))
		return
	}
	factory := body.InstantiateFuncs[0]

	var problems []string
	if !factory.IsPublic {
		problems = append(problems, "must be public")
	}
	if !factory.IsStatic {
		problems = append(problems, "must be static")
	}
	if factory.HasGenerics {
		problems = append(problems, "must not be generic")
	}
	if factory.HasWhere {
		problems = append(problems, "must not have a where clause")
	}
	if factory.IsAsync {
		problems = append(problems, "must not be async")
	}
	if factory.Throws {
		problems = append(problems, "must not throw")
	}
	if factory.ReturnType == nil || !typedesc.Equal(factory.ReturnType, inst.ConcreteType.Description) {
		problems = append(problems, "must return "+name)
	}
	if len(problems) > 0 {
		p.report(errors.Newf(errors.PAR009,
			"instantiate() on %s %s", name, strings.Join(problems, ", ")).
			WithSpan(factory.Span).
			WithFix(errors.Fix{
				Suggestion:  "declare " + expected,
				Replacement: expected,
				Span:        &factory.Span,
			}))
		return
	}

	// Factory parameters are received from ancestor scopes.
	for _, arg := range factory.Params {
		inst.Dependencies = append(inst.Dependencies, model.Dependency{
			Property: model.Property{Label: arg.InnerLabel, TypeDescription: arg.TypeDescription},
			Source:   model.SourceReceived,
		})
	}
	inst.Initializer = &model.Initializer{Arguments: factory.Params, IsPublic: true}
}
