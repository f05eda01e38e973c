package parser

import (
	"fmt"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/lexer"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// findAttr returns the attribute with the given name, or nil.
func findAttr(attrs []attribute, name string) *attribute {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

// parseTypeDecl parses a file-scope struct/class/actor declaration. Types
// without the @Instantiable marker are still walked so nested markers are
// rejected.
func (p *Parser) parseTypeDecl(attrs []attribute, mods modifiers) {
	var declType model.DeclarationType
	switch p.cur.Type {
	case lexer.CLASS:
		declType = model.DeclarationClass
	case lexer.ACTOR:
		declType = model.DeclarationActor
	default:
		declType = model.DeclarationStruct
	}
	declSpan := p.cur.Span()
	p.advance()

	if p.cur.Type != lexer.IDENT {
		p.report(errors.Newf(errors.PAR012, "expected type name, got %s", p.cur).WithSpan(p.cur.Span()))
		p.skipConstruct()
		return
	}
	name := p.cur.Literal
	nameSpan := p.cur.Span()
	p.advance()

	p.skipToBody()

	marker := findAttr(attrs, InstantiableAttr)
	if marker == nil {
		p.walkBodyForNested()
		return
	}

	inst := &model.Instantiable{
		ConcreteType:    typedesc.Describe(&typedesc.Simple{Name: name}),
		DeclarationType: declType,
	}
	p.applyInstantiableArgs(inst, marker)

	if !mods.IsPublic {
		p.report(errors.Newf(errors.PAR005,
			"@%s-decorated type %s must be public or open", InstantiableAttr, name).
			WithSpan(nameSpan).
			WithFix(errors.Fix{
				Suggestion:  "add the public modifier",
				Replacement: "public " + declType.String() + " " + name,
				Span:        &lexer.Span{Start: declSpan.Start, End: nameSpan.End},
			}))
	}

	body := p.parseTypeBody(inst)

	p.finishInstantiable(inst, body, nameSpan)
	p.result.Instantiables = append(p.result.Instantiables, inst)
}

// typeBody accumulates what a declaration body contributes beyond the
// dependency list itself.
type typeBody struct {
	Initializers []*model.Initializer
	// HasUninitializedStored is true when a non-optional stored property
	// without a lifecycle attribute has no initial value, which rules out
	// initializer synthesis.
	HasUninitializedStored bool
	InstantiateFuncs       []funcInfo
}

// parseTypeBody walks declaration members until the closing brace.
func (p *Parser) parseTypeBody(inst *model.Instantiable) *typeBody {
	body := &typeBody{}
	for p.cur.Type != lexer.EOF && p.cur.Type != lexer.RBRACE {
		attrs := p.parseAttributes()
		mods := p.parseModifiers()

		switch p.cur.Type {
		case lexer.VAR, lexer.LET:
			p.parseMemberVariable(inst, body, attrs, mods)
		case lexer.INIT:
			if ini := p.parseInitDecl(mods); ini != nil {
				body.Initializers = append(body.Initializers, ini)
			}
		case lexer.FUNC:
			body.InstantiateFuncs = appendInstantiateFunc(body.InstantiateFuncs, p.parseFuncDecl(mods))
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
	return body
}

// finishInstantiable selects or synthesizes the initializer once the whole
// body has been seen.
func (p *Parser) finishInstantiable(inst *model.Instantiable, body *typeBody, nameSpan lexer.Span) {
	for _, ini := range body.Initializers {
		if ini.CanFulfill(inst.Dependencies) {
			inst.Initializer = ini
			return
		}
	}
	// No declared initializer can fulfill the dependencies: synthesize the
	// memberwise one unless a stored property would be left uninitialized.
	if body.HasUninitializedStored {
		p.report(errors.Newf(errors.PAR006,
			"%s has no initializer that fulfills its dependencies and has uninitialized non-optional stored properties; declare an initializer that sets them", inst.TypeName()).
			WithSpan(nameSpan))
		return
	}
	inst.Initializer = model.SynthesizeInitializer(inst.Dependencies)
}

// parseMemberVariable parses one var/let member and, when it carries a
// lifecycle attribute, records the dependency.
func (p *Parser) parseMemberVariable(inst *model.Instantiable, body *typeBody, attrs []attribute, mods modifiers) {
	isVar := p.cur.Type == lexer.VAR
	varSpan := p.cur.Span()
	p.advance()

	if p.cur.Type != lexer.IDENT {
		// Tuple patterns and other bindings are never dependencies.
		p.skipMemberTail()
		return
	}
	label := p.cur.Literal
	labelSpan := p.cur.Span()
	p.advance()

	var declType typedesc.Description
	var typeSpan lexer.Span
	var typeErr error
	if p.cur.Type == lexer.COLON {
		p.advance()
		declType, typeSpan, typeErr = p.skimType()
	}

	isComputed := false
	if p.cur.Type == lexer.LBRACE {
		// Accessor block: computed property or observers. Observers only
		// appear on initialized vars, which are never dependencies either.
		isComputed = true
		p.skipBalancedBraces()
	}

	hasInitialValue := false
	if p.cur.Type == lexer.ASSIGN {
		hasInitialValue = true
		p.advance()
		p.skipMemberTail()
	}

	var lifecycle []*attribute
	for _, name := range []string{InstantiatedAttr, ReceivedAttr, ForwardedAttr} {
		if a := findAttr(attrs, name); a != nil {
			lifecycle = append(lifecycle, a)
		}
	}

	if len(lifecycle) == 0 {
		if !isComputed && !hasInitialValue && declType != nil && !isOptionalType(declType) {
			body.HasUninitializedStored = true
		}
		return
	}

	if len(lifecycle) > 1 {
		p.report(errors.Newf(errors.PAR001,
			"property %s may carry at most one of @%s, @%s, @%s",
			label, InstantiatedAttr, ReceivedAttr, ForwardedAttr).
			WithSpan(lifecycle[1].Span).
			WithFix(errors.Fix{Suggestion: "remove the extra lifecycle attribute", Span: &lifecycle[1].Span}))
	}
	if hasInitialValue {
		p.report(errors.Newf(errors.PAR002,
			"dependency %s must not declare an initial value", label).
			WithSpan(labelSpan).
			WithFix(errors.Fix{Suggestion: "remove the assigned value"}))
	}
	if isVar {
		p.report(errors.Newf(errors.PAR003,
			"dependency %s must be declared with let", label).
			WithSpan(varSpan).
			WithFix(errors.Fix{Suggestion: "replace var with let", Replacement: "let", Span: &varSpan}))
	}
	if mods.IsStatic {
		p.report(errors.Newf(errors.PAR004,
			"dependency %s must not be static", label).
			WithSpan(labelSpan))
	}
	if declType == nil {
		p.report(errors.Newf(errors.PAR012,
			"dependency %s must declare its type explicitly", label).
			WithSpan(labelSpan))
		return
	}
	if typeErr != nil {
		p.report(errors.Newf(errors.PAR012,
			"could not parse type of dependency %s: %v", label, typeErr).
			WithSpan(typeSpan))
	}

	prop := model.Property{Label: label, TypeDescription: typedesc.Describe(declType)}
	dep := model.Dependency{Property: prop}

	switch lifecycle[0].Name {
	case InstantiatedAttr:
		dep.Source = model.SourceInstantiated
		p.applyInstantiatedArgs(&dep, lifecycle[0], labelSpan)
	case ReceivedAttr:
		dep.Source = model.SourceReceived
		p.applyReceivedArgs(&dep, lifecycle[0])
	case ForwardedAttr:
		dep.Source = model.SourceForwarded
	}

	inst.Dependencies = append(inst.Dependencies, dep)
}

// applyInstantiatedArgs decodes @Instantiated(fulfilledByType:) and checks
// the erased-instantiator rules.
func (p *Parser) applyInstantiatedArgs(dep *model.Dependency, attr *attribute, labelSpan lexer.Span) {
	variant := dep.Property.Variant()

	arg := attr.arg("fulfilledByType")
	if arg != nil {
		if !arg.IsString {
			p.report(errors.Newf(errors.PAR010,
				"fulfilledByType on %s must be a string literal", dep.Property.Label).
				WithSpan(arg.Span).
				WithFix(errors.Fix{
					Suggestion:  "quote the type name",
					Replacement: fmt.Sprintf("%q", arg.Text),
					Span:        &arg.Span,
				}))
			return
		}
		decoded, err := typedesc.Parse(arg.StringValue)
		if err != nil {
			p.report(errors.Newf(errors.PAR010,
				"fulfilledByType on %s does not name a type: %v", dep.Property.Label, err).
				WithSpan(arg.Span))
			return
		}
		switch decoded.(type) {
		case *typedesc.Simple, *typedesc.Nested:
		default:
			p.report(errors.Newf(errors.PAR010,
				"fulfilledByType on %s must name a simple or nested type, got %s",
				dep.Property.Label, decoded).
				WithSpan(arg.Span))
			return
		}
		if variant.IsDeferred() && !variant.IsErased() {
			p.report(errors.Newf(errors.PAR008,
				"property %s of type %s must not use fulfilledByType",
				dep.Property.Label, dep.Property.TypeDescription).
				WithSpan(arg.Span).
				WithFix(errors.Fix{Suggestion: "remove fulfilledByType", Span: &arg.Span}))
			return
		}
		ref := typedesc.Describe(decoded)
		dep.FulfillingType = &ref
		return
	}

	if variant.IsErased() {
		p.report(errors.Newf(errors.PAR007,
			"property %s of type %s requires fulfilledByType naming the concrete provider",
			dep.Property.Label, dep.Property.TypeDescription).
			WithSpan(labelSpan).
			WithFix(errors.Fix{
				Suggestion:  "annotate with the concrete provider",
				Replacement: fmt.Sprintf("@%s(fulfilledByType: \"<ConcreteType>\")", InstantiatedAttr),
				Span:        &attr.Span,
			}))
	}
}

// applyReceivedArgs decodes the aliasing form of @Received.
func (p *Parser) applyReceivedArgs(dep *model.Dependency, attr *attribute) {
	if !attr.HasArgs {
		return
	}
	nameArg := attr.arg("fulfilledByDependencyNamed")
	typeArg := attr.arg("ofType")
	if nameArg == nil && typeArg == nil {
		return
	}
	if nameArg == nil || typeArg == nil || !nameArg.IsString {
		p.report(errors.Newf(errors.PAR010,
			"@%s aliasing on %s requires both fulfilledByDependencyNamed (a string literal) and ofType",
			ReceivedAttr, dep.Property.Label).
			WithSpan(attr.Span))
		return
	}
	fulfillingType, err := typedesc.Parse(typeArg.Text)
	if err != nil {
		p.report(errors.Newf(errors.PAR010,
			"ofType on %s does not name a type: %v", dep.Property.Label, err).
			WithSpan(typeArg.Span))
		return
	}
	dep.Source = model.SourceAliased
	dep.FulfillingProperty = &model.Property{
		Label:           nameArg.StringValue,
		TypeDescription: typedesc.Describe(fulfillingType),
	}
	if erased := attr.arg("erasedToConcreteExistential"); erased != nil {
		dep.ErasedToConcreteExistential = erased.Text == "true"
	}
}

// applyInstantiableArgs decodes @Instantiable(isRoot:,
// fulfillingAdditionalTypes:, conformsElsewhere:).
func (p *Parser) applyInstantiableArgs(inst *model.Instantiable, attr *attribute) {
	if isRoot := attr.arg("isRoot"); isRoot != nil {
		inst.IsRoot = isRoot.Text == "true"
	}
	if conforms := attr.arg("conformsElsewhere"); conforms != nil {
		inst.ConformsElsewhere = conforms.Text == "true"
	}
	if additional := attr.arg("fulfillingAdditionalTypes"); additional != nil {
		types, err := typedesc.ParseList(additional.Text)
		if err != nil {
			p.report(errors.Newf(errors.PAR010,
				"fulfillingAdditionalTypes on %s is not a list of types: %v",
				inst.TypeName(), err).
				WithSpan(additional.Span))
			return
		}
		for _, t := range types {
			inst.AdditionalTypesFulfilled = append(inst.AdditionalTypesFulfilled, typedesc.Describe(t))
		}
	}
}

// skipMemberTail consumes the remainder of a member declaration: an
// initial-value expression and anything else up to the next member
// boundary.
func (p *Parser) skipMemberTail() {
	depth := 0
	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
			depth++
		case lexer.RPAREN, lexer.RBRACKET:
			depth--
		case lexer.RBRACE:
			if depth == 0 {
				return
			}
			depth--
		case lexer.SEMICOLON:
			if depth == 0 {
				p.advance()
				return
			}
		case lexer.AT, lexer.VAR, lexer.LET, lexer.INIT, lexer.FUNC,
			lexer.PUBLIC, lexer.OPEN, lexer.PRIVATE, lexer.FILEPRIVATE, lexer.INTERNAL,
			lexer.STATIC, lexer.FINAL, lexer.LAZY,
			lexer.STRUCT, lexer.CLASS, lexer.ACTOR, lexer.ENUM:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

// isOptionalType reports whether a declared type is optional or
// implicitly-unwrapped optional.
func isOptionalType(d typedesc.Description) bool {
	switch d.(type) {
	case *typedesc.Optional, *typedesc.ImplicitlyUnwrappedOptional:
		return true
	}
	return false
}
