package gen

import (
	"sort"
	"strings"
	"sync"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/graph"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// scopeKind selects the emission contract for a ScopeGenerator.
type scopeKind int

const (
	kindRoot scopeKind = iota
	kindProperty
	kindAlias
)

// ScopeGenerator is a memoised unit of code generation for one scope
// variant. Each generator computes its code at most once; concurrent
// readers share the single in-flight computation.
type ScopeGenerator struct {
	gen        *Generator
	scope      *graph.Scope
	kind       scopeKind
	dependency model.Dependency

	once sync.Once
	code string
	err  error
}

// Generate returns the generator's code, computing it on first call.
func (sg *ScopeGenerator) Generate() (string, error) {
	sg.once.Do(func() {
		sg.code, sg.err = sg.generate()
	})
	return sg.code, sg.err
}

func (sg *ScopeGenerator) generate() (string, error) {
	switch sg.kind {
	case kindRoot:
		return sg.generateRoot()
	case kindAlias:
		return sg.generateAlias(), nil
	default:
		return sg.generateProperty()
	}
}

// generateRoot emits an extension on the root's concrete type containing a
// parameterless initializer. A root with no dependencies and no declared
// initializer needs no extension: the default initializer suffices.
// External (extension) instantiables already expose their factory and emit
// nothing as roots.
func (sg *ScopeGenerator) generateRoot() (string, error) {
	inst := sg.scope.Instantiable
	if inst.DeclarationType == model.DeclarationExtension {
		return "", nil
	}
	if len(inst.Dependencies) == 0 {
		// The existing initializer already suffices; a generated
		// parameterless init would shadow or recurse into it.
		return "", nil
	}
	if inst.Initializer == nil {
		return "", errors.WrapReport(errors.Newf(errors.GEN002,
			"no initializer of %s can fulfill its declared dependencies", inst.TypeName()).
			WithData("type", inst.TypeName()))
	}
	if forwarded := inst.ForwardedProperties(); len(forwarded) > 0 {
		return "", errors.WrapReport(errors.Newf(errors.GEN002,
			"root %s forwards %s; roots receive no caller-supplied values",
			inst.TypeName(), forwarded[0].Label).
			WithData("type", inst.TypeName()))
	}

	bindings, err := sg.emitBindings(sg.scope)
	if err != nil {
		return "", err
	}
	call, err := renderConstruction(inst, "self.init", identityValues)
	if err != nil {
		return "", err
	}

	bodyLines := append(bindings, call)
	body := strings.Join(bodyLines, "\n")

	initDecl := "public init() {"
	if inst.DeclarationType == model.DeclarationClass {
		initDecl = "public convenience init() {"
	}
	initBlock := initDecl + "\n" + indent(body, 1) + "\n}"

	return "extension " + inst.TypeName() + " {\n" + indent(initBlock, 1) + "\n}", nil
}

// generateAlias emits the single binding that re-introduces an ancestor
// property, optionally boxed in the declared concrete existential.
func (sg *ScopeGenerator) generateAlias() string {
	dep := sg.dependency
	target := dep.FulfillingLabel()
	if dep.ErasedToConcreteExistential {
		box := typedesc.Unwrapped(dep.Property.TypeDescription.Description).String()
		return "let " + dep.Property.Label + " = " + box + "(" + target + ")"
	}
	return "let " + dep.Property.Label + " = " + target
}

// generateProperty emits the binding for an instantiated child: a constant
// construction or an instantiator whose closure defers it.
func (sg *ScopeGenerator) generateProperty() (string, error) {
	if sg.dependency.Property.Variant().IsDeferred() {
		return sg.generateInstantiatorBinding()
	}
	return sg.generateConstantBinding()
}

// generateConstantBinding emits a plain let binding. A provider with its
// own local bindings is constructed inside an immediately-invoked closure
// so its scope stays private.
func (sg *ScopeGenerator) generateConstantBinding() (string, error) {
	child := sg.scope
	inst := child.Instantiable
	label := sg.dependency.Property.Label

	construction, err := renderConstruction(inst, "", identityValues)
	if err != nil {
		return "", err
	}

	childBindings, err := sg.emitBindings(child)
	if err != nil {
		return "", err
	}
	switch {
	case len(childBindings) == 0 && len(inst.Dependencies) == 0:
		return "let " + label + " = " + construction, nil
	case len(childBindings) == 0:
		return "let " + label + " = { " + construction + " }()", nil
	default:
		body := strings.Join(append(childBindings, "return "+construction), "\n")
		open := "let " + label + " = { () -> " + inst.TypeName() + " in"
		return open + "\n" + indent(body, 1) + "\n}()", nil
	}
}

// generateInstantiatorBinding emits a deferred binding: an instantiator
// object whose closure executes the child's bindings and returns the
// constructed value, forwarding its parameters when the provider declares
// a @Forwarded property.
func (sg *ScopeGenerator) generateInstantiatorBinding() (string, error) {
	child := sg.scope
	inst := child.Instantiable
	prop := sg.dependency.Property
	variant := prop.Variant()

	if variant.IsErased() {
		if err := sg.checkErasedGenerics(); err != nil {
			return "", err
		}
	}

	forwarded := inst.ForwardedProperties()
	paramClause, values := closureParameters(forwarded, variant, inst.TypeName())

	construction, err := renderConstruction(inst, "", values)
	if err != nil {
		return "", err
	}
	childBindings, err := sg.emitBindings(child)
	if err != nil {
		return "", err
	}

	wrapper := typedesc.Unwrapped(prop.TypeDescription.Description).String()
	open := "let " + prop.Label + " = " + wrapper + " {"
	if paramClause != "" {
		open += " " + paramClause + " in"
	}

	if len(childBindings) == 0 {
		if paramClause == "" {
			return open + " " + construction + " }", nil
		}
		return open + "\n" + indent(construction, 1) + "\n}", nil
	}
	body := strings.Join(append(childBindings, "return "+construction), "\n")
	return open + "\n" + indent(body, 1) + "\n}", nil
}

// closureParameters renders the parameter clause of a forwarding closure
// and returns the value lookup used to feed forwarded properties into the
// construction call.
//
// Parameters are named after the provider's forwarded properties in
// lexicographic order: none for zero, unlabeled for one, named for many.
// The erased variants receive their forwarded values as the single
// ForwardedProperties tuple, bound to a prefixed helper to avoid
// collisions with input identifiers.
func closureParameters(forwarded []model.Property, variant model.Variant, constructedType string) (string, func(label string) string) {
	sendable := variant == model.VariantSendableInstantiator || variant == model.VariantSendableErasedInstantiator
	sendablePrefix := ""
	if sendable {
		sendablePrefix = "@Sendable "
	}

	switch {
	case len(forwarded) == 0:
		if sendable {
			// A parameterless closure needs a full signature to carry the
			// attribute.
			return "@Sendable () -> " + constructedType, identityValues
		}
		return "", identityValues
	case len(forwarded) == 1:
		name := forwarded[0].Label
		return sendablePrefix + name, identityValues
	case variant.IsErased():
		const tupleName = "__safeDI_forwardedProperties"
		members := make(map[string]string, len(forwarded))
		for _, p := range forwarded {
			members[p.Label] = tupleName + "." + p.Label
		}
		return sendablePrefix + tupleName, func(label string) string {
			if v, ok := members[label]; ok {
				return v
			}
			return label
		}
	default:
		names := make([]string, len(forwarded))
		for i, p := range forwarded {
			names[i] = p.Label
		}
		return sendablePrefix + strings.Join(names, ", "), identityValues
	}
}

// identityValues feeds each initializer argument from the local binding or
// parameter sharing its label.
func identityValues(label string) string { return label }

// renderConstruction renders the call that constructs an instantiable:
// its memberwise initializer, its extension factory, or — with callee set
// — a delegation like "self.init". Arguments appear in initializer order;
// defaulted non-dependency arguments are omitted.
func renderConstruction(inst *model.Instantiable, callee string, valueFor func(label string) string) (string, error) {
	ini := inst.Initializer
	if ini == nil {
		return "", errors.WrapReport(errors.Newf(errors.GEN002,
			"no initializer of %s can fulfill its declared dependencies", inst.TypeName()).
			WithData("type", inst.TypeName()))
	}
	if callee == "" {
		callee = inst.TypeName()
		if inst.DeclarationType == model.DeclarationExtension {
			callee += ".instantiate"
		}
	}

	var parts []string
	for _, arg := range ini.Arguments {
		if inst.DependencyNamed(arg.InnerLabel) == nil {
			// Non-dependency arguments have defaults; the call omits them.
			continue
		}
		value := valueFor(arg.InnerLabel)
		if arg.Label() == "_" {
			parts = append(parts, value)
			continue
		}
		parts = append(parts, arg.Label()+": "+value)
	}
	return callee + "(" + strings.Join(parts, ", ") + ")", nil
}

// emitBindings renders a scope's local bindings in topological order: a
// binding appears only after every local binding its subtree consumes.
// Ties break on the property label so output is reproducible.
func (sg *ScopeGenerator) emitBindings(scope *graph.Scope) ([]string, error) {
	ordered, err := orderBindings(scope)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, b := range ordered {
		var child *ScopeGenerator
		if b.Kind == graph.BindingAliased {
			child = &ScopeGenerator{gen: sg.gen, kind: kindAlias, dependency: b.Dependency}
		} else {
			child = sg.gen.scopeGenerator(b.Child, kindProperty, b.Dependency)
		}
		code, err := child.Generate()
		if err != nil {
			return nil, err
		}
		lines = append(lines, code)
	}
	return lines, nil
}

// orderBindings topologically sorts a scope's bindings. Dependencies among
// local bindings form a DAG by construction (cycles were rejected during
// scope building); the stable tie-break is the sorted property label.
func orderBindings(scope *graph.Scope) ([]graph.PropertyBinding, error) {
	bindings := make([]graph.PropertyBinding, len(scope.Bindings))
	copy(bindings, scope.Bindings)
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Property().Label < bindings[j].Property().Label
	})

	local := make(map[string]int, len(bindings))
	for i, b := range bindings {
		local[b.Property().Label] = i
	}

	consumes := func(b graph.PropertyBinding) []int {
		var deps []int
		if b.Kind == graph.BindingAliased {
			if i, ok := local[b.Dependency.FulfillingLabel()]; ok {
				deps = append(deps, i)
			}
			return deps
		}
		for label, i := range local {
			if label == b.Property().Label {
				continue
			}
			if b.Child != nil && b.Child.Requires(label) {
				deps = append(deps, i)
			}
		}
		return deps
	}

	emitted := make([]bool, len(bindings))
	var ordered []graph.PropertyBinding
	for len(ordered) < len(bindings) {
		progress := false
		for i, b := range bindings {
			if emitted[i] {
				continue
			}
			ready := true
			for _, dep := range consumes(b) {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			emitted[i] = true
			ordered = append(ordered, b)
			progress = true
		}
		if !progress {
			return nil, errors.WrapReport(errors.Newf(errors.GRF003,
				"local bindings of %s cannot be ordered", scope.Instantiable.TypeName()))
		}
	}
	return ordered, nil
}
