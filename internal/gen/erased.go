package gen

import (
	"strings"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// checkErasedGenerics validates the first generic argument of an erased
// instantiator against the provider's forwarded properties. It must match
// one of: the single forwarded property's type, the provider's synthetic
// ForwardedProperties associated type, or the tuple of forwarded-property
// types in lexicographic order (Void when nothing is forwarded).
func (sg *ScopeGenerator) checkErasedGenerics() error {
	prop := sg.dependency.Property
	inst := sg.scope.Instantiable
	forwarded := inst.ForwardedProperties()

	args := prop.InstantiatorGenericArgs()
	if len(args) < 2 {
		return errors.WrapReport(errors.Newf(errors.GEN001,
			"property %s of type %s requires two generic arguments",
			prop.Label, prop.TypeDescription).
			WithData("property", prop.Label))
	}
	first := args[0]

	accepted := acceptedForwardedSpellings(inst, forwarded)
	for _, candidate := range accepted {
		if typedesc.Equal(first, candidate) {
			return nil
		}
	}

	spellings := make([]string, len(accepted))
	for i, c := range accepted {
		spellings[i] = c.String()
	}
	suggestion := renderErasedWrapper(prop, accepted[0], args[1])
	return errors.WrapReport(errors.Newf(errors.GEN001,
		"property %s forwards %s, not %s; spell the instantiator as one of: %s",
		prop.Label, strings.Join(spellings, " or "), first, suggestion).
		WithData("property", prop.Label).
		WithData("expected", spellings).
		WithFix(errors.Fix{
			Suggestion:  "use the provider's forwarded-property type",
			Replacement: suggestion,
		}))
}

// acceptedForwardedSpellings lists the first-generic-argument spellings an
// erased instantiator may use for a provider.
func acceptedForwardedSpellings(inst *model.Instantiable, forwarded []model.Property) []typedesc.Description {
	var accepted []typedesc.Description
	switch len(forwarded) {
	case 0:
		accepted = append(accepted, &typedesc.Void{})
	case 1:
		accepted = append(accepted, typedesc.Unwrapped(forwarded[0].TypeDescription.Description))
	default:
		labeled := make([]typedesc.TupleElement, len(forwarded))
		bare := make([]typedesc.TupleElement, len(forwarded))
		for i, p := range forwarded {
			labeled[i] = typedesc.TupleElement{Label: p.Label, Type: p.TypeDescription.Description}
			bare[i] = typedesc.TupleElement{Type: p.TypeDescription.Description}
		}
		accepted = append(accepted, &typedesc.Tuple{Elements: labeled}, &typedesc.Tuple{Elements: bare})
	}
	accepted = append(accepted, &typedesc.Nested{
		Parent: inst.ConcreteType.Description,
		Name:   "ForwardedProperties",
	})
	return accepted
}

// renderErasedWrapper renders the corrected wrapper spelling for a fix.
func renderErasedWrapper(prop model.Property, first, second typedesc.Description) string {
	base := typedesc.Unwrapped(prop.TypeDescription.Description)
	name := "ErasedInstantiator"
	if s, ok := base.(*typedesc.Simple); ok {
		name = s.Name
	}
	return name + "<" + first.String() + ", " + second.String() + ">"
}
