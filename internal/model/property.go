// Package model defines the data model the annotation parser extracts and
// the graph solver consumes: properties, dependencies, initializers,
// instantiables, and import statements.
package model

import (
	"sort"

	"github.com/safedi/safedi-go/internal/typedesc"
)

// Property is a named, typed field on an instantiable type.
type Property struct {
	Label           string       `json:"label"`
	TypeDescription typedesc.Ref `json:"typeDescription"`
}

// Equal reports whether two properties have the same label and type.
func (p Property) Equal(other Property) bool {
	return p.Label == other.Label && p.TypeDescription.Equal(other.TypeDescription)
}

// Less orders properties lexicographically by label. Emission iterates
// properties in this order so output is deterministic.
func (p Property) Less(other Property) bool {
	return p.Label < other.Label
}

// Variant classifies a property's construction semantics, derived from its
// type description.
type Variant int

const (
	// VariantConstant is a plain value dependency.
	VariantConstant Variant = iota
	// VariantInstantiator defers construction behind an Instantiator.
	VariantInstantiator
	// VariantErasedInstantiator defers construction behind a type-erased
	// instantiator whose concrete provider comes from fulfilledByType.
	VariantErasedInstantiator
	// VariantSendableInstantiator is an Instantiator whose closure is
	// @Sendable in the input.
	VariantSendableInstantiator
	// VariantSendableErasedInstantiator is the @Sendable erased form.
	VariantSendableErasedInstantiator
)

func (v Variant) String() string {
	switch v {
	case VariantInstantiator:
		return "Instantiator"
	case VariantErasedInstantiator:
		return "ErasedInstantiator"
	case VariantSendableInstantiator:
		return "SendableInstantiator"
	case VariantSendableErasedInstantiator:
		return "SendableErasedInstantiator"
	default:
		return "constant"
	}
}

// IsDeferred reports whether the variant carries deferred-construction
// semantics.
func (v Variant) IsDeferred() bool {
	return v != VariantConstant
}

// IsErased reports whether the variant requires a fulfilledByType
// annotation naming the concrete provider.
func (v Variant) IsErased() bool {
	return v == VariantErasedInstantiator || v == VariantSendableErasedInstantiator
}

// instantiatorNames maps the recognized deferred-construction wrapper types
// to their variants.
var instantiatorNames = map[string]Variant{
	"Instantiator":               VariantInstantiator,
	"ErasedInstantiator":         VariantErasedInstantiator,
	"SendableInstantiator":       VariantSendableInstantiator,
	"SendableErasedInstantiator": VariantSendableErasedInstantiator,
}

// Variant derives the property's construction semantics from its type.
// Optional wrapping is ignored: "Instantiator<Foo>?" still defers.
func (p Property) Variant() Variant {
	base := typedesc.Unwrapped(p.TypeDescription.Description)
	if s, ok := base.(*typedesc.Simple); ok {
		if v, ok := instantiatorNames[s.Name]; ok {
			return v
		}
	}
	return VariantConstant
}

// InstantiatorGenericArgs returns the generic arguments of an
// instantiator-family property type, or nil for constants.
func (p Property) InstantiatorGenericArgs() []typedesc.Description {
	base := typedesc.Unwrapped(p.TypeDescription.Description)
	if s, ok := base.(*typedesc.Simple); ok {
		if _, ok := instantiatorNames[s.Name]; ok {
			return s.GenericArgs
		}
	}
	return nil
}

// InstantiatedType returns the type a deferred property constructs: the
// last generic argument of the instantiator wrapper. For constants it is
// the unwrapped declared type.
func (p Property) InstantiatedType() typedesc.Description {
	if args := p.InstantiatorGenericArgs(); len(args) > 0 {
		return args[len(args)-1]
	}
	return typedesc.Unwrapped(p.TypeDescription.Description)
}

// SortProperties orders properties lexicographically by label, in place.
func SortProperties(props []Property) {
	sort.Slice(props, func(i, j int) bool { return props[i].Less(props[j]) })
}
