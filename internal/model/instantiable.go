package model

import (
	"encoding/json"
	"fmt"

	"github.com/safedi/safedi-go/internal/typedesc"
)

// DeclarationType identifies the declaration kind an instantiable was
// extracted from.
type DeclarationType int

const (
	DeclarationStruct DeclarationType = iota
	DeclarationClass
	DeclarationActor
	DeclarationExtension
)

var declarationNames = map[DeclarationType]string{
	DeclarationStruct:    "struct",
	DeclarationClass:     "class",
	DeclarationActor:     "actor",
	DeclarationExtension: "extension",
}

func (d DeclarationType) String() string {
	if name, ok := declarationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DeclarationType(%d)", int(d))
}

func (d DeclarationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DeclarationType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for decl, n := range declarationNames {
		if n == name {
			*d = decl
			return nil
		}
	}
	return fmt.Errorf("unknown declaration type %q", name)
}

// Instantiable is a type the system is allowed to construct.
type Instantiable struct {
	ConcreteType             typedesc.Ref    `json:"concreteType"`
	AdditionalTypesFulfilled []typedesc.Ref  `json:"additionalTypesFulfilled,omitempty"`
	Initializer              *Initializer    `json:"initializer,omitempty"`
	Dependencies             []Dependency    `json:"dependencies"`
	DeclarationType          DeclarationType `json:"declarationType"`
	IsRoot                   bool            `json:"isRoot,omitempty"`
	ConformsElsewhere        bool            `json:"conformsElsewhere,omitempty"`
}

// TypeName is the canonical spelling of the concrete type.
func (i *Instantiable) TypeName() string {
	if i.ConcreteType.Description == nil {
		return ""
	}
	return i.ConcreteType.Description.String()
}

// FulfilledTypes returns the concrete type plus every additional fulfilled
// type, in declaration order.
func (i *Instantiable) FulfilledTypes() []typedesc.Description {
	types := make([]typedesc.Description, 0, 1+len(i.AdditionalTypesFulfilled))
	types = append(types, i.ConcreteType.Description)
	for _, t := range i.AdditionalTypesFulfilled {
		types = append(types, t.Description)
	}
	return types
}

// ForwardedProperties returns the @Forwarded properties in lexicographic
// order. At most one is legal; the slice form keeps validation reporting
// uniform.
func (i *Instantiable) ForwardedProperties() []Property {
	var props []Property
	for _, dep := range i.Dependencies {
		if dep.Source == SourceForwarded {
			props = append(props, dep.Property)
		}
	}
	SortProperties(props)
	return props
}

// ReceivedDependencies returns dependencies supplied by ancestors: received
// and aliased sources.
func (i *Instantiable) ReceivedDependencies() []Dependency {
	var deps []Dependency
	for _, dep := range i.Dependencies {
		if dep.Source == SourceReceived || dep.Source == SourceAliased {
			deps = append(deps, dep)
		}
	}
	return deps
}

// DependencyNamed returns the dependency whose property has the given
// label, or nil.
func (i *Instantiable) DependencyNamed(label string) *Dependency {
	for idx := range i.Dependencies {
		if i.Dependencies[idx].Property.Label == label {
			return &i.Dependencies[idx]
		}
	}
	return nil
}

// ModuleInfo is the serialized artifact produced per module: the observed
// imports and the instantiables they declare, both in textual order.
type ModuleInfo struct {
	Imports       []ImportStatement `json:"imports"`
	Instantiables []*Instantiable   `json:"instantiables"`
}
