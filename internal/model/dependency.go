package model

import (
	"encoding/json"
	"fmt"

	"github.com/safedi/safedi-go/internal/typedesc"
)

// Source identifies where a dependency's value is introduced.
type Source int

const (
	// SourceInstantiated dependencies are constructed by the owning scope.
	SourceInstantiated Source = iota
	// SourceReceived dependencies are supplied by an ancestor scope.
	SourceReceived
	// SourceForwarded dependencies are supplied by the caller when the
	// owning scope is constructed.
	SourceForwarded
	// SourceAliased dependencies re-introduce an ancestor property under a
	// new name or type.
	SourceAliased
)

var sourceNames = map[Source]string{
	SourceInstantiated: "instantiated",
	SourceReceived:     "received",
	SourceForwarded:    "forwarded",
	SourceAliased:      "aliased",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for src, n := range sourceNames {
		if n == name {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown dependency source %q", name)
}

// Dependency is one member of an instantiable that the system must supply.
type Dependency struct {
	Property Property `json:"property"`
	Source   Source   `json:"source"`

	// FulfillingProperty names the ancestor property an aliased dependency
	// re-introduces.
	FulfillingProperty *Property `json:"fulfillingProperty,omitempty"`

	// FulfillingType is the concrete provider named by fulfilledByType on
	// an erased or type-erased @Instantiated property.
	FulfillingType *typedesc.Ref `json:"fulfilledByType,omitempty"`

	// ErasedToConcreteExistential wraps an aliased dependency's value in
	// the declared existential box when emitted.
	ErasedToConcreteExistential bool `json:"erasedToConcreteExistential,omitempty"`
}

// ResolutionType is the type the graph builder resolves against: the
// fulfilledByType override when present, otherwise the type the property
// constructs (instantiator wrappers and optionals unwrapped).
func (d Dependency) ResolutionType() typedesc.Description {
	if d.FulfillingType != nil && d.FulfillingType.Description != nil {
		return d.FulfillingType.Description
	}
	return typedesc.Unwrapped(d.Property.InstantiatedType())
}

// FulfillingLabel is the ancestor property label this dependency consumes:
// the alias target for aliased dependencies, the property's own label
// otherwise.
func (d Dependency) FulfillingLabel() string {
	if d.Source == SourceAliased && d.FulfillingProperty != nil {
		return d.FulfillingProperty.Label
	}
	return d.Property.Label
}
