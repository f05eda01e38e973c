// Package graph builds and validates the dependency-injection graph: the
// fulfillment map from fulfilled type to provider, the root scopes, and
// the per-scope record of what must be received from ancestors.
package graph

import (
	"sort"

	"github.com/safedi/safedi-go/internal/model"
)

// BindingKind classifies a property a scope introduces.
type BindingKind int

const (
	// BindingInstantiated properties are constructed by the scope; the
	// binding owns the provider's child scope.
	BindingInstantiated BindingKind = iota
	// BindingAliased properties re-introduce an ancestor property under a
	// new name or type; the child scope is degenerate.
	BindingAliased
)

// PropertyBinding is one entry of a scope's propertiesToInstantiate.
type PropertyBinding struct {
	Kind       BindingKind
	Dependency model.Dependency
	// Child is the provider's scope for instantiated bindings, nil for
	// aliases.
	Child *Scope
}

// Property returns the property the binding introduces.
func (b PropertyBinding) Property() model.Property {
	return b.Dependency.Property
}

// Scope is the unit of construction: one node of the solved graph, owned
// by one instantiable. Scopes are built once per root and then walked by
// the code generator.
type Scope struct {
	Instantiable *model.Instantiable
	Bindings     []PropertyBinding

	// required is the transitive closure of properties this scope's
	// subtree needs from ancestors, minus what the scope provides or
	// forwards itself. Keyed by property label; values record which
	// instantiables need the property, for diagnostics.
	required map[string]*requirement
}

type requirement struct {
	Property model.Property
	// NeededBy lists canonical names of instantiables that consume the
	// property, sorted, deduplicated.
	NeededBy []string
}

// RequiredReceivedProperties returns the scope's unmet ancestor needs in
// lexicographic label order.
func (s *Scope) RequiredReceivedProperties() []model.Property {
	props := make([]model.Property, 0, len(s.required))
	for _, req := range s.required {
		props = append(props, req.Property)
	}
	model.SortProperties(props)
	return props
}

// Requires reports whether the scope's subtree consumes the given ancestor
// property label.
func (s *Scope) Requires(label string) bool {
	_, ok := s.required[label]
	return ok
}

// providedLabels is the set of property labels the scope introduces for
// its subtree: instantiated and aliased bindings plus forwarded
// properties.
func (s *Scope) providedLabels() map[string]bool {
	provided := make(map[string]bool, len(s.Bindings))
	for _, b := range s.Bindings {
		provided[b.Property().Label] = true
	}
	for _, dep := range s.Instantiable.Dependencies {
		if dep.Source == model.SourceForwarded {
			provided[dep.Property.Label] = true
		}
	}
	return provided
}

// computeRequired fills the required set bottom-up. Children must be
// computed first; buildScope guarantees post-order construction.
func (s *Scope) computeRequired() {
	s.required = make(map[string]*requirement)
	owner := s.Instantiable.TypeName()
	provided := s.providedLabels()

	for _, dep := range s.Instantiable.Dependencies {
		switch dep.Source {
		case model.SourceReceived:
			s.addRequirement(dep.Property, owner)
		case model.SourceAliased:
			// An alias may target a property this same scope introduces;
			// only targets the scope does not provide come from ancestors.
			if dep.FulfillingProperty != nil && !provided[dep.FulfillingProperty.Label] {
				s.addRequirement(*dep.FulfillingProperty, owner)
			}
		}
	}
	for _, b := range s.Bindings {
		if b.Child == nil {
			continue
		}
		for _, req := range b.Child.required {
			if provided[req.Property.Label] {
				continue
			}
			for _, needer := range req.NeededBy {
				s.addRequirement(req.Property, needer)
			}
		}
	}
}

func (s *Scope) addRequirement(prop model.Property, neededBy string) {
	req, ok := s.required[prop.Label]
	if !ok {
		req = &requirement{Property: prop}
		s.required[prop.Label] = req
	}
	for _, n := range req.NeededBy {
		if n == neededBy {
			return
		}
	}
	req.NeededBy = append(req.NeededBy, neededBy)
	sort.Strings(req.NeededBy)
}
