package graph

import (
	"strings"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/typedesc"
)

// Graph is the solved dependency graph for one invocation.
type Graph struct {
	// Fulfillment maps canonical fulfilled-type spellings to their unique
	// provider. Built once, immutable during generation.
	Fulfillment map[string]*model.Instantiable
	// Roots holds one scope per root instantiable, in merged input order.
	Roots []*Scope
	// Instantiables is the merged input, in order.
	Instantiables []*model.Instantiable
}

// Build unions the merged instantiables into a solved graph: fulfillment
// map, root identification, and recursive scope construction. The first
// graph error is fatal.
func Build(instantiables []*model.Instantiable) (*Graph, error) {
	g := &Graph{
		Fulfillment:   make(map[string]*model.Instantiable),
		Instantiables: instantiables,
	}

	// The map from fulfilled type to provider must be injective.
	for _, inst := range instantiables {
		for _, t := range inst.FulfilledTypes() {
			if t == nil {
				continue
			}
			key := t.String()
			if existing, ok := g.Fulfillment[key]; ok && existing != inst {
				return nil, errors.WrapReport(errors.Newf(errors.GRF002,
					"%s is fulfilled by both %s and %s",
					key, existing.TypeName(), inst.TypeName()).
					WithData("type", key))
			}
			g.Fulfillment[key] = inst
		}
	}

	for _, inst := range instantiables {
		if forwarded := inst.ForwardedProperties(); len(forwarded) > 1 {
			labels := make([]string, len(forwarded))
			for i, p := range forwarded {
				labels[i] = p.Label
			}
			return nil, errors.WrapReport(errors.Newf(errors.GRF005,
				"%s declares %d @Forwarded properties (%s); at most one is allowed",
				inst.TypeName(), len(forwarded), strings.Join(labels, ", ")))
		}
	}

	// A cycle of mutually-@Instantiated types leaves no root to descend
	// from, so cycles are rejected over the whole graph up front.
	if err := detectCycles(instantiables, g.Fulfillment); err != nil {
		return nil, err
	}

	for _, inst := range roots(instantiables, g.Fulfillment) {
		scope, err := g.buildScope(inst, nil)
		if err != nil {
			return nil, err
		}
		g.Roots = append(g.Roots, scope)
	}

	if err := g.validateReceived(); err != nil {
		return nil, err
	}
	return g, nil
}

// roots returns the instantiables whose scopes have no parent: those
// flagged isRoot plus those no other instantiable lists as an
// @Instantiated target.
func roots(instantiables []*model.Instantiable, fulfillment map[string]*model.Instantiable) []*model.Instantiable {
	instantiated := make(map[*model.Instantiable]bool)
	for _, inst := range instantiables {
		for _, dep := range inst.Dependencies {
			if dep.Source != model.SourceInstantiated {
				continue
			}
			if provider, ok := fulfillment[dep.ResolutionType().String()]; ok {
				instantiated[provider] = true
			}
		}
	}

	var out []*model.Instantiable
	for _, inst := range instantiables {
		if inst.IsRoot || !instantiated[inst] {
			out = append(out, inst)
		}
	}
	return out
}

// buildScope constructs the scope tree for one instantiable, descending
// through @Instantiated dependencies. The stack of currently-entered
// instantiables detects cycles; revisiting one is fatal and the diagnostic
// names the full cycle path.
func (g *Graph) buildScope(inst *model.Instantiable, stack []*model.Instantiable) (*Scope, error) {
	for i, entered := range stack {
		if entered == inst {
			return nil, errors.WrapReport(errors.Newf(errors.GRF003,
				"dependency cycle detected: %s", cyclePath(stack[i:], inst)).
				WithData("cycle", cyclePath(stack[i:], inst)))
		}
	}
	stack = append(stack, inst)

	scope := &Scope{Instantiable: inst}
	for _, dep := range inst.Dependencies {
		switch dep.Source {
		case model.SourceInstantiated:
			resolution := dep.ResolutionType()
			provider, ok := g.Fulfillment[resolution.String()]
			if !ok {
				return nil, errors.WrapReport(errors.Newf(errors.GRF001,
					"nothing fulfills %s, required by property %s of %s",
					resolution, dep.Property.Label, inst.TypeName()).
					WithData("type", resolution.String()).
					WithData("property", dep.Property.Label))
			}
			child, err := g.buildScope(provider, stack)
			if err != nil {
				return nil, err
			}
			scope.Bindings = append(scope.Bindings, PropertyBinding{
				Kind:       BindingInstantiated,
				Dependency: dep,
				Child:      child,
			})
		case model.SourceAliased:
			scope.Bindings = append(scope.Bindings, PropertyBinding{
				Kind:       BindingAliased,
				Dependency: dep,
			})
		}
	}

	scope.computeRequired()
	return scope, nil
}

// detectCycles walks the @Instantiated edges of every instantiable,
// maintaining the ordered set of currently-entered nodes. Revisiting an
// entered node is fatal and the diagnostic names the full cycle.
func detectCycles(instantiables []*model.Instantiable, fulfillment map[string]*model.Instantiable) error {
	const (
		unvisited = iota
		entering
		done
	)
	state := make(map[*model.Instantiable]int, len(instantiables))

	var visit func(inst *model.Instantiable, stack []*model.Instantiable) error
	visit = func(inst *model.Instantiable, stack []*model.Instantiable) error {
		switch state[inst] {
		case done:
			return nil
		case entering:
			start := 0
			for i, entered := range stack {
				if entered == inst {
					start = i
					break
				}
			}
			return errors.WrapReport(errors.Newf(errors.GRF003,
				"dependency cycle detected: %s", cyclePath(stack[start:], inst)).
				WithData("cycle", cyclePath(stack[start:], inst)))
		}
		state[inst] = entering
		stack = append(stack, inst)
		for _, dep := range inst.Dependencies {
			if dep.Source != model.SourceInstantiated {
				continue
			}
			if provider, ok := fulfillment[dep.ResolutionType().String()]; ok {
				if err := visit(provider, stack); err != nil {
					return err
				}
			}
		}
		state[inst] = done
		return nil
	}

	for _, inst := range instantiables {
		if err := visit(inst, nil); err != nil {
			return err
		}
	}
	return nil
}

// cyclePath renders "A -> B -> C -> A".
func cyclePath(stack []*model.Instantiable, repeat *model.Instantiable) string {
	parts := make([]string, 0, len(stack)+1)
	for _, inst := range stack {
		parts = append(parts, inst.TypeName())
	}
	parts = append(parts, repeat.TypeName())
	return strings.Join(parts, " -> ")
}

// Provider resolves the instantiable fulfilling a type description, if
// any.
func (g *Graph) Provider(d typedesc.Description) (*model.Instantiable, bool) {
	inst, ok := g.Fulfillment[d.String()]
	return inst, ok
}
