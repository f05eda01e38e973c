package graph

import (
	"sort"
	"strings"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/model"
)

// validateReceived verifies the property-fulfillment invariant: for every
// scope, every received property is produced — instantiated, forwarded, or
// aliased to a produced property — by some ancestor scope. With required
// sets computed bottom-up, the check reduces to: nothing may remain
// required at a root, and constant bindings may not construct providers
// that expect caller-supplied values.
func (g *Graph) validateReceived() error {
	for _, root := range g.Roots {
		if len(root.required) > 0 {
			labels := make([]string, 0, len(root.required))
			for label := range root.required {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			req := root.required[labels[0]]
			return errors.WrapReport(errors.Newf(errors.GRF004,
				"property %s of %s is not received from any ancestor",
				req.Property.Label, strings.Join(req.NeededBy, ", ")).
				WithData("property", req.Property.Label).
				WithData("root", root.Instantiable.TypeName()))
		}

		if err := validateForwardedReachability(root); err != nil {
			return err
		}
	}
	return nil
}

// validateForwardedReachability rejects constant @Instantiated bindings
// whose provider declares a @Forwarded property: forwarded values exist
// only when the provider is reached through an instantiator, which
// supplies them as closure arguments at construction time.
func validateForwardedReachability(scope *Scope) error {
	for _, b := range scope.Bindings {
		if b.Child == nil {
			continue
		}
		if b.Dependency.Property.Variant() == model.VariantConstant {
			if forwarded := b.Child.Instantiable.ForwardedProperties(); len(forwarded) > 0 {
				return errors.WrapReport(errors.Newf(errors.GRF004,
					"property %s of %s forwards %s and can only be instantiated through an Instantiator",
					b.Property().Label, scope.Instantiable.TypeName(), forwarded[0].Label).
					WithData("property", b.Property().Label))
			}
		}
		if err := validateForwardedReachability(b.Child); err != nil {
			return err
		}
	}
	return nil
}
