package model

import (
	"sort"

	"github.com/safedi/safedi-go/internal/typedesc"
)

// Argument is one parameter of an initializer.
type Argument struct {
	// OuterLabel is the call-site label when it differs from InnerLabel;
	// "_" for unlabeled arguments.
	OuterLabel string `json:"outerLabel,omitempty"`
	// InnerLabel is the parameter's binding name.
	InnerLabel      string       `json:"innerLabel"`
	TypeDescription typedesc.Ref `json:"typeDescription"`
	HasDefault      bool         `json:"hasDefault,omitempty"`
}

// Label is the label used at the call site.
func (a Argument) Label() string {
	if a.OuterLabel != "" {
		return a.OuterLabel
	}
	return a.InnerLabel
}

// Initializer is an ordered list of arguments on an instantiable type.
type Initializer struct {
	Arguments     []Argument `json:"arguments"`
	IsAsync       bool       `json:"isAsync,omitempty"`
	Throws        bool       `json:"throws,omitempty"`
	IsPublic      bool       `json:"isPublic,omitempty"`
	IsSynthesized bool       `json:"isSynthesized,omitempty"`
}

// CanFulfill reports whether the initializer is valid for fulfilling the
// given dependencies: every dependency's property appears as an argument
// whose inner label and type match, and every other argument has a default.
func (i *Initializer) CanFulfill(deps []Dependency) bool {
	byLabel := make(map[string]Argument, len(i.Arguments))
	for _, arg := range i.Arguments {
		byLabel[arg.InnerLabel] = arg
	}
	matched := make(map[string]bool, len(deps))
	for _, dep := range deps {
		arg, ok := byLabel[dep.Property.Label]
		if !ok || !arg.TypeDescription.Equal(dep.Property.TypeDescription) {
			return false
		}
		matched[arg.InnerLabel] = true
	}
	for _, arg := range i.Arguments {
		if !matched[arg.InnerLabel] && !arg.HasDefault {
			return false
		}
	}
	return true
}

// SynthesizeInitializer builds the memberwise initializer the generator
// assumes when a type declares none: exactly the dependency arguments in
// lexicographic order.
func SynthesizeInitializer(deps []Dependency) *Initializer {
	args := make([]Argument, 0, len(deps))
	for _, dep := range deps {
		args = append(args, Argument{
			InnerLabel:      dep.Property.Label,
			TypeDescription: dep.Property.TypeDescription,
		})
	}
	sort.Slice(args, func(a, b int) bool { return args[a].InnerLabel < args[b].InnerLabel })
	return &Initializer{Arguments: args, IsPublic: true, IsSynthesized: true}
}
