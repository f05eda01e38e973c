// Package dot renders a solved dependency graph in Graphviz format for
// debugging. Nodes are instantiable type names or "property : type" pairs;
// edges connect each scope to its children, its forwarded properties, and
// its aliases.
package dot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/safedi/safedi-go/internal/graph"
	"github.com/safedi/safedi-go/internal/model"
)

// Edge is a single connection in the rendered graph.
type Edge struct {
	From string
	To   string
}

// Graph is the DOT representation of one or more solved root scopes.
type Graph struct {
	Edges []Edge
}

// FromRoots builds the DOT graph for the given root scopes.
func FromRoots(roots []*graph.Scope) *Graph {
	g := &Graph{}
	for _, root := range roots {
		g.visit(root, root.Instantiable.TypeName())
	}
	return g
}

func (g *Graph) visit(scope *graph.Scope, name string) {
	// Forwarded properties hang off the scope they are forwarded into.
	for _, prop := range scope.Instantiable.ForwardedProperties() {
		g.Edges = append(g.Edges, Edge{From: name, To: propertyNode(prop)})
	}

	bindings := make([]graph.PropertyBinding, len(scope.Bindings))
	copy(bindings, scope.Bindings)
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Property().Label < bindings[j].Property().Label
	})

	for _, b := range bindings {
		if b.Kind == graph.BindingAliased {
			target := b.Dependency.FulfillingLabel()
			g.Edges = append(g.Edges, Edge{
				From: name,
				To:   b.Property().Label + " <- " + target,
			})
			continue
		}
		child := propertyNode(b.Property())
		g.Edges = append(g.Edges, Edge{From: name, To: child})
		g.visit(b.Child, child)
	}
}

// propertyNode renders a child property node label.
func propertyNode(prop model.Property) string {
	return prop.Label + " : " + prop.TypeDescription.Description.String()
}

// Write renders the graph block.
func (g *Graph) Write(w io.Writer) error {
	var b strings.Builder
	b.WriteString("graph {\n")
	b.WriteString("    ranksep=2\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "    %q -- %q\n", e.From, e.To)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Render returns the graph block as a string.
func (g *Graph) Render() string {
	var b strings.Builder
	_ = g.Write(&b)
	return b.String()
}
