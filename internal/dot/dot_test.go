package dot_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedi/safedi-go/internal/dot"
	"github.com/safedi/safedi-go/internal/graph"
	"github.com/safedi/safedi-go/internal/parser"
)

func solve(t *testing.T, source string) *graph.Graph {
	t.Helper()
	result := parser.ParseFile(source, "test.swift")
	require.Empty(t, result.Diagnostics)
	g, err := graph.Build(result.Instantiables)
	require.NoError(t, err)
	return g
}

func TestRenderSimpleGraph(t *testing.T) {
	g := solve(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let boiler: Boiler
}

@Instantiable
public struct Boiler {}
`)
	rendered := dot.FromRoots(g.Roots).Render()
	assert.True(t, strings.HasPrefix(rendered, "graph {\n"))
	assert.Contains(t, rendered, "ranksep=2")
	assert.Contains(t, rendered, `"Root" -- "boiler : Boiler"`)
	assert.True(t, strings.HasSuffix(rendered, "}\n"))
}

func TestRenderForwardedAndAliasEdges(t *testing.T) {
	g := solve(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let svc: DefaultUserService
    @Instantiated let viewBuilder: Instantiator<NoteView>
    @Instantiated let screen: Screen
}

@Instantiable
public struct DefaultUserService {}

@Instantiable
public struct NoteView {
    @Forwarded let userName: String
}

@Instantiable
public struct Screen {
    @Received(fulfilledByDependencyNamed: "svc", ofType: DefaultUserService.self, erasedToConcreteExistential: true)
    let anySvc: AnyUserService
}
`)
	rendered := dot.FromRoots(g.Roots).Render()
	assert.Contains(t, rendered, `"viewBuilder : Instantiator<NoteView>" -- "userName : String"`)
	assert.Contains(t, rendered, `"screen : Screen" -- "anySvc <- svc"`)
}

func TestRenderDeterministic(t *testing.T) {
	source := `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let zebra: Zebra
    @Instantiated let apple: Apple
}

@Instantiable
public struct Zebra {}

@Instantiable
public struct Apple {}
`
	first := dot.FromRoots(solve(t, source).Roots).Render()
	second := dot.FromRoots(solve(t, source).Roots).Render()
	assert.Equal(t, first, second)

	apple := strings.Index(first, "apple")
	zebra := strings.Index(first, "zebra")
	assert.Less(t, apple, zebra)
}
