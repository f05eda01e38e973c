package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	safedierrors "github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/graph"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/parser"
)

func build(t *testing.T, source string) (*graph.Graph, error) {
	t.Helper()
	result := parser.ParseFile(source, "test.swift")
	require.Empty(t, result.Diagnostics, "unexpected parse diagnostics")
	return graph.Build(result.Instantiables)
}

func mustBuild(t *testing.T, source string) *graph.Graph {
	t.Helper()
	g, err := build(t, source)
	require.NoError(t, err)
	return g
}

func reportCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	rep, ok := safedierrors.AsReport(err)
	require.True(t, ok, "expected a structured report, got %v", err)
	return rep.Code
}

func TestFulfillmentMapAndRoots(t *testing.T) {
	g := mustBuild(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let boiler: Boiler
}

@Instantiable(fulfillingAdditionalTypes: [Heater.self])
public struct Boiler {}
`)
	assert.Len(t, g.Fulfillment, 3)
	assert.Equal(t, "Boiler", g.Fulfillment["Boiler"].TypeName())
	assert.Equal(t, "Boiler", g.Fulfillment["Heater"].TypeName())

	require.Len(t, g.Roots, 1)
	assert.Equal(t, "Root", g.Roots[0].Instantiable.TypeName())
}

func TestUnreferencedInstantiableIsRoot(t *testing.T) {
	g := mustBuild(t, `
@Instantiable
public struct Standalone {}
`)
	require.Len(t, g.Roots, 1)
	assert.Equal(t, "Standalone", g.Roots[0].Instantiable.TypeName())
}

func TestDuplicateFulfillment(t *testing.T) {
	_, err := build(t, `
@Instantiable(fulfillingAdditionalTypes: [UserService.self])
public struct DefaultUserService {}

@Instantiable(fulfillingAdditionalTypes: [UserService.self])
public struct MockUserService {}
`)
	assert.Equal(t, safedierrors.GRF002, reportCode(t, err))
}

func TestMissingFulfillment(t *testing.T) {
	_, err := build(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let boiler: Boiler
}
`)
	rep, _ := safedierrors.AsReport(err)
	require.NotNil(t, rep)
	assert.Equal(t, safedierrors.GRF001, rep.Code)
	assert.Contains(t, rep.Message, "Boiler")
	assert.Contains(t, rep.Message, "Root")
}

func TestCycleDetection(t *testing.T) {
	_, err := build(t, `
@Instantiable
public struct A {
    @Instantiated let b: B
}

@Instantiable
public struct B {
    @Instantiated let a: A
}
`)
	rep, _ := safedierrors.AsReport(err)
	require.NotNil(t, rep)
	assert.Equal(t, safedierrors.GRF003, rep.Code)
	assert.Contains(t, rep.Message, "A -> B -> A")
}

func TestOptionalInstantiatedResolvesUnwrapped(t *testing.T) {
	g := mustBuild(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let boiler: Boiler?
}

@Instantiable
public struct Boiler {}
`)
	require.Len(t, g.Roots, 1)
	require.Len(t, g.Roots[0].Bindings, 1)
	assert.Equal(t, "Boiler", g.Roots[0].Bindings[0].Child.Instantiable.TypeName())
}

func TestReceivedFulfilledByAncestor(t *testing.T) {
	g := mustBuild(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let outer: Outer
}

@Instantiable
public struct Outer {
    @Instantiated let inner: Inner
    @Instantiated let shared: Shared
}

@Instantiable
public struct Inner {
    @Received let shared: Shared
}

@Instantiable
public struct Shared {}
`)
	require.Len(t, g.Roots, 1)
	root := g.Roots[0]
	assert.Empty(t, root.RequiredReceivedProperties())

	outer := root.Bindings[0].Child
	assert.Empty(t, outer.RequiredReceivedProperties())

	var inner *graph.Scope
	for _, b := range outer.Bindings {
		if b.Property().Label == "inner" {
			inner = b.Child
		}
	}
	require.NotNil(t, inner)
	required := inner.RequiredReceivedProperties()
	require.Len(t, required, 1)
	assert.Equal(t, "shared", required[0].Label)
}

func TestUnfulfillableReceived(t *testing.T) {
	_, err := build(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let inner: Inner
}

@Instantiable
public struct Inner {
    @Received let shared: Shared
}
`)
	rep, _ := safedierrors.AsReport(err)
	require.NotNil(t, rep)
	assert.Equal(t, safedierrors.GRF004, rep.Code)
	assert.Contains(t, rep.Message, "shared")
	assert.Contains(t, rep.Message, "Inner")
}

func TestAliasRequiresFulfillingProperty(t *testing.T) {
	_, err := build(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let screen: Screen
}

@Instantiable
public struct Screen {
    @Received(fulfilledByDependencyNamed: "svc", ofType: DefaultUserService.self) let anySvc: AnyUserService
}
`)
	rep, _ := safedierrors.AsReport(err)
	require.NotNil(t, rep)
	assert.Equal(t, safedierrors.GRF004, rep.Code)
	assert.Contains(t, rep.Message, "svc")
}

func TestMultipleForwardedRejected(t *testing.T) {
	_, err := build(t, `
@Instantiable
public struct NoteView {
    @Forwarded let userName: String
    @Forwarded let noteID: Int
}
`)
	assert.Equal(t, safedierrors.GRF005, reportCode(t, err))
}

func TestForwardedProviderNeedsInstantiator(t *testing.T) {
	_, err := build(t, `
@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let view: NoteView
}

@Instantiable
public struct NoteView {
    @Forwarded let userName: String
}
`)
	assert.Equal(t, safedierrors.GRF004, reportCode(t, err))
}

func TestInstantiatorDependencyBuildsChildScope(t *testing.T) {
	g := mustBuild(t, `
@Instantiable(isRoot: true)
public struct Host {
    @Instantiated let stringStorage: StringStorage
    @Instantiated let noteViewBuilder: Instantiator<NoteView>
}

@Instantiable
public struct NoteView {
    @Forwarded let userName: String
    @Received let stringStorage: StringStorage
}

@Instantiable
public struct StringStorage {}
`)
	require.Len(t, g.Roots, 1)
	var builder *graph.PropertyBinding
	for i := range g.Roots[0].Bindings {
		if g.Roots[0].Bindings[i].Property().Label == "noteViewBuilder" {
			builder = &g.Roots[0].Bindings[i]
		}
	}
	require.NotNil(t, builder)
	assert.Equal(t, model.VariantInstantiator, builder.Dependency.Property.Variant())
	assert.Equal(t, "NoteView", builder.Child.Instantiable.TypeName())
}
