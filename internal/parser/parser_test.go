package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedi/safedi-go/internal/model"
)

func parse(t *testing.T, source string) *FileResult {
	t.Helper()
	return ParseFile(source, "test.swift")
}

func diagnosticCodes(r *FileResult) []string {
	codes := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestParseImports(t *testing.T) {
	result := parse(t, `
import Foundation
import struct UIKit.UIView
@testable import SafeDICore
`)
	require.Len(t, result.Imports, 3)
	assert.Equal(t, "import Foundation", result.Imports[0].Render())
	assert.Equal(t, "import struct UIKit.UIView", result.Imports[1].Render())
	assert.Equal(t, "@testable import SafeDICore", result.Imports[2].Render())
}

func TestParseInstantiableWithDeclaredInitializer(t *testing.T) {
	result := parse(t, `
import Foundation

@Instantiable(isRoot: true)
public struct Root {
    @Instantiated let boiler: Boiler

    public init(boiler: Boiler) {
        self.boiler = boiler
    }
}
`)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Instantiables, 1)

	root := result.Instantiables[0]
	assert.Equal(t, "Root", root.TypeName())
	assert.True(t, root.IsRoot)
	assert.Equal(t, model.DeclarationStruct, root.DeclarationType)

	require.Len(t, root.Dependencies, 1)
	dep := root.Dependencies[0]
	assert.Equal(t, "boiler", dep.Property.Label)
	assert.Equal(t, "Boiler", dep.Property.TypeDescription.Description.String())
	assert.Equal(t, model.SourceInstantiated, dep.Source)

	require.NotNil(t, root.Initializer)
	assert.False(t, root.Initializer.IsSynthesized)
	assert.True(t, root.Initializer.IsPublic)
}

func TestSynthesizedInitializer(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Outer {
    @Instantiated let zebra: Zebra
    @Instantiated let apple: Apple
}
`)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Instantiables, 1)

	ini := result.Instantiables[0].Initializer
	require.NotNil(t, ini)
	assert.True(t, ini.IsSynthesized)
	require.Len(t, ini.Arguments, 2)
	assert.Equal(t, "apple", ini.Arguments[0].InnerLabel)
	assert.Equal(t, "zebra", ini.Arguments[1].InnerLabel)
}

func TestInitializerSelection(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Root {
    @Instantiated let boiler: Boiler

    public init() {
        self.boiler = Boiler()
    }

    public init(boiler: Boiler, timeout: Int = 30) {
        self.boiler = boiler
    }
}
`)
	require.Empty(t, result.Diagnostics)
	ini := result.Instantiables[0].Initializer
	require.NotNil(t, ini)
	require.Len(t, ini.Arguments, 2)
	assert.Equal(t, "boiler", ini.Arguments[0].InnerLabel)
	assert.True(t, ini.Arguments[1].HasDefault)
}

func TestInstantiableArguments(t *testing.T) {
	result := parse(t, `
@Instantiable(fulfillingAdditionalTypes: [UserService.self], conformsElsewhere: true)
public struct DefaultUserService {}
`)
	require.Empty(t, result.Diagnostics)
	inst := result.Instantiables[0]
	assert.True(t, inst.ConformsElsewhere)
	require.Len(t, inst.AdditionalTypesFulfilled, 1)
	assert.Equal(t, "UserService", inst.AdditionalTypesFulfilled[0].Description.String())
}

func TestAliasedReceived(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Screen {
    @Received(fulfilledByDependencyNamed: "svc", ofType: DefaultUserService.self, erasedToConcreteExistential: true)
    let anySvc: AnyUserService
}
`)
	require.Empty(t, result.Diagnostics)
	dep := result.Instantiables[0].Dependencies[0]
	assert.Equal(t, model.SourceAliased, dep.Source)
	require.NotNil(t, dep.FulfillingProperty)
	assert.Equal(t, "svc", dep.FulfillingProperty.Label)
	assert.Equal(t, "DefaultUserService", dep.FulfillingProperty.TypeDescription.Description.String())
	assert.True(t, dep.ErasedToConcreteExistential)
}

func TestFulfilledByTypeOnErasedProperty(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Host {
    @Instantiated(fulfilledByType: "DefaultUserService") let svc: any UserService
}
`)
	require.Empty(t, result.Diagnostics)
	dep := result.Instantiables[0].Dependencies[0]
	require.NotNil(t, dep.FulfillingType)
	assert.Equal(t, "DefaultUserService", dep.FulfillingType.Description.String())
}

func TestForwarded(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct NoteView {
    @Forwarded let userName: String
    @Received let stringStorage: StringStorage
}
`)
	require.Empty(t, result.Diagnostics)
	inst := result.Instantiables[0]
	forwarded := inst.ForwardedProperties()
	require.Len(t, forwarded, 1)
	assert.Equal(t, "userName", forwarded[0].Label)
}

func TestDependencyDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{
			name: "multiple lifecycle attributes",
			source: `
@Instantiable
public struct Foo {
    @Instantiated @Received let bar: Bar
}`,
			code: "PAR001",
		},
		{
			name: "initial value",
			source: `
@Instantiable
public struct Foo {
    @Instantiated let bar: Bar = Bar()
}`,
			code: "PAR002",
		},
		{
			name: "mutable dependency",
			source: `
@Instantiable
public struct Foo {
    @Instantiated var bar: Bar
}`,
			code: "PAR003",
		},
		{
			name: "static dependency",
			source: `
@Instantiable
public struct Foo {
    @Instantiated static let bar: Bar
}`,
			code: "PAR004",
		},
		{
			name: "not public",
			source: `
@Instantiable
struct Foo {
    @Instantiated let bar: Bar
}`,
			code: "PAR005",
		},
		{
			name: "uninitialized stored property without initializer",
			source: `
@Instantiable
public struct Foo {
    @Instantiated let bar: Bar
    let url: URL
}`,
			code: "PAR006",
		},
		{
			name: "erased instantiator without fulfilledByType",
			source: `
@Instantiable
public struct Foo {
    @Instantiated let builder: ErasedInstantiator<Void, Bar>
}`,
			code: "PAR007",
		},
		{
			name: "fulfilledByType on plain instantiator",
			source: `
@Instantiable
public struct Foo {
    @Instantiated(fulfilledByType: "Bar") let builder: Instantiator<Bar>
}`,
			code: "PAR008",
		},
		{
			name: "fulfilledByType not a string literal",
			source: `
@Instantiable
public struct Foo {
    @Instantiated(fulfilledByType: Bar.self) let bar: any Bar
}`,
			code: "PAR010",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, tt.source)
			assert.Contains(t, diagnosticCodes(result), tt.code)
		})
	}
}

func TestNestedInstantiableRejected(t *testing.T) {
	result := parse(t, `
public struct Outer {
    @Instantiable
    public struct Inner {}
}
`)
	assert.Contains(t, diagnosticCodes(result), "PAR011")
	require.Len(t, result.NestedInstantiables, 1)
	assert.Equal(t, "Inner", result.NestedInstantiables[0].String())
	assert.Empty(t, result.Instantiables)
}

func TestNestedInsideInstantiable(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Outer {
    @Instantiated let bar: Bar

    @Instantiable
    public struct Inner {}
}
`)
	assert.Contains(t, diagnosticCodes(result), "PAR011")
	require.Len(t, result.Instantiables, 1)
	assert.Equal(t, "Outer", result.Instantiables[0].TypeName())
}

func TestExtensionInstantiable(t *testing.T) {
	result := parse(t, `
@Instantiable
extension UserDefaults {
    public static func instantiate() -> UserDefaults {
        .standard
    }
}
`)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Instantiables, 1)
	inst := result.Instantiables[0]
	assert.Equal(t, "UserDefaults", inst.TypeName())
	assert.Equal(t, model.DeclarationExtension, inst.DeclarationType)
	require.NotNil(t, inst.Initializer)
	assert.Empty(t, inst.Initializer.Arguments)
}

func TestExtensionInstantiableWithParameters(t *testing.T) {
	result := parse(t, `
@Instantiable
extension NetworkClient {
    public static func instantiate(session: URLSession) -> NetworkClient {
        NetworkClient(session: session)
    }
}
`)
	require.Empty(t, result.Diagnostics)
	inst := result.Instantiables[0]
	require.Len(t, inst.Dependencies, 1)
	assert.Equal(t, "session", inst.Dependencies[0].Property.Label)
	assert.Equal(t, model.SourceReceived, inst.Dependencies[0].Source)
}

func TestExtensionInstantiateDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "missing factory",
			source: `
@Instantiable
extension UserDefaults {}`,
		},
		{
			name: "throws",
			source: `
@Instantiable
extension UserDefaults {
    public static func instantiate() throws -> UserDefaults {
        .standard
    }
}`,
		},
		{
			name: "not static",
			source: `
@Instantiable
extension UserDefaults {
    public func instantiate() -> UserDefaults {
        .standard
    }
}`,
		},
		{
			name: "wrong return type",
			source: `
@Instantiable
extension UserDefaults {
    public static func instantiate() -> Foo {
        Foo()
    }
}`,
		},
		{
			name: "generic",
			source: `
@Instantiable
extension UserDefaults {
    public static func instantiate<T>() -> UserDefaults {
        .standard
    }
}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, tt.source)
			assert.Contains(t, diagnosticCodes(result), "PAR009")
		})
	}
}

func TestUnknownAttributesIgnored(t *testing.T) {
	result := parse(t, `
@available(iOS 13, *)
@Instantiable
public struct Foo {
    @MainActor @Instantiated let bar: Bar
}
`)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Instantiables, 1)
	require.Len(t, result.Instantiables[0].Dependencies, 1)
}

func TestNonAnnotatedMembersIgnored(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Foo {
    @Instantiated let bar: Bar

    var title: String { "foo" }
    let cached: Int = 3

    public func refresh() -> Bool {
        return true
    }
}
`)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Instantiables[0].Dependencies, 1)
}

func TestDiagnosticsCarrySpans(t *testing.T) {
	result := parse(t, `
@Instantiable
public struct Foo {
    @Instantiated var bar: Bar
}
`)
	require.NotEmpty(t, result.Diagnostics)
	d := result.Diagnostics[0]
	require.NotNil(t, d.Span)
	assert.Equal(t, "test.swift", d.Span.Start.File)
	require.NotNil(t, d.Fix)
	assert.Equal(t, "let", d.Fix.Replacement)
}
