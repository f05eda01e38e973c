package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedi/safedi-go/internal/typedesc"
)

func prop(label, typeSrc string) Property {
	return Property{Label: label, TypeDescription: typedesc.Describe(typedesc.MustParse(typeSrc))}
}

func TestVariantDerivation(t *testing.T) {
	tests := []struct {
		typeSrc string
		want    Variant
	}{
		{"Boiler", VariantConstant},
		{"[Instantiator<Foo>]", VariantConstant},
		{"Instantiator<NoteView>", VariantInstantiator},
		{"Instantiator<NoteView>?", VariantInstantiator},
		{"ErasedInstantiator<Void, Foo>", VariantErasedInstantiator},
		{"SendableInstantiator<Foo>", VariantSendableInstantiator},
		{"SendableErasedInstantiator<Void, Foo>", VariantSendableErasedInstantiator},
	}
	for _, tt := range tests {
		got := prop("p", tt.typeSrc).Variant()
		assert.Equal(t, tt.want, got, tt.typeSrc)
	}

	assert.True(t, VariantErasedInstantiator.IsErased())
	assert.True(t, VariantSendableErasedInstantiator.IsDeferred())
	assert.False(t, VariantConstant.IsDeferred())
}

func TestInstantiatedType(t *testing.T) {
	assert.Equal(t, "NoteView", prop("p", "Instantiator<NoteView>").InstantiatedType().String())
	assert.Equal(t, "NoteView", prop("p", "ErasedInstantiator<Void, NoteView>").InstantiatedType().String())
	assert.Equal(t, "Boiler", prop("p", "Boiler?").InstantiatedType().String())
}

func TestDependencyResolutionType(t *testing.T) {
	dep := Dependency{Property: prop("svc", "any UserService"), Source: SourceInstantiated}
	ref := typedesc.Describe(typedesc.MustParse("DefaultUserService"))
	dep.FulfillingType = &ref
	assert.Equal(t, "DefaultUserService", dep.ResolutionType().String())

	plain := Dependency{Property: prop("boiler", "Boiler?"), Source: SourceInstantiated}
	assert.Equal(t, "Boiler", plain.ResolutionType().String())
}

func TestSourceJSON(t *testing.T) {
	for _, src := range []Source{SourceInstantiated, SourceReceived, SourceForwarded, SourceAliased} {
		data, err := json.Marshal(src)
		require.NoError(t, err)
		var decoded Source
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, src, decoded)
	}

	var bad Source
	assert.Error(t, json.Unmarshal([]byte(`"constructed"`), &bad))
}

func TestInitializerCanFulfill(t *testing.T) {
	deps := []Dependency{
		{Property: prop("boiler", "Boiler"), Source: SourceInstantiated},
		{Property: prop("shared", "Shared"), Source: SourceReceived},
	}

	valid := &Initializer{Arguments: []Argument{
		{InnerLabel: "boiler", TypeDescription: typedesc.Describe(typedesc.MustParse("Boiler"))},
		{InnerLabel: "shared", TypeDescription: typedesc.Describe(typedesc.MustParse("Shared"))},
		{InnerLabel: "timeout", TypeDescription: typedesc.Describe(typedesc.MustParse("Int")), HasDefault: true},
	}}
	assert.True(t, valid.CanFulfill(deps))

	missing := &Initializer{Arguments: []Argument{
		{InnerLabel: "boiler", TypeDescription: typedesc.Describe(typedesc.MustParse("Boiler"))},
	}}
	assert.False(t, missing.CanFulfill(deps))

	wrongType := &Initializer{Arguments: []Argument{
		{InnerLabel: "boiler", TypeDescription: typedesc.Describe(typedesc.MustParse("Kettle"))},
		{InnerLabel: "shared", TypeDescription: typedesc.Describe(typedesc.MustParse("Shared"))},
	}}
	assert.False(t, wrongType.CanFulfill(deps))

	extraRequired := &Initializer{Arguments: []Argument{
		{InnerLabel: "boiler", TypeDescription: typedesc.Describe(typedesc.MustParse("Boiler"))},
		{InnerLabel: "shared", TypeDescription: typedesc.Describe(typedesc.MustParse("Shared"))},
		{InnerLabel: "timeout", TypeDescription: typedesc.Describe(typedesc.MustParse("Int"))},
	}}
	assert.False(t, extraRequired.CanFulfill(deps))
}

func TestSynthesizeInitializer(t *testing.T) {
	deps := []Dependency{
		{Property: prop("zebra", "Zebra"), Source: SourceInstantiated},
		{Property: prop("apple", "Apple"), Source: SourceReceived},
	}
	ini := SynthesizeInitializer(deps)
	require.Len(t, ini.Arguments, 2)
	assert.Equal(t, "apple", ini.Arguments[0].InnerLabel)
	assert.Equal(t, "zebra", ini.Arguments[1].InnerLabel)
	assert.True(t, ini.IsSynthesized)
	assert.True(t, ini.CanFulfill(deps))
}

func TestForwardedProperties(t *testing.T) {
	inst := &Instantiable{
		ConcreteType: typedesc.Describe(typedesc.MustParse("NoteView")),
		Dependencies: []Dependency{
			{Property: prop("userName", "String"), Source: SourceForwarded},
			{Property: prop("storage", "StringStorage"), Source: SourceReceived},
		},
	}
	forwarded := inst.ForwardedProperties()
	require.Len(t, forwarded, 1)
	assert.Equal(t, "userName", forwarded[0].Label)
}

func TestImportRender(t *testing.T) {
	assert.Equal(t, "import Foundation", ImportStatement{ModuleName: "Foundation"}.Render())
	assert.Equal(t, "import struct Foundation.URL",
		ImportStatement{Kind: "struct", ModuleName: "Foundation", Submodule: "URL"}.Render())
	assert.Equal(t, "@testable import SafeDI",
		ImportStatement{Attributes: []string{"testable"}, ModuleName: "SafeDI"}.Render())
}

func TestDeduplicateImports(t *testing.T) {
	imports := []ImportStatement{
		{ModuleName: "Foundation"},
		{ModuleName: "UIKit"},
		{ModuleName: "Foundation"},
	}
	deduped := DeduplicateImports(imports)
	require.Len(t, deduped, 2)
	assert.Equal(t, "Foundation", deduped[0].ModuleName)
	assert.Equal(t, "UIKit", deduped[1].ModuleName)
}

func TestFulfilledTypes(t *testing.T) {
	inst := &Instantiable{
		ConcreteType: typedesc.Describe(typedesc.MustParse("DefaultUserService")),
		AdditionalTypesFulfilled: []typedesc.Ref{
			typedesc.Describe(typedesc.MustParse("UserService")),
		},
	}
	types := inst.FulfilledTypes()
	require.Len(t, types, 2)
	assert.Equal(t, "DefaultUserService", types[0].String())
	assert.Equal(t, "UserService", types[1].String())
}
