// Package artifact provides the .safedi module-artifact codec. The
// artifact is the interface between modules: two ordered lists, imports
// and instantiables, and nothing else — no source spans, no diagnostics.
package artifact

import (
	"fmt"
	"strings"

	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/model"
)

// SchemaV1 is the current module-artifact schema version.
const SchemaV1 = "safedi.module/v1"

// Extension is the required file extension for module artifacts.
const Extension = ".safedi"

// Document is the on-disk artifact shape.
type Document struct {
	Schema        string                  `json:"schema"`
	Imports       []model.ImportStatement `json:"imports"`
	Instantiables []*model.Instantiable   `json:"instantiables"`
}

// Accepts checks if a schema version is compatible with the expected
// version. Sub-versions within the same major version are accepted, so a
// newer writer's artifact still decodes (unknown fields are ignored).
func Accepts(got, wantPrefix string) bool {
	if got == wantPrefix {
		return true
	}
	return strings.HasPrefix(got, wantPrefix+".")
}

// Encode serializes a module's info deterministically: stable field order,
// sorted object keys, no HTML escaping.
func Encode(info model.ModuleInfo) ([]byte, error) {
	doc := Document{
		Schema:        SchemaV1,
		Imports:       info.Imports,
		Instantiables: info.Instantiables,
	}
	if doc.Imports == nil {
		doc.Imports = []model.ImportStatement{}
	}
	if doc.Instantiables == nil {
		doc.Instantiables = []*model.Instantiable{}
	}
	data, err := MarshalDeterministic(doc)
	if err != nil {
		return nil, fmt.Errorf("encode module artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode deserializes a module artifact, preserving the order of imports
// and instantiables. Unknown fields are ignored for forward compatibility.
func Decode(data []byte) (model.ModuleInfo, error) {
	var doc Document
	if err := unmarshalStrictSchema(data, &doc); err != nil {
		return model.ModuleInfo{}, err
	}
	if doc.Schema != "" && !Accepts(doc.Schema, SchemaV1) {
		return model.ModuleInfo{}, errors.WrapReport(
			errors.Newf(errors.IO003, "unsupported module artifact schema %q, want %q", doc.Schema, SchemaV1))
	}
	return model.ModuleInfo{
		Imports:       doc.Imports,
		Instantiables: doc.Instantiables,
	}, nil
}
