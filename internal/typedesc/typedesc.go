// Package typedesc provides the canonical representation of Swift type
// references. Every type the tool reads — declared property types, generic
// arguments, annotation string literals — is normalized into a Description
// whose String form round-trips through Parse.
package typedesc

import (
	"fmt"
	"sort"
	"strings"
)

// Description is the canonical representation of a type reference.
// Descriptions are immutable values; equality is structural and the String
// rendering is injective, so two descriptions are equal iff their canonical
// strings are equal.
type Description interface {
	fmt.Stringer
	description()
}

// Simple represents a plain type reference with optional generic arguments,
// e.g. "Int" or "Instantiator<NoteView>".
type Simple struct {
	Name        string
	GenericArgs []Description
}

func (s *Simple) String() string {
	return s.Name + renderGenerics(s.GenericArgs)
}
func (s *Simple) description() {}

// Nested represents a member type reference, e.g. "Foo.Bar<Int>".
type Nested struct {
	Parent      Description
	Name        string
	GenericArgs []Description
}

func (n *Nested) String() string {
	return n.Parent.String() + "." + n.Name + renderGenerics(n.GenericArgs)
}
func (n *Nested) description() {}

// Composed represents a protocol composition, e.g. "Codable & Sendable".
type Composed struct {
	Elements []Description
}

func (c *Composed) String() string {
	parts := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " & ")
}
func (c *Composed) description() {}

// TupleElement is one element of a tuple type, optionally labeled.
type TupleElement struct {
	Label string // empty when unlabeled
	Type  Description
}

func (e TupleElement) String() string {
	if e.Label != "" {
		return e.Label + ": " + e.Type.String()
	}
	return e.Type.String()
}

// Tuple represents a tuple type, e.g. "(userName: String, userID: Int)".
type Tuple struct {
	Elements []TupleElement
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *Tuple) description() {}

// Closure represents a function type, e.g. "(String) async throws -> Void".
type Closure struct {
	Params  []Description
	IsAsync bool
	Throws  bool
	Return  Description
}

func (c *Closure) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.String()
	}
	var b strings.Builder
	b.WriteString("(" + strings.Join(params, ", ") + ")")
	if c.IsAsync {
		b.WriteString(" async")
	}
	if c.Throws {
		b.WriteString(" throws")
	}
	b.WriteString(" -> " + c.Return.String())
	return b.String()
}
func (c *Closure) description() {}

// Optional represents "T?".
type Optional struct {
	Wrapped Description
}

func (o *Optional) String() string {
	return wrapIfCompound(o.Wrapped) + "?"
}
func (o *Optional) description() {}

// ImplicitlyUnwrappedOptional represents "T!".
type ImplicitlyUnwrappedOptional struct {
	Wrapped Description
}

func (o *ImplicitlyUnwrappedOptional) String() string {
	return wrapIfCompound(o.Wrapped) + "!"
}
func (o *ImplicitlyUnwrappedOptional) description() {}

// Array represents "[T]".
type Array struct {
	Element Description
}

func (a *Array) String() string {
	return "[" + a.Element.String() + "]"
}
func (a *Array) description() {}

// Dictionary represents "[K: V]".
type Dictionary struct {
	Key   Description
	Value Description
}

func (d *Dictionary) String() string {
	return "[" + d.Key.String() + ": " + d.Value.String() + "]"
}
func (d *Dictionary) description() {}

// Metatype represents "T.Type".
type Metatype struct {
	Base Description
}

func (m *Metatype) String() string {
	return m.Base.String() + ".Type"
}
func (m *Metatype) description() {}

// Attributed represents a type with leading attributes,
// e.g. "@Sendable (String) -> Void".
type Attributed struct {
	Attributes []string // attribute names without the leading '@'
	Base       Description
}

func (a *Attributed) String() string {
	parts := make([]string, 0, len(a.Attributes)+1)
	for _, attr := range a.Attributes {
		parts = append(parts, "@"+attr)
	}
	parts = append(parts, a.Base.String())
	return strings.Join(parts, " ")
}
func (a *Attributed) description() {}

// Existential represents "some P" or "any P".
type Existential struct {
	Spelling   string // "some" or "any"
	Constraint Description
}

func (e *Existential) String() string {
	return e.Spelling + " " + e.Constraint.String()
}
func (e *Existential) description() {}

// Void represents the empty tuple type. Both "Void" and "()" normalize
// to this node.
type Void struct{}

func (v *Void) String() string { return "Void" }
func (v *Void) description()   {}

// Unknown carries a type reference the parser could not interpret. The raw
// text is preserved so the reference survives a codec round trip.
type Unknown struct {
	Text string
}

func (u *Unknown) String() string { return u.Text }
func (u *Unknown) description() {}

// renderGenerics renders "<A, B>" or "" for empty argument lists.
func renderGenerics(args []Description) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// wrapIfCompound parenthesizes closure, composed, attributed, and
// existential types so a trailing ? or ! binds to the whole type.
func wrapIfCompound(d Description) string {
	switch d.(type) {
	case *Closure, *Composed, *Attributed, *Existential:
		return "(" + d.String() + ")"
	}
	return d.String()
}

// Equal reports whether two descriptions are structurally equal.
func Equal(a, b Description) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// Unwrapped strips optional and implicitly-unwrapped-optional wrapping,
// returning the underlying type. An @Instantiated property declared with an
// optional type is resolved against this base.
func Unwrapped(d Description) Description {
	for {
		switch t := d.(type) {
		case *Optional:
			d = t.Wrapped
		case *ImplicitlyUnwrappedOptional:
			d = t.Wrapped
		default:
			return d
		}
	}
}

// StripAttributes removes any Attributed wrapper, returning the base type
// and the removed attribute names.
func StripAttributes(d Description) (Description, []string) {
	if a, ok := d.(*Attributed); ok {
		base, inner := StripAttributes(a.Base)
		return base, append(append([]string{}, a.Attributes...), inner...)
	}
	return d, nil
}

// Sort orders descriptions lexicographically by canonical string, in place.
// Emission iterates sorted slices so output is deterministic.
func Sort(ds []Description) {
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].String() < ds[j].String()
	})
}
