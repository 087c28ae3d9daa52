package types

import (
	"fmt"
	"strings"
)

// Kind classifies a static type.
type Kind uint8

const (
	KindObject Kind = iota
	KindBool
	KindChar
	KindInt
	KindFloat
	KindString
	KindEnum
	KindNullable
	KindTuple
	KindClass
	KindStruct
	KindInterface
	KindArray
	KindPointer
)

var kindNames = [...]string{
	KindObject:    "object",
	KindBool:      "bool",
	KindChar:      "char",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindEnum:      "enum",
	KindNullable:  "nullable",
	KindTuple:     "tuple",
	KindClass:     "class",
	KindStruct:    "struct",
	KindInterface: "interface",
	KindArray:     "array",
	KindPointer:   "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses a user-declarable kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "class":
		return KindClass, nil
	case "struct":
		return KindStruct, nil
	case "interface":
		return KindInterface, nil
	case "enum":
		return KindEnum, nil
	default:
		return KindClass, fmt.Errorf("kind %q cannot be declared", s)
	}
}

// Type is a resolved static type. Types are compared by identity; the
// Universe caches constructed types so that equal names share one *Type.
type Type struct {
	Name string
	Kind Kind

	// Numeric layout for KindInt, KindChar and KindFloat.
	Bits     int
	Unsigned bool

	// Elem is the underlying type of a nullable, the element of an array,
	// the target of a pointer, and the underlying integral type of an enum.
	Elem *Type

	// Elems are the element types of a tuple.
	Elems []*Type

	Base       *Type
	Interfaces []*Type
	Sealed     bool
	ByRefLike  bool

	Members        []Member
	Deconstructors []Deconstructor
	EnumMembers    []EnumMember
	List           *ListShape
}

// Member is a readable property or field.
type Member struct {
	Name string
	Type *Type
}

// Param is one output parameter of a deconstruction member. Field names
// the member whose value the parameter receives at run time; it defaults
// to Name.
type Param struct {
	Name  string
	Type  *Type
	Field string
}

// Deconstructor is a callable deconstruction member.
type Deconstructor struct {
	Owner     *Type
	Params    []Param
	Extension bool
}

// Arity returns the number of output parameters.
func (d *Deconstructor) Arity() int { return len(d.Params) }

// String renders the signature, e.g. Point.Deconstruct(out int X, out int Y).
func (d *Deconstructor) String() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		parts[i] = "out " + p.Type.Name + " " + p.Name
	}
	owner := "?"
	if d.Owner != nil {
		owner = d.Owner.Name
	}
	prefix := ""
	if d.Extension {
		prefix = "extension "
	}
	return prefix + owner + ".Deconstruct(" + strings.Join(parts, ", ") + ")"
}

// EnumMember is a named enum constant.
type EnumMember struct {
	Name  string
	Value int64
}

// ListShape describes how list patterns read a type: a length member, an
// integer indexer yielding Elem, and optionally a range indexer yielding
// Slice.
type ListShape struct {
	LengthMember string
	Elem         *Type
	Slice        *Type
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Underlying strips one level of nullability.
func (t *Type) Underlying() *Type {
	if t != nil && t.Kind == KindNullable {
		return t.Elem
	}
	return t
}

// IsReference reports whether values of t are references.
func (t *Type) IsReference() bool {
	switch t.Kind {
	case KindObject, KindString, KindClass, KindInterface, KindArray:
		return true
	}
	return false
}

// CanBeNull reports whether a value statically typed t may be null.
func (t *Type) CanBeNull() bool {
	return t.IsReference() || t.Kind == KindNullable || t.Kind == KindPointer
}

// IsValueType reports whether t is a non-nullable value type.
func (t *Type) IsValueType() bool {
	return !t.CanBeNull()
}

// IsIntegral reports whether t is an integer type (char excluded).
func (t *Type) IsIntegral() bool { return t.Kind == KindInt }

// IsOrdered reports whether relational patterns apply to t.
func (t *Type) IsOrdered() bool {
	switch t.Kind {
	case KindInt, KindChar, KindFloat, KindEnum:
		return true
	}
	return false
}

// IsOpen reports whether values of t may have many runtime types.
func (t *Type) IsOpen() bool {
	switch t.Kind {
	case KindObject, KindInterface:
		return true
	case KindClass:
		return !t.Sealed
	}
	return false
}

// EnumMemberName returns the member name for an enum value.
func (t *Type) EnumMemberName(v int64) (string, bool) {
	for _, m := range t.EnumMembers {
		if m.Value == v {
			return m.Name, true
		}
	}
	return "", false
}

// EnumValue returns the value of a named enum member.
func (t *Type) EnumValue(name string) (int64, bool) {
	for _, m := range t.EnumMembers {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}
