package types

import (
	"fmt"
	"strings"
)

// Universe is the registry of named and constructed types. It also serves
// as the symbol oracle consulted during graph construction.
//
// A Universe is not safe for concurrent mutation. Once all types are
// defined it may be shared read-only, except that constructed types
// (tuples, arrays, nullables) are cached lazily; callers sharing a
// Universe across goroutines must construct those types up front.
type Universe struct {
	byName map[string]*Type
	order  []*Type

	Object *Type
	Bool   *Type
	Char   *Type
	Int    *Type
	Long   *Type
	Double *Type
	Float  *Type
	String *Type
	ITuple *Type
}

// NewUniverse returns a universe populated with the builtin types.
func NewUniverse() *Universe {
	u := &Universe{byName: map[string]*Type{}}

	u.Object = u.builtin(&Type{Name: "object", Kind: KindObject})
	u.Bool = u.builtin(&Type{Name: "bool", Kind: KindBool})
	u.Char = u.builtin(&Type{Name: "char", Kind: KindChar, Bits: 16, Unsigned: true})
	for _, spec := range []struct {
		name     string
		bits     int
		unsigned bool
	}{
		{"sbyte", 8, false},
		{"byte", 8, true},
		{"short", 16, false},
		{"ushort", 16, true},
		{"int", 32, false},
		{"uint", 32, true},
		{"long", 64, false},
		{"ulong", 64, true},
	} {
		u.builtin(&Type{Name: spec.name, Kind: KindInt, Bits: spec.bits, Unsigned: spec.unsigned})
	}
	u.Int = u.byName["int"]
	u.Long = u.byName["long"]
	u.Float = u.builtin(&Type{Name: "float", Kind: KindFloat, Bits: 32})
	u.Double = u.builtin(&Type{Name: "double", Kind: KindFloat, Bits: 64})

	u.ITuple = u.builtin(&Type{Name: "ITuple", Kind: KindInterface})
	u.ITuple.Members = []Member{{Name: "Length", Type: u.Int}}

	u.String = u.builtin(&Type{Name: "string", Kind: KindString, Sealed: true})
	u.String.Members = []Member{{Name: "Length", Type: u.Int}}
	u.String.List = &ListShape{LengthMember: "Length", Elem: u.Char, Slice: u.String}

	for _, t := range u.order {
		if t.Kind != KindObject {
			t.Base = u.Object
		}
	}
	return u
}

func (u *Universe) builtin(t *Type) *Type {
	u.byName[t.Name] = t
	u.order = append(u.order, t)
	return t
}

// Define registers a named type. Classes and structs without an explicit
// base derive from object.
func (u *Universe) Define(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("type must have a name")
	}
	if _, exists := u.byName[t.Name]; exists {
		return fmt.Errorf("type %q already defined", t.Name)
	}
	if strings.ContainsAny(t.Name, "?[]()*, ") {
		return fmt.Errorf("type name %q contains reserved characters", t.Name)
	}
	if t.Base == nil && t.Kind != KindInterface {
		t.Base = u.Object
	}
	if t.Kind == KindEnum && t.Elem == nil {
		t.Elem = u.Int
	}
	if t.Kind == KindStruct || t.Kind == KindEnum {
		t.Sealed = true
	}
	for i := range t.Deconstructors {
		if t.Deconstructors[i].Owner == nil {
			t.Deconstructors[i].Owner = t
		}
	}
	u.byName[t.Name] = t
	u.order = append(u.order, t)
	return nil
}

// Types returns all registered types in definition order, builtins first.
func (u *Universe) Types() []*Type {
	out := make([]*Type, len(u.order))
	copy(out, u.order)
	return out
}

// Lookup resolves a type name. Besides plain names it understands the
// constructed forms T?, T[], *T and (A, B, ...).
func (u *Universe) Lookup(name string) (*Type, error) {
	name = strings.TrimSpace(name)
	if t, ok := u.byName[name]; ok {
		return t, nil
	}
	switch {
	case name == "":
		return nil, fmt.Errorf("empty type name")
	case strings.HasSuffix(name, "?"):
		inner, err := u.Lookup(strings.TrimSuffix(name, "?"))
		if err != nil {
			return nil, err
		}
		return u.Nullable(inner), nil
	case strings.HasSuffix(name, "[]"):
		inner, err := u.Lookup(strings.TrimSuffix(name, "[]"))
		if err != nil {
			return nil, err
		}
		return u.Array(inner), nil
	case strings.HasPrefix(name, "*"):
		inner, err := u.Lookup(strings.TrimPrefix(name, "*"))
		if err != nil {
			return nil, err
		}
		return u.Pointer(inner), nil
	case strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")"):
		parts, err := splitTupleElems(name[1 : len(name)-1])
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		elems := make([]*Type, len(parts))
		for i, p := range parts {
			t, err := u.Lookup(p)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return u.Tuple(elems...), nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

// MustLookup is like Lookup but panics on error.
// Use only in tests or with builtin names.
func (u *Universe) MustLookup(name string) *Type {
	t, err := u.Lookup(name)
	if err != nil {
		panic(err)
	}
	return t
}

func splitTupleElems(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	if len(parts) < 2 {
		return nil, fmt.Errorf("tuples need at least two elements")
	}
	return parts, nil
}

// Nullable returns T? for a value type T. Reference types are returned
// unchanged; nullability of references is not part of the type identity.
func (u *Universe) Nullable(t *Type) *Type {
	if t.CanBeNull() {
		return t
	}
	name := t.Name + "?"
	if cached, ok := u.byName[name]; ok {
		return cached
	}
	n := &Type{Name: name, Kind: KindNullable, Elem: t, Base: u.Object}
	u.byName[name] = n
	return n
}

// Array returns T[].
func (u *Universe) Array(t *Type) *Type {
	name := t.Name + "[]"
	if cached, ok := u.byName[name]; ok {
		return cached
	}
	a := &Type{Name: name, Kind: KindArray, Elem: t, Base: u.Object, Sealed: true}
	a.Members = []Member{{Name: "Length", Type: u.Int}}
	a.List = &ListShape{LengthMember: "Length", Elem: t, Slice: a}
	u.byName[name] = a
	return a
}

// Pointer returns *T.
func (u *Universe) Pointer(t *Type) *Type {
	name := "*" + t.Name
	if cached, ok := u.byName[name]; ok {
		return cached
	}
	p := &Type{Name: name, Kind: KindPointer, Elem: t, Sealed: true}
	u.byName[name] = p
	return p
}

// Tuple returns the value tuple type with the given element types.
func (u *Universe) Tuple(elems ...*Type) *Type {
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = e.Name
	}
	name := "(" + strings.Join(names, ", ") + ")"
	if cached, ok := u.byName[name]; ok {
		return cached
	}
	t := &Type{
		Name:       name,
		Kind:       KindTuple,
		Elems:      append([]*Type(nil), elems...),
		Base:       u.Object,
		Interfaces: []*Type{u.ITuple},
		Sealed:     true,
	}
	for i, e := range elems {
		t.Members = append(t.Members, Member{Name: TupleItemName(i), Type: e})
	}
	u.byName[name] = t
	return t
}

// TupleItemName returns the member name of the i-th (0-based) tuple element.
func TupleItemName(i int) string {
	return fmt.Sprintf("Item%d", i+1)
}
