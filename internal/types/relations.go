package types

// AssignableTo reports whether every value of static type s is also a value
// of type t, i.e. whether a type test of s against t is statically true for
// non-null values. A nullable target accepts its underlying type.
func AssignableTo(s, t *Type) bool {
	if s == nil || t == nil {
		return false
	}
	if s == t {
		return true
	}
	if t.Kind == KindNullable {
		return AssignableTo(s.Underlying(), t.Elem)
	}
	if s.Kind == KindPointer || t.Kind == KindPointer {
		return false
	}
	if t.Kind == KindObject {
		return !s.ByRefLike
	}
	if s.Kind == KindNullable {
		return false
	}
	for cur := s; cur != nil; cur = cur.Base {
		if cur == t {
			return true
		}
		if implements(cur, t, map[*Type]bool{}) {
			return true
		}
	}
	return false
}

func implements(t, iface *Type, seen map[*Type]bool) bool {
	for _, i := range t.Interfaces {
		if seen[i] {
			continue
		}
		seen[i] = true
		if i == iface || implements(i, iface, seen) {
			return true
		}
	}
	return false
}

// isLeaf reports whether no runtime type other than t itself can be
// assigned to t.
func isLeaf(t *Type) bool {
	switch t.Kind {
	case KindBool, KindChar, KindInt, KindFloat, KindString, KindEnum,
		KindTuple, KindStruct, KindArray, KindPointer:
		return true
	case KindClass:
		return t.Sealed
	}
	return false
}

// Disjoint reports whether no non-null runtime value can be an instance of
// both a and b.
func Disjoint(a, b *Type) bool {
	a, b = a.Underlying(), b.Underlying()
	if AssignableTo(a, b) || AssignableTo(b, a) {
		return false
	}
	if a.Kind == KindObject || b.Kind == KindObject {
		return false
	}
	if isLeaf(a) || isLeaf(b) {
		return true
	}
	// Single inheritance: two unrelated classes share no instance.
	if a.Kind == KindClass && b.Kind == KindClass {
		return true
	}
	return false
}

// Identical reports type identity.
func Identical(a, b *Type) bool {
	return a == b
}
