package ir

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface representing constant and runtime values.
// Only IRNull, IRBool, IRInt, IRFloat, IRChar, IRString, IRTuple, IRArray,
// IRRecord and IRTyped implement this.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents the null reference.
type IRNull struct{}

func (IRNull) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRInt represents any integral value, including enum underlying values.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a floating-point value. NaN is a legal value.
type IRFloat float64

func (IRFloat) irValue() {}

// IRChar represents a UTF-16 code unit value.
type IRChar rune

func (IRChar) irValue() {}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRTuple represents a positional tuple value.
type IRTuple []IRValue

func (IRTuple) irValue() {}

// IRArray represents a sequence value usable by list patterns.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRRecord represents an instance of a named class or struct type.
// Fields are read by property patterns and deconstruction.
type IRRecord struct {
	Type   string
	Fields map[string]IRValue
}

func (IRRecord) irValue() {}

// IRTyped attaches an explicit runtime type to a value, e.g. a boxed long,
// an enum member, or an int[] whose elements alone do not determine it.
type IRTyped struct {
	Type  string
	Value IRValue
}

func (IRTyped) irValue() {}

// RelOp is a comparison operator used by constant and relational tests.
type RelOp uint8

const (
	OpEq RelOp = iota
	OpLt
	OpLe
	OpGt
	OpGe
)

// String returns the operator as written in pattern syntax.
func (op RelOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// ParseRelOp parses a relational operator.
func ParseRelOp(s string) (RelOp, error) {
	switch strings.TrimSpace(s) {
	case "==", "=":
		return OpEq, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	default:
		return OpEq, fmt.Errorf("unknown relational operator %q", s)
	}
}

// Unwrap strips IRTyped wrappers.
func Unwrap(v IRValue) IRValue {
	for {
		t, ok := v.(IRTyped)
		if !ok {
			return v
		}
		v = t.Value
	}
}

// IsNull reports whether v is the null reference.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := Unwrap(v).(IRNull)
	return ok
}

// IsNaN reports whether v is a floating-point NaN.
func IsNaN(v IRValue) bool {
	f, ok := Unwrap(v).(IRFloat)
	return ok && math.IsNaN(float64(f))
}

// Equal reports structural equality. NaN equals NaN here; this is identity
// of values, not the language's == operator.
func Equal(a, b IRValue) bool {
	a, b = Unwrap(a), Unwrap(b)
	switch x := a.(type) {
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRBool:
		y, ok := b.(IRBool)
		return ok && x == y
	case IRInt:
		switch y := b.(type) {
		case IRInt:
			return x == y
		case IRChar:
			return int64(x) == int64(y)
		}
		return false
	case IRChar:
		switch y := b.(type) {
		case IRChar:
			return x == y
		case IRInt:
			return int64(x) == int64(y)
		}
		return false
	case IRFloat:
		y, ok := b.(IRFloat)
		if !ok {
			return false
		}
		if math.IsNaN(float64(x)) {
			return math.IsNaN(float64(y))
		}
		return x == y
	case IRString:
		y, ok := b.(IRString)
		return ok && x == y
	case IRTuple:
		y, ok := b.(IRTuple)
		return ok && slices.EqualFunc(x, y, Equal)
	case IRArray:
		y, ok := b.(IRArray)
		return ok && slices.EqualFunc(x, y, Equal)
	case IRRecord:
		y, ok := b.(IRRecord)
		if !ok || x.Type != y.Type || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, v := range x.Fields {
			w, ok := y.Fields[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Format renders a value the way it would be written in a pattern.
func Format(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return "null"
	case IRBool:
		if val {
			return "true"
		}
		return "false"
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRFloat:
		return FormatFloat(float64(val))
	case IRChar:
		return strconv.QuoteRune(rune(val))
	case IRString:
		return strconv.Quote(string(val))
	case IRTuple:
		return "(" + joinValues(val) + ")"
	case IRArray:
		return "[" + joinValues(val) + "]"
	case IRRecord:
		if len(val.Fields) == 0 {
			return val.Type + " { }"
		}
		keys := SortedFieldNames(val.Fields)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + Format(val.Fields[k])
		}
		return val.Type + " { " + strings.Join(parts, ", ") + " }"
	case IRTyped:
		return Format(val.Value)
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

// FormatFloat renders a float with the language's spelling of special values.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "double.NaN"
	case math.IsInf(f, 1):
		return "double.PositiveInfinity"
	case math.IsInf(f, -1):
		return "double.NegativeInfinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func joinValues(vals []IRValue) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = Format(v)
	}
	return strings.Join(parts, ", ")
}

// SortedFieldNames returns record field names in RFC 8785 order
// (UTF-16 code units), matching canonical JSON.
func SortedFieldNames(fields map[string]IRValue) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}
