// Package rt implements the run-time semantics patterns are defined against:
// the dynamic type of a value, member reads, deconstruction, indexing and
// ordered comparison with floating-point NaN rules.
//
// Graph walks, plan execution and the direct reference matcher all evaluate
// through this package, so they cannot disagree on what a value "is".
package rt

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

// ErrNullReference is returned when a member or element of null is read.
var ErrNullReference = errors.New("null reference")

// Runtime evaluates values against a type registry.
type Runtime struct {
	u *types.Universe
}

// New creates a runtime over a universe.
func New(u *types.Universe) *Runtime {
	return &Runtime{u: u}
}

// Universe returns the registry runtime types are resolved in.
func (r *Runtime) Universe() *types.Universe { return r.u }

// TypeOf returns the dynamic type of a non-null value.
func (r *Runtime) TypeOf(v ir.IRValue) (*types.Type, error) {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return nil, ErrNullReference
	case ir.IRTyped:
		if ir.IsNull(val.Value) {
			return nil, ErrNullReference
		}
		t, err := r.u.Lookup(val.Type)
		if err != nil {
			return nil, err
		}
		// A nullable wrapper boxes to its underlying type.
		return t.Underlying(), nil
	case ir.IRRecord:
		return r.u.Lookup(val.Type)
	case ir.IRBool:
		return r.u.Bool, nil
	case ir.IRInt:
		return r.u.Int, nil
	case ir.IRFloat:
		return r.u.Double, nil
	case ir.IRChar:
		return r.u.Char, nil
	case ir.IRString:
		return r.u.String, nil
	case ir.IRTuple:
		elems := make([]*types.Type, len(val))
		for i, e := range val {
			if ir.IsNull(e) {
				elems[i] = r.u.Object
				continue
			}
			et, err := r.TypeOf(e)
			if err != nil {
				return nil, err
			}
			elems[i] = et
		}
		return r.u.Tuple(elems...), nil
	case ir.IRArray:
		return r.u.Array(r.commonElemType(val)), nil
	default:
		return nil, fmt.Errorf("no runtime type for %T", v)
	}
}

func (r *Runtime) commonElemType(vals []ir.IRValue) *types.Type {
	var common *types.Type
	for _, v := range vals {
		if ir.IsNull(v) {
			return r.u.Object
		}
		t, err := r.TypeOf(v)
		if err != nil {
			return r.u.Object
		}
		if common == nil {
			common = t
		} else if common != t {
			return r.u.Object
		}
	}
	if common == nil {
		return r.u.Object
	}
	return common
}

// IsInstance reports whether v is a non-null instance of t.
func (r *Runtime) IsInstance(v ir.IRValue, t *types.Type) bool {
	if ir.IsNull(v) {
		return false
	}
	dyn, err := r.TypeOf(v)
	if err != nil {
		return false
	}
	return types.AssignableTo(dyn, t)
}

// Member reads a property or field. Strings and arrays expose Length;
// tuples expose Item1..ItemN.
func (r *Runtime) Member(v ir.IRValue, name string) (ir.IRValue, error) {
	if ir.IsNull(v) {
		return nil, fmt.Errorf("read %s: %w", name, ErrNullReference)
	}
	switch val := ir.Unwrap(v).(type) {
	case ir.IRRecord:
		f, ok := val.Fields[name]
		if !ok {
			return nil, fmt.Errorf("%s has no member %s", val.Type, name)
		}
		return f, nil
	case ir.IRTuple:
		var i int
		if _, err := fmt.Sscanf(name, "Item%d", &i); err == nil && i >= 1 && i <= len(val) {
			return val[i-1], nil
		}
		if name == "Length" {
			return ir.IRInt(len(val)), nil
		}
	case ir.IRString:
		if name == "Length" {
			return ir.IRInt(utf8.RuneCountInString(string(val))), nil
		}
	case ir.IRArray:
		if name == "Length" || name == "Count" {
			return ir.IRInt(len(val)), nil
		}
	}
	return nil, fmt.Errorf("%s has no member %s", ir.Format(v), name)
}

// Deconstruct calls a deconstruction member, reading each output from the
// member its parameter names.
func (r *Runtime) Deconstruct(v ir.IRValue, d *types.Deconstructor) ([]ir.IRValue, error) {
	out := make([]ir.IRValue, len(d.Params))
	for i, p := range d.Params {
		field := p.Field
		if field == "" {
			field = p.Name
		}
		val, err := r.Member(v, field)
		if err != nil {
			return nil, fmt.Errorf("deconstruct: %w", err)
		}
		out[i] = val
	}
	return out, nil
}

// Length returns the element count of a sequence or tuple.
func (r *Runtime) Length(v ir.IRValue) (int, error) {
	if ir.IsNull(v) {
		return 0, fmt.Errorf("length: %w", ErrNullReference)
	}
	switch val := ir.Unwrap(v).(type) {
	case ir.IRArray:
		return len(val), nil
	case ir.IRTuple:
		return len(val), nil
	case ir.IRString:
		return utf8.RuneCountInString(string(val)), nil
	}
	return 0, fmt.Errorf("%s has no length", ir.Format(v))
}

// Index reads element i, counted from the end when fromEnd is set (so
// fromEnd with i == 1 is the last element).
func (r *Runtime) Index(v ir.IRValue, i int, fromEnd bool) (ir.IRValue, error) {
	n, err := r.Length(v)
	if err != nil {
		return nil, err
	}
	if fromEnd {
		i = n - i
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, n)
	}
	switch val := ir.Unwrap(v).(type) {
	case ir.IRArray:
		return val[i], nil
	case ir.IRTuple:
		return val[i], nil
	case ir.IRString:
		return ir.IRChar([]rune(string(val))[i]), nil
	}
	return nil, fmt.Errorf("%s is not indexable", ir.Format(v))
}

// Slice returns the elements from start up to endOffset before the end.
func (r *Runtime) Slice(v ir.IRValue, start, endOffset int) (ir.IRValue, error) {
	n, err := r.Length(v)
	if err != nil {
		return nil, err
	}
	end := n - endOffset
	if start < 0 || end < start {
		return nil, fmt.Errorf("slice %d..^%d out of range for length %d", start, endOffset, n)
	}
	switch val := ir.Unwrap(v).(type) {
	case ir.IRArray:
		out := make(ir.IRArray, end-start)
		copy(out, val[start:end])
		if typed, ok := v.(ir.IRTyped); ok {
			return ir.IRTyped{Type: typed.Type, Value: out}, nil
		}
		return out, nil
	case ir.IRString:
		return ir.IRString(string([]rune(string(val))[start:end])), nil
	}
	return nil, fmt.Errorf("%s cannot be sliced", ir.Format(v))
}

// Compare evaluates "v op c". A NaN constant under == matches NaN; every
// ordered comparison involving NaN is false.
func Compare(v ir.IRValue, op ir.RelOp, c ir.IRValue) bool {
	v, c = ir.Unwrap(v), ir.Unwrap(c)
	switch cv := c.(type) {
	case ir.IRFloat:
		x, ok := asFloat(v)
		if !ok {
			return false
		}
		y := float64(cv)
		if math.IsNaN(x) || math.IsNaN(y) {
			return op == ir.OpEq && math.IsNaN(x) && math.IsNaN(y)
		}
		return compareOrdered(x, y, op)
	case ir.IRInt, ir.IRChar:
		x, ok := asInt(v)
		if !ok {
			return false
		}
		y, _ := asInt(c)
		return compareOrdered(x, y, op)
	case ir.IRString:
		x, ok := v.(ir.IRString)
		if !ok {
			return false
		}
		return compareOrdered(strings.Compare(string(x), string(cv)), 0, op)
	case ir.IRBool:
		x, ok := v.(ir.IRBool)
		return ok && op == ir.OpEq && x == cv
	}
	return false
}

func compareOrdered[T int | int64 | float64](x, y T, op ir.RelOp) bool {
	switch op {
	case ir.OpEq:
		return x == y
	case ir.OpLt:
		return x < y
	case ir.OpLe:
		return x <= y
	case ir.OpGt:
		return x > y
	case ir.OpGe:
		return x >= y
	}
	return false
}

func asInt(v ir.IRValue) (int64, bool) {
	switch val := v.(type) {
	case ir.IRInt:
		return int64(val), true
	case ir.IRChar:
		return int64(val), true
	}
	return 0, false
}

func asFloat(v ir.IRValue) (float64, bool) {
	switch val := v.(type) {
	case ir.IRFloat:
		return float64(val), true
	case ir.IRInt:
		return float64(val), true
	}
	return 0, false
}
