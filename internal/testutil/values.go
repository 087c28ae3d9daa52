package testutil

import (
	"github.com/roach88/matchdag/internal/ir"
)

// Point builds a Point record.
func Point(x, y int64) ir.IRValue {
	return ir.IRRecord{Type: "Point", Fields: map[string]ir.IRValue{"X": ir.IRInt(x), "Y": ir.IRInt(y)}}
}

// S builds an S record.
func S(p1, p2 int64) ir.IRValue {
	return ir.IRRecord{Type: "S", Fields: map[string]ir.IRValue{"Prop1": ir.IRInt(p1), "Prop2": ir.IRInt(p2)}}
}

// Color builds a typed Color enum value.
func Color(v int64) ir.IRValue {
	return ir.IRTyped{Type: "Color", Value: ir.IRInt(v)}
}

// Ints builds an int[] value.
func Ints(vals ...int64) ir.IRValue {
	arr := make(ir.IRArray, len(vals))
	for i, v := range vals {
		arr[i] = ir.IRInt(v)
	}
	return ir.IRTyped{Type: "int[]", Value: arr}
}

// Tuple builds a tuple value.
func Tuple(vals ...ir.IRValue) ir.IRValue {
	return ir.IRTuple(vals)
}
