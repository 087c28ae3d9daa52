package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ConvertToIRValue converts a decoded YAML/JSON/CUE value into an IRValue.
//
// Scalars map directly (integers to IRInt, non-integral numbers to IRFloat).
// Lists become IRArray. Maps must use one of the tagged forms:
//
//	{float: "NaN"}               IRFloat (also "+Inf", "-Inf", or a number)
//	{char: "a"}                  IRChar
//	{tuple: [1, 2]}              IRTuple
//	{type: T, fields: {...}}     IRRecord
//	{type: T, value: v}          IRTyped
func ConvertToIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return IRInt(int64(val)), nil
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) && math.Abs(val) < 1<<53 {
			return IRInt(int64(val)), nil
		}
		return IRFloat(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return IRInt(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return IRFloat(f), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := ConvertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		return convertTagged(val)
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func convertTagged(m map[string]any) (IRValue, error) {
	if raw, ok := m["float"]; ok {
		return ParseFloatValue(raw)
	}
	if raw, ok := m["char"]; ok {
		s, ok := raw.(string)
		if !ok || len([]rune(s)) != 1 {
			return nil, fmt.Errorf("char must be a one-character string, got %v", raw)
		}
		return IRChar([]rune(s)[0]), nil
	}
	if raw, ok := m["tuple"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("tuple must be a list, got %T", raw)
		}
		tup := make(IRTuple, len(items))
		for i, item := range items {
			v, err := ConvertToIRValue(item)
			if err != nil {
				return nil, fmt.Errorf("tuple[%d]: %w", i, err)
			}
			tup[i] = v
		}
		return tup, nil
	}
	typeName, hasType := m["type"].(string)
	if !hasType {
		return nil, fmt.Errorf("object values need a float, char, tuple or type key")
	}
	if raw, ok := m["value"]; ok {
		v, err := ConvertToIRValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%s value: %w", typeName, err)
		}
		return IRTyped{Type: typeName, Value: v}, nil
	}
	rec := IRRecord{Type: typeName, Fields: map[string]IRValue{}}
	if raw, ok := m["fields"]; ok {
		fields, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s fields must be a map, got %T", typeName, raw)
		}
		for k, f := range fields {
			v, err := ConvertToIRValue(f)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typeName, k, err)
			}
			rec.Fields[k] = v
		}
	}
	return rec, nil
}

// ParseFloatValue accepts a number or one of the strings NaN, +Inf, -Inf.
func ParseFloatValue(raw any) (IRValue, error) {
	switch f := raw.(type) {
	case float64:
		return IRFloat(f), nil
	case int:
		return IRFloat(float64(f)), nil
	case int64:
		return IRFloat(float64(f)), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "nan", "double.nan":
			return IRFloat(math.NaN()), nil
		case "+inf", "inf", "double.positiveinfinity":
			return IRFloat(math.Inf(1)), nil
		case "-inf", "double.negativeinfinity":
			return IRFloat(math.Inf(-1)), nil
		}
		var v float64
		if _, err := fmt.Sscanf(f, "%g", &v); err != nil {
			return nil, fmt.Errorf("invalid float %q", f)
		}
		return IRFloat(v), nil
	default:
		return nil, fmt.Errorf("invalid float %v", raw)
	}
}
