// Package bind fills a parameter struct's fields from a loosely typed
// key-value set.
//
// Each target declares its fields as an explicit, compile-time-known list;
// there is no reflection. Apply consumes the keys matching declared fields
// and returns the remaining keys to the caller, so several targets can bind
// from one configuration map in sequence.
package bind

import (
	"errors"
	"fmt"
	"math"
)

// TypeMismatchError indicates a matched key whose value cannot be converted
// to the field's declared type. The failure is fatal for the single
// construction call.
type TypeMismatchError struct {
	Field    string
	Expected string
	Value    any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: cannot convert %T to %s", e.Field, e.Value, e.Expected)
}

// Field declares one bindable field: its key name and the assignment that
// converts and stores a candidate value.
type Field struct {
	Name   string
	Assign func(value any) error
}

// Apply binds the keys of kv that match declared fields and returns the
// unmatched remainder. On a conversion failure it returns a
// TypeMismatchError and the target is not usable.
func Apply(kv map[string]any, fields []Field) (map[string]any, error) {
	remaining := make(map[string]any, len(kv))
	for k, v := range kv {
		remaining[k] = v
	}

	for _, f := range fields {
		v, ok := remaining[f.Name]
		if !ok {
			continue
		}
		if err := f.Assign(v); err != nil {
			var tm *TypeMismatchError
			if errors.As(err, &tm) && tm.Field == "" {
				tm.Field = f.Name
			}
			return nil, err
		}
		delete(remaining, f.Name)
	}
	return remaining, nil
}

// Bool assigns a boolean value.
func Bool(dst *bool) func(any) error {
	return func(v any) error {
		b, ok := v.(bool)
		if !ok {
			return &TypeMismatchError{Expected: "bool", Value: v}
		}
		*dst = b
		return nil
	}
}

// Float assigns a float value. Integer input widens.
func Float(dst *float64) func(any) error {
	return func(v any) error {
		f, ok := toFloat(v)
		if !ok {
			return &TypeMismatchError{Expected: "float", Value: v}
		}
		*dst = f
		return nil
	}
}

// Int assigns an integer value. Float input is accepted only when it is an
// exact integer (JSON decoders deliver all numbers as floats).
func Int(dst *int64) func(any) error {
	return func(v any) error {
		i, ok := toInt(v)
		if !ok {
			return &TypeMismatchError{Expected: "int", Value: v}
		}
		*dst = i
		return nil
	}
}

// Uint assigns a non-negative integer value.
func Uint(dst *uint) func(any) error {
	return func(v any) error {
		i, ok := toInt(v)
		if !ok || i < 0 {
			return &TypeMismatchError{Expected: "uint", Value: v}
		}
		*dst = uint(i)
		return nil
	}
}

// Floats assigns a float-sequence value.
func Floats(dst *[]float64) func(any) error {
	return func(v any) error {
		switch vs := v.(type) {
		case []float64:
			out := make([]float64, len(vs))
			copy(out, vs)
			*dst = out
			return nil
		case []any:
			out := make([]float64, len(vs))
			for i, e := range vs {
				f, ok := toFloat(e)
				if !ok {
					return &TypeMismatchError{Expected: "floats", Value: v}
				}
				out[i] = f
			}
			*dst = out
			return nil
		default:
			return &TypeMismatchError{Expected: "floats", Value: v}
		}
	}
}

// String assigns a string value.
func String(dst *string) func(any) error {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return &TypeMismatchError{Expected: "string", Value: v}
		}
		*dst = s
		return nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
