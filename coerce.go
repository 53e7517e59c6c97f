package parametric

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// Mode selects how aggressively raw values are converted.
type Mode uint8

const (
	// ModeStrict requires the raw value's runtime type to already match the
	// declared type family. Only exact or widening-safe conversions succeed.
	ModeStrict Mode = iota

	// ModeRelaxed additionally parses text-origin values: strings from CLI
	// flags, environment variables, and string-typed file scalars.
	ModeRelaxed
)

func (m Mode) String() string {
	if m == ModeRelaxed {
		return "relaxed"
	}
	return "strict"
}

// coerceValue converts a raw value to the canonical typed form for a node.
// It is a pure function: no shared state, no side effects on its inputs.
//
// Canonical stored forms: bool, int64, float64, string (String and Path),
// []byte, []any (tuples), EnumMember, NumericArray, *Instance (nested).
func coerceValue(path string, raw any, node *TypeNode, mode Mode) (any, error) {
	switch node.variant {
	case variantScalar:
		return coerceScalar(path, raw, node, mode)

	case variantOptional:
		if raw == nil {
			return nil, nil
		}
		if mode == ModeRelaxed {
			if s, ok := raw.(string); ok && s == "" {
				return nil, nil
			}
		}
		return coerceValue(path, raw, node.inner, mode)

	case variantUnion:
		alternatives := make([]error, 0, len(node.elems))
		for _, alt := range node.elems {
			v, err := coerceValue(path, raw, alt, mode)
			if err == nil {
				return v, nil
			}
			alternatives = append(alternatives, err)
		}
		return nil, &CoercionError{
			Path: path, Raw: raw, Node: node,
			Reason:       "no alternative matched",
			Alternatives: alternatives,
		}

	case variantLiteral:
		if n, ok := normalizeScalar(raw); ok {
			for _, lit := range node.literals {
				if scalarEqual(lit, n) {
					return lit, nil
				}
			}
			if mode == ModeRelaxed {
				if s, ok := raw.(string); ok {
					for _, lit := range node.literals {
						if renderScalar(lit) == s {
							return lit, nil
						}
					}
				}
			}
		}
		return nil, coercionErr(path, raw, node, "value is not one of the allowed literals")

	case variantEnum:
		// An already-constructed member is accepted unchanged, but only after
		// re-validation against the declared member set.
		if m, ok := raw.(EnumMember); ok {
			for _, mem := range node.members {
				if mem.Name == m.Name && scalarEqual(mem.Value, m.Value) {
					return mem, nil
				}
			}
			return nil, coercionErr(path, raw, node, "member %q is not in the declared set", m.Name)
		}
		if mode == ModeRelaxed {
			if s, ok := raw.(string); ok {
				for _, mem := range node.members {
					if mem.Name == s {
						return mem, nil
					}
				}
			}
		}
		if n, ok := normalizeScalar(raw); ok {
			for _, mem := range node.members {
				if scalarEqual(mem.Value, n) {
					return mem, nil
				}
			}
			if mode == ModeRelaxed {
				if s, ok := raw.(string); ok {
					for _, mem := range node.members {
						if renderScalar(mem.Value) == s {
							return mem, nil
						}
					}
				}
			}
		}
		return nil, coercionErr(path, raw, node, "value does not match any enum member")

	case variantTuple:
		seq, ok := asSequence(raw, mode)
		if !ok {
			return nil, coercionErr(path, raw, node, "expected a sequence")
		}
		if len(seq) != len(node.elems) {
			return nil, coercionErr(path, raw, node, "expected %d elements, got %d", len(node.elems), len(seq))
		}
		out := make([]any, len(seq))
		for i, elem := range seq {
			v, err := coerceValue(joinIndex(path, i), elem, node.elems[i], mode)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case variantVariadic:
		seq, ok := asSequence(raw, mode)
		if !ok {
			return nil, coercionErr(path, raw, node, "expected a sequence")
		}
		out := make([]any, len(seq))
		for i, elem := range seq {
			v, err := coerceValue(joinIndex(path, i), elem, node.inner, mode)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case variantNested:
		if inst, ok := raw.(*Instance); ok {
			if inst.schema == node.sub {
				return inst, nil
			}
			return nil, coercionErr(path, raw, node, "instance of a different schema")
		}
		if m, ok := rawAsStringMap(raw); ok {
			inst := NewInstance(node.sub)
			if err := inst.OverrideMap(m); err != nil {
				return nil, &CoercionError{
					Path: path, Raw: raw, Node: node,
					Reason: fmt.Sprintf("building nested instance: %v", err),
				}
			}
			return inst, nil
		}
		return nil, coercionErr(path, raw, node, "expected a mapping or an instance of the sub-schema")

	case variantArray:
		return coerceArray(path, raw, node, mode)

	default:
		return nil, coercionErr(path, raw, node, "unsupported type node")
	}
}

func coerceScalar(path string, raw any, node *TypeNode, mode Mode) (any, error) {
	switch node.kind {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		if mode == ModeRelaxed {
			if s, ok := raw.(string); ok {
				if b, err := strconv.ParseBool(s); err == nil {
					return b, nil
				}
			}
		}
		return nil, coercionErr(path, raw, node, "expected a boolean")

	case KindInt:
		if i, ok := rawToInt64(raw); ok {
			return i, nil
		}
		if n, ok := raw.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			if mode == ModeRelaxed {
				// integral float text ("3.0") is fine, fractional is not
				if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
					return int64(f), nil
				}
			}
			return nil, coercionErr(path, raw, node, "number is not an integer")
		}
		if mode == ModeRelaxed {
			if s, ok := raw.(string); ok {
				if i, err := strconv.ParseInt(s, 0, 64); err == nil {
					return i, nil
				}
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					if f == math.Trunc(f) {
						return int64(f), nil
					}
					return nil, coercionErr(path, raw, node, "fractional number text for an integer")
				}
			}
			if f, ok := rawToFloat64(raw); ok {
				return int64(f), nil
			}
		}
		return nil, coercionErr(path, raw, node, "expected an integer")

	case KindFloat:
		if f, ok := rawToFloat64(raw); ok {
			return f, nil
		}
		if i, ok := rawToInt64(raw); ok {
			return float64(i), nil // widening-safe
		}
		if n, ok := raw.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		}
		if mode == ModeRelaxed {
			if s, ok := raw.(string); ok {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					return f, nil
				}
			}
		}
		return nil, coercionErr(path, raw, node, "expected a float")

	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		if mode == ModeRelaxed {
			if b, ok := raw.([]byte); ok {
				return string(b), nil
			}
			if n, ok := raw.(json.Number); ok {
				return n.String(), nil
			}
			if n, ok := normalizeScalar(raw); ok {
				return renderScalar(n), nil
			}
		}
		return nil, coercionErr(path, raw, node, "expected a string")

	case KindBytes:
		if b, ok := raw.([]byte); ok {
			cp := make([]byte, len(b))
			copy(cp, b)
			return cp, nil
		}
		if mode == ModeRelaxed {
			if s, ok := raw.(string); ok {
				return []byte(s), nil
			}
		}
		return nil, coercionErr(path, raw, node, "expected bytes")

	case KindPath:
		if s, ok := raw.(string); ok {
			if s == "" {
				return "", nil
			}
			return filepath.Clean(s), nil
		}
		return nil, coercionErr(path, raw, node, "expected a path string")

	default:
		return nil, coercionErr(path, raw, node, "unsupported scalar kind")
	}
}

// rawToInt64 accepts every Go integer width, range-checked. Bools, floats,
// and strings are deliberately excluded.
func rawToInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	default:
		return 0, false
	}
}

func rawToFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// normalizeScalar maps a raw value onto one of the canonical scalar forms:
// bool, int64, float64, or string.
func normalizeScalar(raw any) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		return v, true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return nil, false
	}
	if i, ok := rawToInt64(raw); ok {
		return i, true
	}
	if f, ok := rawToFloat64(raw); ok {
		return f, true
	}
	return nil, false
}

// scalarEqual compares two scalars after normalization. Integer and float
// values compare numerically across types.
func scalarEqual(a, b any) bool {
	na, okA := normalizeScalar(a)
	nb, okB := normalizeScalar(b)
	if !okA || !okB {
		return false
	}
	if na == nb {
		return true
	}
	if ia, ok := na.(int64); ok {
		if fb, ok := nb.(float64); ok {
			return float64(ia) == fb
		}
	}
	if fa, ok := na.(float64); ok {
		if ib, ok := nb.(int64); ok {
			return fa == float64(ib)
		}
	}
	return false
}

// renderScalar is the text form used for relaxed literal and enum matching.
func renderScalar(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asSequence normalizes sequence-shaped raw values into []any. In relaxed
// mode a string is split on commas, the convention used for list-typed flags
// and environment values.
func asSequence(raw any, mode Mode) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []byte:
		return nil, false // bytes are a scalar, not a sequence
	case []any:
		return v, true
	case string:
		if mode != ModeRelaxed {
			return nil, false
		}
		if v == "" {
			return []any{}, true
		}
		parts := strings.Split(v, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
