package parametric

// NumericArray is a fixed-kind numeric buffer. Arrays stored in an instance
// are always read-only; coercion shares an already read-only array of the
// declared kind by reference and copies everything else, so a frozen
// instance never exposes a handle an external owner could mutate.
type NumericArray struct {
	kind     Kind
	ints     []int64
	floats   []float64
	readonly bool
}

// Int64Array builds a read-only int array from a copy of data.
func Int64Array(data []int64) NumericArray {
	cp := make([]int64, len(data))
	copy(cp, data)
	return NumericArray{kind: KindInt, ints: cp, readonly: true}
}

// Float64Array builds a read-only float array from a copy of data.
func Float64Array(data []float64) NumericArray {
	cp := make([]float64, len(data))
	copy(cp, data)
	return NumericArray{kind: KindFloat, floats: cp, readonly: true}
}

// Kind returns the element kind, KindInt or KindFloat.
func (a NumericArray) Kind() Kind { return a.kind }

func (a NumericArray) Len() int {
	if a.kind == KindInt {
		return len(a.ints)
	}
	return len(a.floats)
}

// Int64s returns the elements as a fresh int64 slice, truncating floats.
func (a NumericArray) Int64s() []int64 {
	if a.kind == KindInt {
		cp := make([]int64, len(a.ints))
		copy(cp, a.ints)
		return cp
	}
	out := make([]int64, len(a.floats))
	for i, f := range a.floats {
		out[i] = int64(f)
	}
	return out
}

// Float64s returns the elements as a fresh float64 slice.
func (a NumericArray) Float64s() []float64 {
	if a.kind == KindFloat {
		cp := make([]float64, len(a.floats))
		copy(cp, a.floats)
		return cp
	}
	out := make([]float64, len(a.ints))
	for i, v := range a.ints {
		out[i] = float64(v)
	}
	return out
}

// Equal reports element-wise equality. Arrays of different kinds are never
// equal.
func (a NumericArray) Equal(b NumericArray) bool {
	if a.kind != b.kind || a.Len() != b.Len() {
		return false
	}
	if a.kind == KindInt {
		for i := range a.ints {
			if a.ints[i] != b.ints[i] {
				return false
			}
		}
		return true
	}
	for i := range a.floats {
		if a.floats[i] != b.floats[i] {
			return false
		}
	}
	return true
}

func coerceArray(path string, raw any, node *TypeNode, mode Mode) (any, error) {
	if arr, ok := raw.(NumericArray); ok {
		if arr.kind == node.kind {
			if arr.readonly {
				return arr, nil // share, no duplication
			}
			if node.kind == KindInt {
				return Int64Array(arr.ints), nil
			}
			return Float64Array(arr.floats), nil
		}
		if mode == ModeStrict {
			return nil, coercionErr(path, raw, node, "array element kind %s does not match declared %s", arr.kind, node.kind)
		}
		if node.kind == KindInt {
			return Int64Array(arr.Int64s()), nil
		}
		return Float64Array(arr.Float64s()), nil
	}

	seq, ok := asSequence(raw, mode)
	if !ok {
		return nil, coercionErr(path, raw, node, "expected a numeric sequence")
	}

	if node.kind == KindInt {
		out := make([]int64, len(seq))
		for i, elem := range seq {
			v, err := coerceArrayElem(path, i, elem, node, mode)
			if err != nil {
				return nil, err
			}
			iv, isInt := v.(int64)
			if !isInt {
				iv = int64(v.(float64))
			}
			out[i] = iv
		}
		return NumericArray{kind: KindInt, ints: out, readonly: true}, nil
	}

	out := make([]float64, len(seq))
	for i, elem := range seq {
		v, err := coerceArrayElem(path, i, elem, node, mode)
		if err != nil {
			return nil, err
		}
		fv, isFloat := v.(float64)
		if !isFloat {
			fv = float64(v.(int64))
		}
		out[i] = fv
	}
	return NumericArray{kind: KindFloat, floats: out, readonly: true}, nil
}

// coerceArrayElem converts one element to int64 or float64. Element kind
// mismatches are an error in strict mode and a cast in relaxed mode; an int
// element in a float array is always a safe widening.
func coerceArrayElem(path string, idx int, elem any, node *TypeNode, mode Mode) (any, error) {
	if i, ok := rawToInt64(elem); ok {
		return i, nil
	}
	if f, ok := rawToFloat64(elem); ok {
		if node.kind == KindInt && mode == ModeStrict {
			return nil, coercionErr(joinIndex(path, idx), elem, node, "float element in int array")
		}
		return f, nil
	}
	if n, ok := normalizeScalar(elem); ok {
		switch v := n.(type) {
		case int64:
			return v, nil
		case float64:
			if node.kind == KindInt && mode == ModeStrict {
				return nil, coercionErr(joinIndex(path, idx), elem, node, "float element in int array")
			}
			return v, nil
		}
	}
	if mode == ModeRelaxed {
		elemNode := Int()
		if node.kind == KindFloat {
			elemNode = Float()
		}
		return coerceScalar(joinIndex(path, idx), elem, elemNode, ModeRelaxed)
	}
	return nil, coercionErr(joinIndex(path, idx), elem, node, "non-numeric element")
}
