package parametric

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Instance is one materialized parameter set: per-field values, override
// provenance, and the Building/Frozen state. An instance is built up by a
// single owner (overrides, then Freeze) and is safe for unsynchronized
// concurrent reads once frozen.
type Instance struct {
	schema     *Schema
	values     map[string]any // absence = declared but not yet set
	overridden map[string]bool
	frozen     bool
}

// NewInstance creates a Building instance populated with the schema's
// defaults. Fields without a default start empty; Nested fields without a
// default start as a fresh sub-instance.
func NewInstance(schema *Schema) *Instance {
	in := &Instance{
		schema:     schema,
		values:     make(map[string]any, len(schema.fields)),
		overridden: make(map[string]bool),
	}
	for i := range schema.fields {
		f := &schema.fields[i]
		if f.node.variant == variantNested {
			sub, err := defaultNestedInstance(f)
			if err != nil {
				panic(fmt.Sprintf("parametric: invalid default for %q: %v", f.name, err))
			}
			in.values[f.name] = sub
			continue
		}
		if !f.hasDefault {
			continue
		}
		v, err := coerceValue(f.name, f.def, f.node, ModeStrict)
		if err != nil {
			// Defaults are validated at NewSchema; reaching this means the
			// schema value escaped construction.
			panic(fmt.Sprintf("parametric: invalid default for %q: %v", f.name, err))
		}
		in.values[f.name] = v
	}
	return in
}

// defaultNestedInstance materializes a Nested field's starting value. The
// sub-instance is always freshly built, never the default value itself: a
// declared *Instance default is copied through its dump so schemas never
// share mutable state across instances. Default construction leaves no
// provenance behind; a default is not an override.
func defaultNestedInstance(f *schemaField) (*Instance, error) {
	sub := NewInstance(f.node.sub)
	if !f.hasDefault {
		return sub, nil
	}
	m, ok := rawAsStringMap(f.def)
	if !ok {
		inst, isInst := f.def.(*Instance)
		if !isInst || inst.schema != f.node.sub {
			return nil, fmt.Errorf("expected a mapping or an instance of the sub-schema, got %T", f.def)
		}
		m = inst.Dump()
	}
	if err := sub.OverrideMap(m); err != nil {
		return nil, err
	}
	sub.clearOverridden()
	return sub, nil
}

// clearOverridden resets provenance recursively. Used once per nested default
// so only true overrides ever appear in the overridden set.
func (in *Instance) clearOverridden() {
	in.overridden = make(map[string]bool)
	for i := range in.schema.fields {
		if nested, ok := in.values[in.schema.fields[i].name].(*Instance); ok {
			nested.clearOverridden()
		}
	}
}

// Schema returns the schema this instance was built from.
func (in *Instance) Schema() *Schema { return in.schema }

// Frozen reports whether the instance has been frozen.
func (in *Instance) Frozen() bool { return in.frozen }

// Get retrieves the current value at a dotted path. The second return is
// false when the path is unknown or the field is still empty.
func (in *Instance) Get(path string) (any, bool) {
	t, err := in.resolveKey(path)
	if err != nil {
		return nil, false
	}
	v, ok := t.inst.values[t.field.name]
	if !ok {
		return nil, false
	}
	return v, true
}

// Set assigns one field at a dotted path using strict coercion. Writes are
// legal only while Building; the assignment is recorded in the overridden
// provenance set.
func (in *Instance) Set(path string, value any) error {
	t, err := in.resolveKey(path)
	if err != nil {
		return err
	}
	if in.frozen || t.inst.frozen {
		return &FrozenError{Path: path}
	}
	v, err := coerceValue(path, value, t.field.node, ModeStrict)
	if err != nil {
		return err
	}
	t.inst.values[t.field.name] = v
	for _, m := range t.marks {
		m.inst.overridden[m.name] = true
	}
	return nil
}

// Freeze transitions the instance from Building to Frozen. Every required
// field must be non-empty, recursing into nested instances; the error lists
// all empty required fields, and on failure the instance stays Building.
// Freezing an already-frozen instance is a no-op success.
func (in *Instance) Freeze() error {
	if in.frozen {
		return nil
	}
	var missing []string
	in.collectMissing("", &missing)
	if len(missing) > 0 {
		return &MissingFieldsError{Paths: missing}
	}
	in.freeze()
	return nil
}

func (in *Instance) collectMissing(prefix string, missing *[]string) {
	for i := range in.schema.fields {
		f := &in.schema.fields[i]
		path := joinPath(prefix, f.name)
		v, set := in.values[f.name]
		if set {
			if nested, ok := v.(*Instance); ok {
				nested.collectMissing(path, missing)
			}
			continue
		}
		if f.required {
			*missing = append(*missing, path)
		}
	}
}

func (in *Instance) freeze() {
	for i := range in.schema.fields {
		if nested, ok := in.values[in.schema.fields[i].name].(*Instance); ok {
			nested.freeze()
		}
	}
	in.frozen = true
}

// Equal reports field-wise value equality with another instance of the same
// field set. Provenance and frozen state are not compared.
func (in *Instance) Equal(other *Instance) bool {
	if other == nil {
		return false
	}
	if len(in.schema.fields) != len(other.schema.fields) {
		return false
	}
	for i := range in.schema.fields {
		name := in.schema.fields[i].name
		if _, ok := other.schema.index[name]; !ok {
			return false
		}
		a, aSet := in.values[name]
		b, bSet := other.values[name]
		if aSet != bSet {
			return false
		}
		if aSet && !valueEqual(a, b) {
			return false
		}
	}
	return true
}

// valueEqual compares two canonical stored values.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case EnumMember:
		bv, ok := b.(EnumMember)
		return ok && av.Name == bv.Name && scalarEqual(av.Value, bv.Value)
	case NumericArray:
		bv, ok := b.(NumericArray)
		return ok && av.Equal(bv)
	case *Instance:
		bv, ok := b.(*Instance)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}
	if scalarEqual(a, b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// String retrieves a string value at a dotted path, converting common
// stored forms.
func (in *Instance) String(path string) (string, error) {
	val, found := in.Get(path)
	if !found {
		return "", fmt.Errorf("parameter not set: %s", path)
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case EnumMember:
		return v.Name, nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for parameter %s", val, path)
	}
}

// Int64 retrieves an int64 value at a dotted path, converting numeric and
// parsable stored forms.
func (in *Instance) Int64(path string) (int64, error) {
	val, found := in.Get(path)
	if !found {
		return 0, fmt.Errorf("parameter not set: %s", path)
	}
	switch v := val.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		if i, err := strconv.ParseInt(v, 0, 64); err == nil {
			return i, nil
		} else {
			return 0, fmt.Errorf("cannot convert string %q to int64 for parameter %s: %w", v, path, err)
		}
	}
	return 0, fmt.Errorf("cannot convert type %T to int64 for parameter %s", val, path)
}

// Float64 retrieves a float64 value at a dotted path.
func (in *Instance) Float64(path string) (float64, error) {
	val, found := in.Get(path)
	if !found {
		return 0, fmt.Errorf("parameter not set: %s", path)
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		} else {
			return 0, fmt.Errorf("cannot convert string %q to float64 for parameter %s: %w", v, path, err)
		}
	}
	return 0, fmt.Errorf("cannot convert type %T to float64 for parameter %s", val, path)
}

// Bool retrieves a boolean value at a dotted path.
func (in *Instance) Bool(path string) (bool, error) {
	val, found := in.Get(path)
	if !found {
		return false, fmt.Errorf("parameter not set: %s", path)
	}
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		} else {
			return false, fmt.Errorf("cannot convert string %q to bool for parameter %s: %w", v, path, err)
		}
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}
	return false, fmt.Errorf("cannot convert type %T to bool for parameter %s", val, path)
}

// Overridden reports whether a dotted path was ever explicitly assigned
// through an override call, independent of value equality to the default.
func (in *Instance) Overridden(path string) bool {
	segs := strings.Split(path, ".")
	cur := in
	for i, seg := range segs {
		if i == len(segs)-1 {
			return cur.overridden[seg]
		}
		next, _ := cur.values[seg].(*Instance)
		if next == nil {
			return false
		}
		cur = next
	}
	return false
}
