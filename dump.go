package parametric

// Dump renders every set field as a plain nested mapping suitable for any
// text serializer. Nested instances dump recursively; empty fields are
// omitted.
func (in *Instance) Dump() map[string]any {
	out := make(map[string]any, len(in.schema.fields))
	for i := range in.schema.fields {
		f := &in.schema.fields[i]
		v, ok := in.values[f.name]
		if !ok {
			continue
		}
		out[f.name] = dumpValue(v)
	}
	return out
}

// DumpNonDefaults renders only fields whose current value differs from the
// schema default, by value equality, independent of override provenance.
// Fields declared without a default are included whenever set.
func (in *Instance) DumpNonDefaults() map[string]any {
	changed := make(map[string]any)
	for i := range in.schema.fields {
		f := &in.schema.fields[i]
		v, ok := in.values[f.name]
		if !ok {
			continue
		}
		if nested, isNested := v.(*Instance); isNested {
			sub := nested.DumpNonDefaults()
			if len(sub) > 0 {
				changed[f.name] = sub
			}
			continue
		}
		if f.hasDefault && valueEqual(v, f.cdef) {
			continue
		}
		changed[f.name] = dumpValue(v)
	}
	return changed
}

// DumpOverrides renders only fields present in the overridden provenance
// set, regardless of value equality to the default. A field assigned its
// own default through an override call still appears.
func (in *Instance) DumpOverrides() map[string]any {
	out := make(map[string]any)
	for i := range in.schema.fields {
		f := &in.schema.fields[i]
		v, ok := in.values[f.name]
		if !ok {
			continue
		}
		if nested, isNested := v.(*Instance); isNested {
			sub := nested.DumpOverrides()
			if len(sub) > 0 || in.overridden[f.name] {
				out[f.name] = sub
			}
			continue
		}
		if in.overridden[f.name] {
			out[f.name] = dumpValue(v)
		}
	}
	return out
}

// dumpValue converts a canonical stored value to its dumpable form:
// enum members dump as their value, numeric arrays as plain slices, tuples
// as fresh []any, bytes as strings, nested instances as mappings.
func dumpValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Instance:
		return x.Dump()
	case EnumMember:
		return dumpValue(x.Value)
	case NumericArray:
		if x.Kind() == KindInt {
			return x.Int64s()
		}
		return x.Float64s()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = dumpValue(e)
		}
		return out
	case []byte:
		return string(x)
	default:
		return v
	}
}

// pruneNil strips nil-valued entries from a dump, for serializers that
// cannot encode null (TOML).
func pruneNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			out[k] = pruneNil(sub)
			continue
		}
		out[k] = v
	}
	return out
}
