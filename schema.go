package parametric

import "fmt"

// FieldSpec declares one schema field: name, type node, and options.
// Build it with Field.
type FieldSpec struct {
	name       string
	node       *TypeNode
	def        any
	hasDefault bool
	required   bool
}

// FieldOption customizes a field declaration.
type FieldOption func(*FieldSpec)

// Field declares a schema field.
func Field(name string, node *TypeNode, opts ...FieldOption) FieldSpec {
	f := FieldSpec{name: name, node: node}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Default sets the field's default value. Defaults are strict-coerced and
// validated when the schema is built.
func Default(v any) FieldOption {
	return func(f *FieldSpec) {
		f.def = v
		f.hasDefault = true
	}
}

// Required marks the field as required: Freeze fails while it is empty.
// Fields without a default (other than Optional and Nested ones) are
// implicitly required.
func Required() FieldOption {
	return func(f *FieldSpec) {
		f.required = true
	}
}

type schemaField struct {
	FieldSpec
	// cdef is the strict-coerced default, cached at schema build. Nested
	// fields are excluded: their default instance must be fresh per
	// Instance, never shared.
	cdef any
}

// Schema is an immutable declaration of a parameter set: field names, types,
// defaults, and required flags, in declaration order. Build it once with
// NewSchema and share it across instances.
type Schema struct {
	fields []schemaField
	index  map[string]int
}

// NewSchema builds a Schema from field declarations. Any unsupported type,
// duplicate name, or invalid default is a *DefinitionError: type errors in
// the schema itself never reach override time.
func NewSchema(fields ...FieldSpec) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.name == "" {
			return nil, &DefinitionError{Reason: "field name cannot be empty"}
		}
		if !isValidKeySegment(f.name) {
			return nil, &DefinitionError{Field: f.name, Reason: "invalid field name"}
		}
		if _, dup := s.index[f.name]; dup {
			return nil, &DefinitionError{Field: f.name, Reason: "duplicate field name"}
		}
		if err := f.node.validate(); err != nil {
			return nil, &DefinitionError{Field: f.name, Reason: err.Error()}
		}

		if !f.hasDefault {
			switch f.node.variant {
			case variantOptional:
				f.def = nil
				f.hasDefault = true
			case variantNested:
				// Fresh sub-instance is materialized per Instance.
			default:
				f.required = true
			}
		}

		sf := schemaField{FieldSpec: f}
		if f.hasDefault {
			v, err := coerceValue(f.name, f.def, f.node, ModeStrict)
			if err != nil {
				return nil, &DefinitionError{Field: f.name, Reason: fmt.Sprintf("default value: %v", err)}
			}
			if f.node.variant != variantNested {
				sf.cdef = v
			}
		}

		s.index[f.name] = len(s.fields)
		s.fields = append(s.fields, sf)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for package-level
// schema declarations.
func MustSchema(fields ...FieldSpec) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(fmt.Sprintf("parametric: %v", err))
	}
	return s
}

// Fields returns all field names in declaration order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i := range s.fields {
		names[i] = s.fields[i].name
	}
	return names
}

// Node returns the TypeNode declared for a field.
func (s *Schema) Node(name string) (*TypeNode, bool) {
	f, ok := s.field(name)
	if !ok {
		return nil, false
	}
	return f.node, true
}

func (s *Schema) field(name string) (*schemaField, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.fields[i], true
}

// paths returns every leaf path, recursing through nested sub-schemas.
func (s *Schema) paths(prefix string) []string {
	var out []string
	for i := range s.fields {
		f := &s.fields[i]
		p := joinPath(prefix, f.name)
		if f.node.variant == variantNested {
			out = append(out, f.node.sub.paths(p)...)
			continue
		}
		out = append(out, p)
	}
	return out
}
