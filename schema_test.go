package parametric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchemaConstruction tests field declaration validation
func TestSchemaConstruction(t *testing.T) {
	t.Run("ValidSchema", func(t *testing.T) {
		s, err := NewSchema(
			Field("host", String(), Default("localhost")),
			Field("port", Int(), Default(8080)),
			Field("debug", Bool(), Default(false)),
		)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, []string{"host", "port", "debug"}, s.Fields())
	})

	t.Run("EmptyFieldName", func(t *testing.T) {
		_, err := NewSchema(Field("", Int()))
		require.Error(t, err)
		var de *DefinitionError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Reason, "cannot be empty")
	})

	t.Run("InvalidFieldName", func(t *testing.T) {
		_, err := NewSchema(Field("bad name!", Int()))
		require.Error(t, err)
	})

	t.Run("DottedFieldName", func(t *testing.T) {
		_, err := NewSchema(Field("server.port", Int()))
		require.Error(t, err)
	})

	t.Run("DuplicateFieldName", func(t *testing.T) {
		_, err := NewSchema(
			Field("port", Int(), Default(1)),
			Field("port", Int(), Default(2)),
		)
		require.Error(t, err)
		var de *DefinitionError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "port", de.Field)
	})

	t.Run("InvalidDefault", func(t *testing.T) {
		_, err := NewSchema(Field("port", Int(), Default("not-a-number")))
		require.Error(t, err)
		var de *DefinitionError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Reason, "default value")
	})

	t.Run("MustSchemaPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustSchema(Field("x", Int(), Default("nope")))
		})
	})
}

// TestTypeNodeValidation tests rejection of unsupported declarations
func TestTypeNodeValidation(t *testing.T) {
	tests := []struct {
		name string
		node *TypeNode
	}{
		{"OptionalOfOptional", Optional(Optional(Int()))},
		{"OptionalInsideUnion", Union(Optional(Int()), String())},
		{"SingleAlternativeUnion", Union(Int())},
		{"EmptyUnion", Union()},
		{"EmptyLiteral", Literal()},
		{"NonScalarLiteral", Literal([]int{1, 2})},
		{"EmptyEnum", Enum()},
		{"DuplicateEnumName", Enum(Member("a", 1), Member("a", 2))},
		{"DuplicateEnumValue", Enum(Member("a", 1), Member("b", 1))},
		{"EmptyEnumName", Enum(Member("", 1))},
		{"EmptyTuple", Tuple()},
		{"NilNestedSchema", Nested(nil)},
		{"NilTypeNode", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(Field("f", tt.node))
			assert.Error(t, err)
		})
	}
}

// TestImplicitRequiredness tests the default/required interaction
func TestImplicitRequiredness(t *testing.T) {
	t.Run("NoDefaultMeansRequired", func(t *testing.T) {
		s := MustSchema(Field("name", String()))
		in := NewInstance(s)
		err := in.Freeze()
		var mfe *MissingFieldsError
		require.ErrorAs(t, err, &mfe)
		assert.Equal(t, []string{"name"}, mfe.Paths)
	})

	t.Run("OptionalDefaultsToNil", func(t *testing.T) {
		s := MustSchema(Field("seed", Optional(Int())))
		in := NewInstance(s)
		v, ok := in.Get("seed")
		assert.True(t, ok)
		assert.Nil(t, v)
		assert.NoError(t, in.Freeze())
	})

	t.Run("NestedDefaultsToFreshInstance", func(t *testing.T) {
		sub := MustSchema(Field("lr", Float(), Default(0.1)))
		s := MustSchema(Field("optim", Nested(sub)))

		a := NewInstance(s)
		b := NewInstance(s)
		av, _ := a.Get("optim")
		bv, _ := b.Get("optim")
		require.IsType(t, &Instance{}, av)
		assert.NotSame(t, av.(*Instance), bv.(*Instance))

		// Mutating one instance's sub-params must not leak into the other.
		require.NoError(t, a.Set("optim.lr", 0.5))
		lr, err := b.Float64("optim.lr")
		require.NoError(t, err)
		assert.Equal(t, 0.1, lr)
	})

	t.Run("NestedMapDefault", func(t *testing.T) {
		sub := MustSchema(
			Field("lr", Float(), Default(0.1)),
			Field("momentum", Float(), Default(0.9)),
		)
		s := MustSchema(Field("optim", Nested(sub), Default(map[string]any{"lr": 0.5})))
		in := NewInstance(s)

		lr, err := in.Float64("optim.lr")
		require.NoError(t, err)
		assert.Equal(t, 0.5, lr)
		momentum, err := in.Float64("optim.momentum")
		require.NoError(t, err)
		assert.Equal(t, 0.9, momentum, "untouched sub-fields keep their own defaults")

		// a default is not an override
		assert.False(t, in.Overridden("optim"))
		assert.False(t, in.Overridden("optim.lr"))
		assert.Empty(t, in.DumpOverrides())
	})

	t.Run("NestedInstanceDefaultCopied", func(t *testing.T) {
		sub := MustSchema(Field("lr", Float(), Default(0.1)))
		def := NewInstance(sub)
		require.NoError(t, def.Set("lr", 0.25))
		s := MustSchema(Field("optim", Nested(sub), Default(def)))

		a := NewInstance(s)
		b := NewInstance(s)
		lr, _ := a.Float64("optim.lr")
		assert.Equal(t, 0.25, lr)
		assert.Empty(t, a.DumpOverrides(), "the default instance's provenance does not carry over")

		// each instance owns its sub-params
		require.NoError(t, a.Set("optim.lr", 0.9))
		lr, _ = b.Float64("optim.lr")
		assert.Equal(t, 0.25, lr)

		// freezing one must not freeze the other, or the declared default
		require.NoError(t, a.Freeze())
		assert.False(t, b.Frozen())
		require.NoError(t, b.Set("optim.lr", 0.5))
		assert.False(t, def.Frozen())
		require.NoError(t, def.Set("lr", 0.3))
	})

	t.Run("ExplicitRequiredWithDefault", func(t *testing.T) {
		// Required() plus a default is satisfiable immediately: the default
		// counts as a set value.
		s := MustSchema(Field("name", String(), Default("run"), Required()))
		in := NewInstance(s)
		assert.NoError(t, in.Freeze())
	})
}

// TestSchemaIntrospection tests Fields, Node, and leaf path enumeration
func TestSchemaIntrospection(t *testing.T) {
	sub := MustSchema(
		Field("lr", Float(), Default(0.1)),
		Field("momentum", Float(), Default(0.9)),
	)
	s := MustSchema(
		Field("epochs", Int(), Default(10)),
		Field("optim", Nested(sub)),
	)

	node, ok := s.Node("optim")
	require.True(t, ok)
	assert.Equal(t, "params", node.String())

	_, ok = s.Node("missing")
	assert.False(t, ok)

	assert.ElementsMatch(t,
		[]string{"epochs", "optim.lr", "optim.momentum"},
		s.paths(""),
	)
}

// TestTypeNodeString tests the human-readable type rendering used in errors
func TestTypeNodeString(t *testing.T) {
	tests := []struct {
		node *TypeNode
		want string
	}{
		{Int(), "int"},
		{Optional(String()), "optional[string]"},
		{Union(Int(), String()), "union[int, string]"},
		{Tuple(Float(), Float()), "tuple[float, float]"},
		{TupleOf(Int()), "tuple[int, ...]"},
		{Enum(Member("cpu", "cpu"), Member("cuda", "cuda")), "enum[cpu, cuda]"},
		{IntArray(), "array[int]"},
		{FloatArray(), "array[float]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.node.String())
	}
}
