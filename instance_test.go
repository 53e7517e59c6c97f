package parametric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingSchema(t *testing.T) *Schema {
	t.Helper()
	optim := MustSchema(
		Field("name", Enum(Member("sgd", "sgd"), Member("adam", "adam")), Default("sgd")),
		Field("lr", Float(), Default(0.1)),
	)
	return MustSchema(
		Field("run_name", String()),
		Field("epochs", Int(), Default(100)),
		Field("seed", Optional(Int())),
		Field("device", Literal("cpu", "cuda"), Default("cpu")),
		Field("optim", Nested(optim)),
	)
}

// TestInstanceDefaults tests default materialization at creation
func TestInstanceDefaults(t *testing.T) {
	in := NewInstance(trainingSchema(t))

	epochs, err := in.Int64("epochs")
	require.NoError(t, err)
	assert.Equal(t, int64(100), epochs)

	seed, ok := in.Get("seed")
	assert.True(t, ok)
	assert.Nil(t, seed)

	// no default, not yet set
	_, ok = in.Get("run_name")
	assert.False(t, ok)

	lr, err := in.Float64("optim.lr")
	require.NoError(t, err)
	assert.Equal(t, 0.1, lr)
}

// TestInstanceSet tests single-field assignment with strict coercion
func TestInstanceSet(t *testing.T) {
	t.Run("SetAndGet", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("run_name", "exp-01"))
		name, err := in.String("run_name")
		require.NoError(t, err)
		assert.Equal(t, "exp-01", name)
	})

	t.Run("SetIsStrict", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		err := in.Set("epochs", "200")
		require.Error(t, err)
		var ce *CoercionError
		assert.ErrorAs(t, err, &ce)

		// failed set leaves the default intact
		epochs, _ := in.Int64("epochs")
		assert.Equal(t, int64(100), epochs)
	})

	t.Run("SetNestedPath", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("optim.lr", 0.01))
		lr, _ := in.Float64("optim.lr")
		assert.Equal(t, 0.01, lr)
		assert.True(t, in.Overridden("optim.lr"))
		assert.True(t, in.Overridden("optim"))
	})

	t.Run("SetUnknownKey", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		err := in.Set("learning_rate", 0.5)
		var uke *UnknownKeyError
		require.ErrorAs(t, err, &uke)
		assert.Equal(t, "learning_rate", uke.Key)
	})

	t.Run("SetThroughNonNestedField", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		err := in.Set("epochs.sub", 1)
		var uke *UnknownKeyError
		assert.ErrorAs(t, err, &uke)
	})
}

// TestFreeze tests the Building to Frozen transition
func TestFreeze(t *testing.T) {
	t.Run("FreezeRequiresAllRequired", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		err := in.Freeze()
		var mfe *MissingFieldsError
		require.ErrorAs(t, err, &mfe)
		assert.Equal(t, []string{"run_name"}, mfe.Paths)
		assert.False(t, in.Frozen())

		// failed freeze leaves the instance mutable
		require.NoError(t, in.Set("run_name", "exp"))
		require.NoError(t, in.Freeze())
		assert.True(t, in.Frozen())
	})

	t.Run("FreezeCollectsAllMissing", func(t *testing.T) {
		sub := MustSchema(Field("key", String()))
		s := MustSchema(
			Field("a", Int()),
			Field("b", String()),
			Field("inner", Nested(sub)),
		)
		in := NewInstance(s)
		err := in.Freeze()
		var mfe *MissingFieldsError
		require.ErrorAs(t, err, &mfe)
		assert.ElementsMatch(t, []string{"a", "b", "inner.key"}, mfe.Paths)
	})

	t.Run("FreezeIsRecursive", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("run_name", "exp"))
		require.NoError(t, in.Freeze())

		sub, _ := in.Get("optim")
		assert.True(t, sub.(*Instance).Frozen())
	})

	t.Run("FreezeIsIdempotent", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("run_name", "exp"))
		require.NoError(t, in.Freeze())
		require.NoError(t, in.Freeze())
	})

	t.Run("FrozenRejectsSet", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("run_name", "exp"))
		require.NoError(t, in.Freeze())

		err := in.Set("epochs", 50)
		var fe *FrozenError
		require.ErrorAs(t, err, &fe)

		err = in.Set("optim.lr", 0.5)
		assert.ErrorAs(t, err, &fe)

		epochs, _ := in.Int64("epochs")
		assert.Equal(t, int64(100), epochs)
	})

	t.Run("FrozenRejectsOverrides", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("run_name", "exp"))
		require.NoError(t, in.Freeze())

		var fe *FrozenError
		assert.ErrorAs(t, in.OverrideMap(map[string]any{"epochs": 1}), &fe)
		assert.ErrorAs(t, in.OverrideStrings(map[string]string{"epochs": "1"}), &fe)
		assert.ErrorAs(t, in.OverrideCLI([]string{"--epochs", "1"}), &fe)
	})

	t.Run("FrozenStillReadable", func(t *testing.T) {
		in := NewInstance(trainingSchema(t))
		require.NoError(t, in.Set("run_name", "exp"))
		require.NoError(t, in.Freeze())

		name, err := in.String("run_name")
		require.NoError(t, err)
		assert.Equal(t, "exp", name)
		assert.NotEmpty(t, in.Dump())
	})
}

// TestInstanceEqual tests field-wise value equality
func TestInstanceEqual(t *testing.T) {
	s := trainingSchema(t)

	t.Run("EqualByValues", func(t *testing.T) {
		a := NewInstance(s)
		b := NewInstance(s)
		assert.True(t, a.Equal(b))

		require.NoError(t, a.Set("epochs", 50))
		assert.False(t, a.Equal(b))

		require.NoError(t, b.Set("epochs", 50))
		assert.True(t, a.Equal(b))
	})

	t.Run("ProvenanceIgnored", func(t *testing.T) {
		a := NewInstance(s)
		b := NewInstance(s)
		// assigning the default explicitly changes provenance, not value
		require.NoError(t, a.Set("epochs", 100))
		assert.True(t, a.Equal(b))
		assert.True(t, a.Overridden("epochs"))
		assert.False(t, b.Overridden("epochs"))
	})

	t.Run("FrozenStateIgnored", func(t *testing.T) {
		a := NewInstance(s)
		b := NewInstance(s)
		require.NoError(t, a.Set("run_name", "x"))
		require.NoError(t, b.Set("run_name", "x"))
		require.NoError(t, a.Freeze())
		assert.True(t, a.Equal(b))
	})

	t.Run("NestedCompared", func(t *testing.T) {
		a := NewInstance(s)
		b := NewInstance(s)
		require.NoError(t, a.Set("optim.lr", 0.5))
		assert.False(t, a.Equal(b))
	})

	t.Run("NilNotEqual", func(t *testing.T) {
		assert.False(t, NewInstance(s).Equal(nil))
	})
}

// TestTypedGetters tests the converting accessors
func TestTypedGetters(t *testing.T) {
	s := MustSchema(
		Field("count", Int(), Default(5)),
		Field("rate", Float(), Default(2.5)),
		Field("on", Bool(), Default(true)),
		Field("label", String(), Default("x")),
		Field("opt", Enum(Member("adam", 1)), Default(1)),
	)
	in := NewInstance(s)

	n, err := in.Int64("count")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	f, err := in.Float64("count")
	require.NoError(t, err)
	assert.Equal(t, 5.0, f)

	b, err := in.Bool("on")
	require.NoError(t, err)
	assert.True(t, b)

	label, err := in.String("label")
	require.NoError(t, err)
	assert.Equal(t, "x", label)

	// enum members render as their name
	name, err := in.String("opt")
	require.NoError(t, err)
	assert.Equal(t, "adam", name)

	_, err = in.Int64("missing")
	assert.Error(t, err)
}
