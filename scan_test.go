package parametric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScan tests decoding parameter sets into annotated structs
func TestScan(t *testing.T) {
	schema := MustSchema(
		Field("run_name", String(), Default("exp")),
		Field("epochs", Int(), Default(100)),
		Field("lr", Float(), Default(0.1)),
		Field("timeout", String(), Default("30s")),
		Field("optim", Nested(MustSchema(
			Field("name", String(), Default("sgd")),
			Field("momentum", Float(), Default(0.9)),
		))),
	)

	t.Run("FullInstance", func(t *testing.T) {
		type OptimConfig struct {
			Name     string  `param:"name"`
			Momentum float64 `param:"momentum"`
		}
		type TrainConfig struct {
			RunName string        `param:"run_name"`
			Epochs  int           `param:"epochs"`
			LR      float64       `param:"lr"`
			Timeout time.Duration `param:"timeout"`
			Optim   OptimConfig   `param:"optim"`
		}

		in := NewInstance(schema)
		require.NoError(t, in.Set("epochs", 250))
		require.NoError(t, in.Set("optim.momentum", 0.95))

		var cfg TrainConfig
		require.NoError(t, in.Scan("", &cfg))

		assert.Equal(t, "exp", cfg.RunName)
		assert.Equal(t, 250, cfg.Epochs)
		assert.Equal(t, 0.1, cfg.LR)
		assert.Equal(t, 30*time.Second, cfg.Timeout, "duration strings decode")
		assert.Equal(t, "sgd", cfg.Optim.Name)
		assert.Equal(t, 0.95, cfg.Optim.Momentum)
	})

	t.Run("NestedSection", func(t *testing.T) {
		type OptimConfig struct {
			Name     string  `param:"name"`
			Momentum float64 `param:"momentum"`
		}
		in := NewInstance(schema)

		var cfg OptimConfig
		require.NoError(t, in.Scan("optim", &cfg))
		assert.Equal(t, "sgd", cfg.Name)
	})

	t.Run("MissingSectionDecodesEmpty", func(t *testing.T) {
		type Anything struct {
			X int `param:"x"`
		}
		in := NewInstance(schema)
		var cfg Anything
		require.NoError(t, in.Scan("nope.deep", &cfg))
		assert.Zero(t, cfg.X)
	})

	t.Run("NonMapSectionFails", func(t *testing.T) {
		in := NewInstance(schema)
		var cfg struct{}
		err := in.Scan("epochs", &cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scannable")
	})

	t.Run("NonPointerTargetFails", func(t *testing.T) {
		in := NewInstance(schema)
		var cfg struct{}
		assert.Error(t, in.Scan("", cfg))
	})
}
