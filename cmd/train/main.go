// Demonstrates a layered training-parameter setup: schema defaults, an
// optional params file, environment variables, and CLI flags.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/parametric-go/parametric"
)

var optimSchema = parametric.MustSchema(
	parametric.Field("name", parametric.Enum(
		parametric.Member("sgd", "sgd"),
		parametric.Member("adam", "adam"),
		parametric.Member("adamw", "adamw"),
	), parametric.Default("adamw")),
	parametric.Field("lr", parametric.Float(), parametric.Default(3e-4)),
	parametric.Field("weight_decay", parametric.Float(), parametric.Default(0.01)),
	parametric.Field("betas", parametric.Tuple(parametric.Float(), parametric.Float()),
		parametric.Default([]any{0.9, 0.999})),
)

var dataSchema = parametric.MustSchema(
	parametric.Field("root", parametric.Path(), parametric.Required()),
	parametric.Field("batch_size", parametric.Int(), parametric.Default(32)),
	parametric.Field("workers", parametric.Int(), parametric.Default(4)),
	parametric.Field("class_weights", parametric.FloatArray(),
		parametric.Default([]float64{1.0, 1.0, 1.0})),
)

var trainSchema = parametric.MustSchema(
	parametric.Field("run_name", parametric.String(), parametric.Required()),
	parametric.Field("epochs", parametric.Int(), parametric.Default(100)),
	parametric.Field("seed", parametric.Optional(parametric.Int())),
	parametric.Field("device", parametric.Literal("cpu", "cuda", "mps"),
		parametric.Default("cpu")),
	parametric.Field("resume", parametric.Optional(parametric.Path())),
	parametric.Field("milestones", parametric.TupleOf(parametric.Int()),
		parametric.Default([]any{60, 80})),
	parametric.Field("optim", parametric.Nested(optimSchema)),
	parametric.Field("data", parametric.Nested(dataSchema)),
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	params, err := parametric.NewLoader(trainSchema).
		WithFile("train.yaml").
		WithEnvPrefix("TRAIN_").
		WithArgs(os.Args[1:]).
		WithLogger(logger).
		WithValidator(func(in *parametric.Instance) error {
			lr, err := in.Float64("optim.lr")
			if err != nil {
				return err
			}
			if lr <= 0 {
				return fmt.Errorf("optim.lr must be positive, got %g", lr)
			}
			return nil
		}).
		Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("parameter load failed")
	}

	runName, _ := params.String("run_name")
	device, _ := params.String("device")
	lr, _ := params.Float64("optim.lr")
	batch, _ := params.Int64("data.batch_size")

	logger.Info().
		Str("run", runName).
		Str("device", device).
		Float64("lr", lr).
		Int64("batch_size", batch).
		Bool("lr_overridden", params.Overridden("optim.lr")).
		Msg("training parameters frozen")

	if err := params.SaveYAML("run/" + runName + "/params.yaml"); err != nil {
		logger.Fatal().Err(err).Msg("saving parameter snapshot")
	}

	overrides := params.DumpNonDefaults()
	if len(overrides) > 0 {
		logger.Info().Interface("non_defaults", overrides).Msg("deviations from schema defaults")
	}
}
