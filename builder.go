package parametric

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Source identifies where an override batch came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
)

// ValidatorFunc validates a fully loaded Instance before it is frozen.
// It should return an error if the parameter combination is unacceptable.
type ValidatorFunc func(in *Instance) error

// Loader provides a fluent interface for assembling a parameter instance
// from layered sources. Precedence is CLI > Env > File > Default unless
// overridden with WithSources.
type Loader struct {
	schema       *Schema
	file         string
	args         []string
	envPrefix    string
	envTransform EnvTransformFunc
	sources      []Source
	logger       zerolog.Logger
	validators   []ValidatorFunc
	discovery    *FileDiscoveryOptions
	err          error
}

// NewLoader creates a loader for the given schema with standard precedence
// and os.Args as the CLI source.
func NewLoader(schema *Schema) *Loader {
	return &Loader{
		schema:     schema,
		args:       os.Args[1:],
		sources:    []Source{SourceCLI, SourceEnv, SourceFile, SourceDefault},
		logger:     zerolog.Nop(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithFile sets the parameter file path.
func (l *Loader) WithFile(path string) *Loader {
	l.file = path
	return l
}

// WithFileDiscovery enables searching standard locations for a parameter
// file when no explicit path is set (or the explicit path is missing).
func (l *Loader) WithFileDiscovery(opts *FileDiscoveryOptions) *Loader {
	if opts == nil {
		opts = DefaultDiscoveryOptions()
	}
	l.discovery = opts
	return l
}

// WithArgs sets the command-line arguments.
func (l *Loader) WithArgs(args []string) *Loader {
	l.args = args
	return l
}

// WithEnvPrefix sets the environment variable prefix and enables the env
// source. An empty prefix with no transform leaves env untouched.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvTransform sets a custom environment variable transformer.
func (l *Loader) WithEnvTransform(fn EnvTransformFunc) *Loader {
	l.envTransform = fn
	return l
}

// WithSources sets the precedence order, strongest first.
func (l *Loader) WithSources(sources ...Source) *Loader {
	l.sources = sources
	return l
}

// WithLogger sets the logger used to trace source application.
func (l *Loader) WithLogger(logger zerolog.Logger) *Loader {
	l.logger = logger
	return l
}

// WithValidator adds a validation function that runs after all sources are
// applied. Multiple validators run in the order they were added.
func (l *Loader) WithValidator(fn ValidatorFunc) *Loader {
	if fn != nil {
		l.validators = append(l.validators, fn)
	}
	return l
}

// Load builds a mutable instance: defaults, then each configured source
// applied weakest to strongest, then validators. The result is not frozen.
func (l *Loader) Load() (*Instance, error) {
	if l.err != nil {
		return nil, l.err
	}

	in := NewInstance(l.schema)

	// Apply weakest first so stronger sources overwrite.
	for i := len(l.sources) - 1; i >= 0; i-- {
		if err := l.applySource(in, l.sources[i]); err != nil {
			return nil, err
		}
	}

	for _, validator := range l.validators {
		if err := validator(in); err != nil {
			return nil, fmt.Errorf("parameter validation failed: %w", err)
		}
	}

	return in, nil
}

// Build is Load followed by Freeze.
func (l *Loader) Build() (*Instance, error) {
	in, err := l.Load()
	if err != nil {
		return nil, err
	}
	if err := in.Freeze(); err != nil {
		return nil, err
	}
	return in, nil
}

// MustBuild is like Build but panics on error.
func (l *Loader) MustBuild() *Instance {
	in, err := l.Build()
	if err != nil {
		panic(fmt.Sprintf("parameter build failed: %v", err))
	}
	return in
}

func (l *Loader) applySource(in *Instance, source Source) error {
	switch source {
	case SourceDefault:
		// Defaults are materialized by NewInstance.
		return nil
	case SourceFile:
		path := l.file
		if path == "" && l.discovery != nil {
			path = discoverFile(l.args, l.discovery)
		}
		if path == "" {
			return nil
		}
		l.logger.Debug().Str("source", "file").Str("path", path).Msg("applying parameter source")
		return in.OverrideFile(path)
	case SourceEnv:
		if l.envPrefix == "" && l.envTransform == nil {
			return nil
		}
		l.logger.Debug().Str("source", "env").Str("prefix", l.envPrefix).Msg("applying parameter source")
		if l.envTransform != nil {
			return in.overrideEnv(l.envTransform)
		}
		return in.OverrideEnv(l.envPrefix)
	case SourceCLI:
		args := l.args
		if l.discovery != nil && l.discovery.CLIFlag != "" {
			// the discovery flag names a file, not a parameter
			args = stripFlag(args, l.discovery.CLIFlag)
		}
		if len(args) == 0 {
			return nil
		}
		l.logger.Debug().Str("source", "cli").Int("args", len(args)).Msg("applying parameter source")
		return in.OverrideCLI(args)
	default:
		return fmt.Errorf("unknown parameter source %q", source)
	}
}
