package parametric

import (
	"fmt"
	"os"
)

// Quick builds a frozen instance with standard precedence: CLI > Env > File >
// Default. A missing parameter file is not an error.
func Quick(schema *Schema, envPrefix, file string) (*Instance, error) {
	return NewLoader(schema).
		WithFile(file).
		WithEnvPrefix(envPrefix).
		WithArgs(os.Args[1:]).
		Build()
}

// MustQuick is like Quick but panics on error. Intended for program startup
// where a bad parameter set should abort immediately.
func MustQuick(schema *Schema, envPrefix, file string) *Instance {
	in, err := Quick(schema, envPrefix, file)
	if err != nil {
		panic(fmt.Sprintf("parameter load failed: %v", err))
	}
	return in
}
