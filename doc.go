// Package parametric provides typed, schema-validated parameter sets for Go
// applications: experiment configs, job specs, and tool settings built from
// defaults, files, environment variables, and command-line arguments with
// configurable precedence.
//
// Features:
//   - Declarative schemas with a rich type language (scalars, optionals,
//     unions, literals, enums, tuples, nested schemas, numeric arrays)
//   - Strict coercion for programmatic values, relaxed coercion for strings
//     from env vars and CLI flags
//   - Transactional overrides: a batch either fully applies or leaves the
//     instance untouched
//   - Freeze semantics: a frozen instance rejects all mutation, and freezing
//     fails while required parameters are still unset
//   - Provenance tracking to see which parameters were overridden
//   - YAML, TOML, JSON, and msgpack persistence
//   - Builder pattern for layered loading
//
// Quick Start:
//
//	schema := parametric.MustSchema(
//	    parametric.Field("run_name", parametric.String(), parametric.Required()),
//	    parametric.Field("lr", parametric.Float(), parametric.Default(3e-4)),
//	    parametric.Field("device", parametric.Enum(
//	        parametric.Member("cpu", "cpu"),
//	        parametric.Member("cuda", "cuda"),
//	    ), parametric.Default("cpu")),
//	)
//
//	params, err := parametric.Quick(schema, "MYAPP_", "params.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lr, _ := params.Float64("lr")
//	name, _ := params.String("run_name")
//
// Default Precedence (highest to lowest):
//  1. Command-line arguments (--optim.lr=0.01)
//  2. Environment variables (MYAPP_OPTIM_LR=0.01)
//  3. Parameter file (params.yaml)
//  4. Schema defaults
//
// Instances are not safe for concurrent mutation; freeze an instance before
// sharing it across goroutines.
package parametric
