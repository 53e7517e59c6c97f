package parametric

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvTransformFunc converts a dotted parameter path to an environment
// variable name.
type EnvTransformFunc func(path string) string

// defaultEnvTransform maps "sub.count" with prefix "APP_" to "APP_SUB_COUNT".
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		env = strings.ToUpper(env)
		return prefix + env
	}
}

// fieldMark identifies one overridden-set entry to record on commit.
type fieldMark struct {
	inst *Instance
	name string
}

// overrideTarget is a resolved dotted key: the instance owning the leaf
// field, the field itself, and the provenance marks along the way.
type overrideTarget struct {
	inst  *Instance
	field *schemaField
	marks []fieldMark
}

// resolveKey walks a dotted key through nested instances. Keys that do not
// name a declared field at every level are an *UnknownKeyError.
func (in *Instance) resolveKey(key string) (*overrideTarget, error) {
	segs := strings.Split(key, ".")
	cur := in
	marks := make([]fieldMark, 0, len(segs))
	for i, seg := range segs {
		f, ok := cur.schema.field(seg)
		if !ok {
			return nil, &UnknownKeyError{Key: key}
		}
		marks = append(marks, fieldMark{inst: cur, name: seg})
		if i == len(segs)-1 {
			return &overrideTarget{inst: cur, field: f, marks: marks}, nil
		}
		if f.node.variant != variantNested {
			return nil, &UnknownKeyError{Key: key}
		}
		next, _ := cur.values[seg].(*Instance)
		if next == nil {
			return nil, &UnknownKeyError{Key: key}
		}
		cur = next
	}
	return nil, &UnknownKeyError{Key: key}
}

// applyOverrides is the single commit point for every override source. All
// keys are resolved and coerced first (collect-all); only when every entry
// succeeds are values assigned and provenance marks recorded, so one call
// either fully succeeds or leaves the instance unchanged. pre carries errors
// the caller already collected while flattening, so the joined error reports
// every problem in the batch, not just the first layer of them.
func (in *Instance) applyOverrides(flat map[string]any, mode Mode, hybrid bool, pre []error) error {
	if in.frozen {
		return &FrozenError{}
	}

	type pending struct {
		target *overrideTarget
		value  any
	}

	errs := pre
	commits := make([]pending, 0, len(flat))
	for _, key := range sortedKeys(flat) {
		raw := flat[key]
		t, err := in.resolveKey(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if t.inst.frozen {
			errs = append(errs, &FrozenError{Path: key})
			continue
		}
		v, err := coerceHybrid(key, raw, t.field.node, mode, hybrid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		commits = append(commits, pending{target: t, value: v})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, c := range commits {
		c.target.inst.values[c.target.field.name] = c.value
		for _, m := range c.target.marks {
			m.inst.overridden[m.name] = true
		}
	}
	return nil
}

// coerceHybrid applies strict-first coercion with a relaxed fallback for
// string scalars, the rule for mapping and file-derived sources whose
// string values may be text forms of other types.
func coerceHybrid(path string, raw any, node *TypeNode, mode Mode, hybrid bool) (any, error) {
	v, err := coerceValue(path, raw, node, mode)
	if err != nil && hybrid {
		if _, isString := raw.(string); isString {
			if v2, err2 := coerceValue(path, raw, node, ModeRelaxed); err2 == nil {
				return v2, nil
			}
		}
	}
	return v, err
}

// flattenSource flattens a nested mapping into dotted keys, descending into
// mapping values only through Nested fields so that a partial mapping merges
// into an existing nested instance instead of replacing it. Unknown keys at
// any level are collected, never swallowed.
func (in *Instance) flattenSource(prefix string, data map[string]any, flat map[string]any, errs *[]error) {
	for key, value := range data {
		path := joinPath(prefix, key)
		t, err := in.resolveKey(path)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		if t.field.node.variant == variantNested {
			if value == nil {
				// an empty section ("optim:" with no body) carries no keys
				continue
			}
			if m, ok := rawAsStringMap(value); ok {
				in.flattenSource(path, m, flat, errs)
				continue
			}
		}
		flat[path] = value
	}
}

// OverrideMap applies a nested mapping source (an already-parsed dict or a
// decoded config file). Values are coerced strict-first with a relaxed
// fallback for string scalars. The call is transactional.
func (in *Instance) OverrideMap(data map[string]any) error {
	if in.frozen {
		return &FrozenError{}
	}
	flat := make(map[string]any, len(data))
	var errs []error
	in.flattenSource("", data, flat, &errs)
	return in.applyOverrides(flat, ModeStrict, true, errs)
}

// OverrideStrings applies a flat mapping of dotted keys to string values
// using relaxed coercion. This is the entry point for every text-origin
// source.
func (in *Instance) OverrideStrings(data map[string]string) error {
	flat := make(map[string]any, len(data))
	for k, v := range data {
		flat[k] = v
	}
	return in.applyOverrides(flat, ModeRelaxed, false, nil)
}

// OverrideEnv looks up one environment variable per declared leaf path,
// transformed with the default prefix scheme, and applies the values found
// with relaxed coercion.
func (in *Instance) OverrideEnv(prefix string) error {
	return in.overrideEnv(defaultEnvTransform(prefix))
}

func (in *Instance) overrideEnv(transform EnvTransformFunc) error {
	if in.frozen {
		return &FrozenError{}
	}
	found := make(map[string]string)
	for _, path := range in.schema.paths("") {
		if value, exists := os.LookupEnv(transform(path)); exists {
			found[path] = value
		}
	}
	if len(found) == 0 {
		return nil
	}
	return in.OverrideStrings(found)
}

// OverrideCLI parses command-line arguments of the form "--key value",
// "--key=value", or bare "--flag" (boolean true) and applies them with
// relaxed coercion. Unknown flags are rejected by the unknown-key check.
func (in *Instance) OverrideCLI(args []string) error {
	if in.frozen {
		return &FrozenError{}
	}
	parsed, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("parsing CLI arguments: %w", err)
	}
	if len(parsed) == 0 {
		return nil
	}
	return in.OverrideStrings(parsed)
}

// parseArgs processes command-line arguments into a flat dotted-key map.
// Values stay strings; the engine's relaxed coercion owns conversion.
func parseArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// "--" used as a separator
			i++
			continue
		}

		var keyPath, valueStr string
		if strings.Contains(argContent, "=") {
			parts := strings.SplitN(argContent, "=", 2)
			keyPath = parts[0]
			valueStr = parts[1]
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true" // bare boolean flag
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}

		for _, segment := range strings.Split(keyPath, ".") {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in %q", segment, keyPath)
			}
		}

		result[keyPath] = valueStr
	}

	return result, nil
}
