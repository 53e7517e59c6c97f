package parametric

import (
	"fmt"
	"strings"
)

// DefinitionError reports an unsupported or ambiguous declared type, or any
// other problem found while building a Schema. It is always surfaced at
// definition time, never deferred to override time.
type DefinitionError struct {
	Field  string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return "schema definition: " + e.Reason
	}
	return fmt.Sprintf("schema definition: field %q: %s", e.Field, e.Reason)
}

// CoercionError reports a raw value that cannot be converted to its declared
// type under the active mode. Path is the dotted field path into nested
// schemas. For Union nodes, Alternatives carries every alternative's failure.
type CoercionError struct {
	Path         string
	Raw          any
	Node         *TypeNode
	Reason       string
	Alternatives []error
}

func (e *CoercionError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s: cannot coerce %v (%T) to %s", e.Path, e.Raw, e.Raw, e.Node)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	for _, alt := range e.Alternatives {
		b.WriteString("; ")
		b.WriteString(alt.Error())
	}
	return b.String()
}

// UnknownKeyError reports an override key that does not correspond to any
// declared field, top-level or nested. Unknown keys are never silently
// ignored.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown parameter key %q", e.Key)
}

// MissingFieldsError is returned by Freeze when required fields are still
// empty. Paths lists every empty required field, not just the first.
type MissingFieldsError struct {
	Paths []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required parameters: " + strings.Join(e.Paths, ", ")
}

// FrozenError reports a write attempted after Freeze.
type FrozenError struct {
	Path string
}

func (e *FrozenError) Error() string {
	if e.Path == "" {
		return "parameter set is frozen"
	}
	return fmt.Sprintf("parameter set is frozen, cannot set %q", e.Path)
}

func coercionErr(path string, raw any, node *TypeNode, format string, args ...any) *CoercionError {
	return &CoercionError{Path: path, Raw: raw, Node: node, Reason: fmt.Sprintf(format, args...)}
}
