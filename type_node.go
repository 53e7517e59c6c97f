package parametric

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a scalar parameter type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindPath:
		return "path"
	default:
		return "invalid"
	}
}

type variant uint8

const (
	variantScalar variant = iota
	variantOptional
	variantUnion
	variantLiteral
	variantEnum
	variantTuple
	variantVariadic
	variantNested
	variantArray
)

// EnumMember is one named value of an Enum node.
type EnumMember struct {
	Name  string
	Value any
}

// TypeNode is an immutable structural description of a declared field type.
// Nodes are built once per schema field and shared read-only by every
// instance of that schema.
type TypeNode struct {
	variant  variant
	kind     Kind // scalar kind; for arrays, the element kind
	inner    *TypeNode
	elems    []*TypeNode
	literals []any
	members  []EnumMember
	sub      *Schema
}

// Bool declares a boolean field.
func Bool() *TypeNode { return &TypeNode{variant: variantScalar, kind: KindBool} }

// Int declares a 64-bit integer field.
func Int() *TypeNode { return &TypeNode{variant: variantScalar, kind: KindInt} }

// Float declares a 64-bit float field.
func Float() *TypeNode { return &TypeNode{variant: variantScalar, kind: KindFloat} }

// String declares a string field.
func String() *TypeNode { return &TypeNode{variant: variantScalar, kind: KindString} }

// Bytes declares a byte-slice field. Stored values are private copies.
func Bytes() *TypeNode { return &TypeNode{variant: variantScalar, kind: KindBytes} }

// Path declares a filesystem path field. Values are stored as cleaned strings.
func Path() *TypeNode { return &TypeNode{variant: variantScalar, kind: KindPath} }

// Optional wraps a node so that nil (or an empty string in relaxed mode)
// coerces to "no value" without error.
func Optional(inner *TypeNode) *TypeNode {
	return &TypeNode{variant: variantOptional, inner: inner}
}

// Union declares an ordered set of alternatives. Coercion tries each in
// declaration order and the first success wins.
func Union(alts ...*TypeNode) *TypeNode {
	return &TypeNode{variant: variantUnion, elems: alts}
}

// Literal declares a closed set of allowed scalar values.
func Literal(vals ...any) *TypeNode {
	norm := make([]any, len(vals))
	for i, v := range vals {
		if n, ok := normalizeScalar(v); ok {
			norm[i] = n
		} else {
			norm[i] = v // rejected later by validate
		}
	}
	return &TypeNode{variant: variantLiteral, literals: norm}
}

// Enum declares a closed set of named members.
func Enum(members ...EnumMember) *TypeNode {
	norm := make([]EnumMember, len(members))
	for i, m := range members {
		if n, ok := normalizeScalar(m.Value); ok {
			m.Value = n
		}
		norm[i] = m
	}
	return &TypeNode{variant: variantEnum, members: norm}
}

// Member builds one Enum member.
func Member(name string, value any) EnumMember {
	return EnumMember{Name: name, Value: value}
}

// Tuple declares a fixed-arity tuple with one node per position.
func Tuple(elems ...*TypeNode) *TypeNode {
	return &TypeNode{variant: variantTuple, elems: elems}
}

// TupleOf declares a variadic tuple: the element node repeated any number of
// times, including zero.
func TupleOf(elem *TypeNode) *TypeNode {
	return &TypeNode{variant: variantVariadic, inner: elem}
}

// Nested declares a field whose value is a full parameter instance of the
// given sub-schema.
func Nested(sub *Schema) *TypeNode {
	return &TypeNode{variant: variantNested, sub: sub}
}

// IntArray declares a numeric array field with int64 elements.
func IntArray() *TypeNode { return &TypeNode{variant: variantArray, kind: KindInt} }

// FloatArray declares a numeric array field with float64 elements.
func FloatArray() *TypeNode { return &TypeNode{variant: variantArray, kind: KindFloat} }

func (n *TypeNode) String() string {
	if n == nil {
		return "nil"
	}
	switch n.variant {
	case variantScalar:
		return n.kind.String()
	case variantOptional:
		return "optional[" + n.inner.String() + "]"
	case variantUnion:
		parts := make([]string, len(n.elems))
		for i, e := range n.elems {
			parts[i] = e.String()
		}
		return "union[" + strings.Join(parts, ", ") + "]"
	case variantLiteral:
		parts := make([]string, len(n.literals))
		for i, v := range n.literals {
			parts[i] = fmt.Sprintf("%v", v)
		}
		return "literal[" + strings.Join(parts, ", ") + "]"
	case variantEnum:
		parts := make([]string, len(n.members))
		for i, m := range n.members {
			parts[i] = m.Name
		}
		return "enum[" + strings.Join(parts, ", ") + "]"
	case variantTuple:
		parts := make([]string, len(n.elems))
		for i, e := range n.elems {
			parts[i] = e.String()
		}
		return "tuple[" + strings.Join(parts, ", ") + "]"
	case variantVariadic:
		return "tuple[" + n.inner.String() + ", ...]"
	case variantNested:
		return "params"
	case variantArray:
		return "array[" + n.kind.String() + "]"
	default:
		return "invalid"
	}
}

// validate rejects unsupported or ambiguous declarations. Called once per
// field at schema build; coercion never sees an invalid node.
func (n *TypeNode) validate() error {
	if n == nil {
		return errors.New("nil type node")
	}
	switch n.variant {
	case variantScalar:
		if n.kind == KindInvalid || n.kind > KindPath {
			return errors.New("invalid scalar kind")
		}
	case variantOptional:
		if n.inner == nil {
			return errors.New("optional requires an inner type")
		}
		if n.inner.variant == variantOptional {
			return errors.New("optional of optional is ambiguous")
		}
		return n.inner.validate()
	case variantUnion:
		if len(n.elems) < 2 {
			return errors.New("union requires at least two alternatives")
		}
		for i, e := range n.elems {
			if e != nil && e.variant == variantOptional {
				return errors.New("optional inside union is ambiguous, wrap the union in Optional instead")
			}
			if err := e.validate(); err != nil {
				return fmt.Errorf("union alternative %d: %w", i, err)
			}
		}
	case variantLiteral:
		if len(n.literals) == 0 {
			return errors.New("literal requires at least one value")
		}
		for _, v := range n.literals {
			if _, ok := normalizeScalar(v); !ok {
				return fmt.Errorf("literal value %v (%T) is not a scalar", v, v)
			}
		}
	case variantEnum:
		if len(n.members) == 0 {
			return errors.New("enum requires at least one member")
		}
		names := make(map[string]bool, len(n.members))
		for _, m := range n.members {
			if m.Name == "" {
				return errors.New("enum member name cannot be empty")
			}
			if names[m.Name] {
				return fmt.Errorf("duplicate enum member name %q", m.Name)
			}
			names[m.Name] = true
			if _, ok := normalizeScalar(m.Value); !ok {
				return fmt.Errorf("enum member %q value %v (%T) is not a scalar", m.Name, m.Value, m.Value)
			}
			for _, other := range n.members {
				if other.Name != m.Name && scalarEqual(other.Value, m.Value) {
					return fmt.Errorf("enum members %q and %q share value %v", m.Name, other.Name, m.Value)
				}
			}
		}
	case variantTuple:
		if len(n.elems) == 0 {
			return errors.New("tuple requires at least one element type")
		}
		for i, e := range n.elems {
			if err := e.validate(); err != nil {
				return fmt.Errorf("tuple element %d: %w", i, err)
			}
		}
	case variantVariadic:
		if n.inner == nil {
			return errors.New("variadic tuple requires an element type")
		}
		return n.inner.validate()
	case variantNested:
		if n.sub == nil {
			return errors.New("nested requires a sub-schema")
		}
	case variantArray:
		if n.kind != KindInt && n.kind != KindFloat {
			return errors.New("numeric array element kind must be int or float")
		}
	default:
		return errors.New("unsupported type node")
	}
	return nil
}
