// Package types provides domain models shared across geocss components.
//
// Zero-dependency design: types.go, description.go, and errors.go use only
// the standard library so the compiler core stays import-light. ID utilities
// in ids.go import uuid but are isolated for selective inclusion.
//
// All values in this package are immutable after construction. Stylesheet
// compilation is a pipeline of pure transformations, so the same Value,
// Property, and Description instances may be shared across goroutines
// without synchronization.
package types

// ValueKind discriminates the variants of a property Value.
type ValueKind int

const (
	// ValueLiteral is plain text: a quoted string, a bare keyword, or a number.
	ValueLiteral ValueKind = iota
	// ValueFunction is a function call with ordered arguments.
	ValueFunction
	// ValueExpression is raw attribute-expression text, evaluated per feature
	// at render time rather than at compile time.
	ValueExpression
)

// Value represents a single parsed property value.
// Exactly the fields for its Kind are set; the rest stay zero.
type Value struct {
	Kind       ValueKind
	Literal    string  // ValueLiteral: the literal text
	Function   string  // ValueFunction: function name
	Args       []Value // ValueFunction: ordered arguments
	Expression string  // ValueExpression: raw expression text
}

// Literal constructs a plain literal value.
func Literal(text string) Value {
	return Value{Kind: ValueLiteral, Literal: text}
}

// Function constructs a function-call value with ordered arguments.
func Function(name string, args ...Value) Value {
	return Value{Kind: ValueFunction, Function: name, Args: args}
}

// Expression constructs a raw-expression value.
func Expression(text string) Value {
	return Value{Kind: ValueExpression, Expression: text}
}

// Property is a named style property with its alternative value groups.
// Source syntax "stroke: blue, red white;" yields two groups: [blue] and
// [red white]. Group order is declaration order; alternative groups feed
// symbol stacking downstream.
type Property struct {
	Name   string
	Values [][]Value
}

// NewProperty constructs a property from ordered value groups.
func NewProperty(name string, groups ...[]Value) Property {
	return Property{Name: name, Values: groups}
}

// Resource limits enforced during compilation to keep cascade resolution
// and predicate evaluation bounded.
const (
	// MaxPathDepth prevents stack overflow during recursive attribute
	// path resolution. 16 levels handles deeply nested feature documents.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion to prevent combinatorial
	// fan-out when resolving paths like items[*].tags[*].
	MaxNestedWildcards = 2

	// MaxInOperatorValues limits IN membership lists to keep comparisons
	// linear in practice.
	MaxInOperatorValues = 64

	// MaxCascadeRules caps the input to cascade unification. Unification
	// explores the power set of overlapping rules, so 16 rules bound the
	// search at 65536 combinations before satisfiability pruning.
	MaxCascadeRules = 16
)
