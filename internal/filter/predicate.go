// Package filter provides the boolean predicate capability the selector
// algebra reduces to: opaque predicates over JSON feature documents with
// the absorbing singletons Always and Never.
//
// Construction is the only mutation point; predicates are immutable and
// safe for concurrent evaluation. Combinators build structure without
// simplifying; minimization is the selector algebra's job, which lets
// downstream consumers branch on structural equality to Always/Never to
// skip filtering entirely.
package filter

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/dietrichf/geocss/internal/types"
)

// Predicate is a boolean feature-selection expression. Evaluation is a pure
// function over the feature document; any number of goroutines may call
// Matches concurrently.
type Predicate interface {
	// Matches reports whether the feature document satisfies the predicate.
	Matches(feature json.RawMessage) (bool, error)
	// String renders the predicate in the attribute expression syntax.
	String() string
}

// constant is the type of the Always/Never singletons. Equality against
// Always or Never is structural: p == Always.
type constant bool

// Always matches every feature; Never matches none. These are the identity
// and absorbing elements of the predicate algebra.
var (
	Always Predicate = constant(true)
	Never  Predicate = constant(false)
)

func (c constant) Matches(json.RawMessage) (bool, error) { return bool(c), nil }

func (c constant) String() string {
	if c {
		return "true"
	}
	return "false"
}

// andPredicate matches when every operand matches. Empty operand lists are
// not constructed; the selector algebra elides them before building.
type andPredicate struct {
	operands []Predicate
}

// NewAnd builds a conjunction over the operands in order.
func NewAnd(operands ...Predicate) Predicate {
	return &andPredicate{operands: operands}
}

func (p *andPredicate) Matches(feature json.RawMessage) (bool, error) {
	for _, op := range p.operands {
		ok, err := op.Matches(feature)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (p *andPredicate) String() string { return joinOperands(p.operands, " and ") }

// orPredicate matches when any operand matches.
type orPredicate struct {
	operands []Predicate
}

// NewOr builds a disjunction over the operands in order.
func NewOr(operands ...Predicate) Predicate {
	return &orPredicate{operands: operands}
}

func (p *orPredicate) Matches(feature json.RawMessage) (bool, error) {
	for _, op := range p.operands {
		ok, err := op.Matches(feature)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (p *orPredicate) String() string { return joinOperands(p.operands, " or ") }

// notPredicate inverts its operand.
type notPredicate struct {
	operand Predicate
}

// NewNot negates a predicate.
func NewNot(operand Predicate) Predicate {
	return &notPredicate{operand: operand}
}

func (p *notPredicate) Matches(feature json.RawMessage) (bool, error) {
	ok, err := p.operand.Matches(feature)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (p *notPredicate) String() string { return "not (" + p.operand.String() + ")" }

// featureIDPredicate matches a feature whose top-level "id" member equals
// the identifier, compared textually so numeric ids work unquoted.
type featureIDPredicate struct {
	id string
}

// NewFeatureID builds a predicate identifying a single feature by id.
func NewFeatureID(id string) Predicate {
	return &featureIDPredicate{id: id}
}

func (p *featureIDPredicate) Matches(feature json.RawMessage) (bool, error) {
	res, err := Resolve([]PathSegment{{Key: "id"}}, feature)
	if err != nil {
		if errors.Is(err, types.ErrFieldNotFound) {
			return false, nil
		}
		return false, err
	}
	coerced, err := Coerce(res.Value, FieldTypeText)
	if err != nil || coerced.IsNull {
		return false, nil
	}
	return coerced.Value == p.id, nil
}

func (p *featureIDPredicate) String() string { return "id = " + quoteLiteral(p.id) }

// conditionPredicate compares one attribute against a literal (or literal
// set for IN). The field type is fixed at construction from the literal.
type conditionPredicate struct {
	path      []PathSegment
	op        Operator
	fieldType FieldType
	value     any   // comparison value (nil for exists/is null)
	values    []any // for IN operator
}

// NewCondition builds an attribute comparison predicate.
func NewCondition(path []PathSegment, op Operator, fieldType FieldType, value any, values []any) Predicate {
	return &conditionPredicate{path: path, op: op, fieldType: fieldType, value: value, values: values}
}

// Matches enumerates every candidate value for the attribute path and
// applies the operator to each; the predicate matches when any candidate
// satisfies it (wildcard ANY semantics). A missing attribute satisfies
// only "is null"; a failed coercion never matches that candidate. Both
// outcomes are ordinary non-matches, not errors.
func (c *conditionPredicate) Matches(feature json.RawMessage) (bool, error) {
	results, err := ResolveAll(c.path, feature)
	if err != nil {
		if errors.Is(err, types.ErrFieldNotFound) {
			return c.op == OpIsNull, nil
		}
		return false, err
	}

	var target any
	if c.op == OpIn {
		target = c.values
	} else {
		target = c.value
	}

	for _, res := range results {
		coerced, err := Coerce(res.Value, c.fieldType)
		if err != nil {
			if errors.Is(err, types.ErrCoercionFailed) {
				continue
			}
			return false, err
		}
		if coerced.IsNull {
			if c.op == OpIsNull {
				return true, nil
			}
			continue
		}
		if Compare(c.op, coerced.Value, target) {
			return true, nil
		}
	}
	return false, nil
}

func (c *conditionPredicate) String() string {
	path := FormatPath(c.path)
	switch c.op {
	case OpExists, OpIsNull:
		return path + " " + c.op.String()
	case OpIn:
		parts := make([]string, len(c.values))
		for i, v := range c.values {
			parts[i] = formatLiteral(v)
		}
		return path + " in (" + strings.Join(parts, ", ") + ")"
	default:
		return path + " " + c.op.String() + " " + formatLiteral(c.value)
	}
}

// joinOperands parenthesizes a compound rendering so nesting stays
// unambiguous when round-tripped through ParseExpression.
func joinOperands(operands []Predicate, sep string) string {
	parts := make([]string, len(operands))
	for i, op := range operands {
		parts[i] = op.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func formatLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return quoteLiteral(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return "null"
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
