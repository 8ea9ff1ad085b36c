package filter

/*
 * Complexity model for predicates.
 *
 * Estimates evaluation effort per predicate node. Cascade unification uses
 * the estimate as a specificity measure: rules carrying more (and more
 * expensive) conditions sort ahead of broader ones, mirroring how CSS
 * prefers specific selectors over generic ones.
 *
 * cost = lookup_cost + (operator_cost * type_multiplier * 8^wildcards)
 *
 * Wildcard execution multiplier: 8^n reflects worst-case fanout per
 * wildcard; MaxNestedWildcards caps the ceiling at 64x.
 */

const (
	// Operator base costs
	costExists = 1
	costIsNull = 1
	costEq     = 5
	costNeq    = 5
	costOrder  = 7
	costIn     = 8

	// Attribute lookup cost per key component
	costLookupPerSegment = 128

	// Field type multipliers
	multiplierBool   = 1
	multiplierFloat  = 4
	multiplierString = 48
	multiplierAny    = 128
)

// Complexity estimates the evaluation cost of a predicate. Always and
// Never cost nothing; compounds sum their operands.
func Complexity(p Predicate) int {
	switch v := p.(type) {
	case constant:
		return 0
	case *andPredicate:
		return sumComplexity(v.operands)
	case *orPredicate:
		return sumComplexity(v.operands)
	case *notPredicate:
		return Complexity(v.operand)
	case *featureIDPredicate:
		return costLookupPerSegment + costEq*multiplierString
	case *conditionPredicate:
		return conditionComplexity(v)
	default:
		return multiplierAny
	}
}

func sumComplexity(operands []Predicate) int {
	total := 0
	for _, op := range operands {
		total += Complexity(op)
	}
	return total
}

// conditionComplexity computes
// lookup_cost + (operator_cost * field_type_multiplier * 8^wildcards).
func conditionComplexity(c *conditionPredicate) int {
	lookupCost := 0
	wildcardCount := 0
	for _, seg := range c.path {
		if seg.Key != "" {
			lookupCost += costLookupPerSegment
		}
		if seg.Wildcard {
			wildcardCount++
		}
	}

	execMult := 1
	for i := 0; i < wildcardCount; i++ {
		execMult *= 8
	}

	return lookupCost + operatorCost(c.op)*typeMultiplier(c.fieldType)*execMult
}

func operatorCost(op Operator) int {
	switch op {
	case OpExists, OpIsNull:
		return costExists
	case OpEq, OpNeq:
		return costEq
	case OpLt, OpLte, OpGt, OpGte:
		return costOrder
	case OpIn:
		return costIn
	default:
		return costEq
	}
}

// typeMultiplier returns cost multiplier based on field type complexity.
// String/Any comparisons cost more than numeric/boolean ones.
func typeMultiplier(ft FieldType) int {
	switch ft {
	case FieldTypeNumeric:
		return multiplierFloat
	case FieldTypeBoolean:
		return multiplierBool
	case FieldTypeText:
		return multiplierString
	default:
		return multiplierAny
	}
}
