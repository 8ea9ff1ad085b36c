package filter

/*
 * Operator comparison logic.
 *
 * Values should already be coerced via Coerce() before reaching Compare().
 * Numeric comparison handles float64/int/int64 mixing for JSON
 * compatibility. Ordering operators return false for incomparable types.
 *
 * Function-based dispatch: nine operators via switch statement are cleaner
 * than nine interface implementations with minimal behavior variation.
 */

// Operator identifies a condition comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpExists
	OpIsNull
)

// String returns the expression-syntax spelling of the operator.
func (op Operator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpIn:
		return "in"
	case OpExists:
		return "exists"
	case OpIsNull:
		return "is null"
	default:
		return "?"
	}
}

// Compare applies the operator to compare value against target.
// Both values should already be coerced to compatible types.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpIsNull:
		return value == nil
	case OpEq:
		return compareEqual(value, target)
	case OpNeq:
		return !compareEqual(value, target)
	case OpLt:
		return compareOrdered(value, target, func(c int) bool { return c < 0 })
	case OpLte:
		return compareOrdered(value, target, func(c int) bool { return c <= 0 })
	case OpGt:
		return compareOrdered(value, target, func(c int) bool { return c > 0 })
	case OpGte:
		return compareOrdered(value, target, func(c int) bool { return c >= 0 })
	case OpIn:
		return compareIn(value, target)
	default:
		return false
	}
}

// compareEqual performs equality comparison with numeric type mixing.
func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	return a == b
}

// compareOrdered performs a numeric three-way comparison and applies pred
// to the result. Incomparable types never match.
func compareOrdered(a, b any, pred func(int) bool) bool {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return false
	}
	switch {
	case na < nb:
		return pred(-1)
	case na > nb:
		return pred(1)
	default:
		return pred(0)
	}
}

// asNumbers attempts to convert both values to float64 for numeric comparison.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
// Handles float64, int, int64 from JSON unmarshaling.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// compareIn checks if value exists in set using equality semantics.
// Set should be []any from IN operator values.
func compareIn(value, set any) bool {
	arr, ok := set.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}
