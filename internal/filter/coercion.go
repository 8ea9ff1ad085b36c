package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dietrichf/geocss/internal/types"
)

/*
 * Type coercion for predicate evaluation.
 *
 * Attribute values arrive as whatever encoding/json produced; the literal
 * in a condition fixes the expected type. NUMERIC and BOOLEAN are strict,
 * TEXT is lenient (everything has a string form), ANY preserves the
 * original type and leaves cross-type handling to Compare.
 *
 * Null values and coercion failures are distinct outcomes: a null attribute
 * satisfies "is null" while a failed coercion simply does not match.
 */

// FieldType specifies the expected type of a compared attribute.
type FieldType int

const (
	FieldTypeAny FieldType = iota
	FieldTypeNumeric
	FieldTypeText
	FieldTypeBoolean
)

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil/null
}

// Coerce attempts to convert value to the expected field type.
// Returns CoercionResult with IsNull=true for nil input.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, fieldType FieldType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}

	switch fieldType {
	case FieldTypeNumeric:
		return coerceNumeric(value)
	case FieldTypeText:
		return coerceText(value)
	case FieldTypeBoolean:
		return coerceBoolean(value)
	case FieldTypeAny:
		return CoercionResult{Value: value}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceNumeric converts value to float64 for numeric comparison.
// Accepts float64, int, int64, and numeric strings. Rejects booleans.
func coerceNumeric(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case float64:
		return CoercionResult{Value: v}, nil
	case int:
		return CoercionResult{Value: float64(v)}, nil
	case int64:
		return CoercionResult{Value: float64(v)}, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			// Empty/whitespace-only strings are not valid numbers
			return CoercionResult{}, types.ErrCoercionFailed
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: f}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceText converts all types to string representation for text comparison.
func coerceText(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		return CoercionResult{Value: v}, nil
	case float64:
		return CoercionResult{Value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case int:
		return CoercionResult{Value: strconv.Itoa(v)}, nil
	case int64:
		return CoercionResult{Value: strconv.FormatInt(v, 10)}, nil
	case bool:
		if v {
			return CoercionResult{Value: "true"}, nil
		}
		return CoercionResult{Value: "false"}, nil
	default:
		return CoercionResult{Value: fmt.Sprintf("%v", v)}, nil
	}
}

// coerceBoolean validates value is boolean type.
// Strict: no string-to-boolean coercion (avoids "true" vs 1 ambiguity).
func coerceBoolean(value any) (CoercionResult, error) {
	if v, ok := value.(bool); ok {
		return CoercionResult{Value: v}, nil
	}
	return CoercionResult{}, types.ErrCoercionFailed
}
