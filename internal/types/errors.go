package types

import "errors"

// Sentinel errors for geocss compilation operations.
var (
	// ErrUnresolvedSelector indicates GetFilter was called on a rule whose
	// selector list still reduces to no predicate (a meta selector was not
	// separated into the context table). Programming-contract violation,
	// not a recoverable runtime condition.
	ErrUnresolvedSelector = errors.New("selector list does not reduce to a predicate")

	// ErrPathTooDeep indicates an attribute path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("attribute path exceeds maximum depth")

	// ErrTooManyWildcards indicates an attribute path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("attribute path has too many wildcards")

	// ErrTooManyInValues indicates an IN operator exceeds MaxInOperatorValues.
	ErrTooManyInValues = errors.New("IN operator has too many values")

	// ErrTooManyRules indicates cascade unification received more than
	// MaxCascadeRules input rules.
	ErrTooManyRules = errors.New("too many rules for cascade unification")

	// ErrFieldNotFound indicates an attribute path could not be resolved
	// in a feature document.
	ErrFieldNotFound = errors.New("attribute not found")

	// ErrCoercionFailed indicates type coercion of an attribute value failed.
	ErrCoercionFailed = errors.New("type coercion failed")
)
