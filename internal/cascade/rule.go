// Package cascade implements the style-rule model and CSS-style cascade
// semantics on top of the selector algebra: merging partially-overlapping
// rules, reducing a rule to its feature filter, and resolving which
// property bundle applies to a named symbol context at a stacking
// position.
//
// Rules are immutable values; every operation returns a new value. Cascade
// resolution is a fold of Merge over sibling rules.
package cascade

import (
	"strconv"

	"github.com/dietrichf/geocss/internal/filter"
	"github.com/dietrichf/geocss/internal/selector"
	"github.com/dietrichf/geocss/internal/types"
)

// ContextEntry binds one property bundle to its scope. A nil Context is
// the default, unscoped bundle.
type ContextEntry struct {
	Context    *selector.Context
	Properties []types.Property
}

// Rule aggregates a description, a selector sequence, and an ordered
// context table. The selector sequence is an implicit conjunction: the
// rule matches features satisfying every selector.
type Rule struct {
	Description types.Description
	Selectors   []selector.Selector
	Contexts    []ContextEntry
}

// EmptyRule is the identity-like sentinel: empty description, no
// selectors (matches everything), no contexts.
var EmptyRule = Rule{}

// Merge combines two rules into one matching the intersection of the
// parents' feature sets. Descriptions combine field-wise, selector
// sequences concatenate under AND semantics (with sequence-level
// simplification applied), and context tables concatenate without
// deduplication. Shadowing happens at resolution time, never here.
func Merge(f selector.Factory, a, b Rule) Rule {
	selectors := make([]selector.Selector, 0, len(a.Selectors)+len(b.Selectors))
	selectors = append(selectors, a.Selectors...)
	selectors = append(selectors, b.Selectors...)

	contexts := make([]ContextEntry, 0, len(a.Contexts)+len(b.Contexts))
	contexts = append(contexts, a.Contexts...)
	contexts = append(contexts, b.Contexts...)

	return Rule{
		Description: types.Combine(a.Description, b.Description),
		Selectors:   selector.Simplify(f, selectors),
		Contexts:    contexts,
	}
}

// IsSatisfiable reports whether the rule can match any feature: false iff
// the selector list carries the canonical exclude selector.
func (r Rule) IsSatisfiable() bool {
	for _, s := range r.Selectors {
		if selector.IsExclude(s) {
			return false
		}
	}
	return true
}

// GetFilter reduces the rule's predicate-capable selectors to a single
// predicate. Atomic meta selectors (type names, pseudo properties,
// contexts the parser left in place) are skipped; they scope styling, not
// data. Compounds stay in the conjunction even when metadata is nested
// inside them, so an irreducible tree surfaces as ErrUnresolvedSelector
// instead of silently dropping out.
func (r Rule) GetFilter(f selector.Factory) (filter.Predicate, error) {
	data := make([]selector.Selector, 0, len(r.Selectors))
	for _, s := range r.Selectors {
		if s.IsMeta() {
			continue
		}
		data = append(data, s)
	}
	p, ok := selector.And(data...).FilterOpt(f)
	if !ok {
		return nil, types.ErrUnresolvedSelector
	}
	return p, nil
}

// NegatedSelector returns a selector matching anything this rule does not
// match: the OR of the negated selector sequence. Used to build
// "else"/fallback rules during cascade unification.
func (r Rule) NegatedSelector() selector.Selector {
	negated := make([]selector.Selector, len(r.Selectors))
	for i, s := range r.Selectors {
		negated[i] = selector.Not(s)
	}
	return selector.Or(negated...)
}

// Properties returns the default, unscoped property bundle: the flattened
// concatenation of every context-table entry with no context key.
func (r Rule) Properties() []types.Property {
	var out []types.Property
	for _, e := range r.Contexts {
		if e.Context == nil {
			out = append(out, e.Properties...)
		}
	}
	return out
}

// Context resolves the property bundles applying to the given symbol name
// at the given stacking position. Four candidate keys match, from the most
// specific (this symbol at this position) to the generic symbol fallback;
// every matching declaration applies (union, not best-match-wins) in
// context-table order.
func (r Rule) Context(symbolName string, order int) []types.Property {
	ord := strconv.Itoa(order)
	candidates := []selector.Context{
		{Name: "nth-" + symbolName, Param: ord},
		{Name: "nth-symbol", Param: ord},
		{Name: symbolName},
		{Name: "symbol"},
	}

	var out []types.Property
	for _, e := range r.Contexts {
		if e.Context == nil {
			continue
		}
		for _, c := range candidates {
			if *e.Context == c {
				out = append(out, e.Properties...)
				break
			}
		}
	}
	return out
}
