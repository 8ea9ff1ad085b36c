package cascade

import (
	"sort"

	"github.com/dietrichf/geocss/internal/filter"
	"github.com/dietrichf/geocss/internal/selector"
	"github.com/dietrichf/geocss/internal/types"
)

/*
 * Cascade unification.
 *
 * Overlapping stylesheet rules become a set of mutually exclusive rules:
 * for every combination of input rules, the included rules merge and every
 * excluded rule contributes its negated selector, so each output rule
 * matches exactly the features covered by its included parents and nothing
 * covered by the rest.
 *
 * The search walks the power set depth-first, pruning any branch whose
 * accumulated selector sequence simplifies to the canonical exclude
 * selector. MaxCascadeRules bounds the input because the worst case is
 * 2^n combinations.
 *
 * Output order is most-specific-first by filter complexity (stable, so
 * equally specific combinations keep generation order), mirroring how CSS
 * resolves competing rules toward the more specific selector.
 */

// Unify resolves overlapping rules into mutually exclusive ones.
// Returns ErrTooManyRules when the input exceeds MaxCascadeRules.
func Unify(f selector.Factory, rules []Rule) ([]Rule, error) {
	if len(rules) > types.MaxCascadeRules {
		return nil, types.ErrTooManyRules
	}

	var out []Rule
	var build func(idx int, acc Rule, included int)
	build = func(idx int, acc Rule, included int) {
		if !acc.IsSatisfiable() {
			return
		}
		if idx == len(rules) {
			if included > 0 {
				out = append(out, acc)
			}
			return
		}

		build(idx+1, Merge(f, acc, rules[idx]), included+1)

		excluded := Rule{
			Description: acc.Description,
			Selectors:   excludeSelectors(f, acc, rules[idx]),
			Contexts:    acc.Contexts,
		}
		build(idx+1, excluded, included)
	}
	build(0, EmptyRule, 0)

	// Specificity is computed once per rule, then the stable sort keeps
	// generation order among ties.
	keyed := make([]struct {
		rule Rule
		spec int
	}, len(out))
	for i, r := range out {
		keyed[i].rule = r
		keyed[i].spec = specificity(f, r)
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].spec > keyed[j].spec
	})
	for i := range keyed {
		out[i] = keyed[i].rule
	}
	return out, nil
}

// excludeSelectors appends the negation of an excluded rule to the
// accumulated selector sequence, re-simplifying so contradictory
// combinations collapse to the exclude selector and prune.
func excludeSelectors(f selector.Factory, acc, excluded Rule) []selector.Selector {
	selectors := make([]selector.Selector, 0, len(acc.Selectors)+1)
	selectors = append(selectors, acc.Selectors...)
	selectors = append(selectors, excluded.NegatedSelector())
	return selector.Simplify(f, selectors)
}

// specificity estimates how narrowly a rule selects, using the predicate
// complexity model. Rules whose filter cannot be reduced rank last.
func specificity(f selector.Factory, r Rule) int {
	p, err := r.GetFilter(f)
	if err != nil {
		return 0
	}
	return filter.Complexity(p)
}
