// Package selector implements the boolean algebra over stylesheet
// selectors. A selector either reduces to a filter predicate (data
// selectors and compounds built from them) or is pure styling metadata
// that never contributes to feature filtering (type names, pseudo
// properties, pseudo-class contexts).
//
// The reduction is canonical: absorbing elements short-circuit (Never
// under AND, Always under OR), identity elements are elided, singleton
// compounds unwrap, and double negation cancels. Downstream consumers rely
// on this minimality to branch on structural equality against
// filter.Always / filter.Never and skip filtering entirely.
//
// Selectors are immutable values; every operation is a pure function.
package selector

import (
	"strings"

	"github.com/dietrichf/geocss/internal/filter"
)

// Factory supplies the two predicate constructions that depend on the
// external capability: feature-id lookup and expression parsing. Passing
// it explicitly keeps the algebra free of hidden global state and testable
// with a fake.
type Factory interface {
	FeatureID(id string) filter.Predicate
	ParseExpression(text string) (filter.Predicate, error)
}

// Kind discriminates the closed set of selector variants.
type Kind int

const (
	// Data selectors: reduce to a predicate.
	KindAccept Kind = iota
	KindID
	KindExpression
	KindRawPredicate

	// Meta selectors: styling metadata, never reduce to a predicate.
	KindTypeName
	KindPseudoProperty
	KindPseudoClass
	KindParameterizedPseudoClass

	// Compound selectors.
	KindNot
	KindAnd
	KindOr
)

// Selector is one node of a style-rule condition tree. Exactly the fields
// for its Kind are set; the rest stay zero. Construct through the
// functions below rather than struct literals.
type Selector struct {
	Kind Kind

	ID         string           // KindID
	Expression string           // KindExpression: source text
	Pred       filter.Predicate // KindExpression (pre-parsed), KindRawPredicate

	Name  string // KindTypeName, pseudo-class kinds
	Param string // KindParameterizedPseudoClass

	Property string // KindPseudoProperty
	Operator string // KindPseudoProperty
	Value    string // KindPseudoProperty

	Child    *Selector  // KindNot
	Children []Selector // KindAnd, KindOr
}

// Accept matches every feature.
func Accept() Selector {
	return Selector{Kind: KindAccept}
}

// ByID matches the single feature with the given identifier.
func ByID(id string) Selector {
	return Selector{Kind: KindID, ID: id}
}

// Expression parses attribute expression text eagerly through the factory.
// Malformed text fails here, at selector construction time; there is no
// deferred parse at reduction time.
func Expression(f Factory, text string) (Selector, error) {
	pred, err := f.ParseExpression(text)
	if err != nil {
		return Selector{}, err
	}
	return Selector{Kind: KindExpression, Expression: text, Pred: pred}, nil
}

// RawPredicate wraps an already-built predicate.
func RawPredicate(p filter.Predicate) Selector {
	return Selector{Kind: KindRawPredicate, Pred: p}
}

// TypeName scopes a rule to a named feature type. Metadata only.
func TypeName(name string) Selector {
	return Selector{Kind: KindTypeName, Name: name}
}

// PseudoProperty carries a rendering hint such as [@scale < 10000].
// Metadata only; interpreted by the renderer, not by filtering.
func PseudoProperty(property, operator, value string) Selector {
	return Selector{Kind: KindPseudoProperty, Property: property, Operator: operator, Value: value}
}

// PseudoClass scopes a property bundle to a named symbol context.
func PseudoClass(name string) Selector {
	return Selector{Kind: KindPseudoClass, Name: name}
}

// ParameterizedPseudoClass scopes a property bundle to a named symbol
// context at a specific stacking position, e.g. :nth-stroke(2).
func ParameterizedPseudoClass(name, param string) Selector {
	return Selector{Kind: KindParameterizedPseudoClass, Name: name, Param: param}
}

// Not negates a selector.
func Not(s Selector) Selector {
	return Selector{Kind: KindNot, Child: &s}
}

// And conjoins selectors in order.
func And(children ...Selector) Selector {
	return Selector{Kind: KindAnd, Children: children}
}

// Or disjoins selectors in order.
func Or(children ...Selector) Selector {
	return Selector{Kind: KindOr, Children: children}
}

// Exclude is the canonical never-satisfiable selector, Not(Accept).
// Simplify collapses any provably unsatisfiable selector sequence to it,
// and rule satisfiability checks test for it.
func Exclude() Selector {
	return Not(Accept())
}

// IsExclude reports whether s is the canonical exclude selector.
func IsExclude(s Selector) bool {
	return s.Kind == KindNot && s.Child != nil && s.Child.Kind == KindAccept
}

// IsMeta reports whether s is an atomic metadata selector. Compounds are
// never meta, even with metadata nested inside: a poisoned compound is an
// irreducible tree, not a skippable annotation.
func (s Selector) IsMeta() bool {
	switch s.Kind {
	case KindTypeName, KindPseudoProperty, KindPseudoClass, KindParameterizedPseudoClass:
		return true
	}
	return false
}

// FilterOpt reduces the selector to a predicate, or reports false when the
// tree contains styling metadata and therefore cannot be evaluated as
// data. Compounds propagate false from any child: a tree with a context
// marker inside is not meant to be filtered at all.
func (s Selector) FilterOpt(f Factory) (filter.Predicate, bool) {
	switch s.Kind {
	case KindAccept:
		return filter.Always, true

	case KindID:
		return f.FeatureID(s.ID), true

	case KindExpression, KindRawPredicate:
		return s.Pred, true

	case KindTypeName, KindPseudoProperty, KindPseudoClass, KindParameterizedPseudoClass:
		return nil, false

	case KindNot:
		// Double negation cancels before any reduction, so negation
		// never piles up in the result.
		if s.Child.Kind == KindNot {
			return s.Child.Child.FilterOpt(f)
		}
		p, ok := s.Child.FilterOpt(f)
		if !ok {
			return nil, false
		}
		switch p {
		case filter.Always:
			return filter.Never, true
		case filter.Never:
			return filter.Always, true
		}
		return filter.NewNot(p), true

	case KindAnd:
		preds, ok := childPredicates(f, s.Children)
		if !ok {
			return nil, false
		}
		// Never absorbs the whole conjunction regardless of other operands.
		for _, p := range preds {
			if p == filter.Never {
				return filter.Never, true
			}
		}
		remainder := dropConstant(preds, filter.Always)
		switch len(remainder) {
		case 0:
			return filter.Always, true
		case 1:
			return remainder[0], true
		}
		return filter.NewAnd(remainder...), true

	case KindOr:
		preds, ok := childPredicates(f, s.Children)
		if !ok {
			return nil, false
		}
		// Always absorbs the whole disjunction.
		for _, p := range preds {
			if p == filter.Always {
				return filter.Always, true
			}
		}
		remainder := dropConstant(preds, filter.Never)
		switch len(remainder) {
		case 0:
			return filter.Never, true
		case 1:
			return remainder[0], true
		}
		return filter.NewOr(remainder...), true

	default:
		return nil, false
	}
}

// childPredicates reduces all children, reporting false if any child is
// irreducible. The whole child list is inspected before any absorption so
// metadata poisons the compound even next to a Never operand.
func childPredicates(f Factory, children []Selector) ([]filter.Predicate, bool) {
	preds := make([]filter.Predicate, 0, len(children))
	for _, c := range children {
		p, ok := c.FilterOpt(f)
		if !ok {
			return nil, false
		}
		preds = append(preds, p)
	}
	return preds, true
}

// dropConstant removes the identity element, preserving operand order.
func dropConstant(preds []filter.Predicate, identity filter.Predicate) []filter.Predicate {
	remainder := make([]filter.Predicate, 0, len(preds))
	for _, p := range preds {
		if p != identity {
			remainder = append(remainder, p)
		}
	}
	return remainder
}

// Simplify applies absorbing-element simplification at the sequence level:
// a selector sequence combined under AND semantics collapses to the
// canonical exclude selector as soon as any element normalizes to Never.
// Sequences without a Never element pass through untouched; nested
// compound nodes keep simplifying independently inside FilterOpt.
func Simplify(f Factory, selectors []Selector) []Selector {
	for _, s := range selectors {
		if p, ok := s.FilterOpt(f); ok && p == filter.Never {
			return []Selector{Exclude()}
		}
	}
	return selectors
}

// Context is the discriminated key scoping a property bundle: a plain
// pseudo-class or a parameterized one. The absent ("default/unscoped")
// case is a nil *Context in the rule context table.
type Context struct {
	Name  string
	Param string // empty for a plain pseudo-class
}

// Context extracts the context key from a pseudo-class selector.
func (s Selector) Context() (Context, bool) {
	switch s.Kind {
	case KindPseudoClass:
		return Context{Name: s.Name}, true
	case KindParameterizedPseudoClass:
		return Context{Name: s.Name, Param: s.Param}, true
	}
	return Context{}, false
}

// String renders the context in source syntax.
func (c Context) String() string {
	if c.Param != "" {
		return ":" + c.Name + "(" + c.Param + ")"
	}
	return ":" + c.Name
}

// String renders the selector in source-like syntax. AND children join
// with spaces, OR children with commas, mirroring the stylesheet dialect.
func (s Selector) String() string {
	switch s.Kind {
	case KindAccept:
		return "*"
	case KindID:
		return "#" + s.ID
	case KindExpression:
		return "[" + s.Expression + "]"
	case KindRawPredicate:
		return "[" + s.Pred.String() + "]"
	case KindTypeName:
		return s.Name
	case KindPseudoProperty:
		return "[@" + s.Property + " " + s.Operator + " " + s.Value + "]"
	case KindPseudoClass:
		return ":" + s.Name
	case KindParameterizedPseudoClass:
		return ":" + s.Name + "(" + s.Param + ")"
	case KindNot:
		return "not(" + s.Child.String() + ")"
	case KindAnd:
		return joinChildren(s.Children, " ")
	case KindOr:
		return joinChildren(s.Children, ", ")
	default:
		return "?"
	}
}

func joinChildren(children []Selector, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}
