package cascade

import (
	"strings"

	"github.com/dietrichf/geocss/internal/selector"
	"github.com/dietrichf/geocss/internal/types"
)

// Doc is the JSON encoding of a compiled rule: what the CLI emits and the
// catalog stores. Filter is the reduced predicate in expression syntax;
// "true" means the rule matches every feature.
type Doc struct {
	Title    string       `json:"title,omitempty"`
	Abstract string       `json:"abstract,omitempty"`
	Selector string       `json:"selector,omitempty"`
	Filter   string       `json:"filter"`
	Contexts []ContextDoc `json:"contexts"`
}

// ContextDoc is one context-table entry. Context is the source-syntax key
// (":stroke", ":nth-stroke(2)"); empty means the default bundle.
type ContextDoc struct {
	Context    string        `json:"context,omitempty"`
	Properties []PropertyDoc `json:"properties"`
}

// PropertyDoc is a property with its value groups rendered back to source
// syntax.
type PropertyDoc struct {
	Name   string     `json:"name"`
	Values [][]string `json:"values"`
}

// Encode renders a rule to its document form. Fails only when the rule's
// filter cannot be reduced, which indicates meta selectors were never
// separated out.
func Encode(f selector.Factory, r Rule) (Doc, error) {
	pred, err := r.GetFilter(f)
	if err != nil {
		return Doc{}, err
	}

	doc := Doc{
		Filter:   pred.String(),
		Contexts: make([]ContextDoc, 0, len(r.Contexts)),
	}
	if r.Description.Title != nil {
		doc.Title = *r.Description.Title
	}
	if r.Description.Abstract != nil {
		doc.Abstract = *r.Description.Abstract
	}

	parts := make([]string, len(r.Selectors))
	for i, s := range r.Selectors {
		parts[i] = s.String()
	}
	doc.Selector = strings.Join(parts, " ")

	for _, e := range r.Contexts {
		cd := ContextDoc{Properties: make([]PropertyDoc, 0, len(e.Properties))}
		if e.Context != nil {
			cd.Context = e.Context.String()
		}
		for _, prop := range e.Properties {
			cd.Properties = append(cd.Properties, encodeProperty(prop))
		}
		doc.Contexts = append(doc.Contexts, cd)
	}
	return doc, nil
}

func encodeProperty(p types.Property) PropertyDoc {
	doc := PropertyDoc{Name: p.Name, Values: make([][]string, 0, len(p.Values))}
	for _, group := range p.Values {
		rendered := make([]string, len(group))
		for i, v := range group {
			rendered[i] = FormatValue(v)
		}
		doc.Values = append(doc.Values, rendered)
	}
	return doc
}

// FormatValue renders a property value back to source syntax.
func FormatValue(v types.Value) string {
	switch v.Kind {
	case types.ValueFunction:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = FormatValue(a)
		}
		return v.Function + "(" + strings.Join(args, ", ") + ")"
	case types.ValueExpression:
		return "[" + v.Expression + "]"
	default:
		return v.Literal
	}
}
