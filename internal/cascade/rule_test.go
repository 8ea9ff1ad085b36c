package cascade

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dietrichf/geocss/internal/filter"
	"github.com/dietrichf/geocss/internal/selector"
	"github.com/dietrichf/geocss/internal/types"
)

func strptr(s string) *string { return &s }

func mustExpression(t *testing.T, f selector.Factory, text string) selector.Selector {
	t.Helper()
	s, err := selector.Expression(f, text)
	if err != nil {
		t.Fatalf("Expression(%q) error = %v", text, err)
	}
	return s
}

func TestMerge(t *testing.T) {
	f := filter.NewEngine()

	river := Rule{
		Description: types.Description{Title: strptr("Rivers")},
		Selectors:   []selector.Selector{mustExpression(t, f, "waterway = 'river'")},
		Contexts: []ContextEntry{
			{Properties: []types.Property{types.NewProperty("stroke", []types.Value{types.Literal("blue")})}},
		},
	}
	wide := Rule{
		Description: types.Description{Title: strptr("Wide")},
		Selectors:   []selector.Selector{mustExpression(t, f, "width > 10")},
		Contexts: []ContextEntry{
			{Properties: []types.Property{types.NewProperty("stroke-width", []types.Value{types.Literal("3")})}},
		},
	}

	merged := Merge(f, river, wide)

	if got := *merged.Description.Title; got != "Rivers with Wide" {
		t.Errorf("Title = %q", got)
	}
	if len(merged.Selectors) != 2 {
		t.Fatalf("Selectors = %d, want concatenation of both", len(merged.Selectors))
	}
	if len(merged.Contexts) != 2 {
		t.Fatalf("Contexts = %d, want concatenation of both", len(merged.Contexts))
	}

	// The merged filter is the conjunction of the parents.
	pred, err := merged.GetFilter(f)
	if err != nil {
		t.Fatalf("GetFilter() error = %v", err)
	}
	if ok, _ := pred.Matches(json.RawMessage(`{"waterway": "river", "width": 15}`)); !ok {
		t.Error("merged rule should match the intersection")
	}
	if ok, _ := pred.Matches(json.RawMessage(`{"waterway": "river", "width": 5}`)); ok {
		t.Error("merged rule should not match one parent only")
	}

	// Merging in an unsatisfiable rule collapses the sequence.
	dead := Merge(f, river, Rule{Selectors: []selector.Selector{selector.Exclude()}})
	if dead.IsSatisfiable() {
		t.Error("merge with an exclude rule must be unsatisfiable")
	}
}

func TestMerge_EmptyRuleIdentity(t *testing.T) {
	f := filter.NewEngine()
	r := Rule{
		Description: types.Description{Title: strptr("Rivers")},
		Selectors:   []selector.Selector{mustExpression(t, f, "waterway = 'river'")},
	}

	merged := Merge(f, EmptyRule, r)
	if *merged.Description.Title != "Rivers" || len(merged.Selectors) != 1 {
		t.Error("merging with the empty rule should be a no-op in content")
	}
}

func TestGetFilter(t *testing.T) {
	f := filter.NewEngine()

	// Meta selectors are skipped, not errors.
	r := Rule{Selectors: []selector.Selector{
		selector.TypeName("waterway"),
		mustExpression(t, f, "width > 10"),
		selector.PseudoProperty("scale", "<", "10000"),
	}}
	pred, err := r.GetFilter(f)
	if err != nil {
		t.Fatalf("GetFilter() error = %v", err)
	}
	if ok, _ := pred.Matches(json.RawMessage(`{"width": 20}`)); !ok {
		t.Error("data selector should survive metadata siblings")
	}

	// A rule with only metadata reduces to Always.
	metaOnly := Rule{Selectors: []selector.Selector{selector.TypeName("road")}}
	pred, err = metaOnly.GetFilter(f)
	if err != nil {
		t.Fatalf("GetFilter() error = %v", err)
	}
	if pred != filter.Always {
		t.Errorf("metadata-only rule = %v, want Always", pred)
	}

	// Metadata nested inside a compound is irreducible.
	poisoned := Rule{Selectors: []selector.Selector{
		selector.And(selector.TypeName("road"), mustExpression(t, f, "width > 10")),
	}}
	if _, err := poisoned.GetFilter(f); !errors.Is(err, types.ErrUnresolvedSelector) {
		t.Errorf("GetFilter() error = %v, want ErrUnresolvedSelector", err)
	}

	// A healthy sibling does not rescue the poisoned compound; it must not
	// degrade to matching everything.
	mixed := Rule{Selectors: []selector.Selector{
		mustExpression(t, f, "waterway = 'river'"),
		selector.And(selector.TypeName("road"), mustExpression(t, f, "width > 10")),
	}}
	if _, err := mixed.GetFilter(f); !errors.Is(err, types.ErrUnresolvedSelector) {
		t.Errorf("GetFilter() error = %v, want ErrUnresolvedSelector", err)
	}
}

func TestNegatedSelector(t *testing.T) {
	f := filter.NewEngine()
	r := Rule{Selectors: []selector.Selector{
		mustExpression(t, f, "waterway = 'river'"),
		mustExpression(t, f, "width > 10"),
	}}

	pred, ok := r.NegatedSelector().FilterOpt(f)
	if !ok {
		t.Fatal("negated selector should reduce")
	}

	// De Morgan: matches anything failing at least one parent condition.
	if ok, _ := pred.Matches(json.RawMessage(`{"waterway": "river", "width": 15}`)); ok {
		t.Error("negation should not match the original intersection")
	}
	if ok, _ := pred.Matches(json.RawMessage(`{"waterway": "canal", "width": 15}`)); !ok {
		t.Error("negation should match features failing one condition")
	}
}

func TestContextResolution(t *testing.T) {
	stroke := selector.Context{Name: "stroke"}
	nthStroke2 := selector.Context{Name: "nth-stroke", Param: "2"}
	nthSymbol2 := selector.Context{Name: "nth-symbol", Param: "2"}
	symbol := selector.Context{Name: "symbol"}
	fill := selector.Context{Name: "fill"}

	p1 := types.NewProperty("stroke", []types.Value{types.Literal("blue")})
	p2 := types.NewProperty("stroke-width", []types.Value{types.Literal("3")})
	p3 := types.NewProperty("stroke-opacity", []types.Value{types.Literal("0.5")})
	p4 := types.NewProperty("fill", []types.Value{types.Literal("red")})
	pDefault := types.NewProperty("z-index", []types.Value{types.Literal("1")})

	r := Rule{Contexts: []ContextEntry{
		{Context: nil, Properties: []types.Property{pDefault}},
		{Context: &stroke, Properties: []types.Property{p1}},
		{Context: &nthStroke2, Properties: []types.Property{p2}},
		{Context: &fill, Properties: []types.Property{p4}},
		{Context: &nthSymbol2, Properties: []types.Property{p3}},
		{Context: &symbol, Properties: []types.Property{}},
	}}

	// All four candidate keys contribute, in table order.
	got := r.Context("stroke", 2)
	want := []string{"stroke", "stroke-width", "stroke-opacity"}
	if len(got) != len(want) {
		t.Fatalf("Context() returned %d properties, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Errorf("Context()[%d] = %s, want %s", i, p.Name, want[i])
		}
	}

	// A different order drops the parameterized entries.
	got = r.Context("stroke", 1)
	if len(got) != 1 || got[0].Name != "stroke" {
		t.Fatalf("Context(stroke, 1) = %v, want just the plain entry", got)
	}

	// Unrelated symbols see only generic fallbacks.
	if got := r.Context("casing", 7); len(got) != 0 {
		t.Fatalf("Context(casing, 7) = %v, want none", got)
	}

	// The default bundle is separate from any symbol context.
	if props := r.Properties(); len(props) != 1 || props[0].Name != "z-index" {
		t.Fatalf("Properties() = %v, want the unscoped bundle", props)
	}
}

func TestEncode(t *testing.T) {
	f := filter.NewEngine()
	stroke := selector.Context{Name: "stroke"}

	r := Rule{
		Description: types.Description{Title: strptr("Rivers"), Abstract: strptr("Wide waterways")},
		Selectors: []selector.Selector{
			selector.TypeName("waterway"),
			mustExpression(t, f, "width > 10"),
		},
		Contexts: []ContextEntry{
			{Properties: []types.Property{
				types.NewProperty("stroke", []types.Value{types.Function("rgb", types.Literal("0"), types.Literal("0"), types.Literal("255"))}),
			}},
			{Context: &stroke, Properties: []types.Property{
				types.NewProperty("width", []types.Value{types.Expression("width / 4")}),
			}},
		},
	}

	doc, err := Encode(f, r)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if doc.Title != "Rivers" || doc.Abstract != "Wide waterways" {
		t.Errorf("description = %q / %q", doc.Title, doc.Abstract)
	}
	if doc.Selector != "waterway [width > 10]" {
		t.Errorf("Selector = %q", doc.Selector)
	}
	if doc.Filter != "width > 10" {
		t.Errorf("Filter = %q", doc.Filter)
	}
	if len(doc.Contexts) != 2 || doc.Contexts[0].Context != "" || doc.Contexts[1].Context != ":stroke" {
		t.Fatalf("Contexts = %+v", doc.Contexts)
	}
	if got := doc.Contexts[0].Properties[0].Values[0][0]; got != "rgb(0, 0, 255)" {
		t.Errorf("function value = %q", got)
	}
	if got := doc.Contexts[1].Properties[0].Values[0][0]; got != "[width / 4]" {
		t.Errorf("expression value = %q", got)
	}
}
