package cascade

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dietrichf/geocss/internal/filter"
	"github.com/dietrichf/geocss/internal/selector"
	"github.com/dietrichf/geocss/internal/types"
)

func TestUnify_TwoOverlappingRules(t *testing.T) {
	f := filter.NewEngine()

	rivers := Rule{
		Description: types.Description{Title: strptr("Rivers")},
		Selectors:   []selector.Selector{mustExpression(t, f, "waterway = 'river'")},
	}
	wide := Rule{
		Description: types.Description{Title: strptr("Wide")},
		Selectors:   []selector.Selector{mustExpression(t, f, "width > 10")},
	}

	out, err := Unify(f, []Rule{rivers, wide})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}

	// Power set minus the empty and any unsatisfiable combinations:
	// both, rivers-only, wide-only.
	if len(out) != 3 {
		t.Fatalf("Unify() produced %d rules, want 3", len(out))
	}

	features := []string{
		`{"waterway": "river", "width": 15}`,
		`{"waterway": "river", "width": 5}`,
		`{"waterway": "canal", "width": 15}`,
		`{"waterway": "canal", "width": 5}`,
	}

	// Mutual exclusivity: every feature matches at most one output rule.
	for _, feature := range features {
		matches := 0
		for _, r := range out {
			pred, err := r.GetFilter(f)
			if err != nil {
				t.Fatalf("GetFilter() error = %v", err)
			}
			ok, err := pred.Matches(json.RawMessage(feature))
			if err != nil {
				t.Fatalf("Matches(%s) error = %v", feature, err)
			}
			if ok {
				matches++
			}
		}
		if matches > 1 {
			t.Errorf("feature %s matched %d unified rules, want at most 1", feature, matches)
		}
	}

	// The both-parents combination is the most specific and sorts first.
	if got := *out[0].Description.Title; got != "Rivers with Wide" {
		t.Errorf("first rule title = %q, want the merged combination", got)
	}
}

func TestUnify_ContradictionPruned(t *testing.T) {
	f := filter.NewEngine()

	a := Rule{Selectors: []selector.Selector{mustExpression(t, f, "kind = 'road'")}}
	dead := Rule{Selectors: []selector.Selector{selector.Exclude()}}

	out, err := Unify(f, []Rule{a, dead})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}

	// The dead rule cannot be included; only a-with-not-dead survives.
	// not(dead) is always true, so exactly one output remains.
	if len(out) != 1 {
		t.Fatalf("Unify() produced %d rules, want 1", len(out))
	}
	pred, err := out[0].GetFilter(f)
	if err != nil {
		t.Fatalf("GetFilter() error = %v", err)
	}
	if ok, _ := pred.Matches(json.RawMessage(`{"kind": "road"}`)); !ok {
		t.Error("surviving rule should still match its parent's features")
	}
}

func TestUnify_RuleLimit(t *testing.T) {
	f := filter.NewEngine()

	rules := make([]Rule, types.MaxCascadeRules+1)
	for i := range rules {
		rules[i] = Rule{Selectors: []selector.Selector{selector.Accept()}}
	}

	if _, err := Unify(f, rules); !errors.Is(err, types.ErrTooManyRules) {
		t.Fatalf("Unify() error = %v, want ErrTooManyRules", err)
	}
}

func TestUnify_Empty(t *testing.T) {
	f := filter.NewEngine()
	out, err := Unify(f, nil)
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("Unify(nil) = %v, want empty", out)
	}
}

func TestUnify_ContextTablesConcatenate(t *testing.T) {
	f := filter.NewEngine()
	stroke := selector.Context{Name: "stroke"}

	a := Rule{
		Selectors: []selector.Selector{mustExpression(t, f, "waterway = 'river'")},
		Contexts: []ContextEntry{
			{Context: &stroke, Properties: []types.Property{types.NewProperty("stroke", []types.Value{types.Literal("blue")})}},
		},
	}
	b := Rule{
		Selectors: []selector.Selector{mustExpression(t, f, "width > 10")},
		Contexts: []ContextEntry{
			{Context: &stroke, Properties: []types.Property{types.NewProperty("stroke-width", []types.Value{types.Literal("3")})}},
		},
	}

	out, err := Unify(f, []Rule{a, b})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}

	// The merged combination carries both context entries, in parent order.
	var merged *Rule
	for i := range out {
		if len(out[i].Contexts) == 2 {
			merged = &out[i]
			break
		}
	}
	if merged == nil {
		t.Fatal("no output rule carries both context tables")
	}
	props := merged.Context("stroke", 1)
	if len(props) != 2 || props[0].Name != "stroke" || props[1].Name != "stroke-width" {
		t.Fatalf("Context() = %v, want both parents' bundles in order", props)
	}
}
