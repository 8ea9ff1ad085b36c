package selector

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dietrichf/geocss/internal/filter"
)

func testFactory() Factory {
	return filter.NewEngine()
}

// Test reduction of atomic selectors
func TestFilterOpt_Atoms(t *testing.T) {
	f := testFactory()

	if p, ok := Accept().FilterOpt(f); !ok || p != filter.Always {
		t.Fatalf("Accept() = %v, %v, want Always", p, ok)
	}
	if p, ok := Exclude().FilterOpt(f); !ok || p != filter.Never {
		t.Fatalf("Exclude() = %v, %v, want Never", p, ok)
	}

	expr, err := Expression(f, "width > 10")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}
	if p, ok := expr.FilterOpt(f); !ok || p != expr.Pred {
		t.Fatalf("expression reduction = %v, %v, want stored predicate", p, ok)
	}

	if _, ok := ByID("river-1").FilterOpt(f); !ok {
		t.Fatal("ByID should reduce to a predicate")
	}
}

// Test that styling metadata never reduces, alone or inside compounds
func TestFilterOpt_MetaPropagation(t *testing.T) {
	f := testFactory()

	metas := []Selector{
		TypeName("waterway"),
		PseudoProperty("scale", "<", "10000"),
		PseudoClass("stroke"),
		ParameterizedPseudoClass("nth-stroke", "2"),
	}

	for _, m := range metas {
		if _, ok := m.FilterOpt(f); ok {
			t.Errorf("%s should not reduce to a predicate", m)
		}
		if _, ok := Not(m).FilterOpt(f); ok {
			t.Errorf("not(%s) should not reduce to a predicate", m)
		}
		// Metadata poisons the compound even next to an absorbing element.
		if _, ok := And(RawPredicate(filter.Never), m).FilterOpt(f); ok {
			t.Errorf("and with %s should not reduce even with a never operand", m)
		}
		if _, ok := Or(RawPredicate(filter.Always), m).FilterOpt(f); ok {
			t.Errorf("or with %s should not reduce even with an always operand", m)
		}
	}
}

func TestFilterOpt_Conjunction(t *testing.T) {
	f := testFactory()
	expr, err := Expression(f, "width > 10")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}

	tests := []struct {
		name     string
		selector Selector
		want     filter.Predicate
	}{
		{"empty conjunction", And(), filter.Always},
		{"never absorbs", And(expr, RawPredicate(filter.Never)), filter.Never},
		{"always elides", And(RawPredicate(filter.Always), expr), expr.Pred},
		{"singleton unwraps", And(expr), expr.Pred},
		{"all always", And(Accept(), Accept()), filter.Always},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tt.selector.FilterOpt(f)
			if !ok {
				t.Fatal("expected reduction")
			}
			if p != tt.want {
				t.Fatalf("got %v, want %v", p, tt.want)
			}
		})
	}

	// Two surviving operands stay a conjunction node, not a constant.
	other, err := Expression(f, "name = 'river'")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}
	p, ok := And(expr, other).FilterOpt(f)
	if !ok {
		t.Fatal("expected reduction")
	}
	if p == filter.Always || p == filter.Never {
		t.Fatalf("got constant %v, want composite", p)
	}
}

func TestFilterOpt_Disjunction(t *testing.T) {
	f := testFactory()
	expr, err := Expression(f, "width > 10")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}

	tests := []struct {
		name     string
		selector Selector
		want     filter.Predicate
	}{
		{"empty disjunction", Or(), filter.Never},
		{"always absorbs", Or(expr, RawPredicate(filter.Always)), filter.Always},
		{"never elides", Or(RawPredicate(filter.Never), expr), expr.Pred},
		{"singleton unwraps", Or(expr), expr.Pred},
		{"all never", Or(Exclude(), Exclude()), filter.Never},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tt.selector.FilterOpt(f)
			if !ok {
				t.Fatal("expected reduction")
			}
			if p != tt.want {
				t.Fatalf("got %v, want %v", p, tt.want)
			}
		})
	}
}

func TestFilterOpt_Negation(t *testing.T) {
	f := testFactory()
	expr, err := Expression(f, "width > 10")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}

	if p, ok := Not(Accept()).FilterOpt(f); !ok || p != filter.Never {
		t.Fatalf("not(*) = %v, %v, want Never", p, ok)
	}
	if p, ok := Not(Exclude()).FilterOpt(f); !ok || p != filter.Always {
		t.Fatalf("not(exclude) = %v, %v, want Always", p, ok)
	}
	if p, ok := Not(Not(expr)).FilterOpt(f); !ok || p != expr.Pred {
		t.Fatalf("double negation = %v, %v, want original predicate", p, ok)
	}
	if p, ok := Not(Not(Not(Accept()))).FilterOpt(f); !ok || p != filter.Never {
		t.Fatalf("triple negation = %v, %v, want Never", p, ok)
	}
}

func TestSimplify(t *testing.T) {
	f := testFactory()
	expr, err := Expression(f, "width > 10")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}

	// A sequence containing a never element collapses to the canonical
	// exclude selector.
	out := Simplify(f, []Selector{expr, Exclude(), TypeName("road")})
	if len(out) != 1 || !IsExclude(out[0]) {
		t.Fatalf("Simplify() = %v, want single exclude", out)
	}

	// Satisfiable sequences pass through untouched, metadata included.
	in := []Selector{expr, TypeName("road"), PseudoClass("stroke")}
	out = Simplify(f, in)
	if len(out) != len(in) {
		t.Fatalf("Simplify() changed a satisfiable sequence: %v", out)
	}
}

func TestContext(t *testing.T) {
	if c, ok := PseudoClass("stroke").Context(); !ok || c != (Context{Name: "stroke"}) {
		t.Fatalf("Context() = %v, %v", c, ok)
	}
	if c, ok := ParameterizedPseudoClass("nth-stroke", "2").Context(); !ok || (c != Context{Name: "nth-stroke", Param: "2"}) {
		t.Fatalf("Context() = %v, %v", c, ok)
	}
	if _, ok := TypeName("road").Context(); ok {
		t.Fatal("type names carry no context")
	}

	if got := (Context{Name: "stroke"}).String(); got != ":stroke" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Context{Name: "nth-stroke", Param: "2"}).String(); got != ":nth-stroke(2)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestString(t *testing.T) {
	f := testFactory()
	expr, err := Expression(f, "width > 10")
	if err != nil {
		t.Fatalf("Expression() error = %v", err)
	}

	tests := []struct {
		selector Selector
		want     string
	}{
		{Accept(), "*"},
		{ByID("river-1"), "#river-1"},
		{expr, "[width > 10]"},
		{TypeName("waterway"), "waterway"},
		{PseudoProperty("scale", "<", "10000"), "[@scale < 10000]"},
		{PseudoClass("stroke"), ":stroke"},
		{ParameterizedPseudoClass("nth-stroke", "2"), ":nth-stroke(2)"},
		{Not(Accept()), "not(*)"},
		{And(TypeName("waterway"), expr), "waterway [width > 10]"},
		{Or(TypeName("road"), TypeName("rail")), "road, rail"},
	}

	for _, tt := range tests {
		if got := tt.selector.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// Property: compound reduction agrees with boolean evaluation of the
// operand constants.
func TestFilterOpt_PropertyConstantFolding(t *testing.T) {
	f := testFactory()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fromBits := func(bits []bool) []Selector {
		sels := make([]Selector, len(bits))
		for i, b := range bits {
			if b {
				sels[i] = RawPredicate(filter.Always)
			} else {
				sels[i] = RawPredicate(filter.Never)
			}
		}
		return sels
	}

	properties.Property("conjunction folds like boolean and", prop.ForAll(
		func(bits []bool) bool {
			want := filter.Always
			for _, b := range bits {
				if !b {
					want = filter.Never
				}
			}
			p, ok := And(fromBits(bits)...).FilterOpt(f)
			return ok && p == want
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("disjunction folds like boolean or", prop.ForAll(
		func(bits []bool) bool {
			want := filter.Never
			for _, b := range bits {
				if b {
					want = filter.Always
				}
			}
			p, ok := Or(fromBits(bits)...).FilterOpt(f)
			return ok && p == want
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("double negation is identity on constants", prop.ForAll(
		func(b bool) bool {
			var s Selector
			if b {
				s = RawPredicate(filter.Always)
			} else {
				s = RawPredicate(filter.Never)
			}
			direct, ok1 := s.FilterOpt(f)
			doubled, ok2 := Not(Not(s)).FilterOpt(f)
			return ok1 && ok2 && direct == doubled
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}
