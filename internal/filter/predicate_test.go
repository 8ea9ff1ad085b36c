package filter

import (
	"encoding/json"
	"testing"
)

func TestConstants(t *testing.T) {
	feature := json.RawMessage(`{"anything": 1}`)

	if ok, err := Always.Matches(feature); err != nil || !ok {
		t.Fatalf("Always.Matches() = %v, %v", ok, err)
	}
	if ok, err := Never.Matches(feature); err != nil || ok {
		t.Fatalf("Never.Matches() = %v, %v", ok, err)
	}

	// Structural equality against the singletons is part of the contract.
	if NewAnd(Always) == Always {
		t.Fatal("composite must not compare equal to a constant")
	}
	if Always.String() != "true" || Never.String() != "false" {
		t.Fatalf("constant rendering = %q, %q", Always.String(), Never.String())
	}
}

func TestFeatureID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		feature string
		want    bool
	}{
		{"string id match", "river-1", `{"id": "river-1"}`, true},
		{"string id mismatch", "river-1", `{"id": "river-2"}`, false},
		{"numeric id compared textually", "42", `{"id": 42}`, true},
		{"missing id", "river-1", `{"name": "x"}`, false},
		{"null id", "river-1", `{"id": null}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFeatureID(tt.id)
			got, err := p.Matches(json.RawMessage(tt.feature))
			if err != nil {
				t.Fatalf("Matches() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := NewFeatureID("x").String(); got != "id = 'x'" {
		t.Fatalf("String() = %q", got)
	}
}

// Complexity orders predicates the way the cascade sorts rules: more
// selective filters cost more.
func TestComplexity_Ordering(t *testing.T) {
	mustParse := func(expr string) Predicate {
		p, err := ParseExpression(expr)
		if err != nil {
			t.Fatalf("ParseExpression(%q) error = %v", expr, err)
		}
		return p
	}

	if Complexity(Always) != 0 || Complexity(Never) != 0 {
		t.Fatal("constants must have zero complexity")
	}

	single := mustParse("kind = 'road'")
	double := mustParse("kind = 'road' and width > 5")
	if Complexity(double) <= Complexity(single) {
		t.Errorf("conjunction %d should cost more than single comparison %d",
			Complexity(double), Complexity(single))
	}

	shallow := mustParse("width > 5")
	wild := mustParse("members[*].width > 5")
	if Complexity(wild) <= Complexity(shallow) {
		t.Errorf("wildcard lookup %d should cost more than direct lookup %d",
			Complexity(wild), Complexity(shallow))
	}

	if Complexity(NewNot(single)) != Complexity(single) {
		t.Error("negation should pass cost through unchanged")
	}
}
