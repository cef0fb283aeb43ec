package edgecases

import (
	"math/rand/v2"
	"testing"
)

func TestApplicator_ShouldApply(t *testing.T) {
	config := Config{Percentage: 50, Types: []EdgeCaseType{MissingTags}}
	rng := rand.New(rand.NewPCG(42, 42))
	app := NewApplicator(config, rng)

	// Test over 100 iterations
	applied := 0
	for i := 0; i < 100; i++ {
		if app.ShouldApply() {
			applied++
		}
	}
	// Should be roughly 50% (allow 30-70 range for randomness)
	if applied < 30 || applied > 70 {
		t.Errorf("50%% should apply ~50 times in 100, got %d", applied)
	}
}

func TestApplicator_SelectEdgeCaseType(t *testing.T) {
	config := Config{
		Percentage: 100,
		Types:      []EdgeCaseType{MissingTags, NoWindow},
	}
	rng := rand.New(rand.NewPCG(42, 42))
	app := NewApplicator(config, rng)

	selected := app.SelectEdgeCaseType()
	if selected != MissingTags && selected != NoWindow {
		t.Errorf("Selected type should be one of configured types: %v", selected)
	}
}

func TestApplicator_NextPlan(t *testing.T) {
	tests := []struct {
		typ   EdgeCaseType
		check func(Plan) bool
	}{
		{MissingTags, func(p Plan) bool { return len(p.Omit) > 0 && len(p.Blank) == 0 }},
		{BlankTags, func(p Plan) bool { return len(p.Blank) > 0 && len(p.Omit) == 0 }},
		{NoWindow, func(p Plan) bool { return p.OmitWindow }},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			app := NewApplicator(Config{Percentage: 100, Types: []EdgeCaseType{tt.typ}}, rand.New(rand.NewPCG(7, 7)))
			plan := app.NextPlan()
			if !tt.check(plan) {
				t.Errorf("NextPlan() = %+v, unexpected for %s", plan, tt.typ)
			}
		})
	}
}

func TestApplicator_NextPlan_NotApplied(t *testing.T) {
	app := NewApplicator(Config{Percentage: 0, Types: []EdgeCaseType{MissingTags}}, rand.New(rand.NewPCG(42, 42)))
	for i := 0; i < 20; i++ {
		if plan := app.NextPlan(); !plan.Empty() {
			t.Fatalf("NextPlan() at 0%% = %+v, want empty", plan)
		}
	}
}
