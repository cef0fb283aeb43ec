package edgecases

import "math/rand/v2"

// Applicator decides, per generated file, which edge cases to apply.
type Applicator struct {
	config Config
	rng    *rand.Rand
}

// NewApplicator creates a new edge case applicator
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng}
}

// ShouldApply returns true if edge cases should apply to this file
func (a *Applicator) ShouldApply() bool {
	return a.rng.IntN(100) < a.config.Percentage
}

// SelectEdgeCaseType randomly selects which edge case type to apply
func (a *Applicator) SelectEdgeCaseType() EdgeCaseType {
	return a.config.Types[a.rng.IntN(len(a.config.Types))]
}

// Plan is the set of header changes chosen for one file.
type Plan struct {
	Omit       []string // attribute names to leave out
	Blank      []string // attribute names written with an empty value
	OmitWindow bool
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Omit) == 0 && len(p.Blank) == 0 && !p.OmitWindow
}

// NextPlan rolls the dice for one file and returns what to change.
func (a *Applicator) NextPlan() Plan {
	if !a.ShouldApply() {
		return Plan{}
	}
	switch a.SelectEdgeCaseType() {
	case MissingTags:
		return Plan{Omit: SelectTagsToOmit(a.rng, 1+a.rng.IntN(len(OptionalTags)))}
	case BlankTags:
		return Plan{Blank: SelectTagsToOmit(a.rng, 1+a.rng.IntN(len(OptionalTags)))}
	case NoWindow:
		return Plan{OmitWindow: true}
	}
	return Plan{}
}
