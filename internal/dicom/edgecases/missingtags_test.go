package edgecases

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestOptionalTags(t *testing.T) {
	want := []string{"PatientBirthDate", "PatientSex", "StudyID", "StudyTime"}
	if !slices.Equal(OptionalTags, want) {
		t.Errorf("OptionalTags = %v, want %v", OptionalTags, want)
	}
}

func TestSelectTagsToOmit(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	tags := SelectTagsToOmit(rng, 3)
	if len(tags) != 3 {
		t.Errorf("Expected 3 tags to omit, got %d", len(tags))
	}
	for _, tag := range tags {
		if !slices.Contains(OptionalTags, tag) {
			t.Errorf("Tag %s not in OptionalTags", tag)
		}
	}
}

func TestSelectTagsToOmit_All(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	tags := SelectTagsToOmit(rng, 10)
	if len(tags) != len(OptionalTags) {
		t.Fatalf("Expected %d tags, got %d", len(OptionalTags), len(tags))
	}
	tags[0] = "mutated"
	if OptionalTags[0] == "mutated" {
		t.Error("SelectTagsToOmit() must not return the shared slice")
	}
}
