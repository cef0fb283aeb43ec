package edgecases

import (
	"fmt"
	"slices"
	"strings"
)

// EdgeCaseType is a header variation applied to a share of generated files.
type EdgeCaseType string

const (
	MissingTags EdgeCaseType = "missing-tags" // template-optional attributes left out
	BlankTags   EdgeCaseType = "blank-tags"   // template-optional attributes present but empty
	NoWindow    EdgeCaseType = "no-window"    // no VOI window attributes
)

// AllEdgeCaseTypes returns all valid edge case types
func AllEdgeCaseTypes() []EdgeCaseType {
	return []EdgeCaseType{MissingTags, BlankTags, NoWindow}
}

// Config selects how many files get a variation and which ones may be drawn.
type Config struct {
	Percentage int            // 0-100, share of files with a variation
	Types      []EdgeCaseType // drawn uniformly per file
}

// ParseTypes parses a comma-separated list such as "missing-tags,no-window".
// "all" selects every type; repeated names are kept once.
func ParseTypes(input string) ([]EdgeCaseType, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if input == "all" {
		return AllEdgeCaseTypes(), nil
	}

	var result []EdgeCaseType
	for _, p := range strings.Split(input, ",") {
		t := EdgeCaseType(strings.TrimSpace(p))
		if !slices.Contains(AllEdgeCaseTypes(), t) {
			return nil, fmt.Errorf("unknown edge case type %q, valid types: %v", t, AllEdgeCaseTypes())
		}
		if !slices.Contains(result, t) {
			result = append(result, t)
		}
	}
	return result, nil
}

// Validate checks the percentage range and that a positive percentage has
// types to draw from.
func (c *Config) Validate() error {
	switch {
	case c.Percentage < 0 || c.Percentage > 100:
		return fmt.Errorf("edge-cases percentage must be 0-100, got %d", c.Percentage)
	case c.Percentage > 0 && len(c.Types) == 0:
		return fmt.Errorf("edge-cases enabled but no types specified")
	}
	return nil
}

// IsEnabled reports whether any file can get a variation.
func (c *Config) IsEnabled() bool {
	return c.Percentage > 0 && len(c.Types) > 0
}
