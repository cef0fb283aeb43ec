package corruption

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CorruptionType represents a way of damaging a generated file
type CorruptionType string

const (
	Truncated       CorruptionType = "truncated"        // cut inside the file meta group
	MissingIdentity CorruptionType = "missing-identity" // no SOP/Study/Series Instance UIDs
	Garbage         CorruptionType = "garbage"          // junk after the DICM magic
	OddPixelLength  CorruptionType = "odd-pixel-length" // PixelData VL not a multiple of 2
)

// AllCorruptionTypes returns all valid corruption types
func AllCorruptionTypes() []CorruptionType {
	return []CorruptionType{Truncated, MissingIdentity, Garbage, OddPixelLength}
}

// Target damages the file with the given 1-based index in the batch.
type Target struct {
	Type  CorruptionType
	Index int
}

// Config holds corruption generation settings
type Config struct {
	Targets []Target
}

// ParseTargets parses comma-separated "type:index" pairs, e.g.
// "garbage:2,missing-identity:5".
func ParseTargets(input string) ([]Target, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	valid := make(map[CorruptionType]bool)
	for _, t := range AllCorruptionTypes() {
		valid[t] = true
	}

	parts := strings.Split(input, ",")
	result := make([]Target, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		name, idx, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("corruption target %q must be type:index", p)
		}
		t := CorruptionType(strings.TrimSpace(name))
		if !valid[t] {
			return nil, fmt.Errorf("unknown corruption type %q, valid types: %v", name, AllCorruptionTypes())
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("corruption target %q: index must be a positive integer", p)
		}
		result = append(result, Target{Type: t, Index: n})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}

// Validate checks the targets against a batch of numFiles files.
func (c *Config) Validate(numFiles int) error {
	seen := make(map[int]bool)
	for _, t := range c.Targets {
		if t.Index < 1 || t.Index > numFiles {
			return fmt.Errorf("corruption target %s:%d outside 1..%d", t.Type, t.Index, numFiles)
		}
		if seen[t.Index] {
			return fmt.Errorf("file %d has more than one corruption target", t.Index)
		}
		seen[t.Index] = true
	}
	return nil
}

// IsEnabled returns true if corruption is enabled
func (c *Config) IsEnabled() bool {
	return len(c.Targets) > 0
}

// ForIndex returns the corruption planned for the file with the given
// 1-based index.
func (c *Config) ForIndex(index int) (CorruptionType, bool) {
	for _, t := range c.Targets {
		if t.Index == index {
			return t.Type, true
		}
	}
	return "", false
}
