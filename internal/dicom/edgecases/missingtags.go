package edgecases

import (
	"math/rand/v2"

	"github.com/mrsinham/cxrreport/internal/util"
)

// OptionalTags lists the attributes a chest film may lack that the SR
// template still needs. Consumers must backfill them.
var OptionalTags = templateTagNames()

func templateTagNames() []string {
	infos := util.TagsWithRole(util.RoleTemplate)
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// SelectTagsToOmit randomly selects which optional tags to omit
func SelectTagsToOmit(rng *rand.Rand, count int) []string {
	if count >= len(OptionalTags) {
		return append([]string(nil), OptionalTags...)
	}
	// Fisher-Yates shuffle and take first count
	indices := make([]int, len(OptionalTags))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	result := make([]string, count)
	for i := 0; i < count; i++ {
		result[i] = OptionalTags[indices[i]]
	}
	return result
}
