package corruption

import (
	"math/rand/v2"
	"slices"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// identityTags are removed by MissingIdentity.
var identityTags = []tag.Tag{tag.SOPInstanceUID, tag.StudyInstanceUID, tag.SeriesInstanceUID, tag.MediaStorageSOPInstanceUID}

// Applicator damages generated files according to the configured targets.
type Applicator struct {
	config Config
	rng    *rand.Rand
}

// NewApplicator creates a new corruption applicator.
func NewApplicator(config Config, rng *rand.Rand) *Applicator {
	return &Applicator{config: config, rng: rng}
}

// PrepareElements applies the pre-write part of the corruption planned for
// the file at index. Types that damage bytes on disk leave elements as is.
func (a *Applicator) PrepareElements(index int, elements []*dicom.Element) []*dicom.Element {
	t, ok := a.config.ForIndex(index)
	if !ok || t != MissingIdentity {
		return elements
	}
	return slices.DeleteFunc(slices.Clone(elements), func(e *dicom.Element) bool {
		return slices.Contains(identityTags, e.Tag)
	})
}

// Damage applies the post-write part of the corruption planned for the file
// at index to the file at path.
func (a *Applicator) Damage(index int, path string) error {
	t, ok := a.config.ForIndex(index)
	if !ok {
		return nil
	}
	switch t {
	case Truncated:
		return truncateFile(path, 160)
	case Garbage:
		return overwriteWithGarbage(path, a.rng)
	case OddPixelLength:
		return PatchOddPixelLength(path)
	}
	return nil
}

// Planned returns the corruption type for index, if any.
func (a *Applicator) Planned(index int) (CorruptionType, bool) {
	return a.config.ForIndex(index)
}
