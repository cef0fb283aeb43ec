// Package util provides small helpers shared by the DICOM packages.
package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagRole describes why the pipeline cares about a header attribute.
type TagRole int

const (
	// RoleIdentity marks attributes that can never be defaulted.
	RoleIdentity TagRole = iota
	// RoleTemplate marks attributes the SR template requires but which may be
	// backfilled when the source image lacks them.
	RoleTemplate
	// RoleDescriptive marks attributes copied into the SR when present.
	RoleDescriptive
	// RoleImage marks attributes consumed by pixel decoding.
	RoleImage
)

// String returns the string representation of a TagRole.
func (r TagRole) String() string {
	switch r {
	case RoleIdentity:
		return "Identity"
	case RoleTemplate:
		return "Template"
	case RoleDescriptive:
		return "Descriptive"
	case RoleImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// TagInfo contains information about a DICOM header attribute.
type TagInfo struct {
	Name string
	Tag  tag.Tag
	Role TagRole
}

// tagRegistry maps lowercase attribute names to their TagInfo.
var tagRegistry = map[string]TagInfo{
	"sopinstanceuid":    {Name: "SOPInstanceUID", Tag: tag.SOPInstanceUID, Role: RoleIdentity},
	"studyinstanceuid":  {Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID, Role: RoleIdentity},
	"seriesinstanceuid": {Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID, Role: RoleIdentity},

	"patientbirthdate": {Name: "PatientBirthDate", Tag: tag.PatientBirthDate, Role: RoleTemplate},
	"patientsex":       {Name: "PatientSex", Tag: tag.PatientSex, Role: RoleTemplate},
	"studytime":        {Name: "StudyTime", Tag: tag.StudyTime, Role: RoleTemplate},
	"studyid":          {Name: "StudyID", Tag: tag.StudyID, Role: RoleTemplate},

	"patientid":              {Name: "PatientID", Tag: tag.PatientID, Role: RoleDescriptive},
	"patientname":            {Name: "PatientName", Tag: tag.PatientName, Role: RoleDescriptive},
	"studydate":              {Name: "StudyDate", Tag: tag.StudyDate, Role: RoleDescriptive},
	"accessionnumber":        {Name: "AccessionNumber", Tag: tag.AccessionNumber, Role: RoleDescriptive},
	"referringphysicianname": {Name: "ReferringPhysicianName", Tag: tag.ReferringPhysicianName, Role: RoleDescriptive},
	"sopclassuid":            {Name: "SOPClassUID", Tag: tag.SOPClassUID, Role: RoleDescriptive},
	"instancenumber":         {Name: "InstanceNumber", Tag: tag.InstanceNumber, Role: RoleDescriptive},
	"seriesnumber":           {Name: "SeriesNumber", Tag: tag.SeriesNumber, Role: RoleDescriptive},
	"modality":               {Name: "Modality", Tag: tag.Modality, Role: RoleDescriptive},
	"studydescription":       {Name: "StudyDescription", Tag: tag.StudyDescription, Role: RoleDescriptive},
	"seriesdescription":      {Name: "SeriesDescription", Tag: tag.SeriesDescription, Role: RoleDescriptive},
	"bodypartexamined":       {Name: "BodyPartExamined", Tag: tag.BodyPartExamined, Role: RoleDescriptive},
	"institutionname":        {Name: "InstitutionName", Tag: tag.InstitutionName, Role: RoleDescriptive},

	"photometricinterpretation": {Name: "PhotometricInterpretation", Tag: tag.PhotometricInterpretation, Role: RoleImage},
	"windowcenter":              {Name: "WindowCenter", Tag: tag.WindowCenter, Role: RoleImage},
	"windowwidth":               {Name: "WindowWidth", Tag: tag.WindowWidth, Role: RoleImage},
	"rescaleslope":              {Name: "RescaleSlope", Tag: tag.RescaleSlope, Role: RoleImage},
	"rescaleintercept":          {Name: "RescaleIntercept", Tag: tag.RescaleIntercept, Role: RoleImage},
}

// GetTagByName returns TagInfo for a given attribute name.
// The lookup is case-insensitive. If the name is not found, the error
// suggests the closest known name (using Levenshtein distance).
func GetTagByName(name string) (TagInfo, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	if info, ok := tagRegistry[normalizedName]; ok {
		return info, nil
	}

	suggestion := findClosestTagName(normalizedName)
	if suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
	}

	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// TagsWithRole returns the registered attributes with the given role, sorted by name.
func TagsWithRole(role TagRole) []TagInfo {
	var out []TagInfo
	for _, info := range tagRegistry {
		if info.Role == role {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// findClosestTagName finds the closest matching tag name using Levenshtein distance.
// Returns empty string if no close match is found (distance > 5).
func findClosestTagName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for key, info := range tagRegistry {
		distance := levenshteinDistance(input, key)
		if distance < bestDistance || (distance == bestDistance && info.Name < bestMatch) {
			bestDistance = distance
			bestMatch = info.Name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance is the minimum number of single-character edits
// needed to turn a into b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
