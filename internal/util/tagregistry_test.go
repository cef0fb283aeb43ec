package util

import (
	"strings"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestGetTagByName_Valid(t *testing.T) {
	tests := []struct {
		name         string
		expectedTag  tag.Tag
		expectedRole TagRole
	}{
		{"SOPInstanceUID", tag.SOPInstanceUID, RoleIdentity},
		{"StudyInstanceUID", tag.StudyInstanceUID, RoleIdentity},
		{"SeriesInstanceUID", tag.SeriesInstanceUID, RoleIdentity},

		{"PatientBirthDate", tag.PatientBirthDate, RoleTemplate},
		{"PatientSex", tag.PatientSex, RoleTemplate},
		{"StudyTime", tag.StudyTime, RoleTemplate},
		{"StudyID", tag.StudyID, RoleTemplate},

		{"PatientName", tag.PatientName, RoleDescriptive},
		{"PatientID", tag.PatientID, RoleDescriptive},
		{"InstanceNumber", tag.InstanceNumber, RoleDescriptive},
		{"AccessionNumber", tag.AccessionNumber, RoleDescriptive},

		{"WindowCenter", tag.WindowCenter, RoleImage},
		{"PhotometricInterpretation", tag.PhotometricInterpretation, RoleImage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := GetTagByName(tc.name)
			if err != nil {
				t.Fatalf("GetTagByName(%q) returned error: %v", tc.name, err)
			}
			if info.Tag != tc.expectedTag {
				t.Errorf("GetTagByName(%q).Tag = %v, want %v", tc.name, info.Tag, tc.expectedTag)
			}
			if info.Role != tc.expectedRole {
				t.Errorf("GetTagByName(%q).Role = %v, want %v", tc.name, info.Role, tc.expectedRole)
			}
			if info.Name != tc.name {
				t.Errorf("GetTagByName(%q).Name = %q, want %q", tc.name, info.Name, tc.name)
			}
		})
	}
}

func TestGetTagByName_Invalid(t *testing.T) {
	for _, name := range []string{"InvalidTagName", "NotATag", "", "   ", "PatientNameXYZ"} {
		t.Run(name, func(t *testing.T) {
			if _, err := GetTagByName(name); err == nil {
				t.Errorf("GetTagByName(%q) should return error for invalid tag", name)
			}
		})
	}
}

func TestGetTagByName_Suggestion(t *testing.T) {
	tests := []struct {
		typo       string
		suggestion string
	}{
		{"PatientSx", "PatientSex"},
		{"PatinetBirthDate", "PatientBirthDate"},
		{"StudyTim", "StudyTime"},
		{"SOPInstanceUUID", "SOPInstanceUID"},
		{"WindowCentre", "WindowCenter"},
	}

	for _, tc := range tests {
		t.Run(tc.typo, func(t *testing.T) {
			_, err := GetTagByName(tc.typo)
			if err == nil {
				t.Fatalf("GetTagByName(%q) should return error", tc.typo)
			}
			if !strings.Contains(err.Error(), tc.suggestion) {
				t.Errorf("Error for %q should suggest %q, got: %v", tc.typo, tc.suggestion, err)
			}
		})
	}
}

func TestGetTagByName_CaseInsensitive(t *testing.T) {
	for _, input := range []string{"studyid", "STUDYID", " StudyId "} {
		info, err := GetTagByName(input)
		if err != nil {
			t.Fatalf("GetTagByName(%q) returned error: %v", input, err)
		}
		if info.Name != "StudyID" {
			t.Errorf("GetTagByName(%q).Name = %q, want %q", input, info.Name, "StudyID")
		}
	}
}

func TestTagsWithRole(t *testing.T) {
	got := TagsWithRole(RoleTemplate)
	want := []string{"PatientBirthDate", "PatientSex", "StudyID", "StudyTime"}
	if len(got) != len(want) {
		t.Fatalf("TagsWithRole(RoleTemplate) returned %d tags, want %d", len(got), len(want))
	}
	for i, info := range got {
		if info.Name != want[i] {
			t.Errorf("TagsWithRole(RoleTemplate)[%d] = %q, want %q", i, info.Name, want[i])
		}
	}
}

func TestTagRole_String(t *testing.T) {
	tests := []struct {
		role TagRole
		want string
	}{
		{RoleIdentity, "Identity"},
		{RoleTemplate, "Template"},
		{RoleDescriptive, "Descriptive"},
		{RoleImage, "Image"},
		{TagRole(99), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.role.String(); got != tc.want {
			t.Errorf("TagRole(%d).String() = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"studytime", "studytim", 1},
		{"flaw", "lawn", 2},
	}
	for _, tc := range tests {
		if got := levenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
