package dicom

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mrsinham/cxrreport/internal/dicom/corruption"
	"github.com/mrsinham/cxrreport/internal/dicom/edgecases"
)

func generateOne(t *testing.T, opts RadiographOptions) GeneratedFile {
	t.Helper()
	opts.NumImages = max(opts.NumImages, 1)
	opts.OutputDir = t.TempDir()
	if opts.Size == 0 {
		opts.Size = 32
	}
	if opts.Seed == 0 {
		opts.Seed = 11
	}
	files, err := GenerateRadiographs(opts)
	if err != nil {
		t.Fatalf("GenerateRadiographs() error = %v", err)
	}
	return files[len(files)-1]
}

func TestLoadEvidence(t *testing.T) {
	f := generateOne(t, RadiographOptions{})

	ev, err := LoadEvidence(f.Path)
	if err != nil {
		t.Fatalf("LoadEvidence() error = %v", err)
	}
	if ev.FilePath != f.Path {
		t.Errorf("FilePath = %s, want %s", ev.FilePath, f.Path)
	}
	if ev.SOPInstanceUID != f.SOPInstanceUID || ev.StudyInstanceUID != f.StudyUID || ev.SeriesInstanceUID != f.SeriesUID {
		t.Errorf("identity = %s/%s/%s, want %s/%s/%s",
			ev.StudyInstanceUID, ev.SeriesInstanceUID, ev.SOPInstanceUID, f.StudyUID, f.SeriesUID, f.SOPInstanceUID)
	}
	if ev.PatientID != f.PatientID {
		t.Errorf("PatientID = %s, want %s", ev.PatientID, f.PatientID)
	}
	if ev.InstanceNumber != 1 || ev.SeriesNumber != 1 {
		t.Errorf("InstanceNumber, SeriesNumber = %d, %d, want 1, 1", ev.InstanceNumber, ev.SeriesNumber)
	}
	if ev.SOPClassUID == "" || ev.Modality != "DX" {
		t.Errorf("SOPClassUID = %q, Modality = %q", ev.SOPClassUID, ev.Modality)
	}
	if ev.StudyID == "" || ev.PatientSex == "" || ev.PatientBirthDate == "" || ev.StudyTime == "" {
		t.Errorf("template attributes should be populated: %+v", ev)
	}
	if len(ev.Absent) != 0 {
		t.Errorf("Absent = %v, want none", ev.Absent)
	}
}

func TestLoadEvidence_OptionalAbsent(t *testing.T) {
	f := generateOne(t, RadiographOptions{OmitTags: edgecases.OptionalTags})

	ev, err := LoadEvidence(f.Path)
	if err != nil {
		t.Fatalf("LoadEvidence() error = %v", err)
	}
	if ev.PatientBirthDate != "" || ev.PatientSex != "" || ev.StudyTime != "" {
		t.Errorf("defaulted attributes should be empty: birth=%q sex=%q time=%q",
			ev.PatientBirthDate, ev.PatientSex, ev.StudyTime)
	}
	if ev.StudyID != ev.PatientID {
		t.Errorf("StudyID = %q, want PatientID %q", ev.StudyID, ev.PatientID)
	}
	for _, name := range edgecases.OptionalTags {
		if !ev.IsAbsent(name) {
			t.Errorf("%s should be reported absent", name)
		}
	}
}

func TestLoadEvidence_BlankIsNotAbsent(t *testing.T) {
	f := generateOne(t, RadiographOptions{EdgeCaseConfig: edgecases.Config{
		Percentage: 100,
		Types:      []edgecases.EdgeCaseType{edgecases.BlankTags},
	}})
	if len(f.Blanked) == 0 {
		t.Fatal("expected blanked attributes")
	}

	ev, err := LoadEvidence(f.Path)
	if err != nil {
		t.Fatalf("LoadEvidence() error = %v", err)
	}
	for _, name := range f.Blanked {
		if ev.IsAbsent(name) {
			t.Errorf("%s is present with an empty value, not absent", name)
		}
	}
	if slices.Contains(f.Blanked, "StudyID") && ev.StudyID != "" {
		t.Errorf("blank StudyID should stay empty, got %q", ev.StudyID)
	}
}

func TestLoadEvidence_MissingIdentity(t *testing.T) {
	f := generateOne(t, RadiographOptions{CorruptionConfig: corruption.Config{
		Targets: []corruption.Target{{Type: corruption.MissingIdentity, Index: 1}},
	}})

	_, err := LoadEvidence(f.Path)
	var me *MalformedEvidenceError
	if !errors.As(err, &me) {
		t.Fatalf("LoadEvidence() error = %v, want MalformedEvidenceError", err)
	}
	want := []string{"SOPInstanceUID", "SeriesInstanceUID", "StudyInstanceUID"}
	if !slices.Equal(me.Missing, want) {
		t.Errorf("Missing = %v, want %v", me.Missing, want)
	}
	if me.Path != f.Path {
		t.Errorf("Path = %s, want %s", me.Path, f.Path)
	}
}

func TestLoadEvidence_Unreadable(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.dcm")
	if err := os.WriteFile(text, []byte("not a dicom file"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.dcm")},
		{"short text file", text},
		{"truncated", generateOne(t, RadiographOptions{CorruptionConfig: corruption.Config{
			Targets: []corruption.Target{{Type: corruption.Truncated, Index: 1}},
		}}).Path},
		{"garbage", generateOne(t, RadiographOptions{CorruptionConfig: corruption.Config{
			Targets: []corruption.Target{{Type: corruption.Garbage, Index: 1}},
		}}).Path},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEvidence(tt.path)
			var me *MalformedEvidenceError
			if !errors.As(err, &me) {
				t.Fatalf("LoadEvidence() error = %v, want MalformedEvidenceError", err)
			}
			if me.Cause == nil && len(me.Missing) == 0 {
				t.Error("MalformedEvidenceError carries neither cause nor missing attributes")
			}
		})
	}
}

func TestWithTemplateDefaults_Copy(t *testing.T) {
	ev := Evidence{PatientID: "P1", Absent: []string{"StudyID", "PatientSex"}}
	got := ev.WithTemplateDefaults()
	if got.StudyID != "P1" {
		t.Errorf("StudyID = %q, want P1", got.StudyID)
	}
	if ev.StudyID != "" {
		t.Error("WithTemplateDefaults() modified its receiver")
	}
	got.Absent[0] = "changed"
	if ev.Absent[0] != "StudyID" {
		t.Error("WithTemplateDefaults() shares the Absent slice")
	}
}
