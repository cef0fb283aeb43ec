package dicom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mrsinham/cxrreport/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Evidence is the header view of one source image. It is a value: every
// transformation returns a copy and the source file is never written.
type Evidence struct {
	FilePath string

	PatientID         string
	PatientName       string
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
	SOPClassUID       string
	InstanceNumber    int
	SeriesNumber      int
	Modality          string

	// Required by the SR template, backfilled when absent.
	PatientBirthDate string
	PatientSex       string
	StudyTime        string
	StudyID          string

	StudyDate              string
	AccessionNumber        string
	ReferringPhysicianName string

	// Absent lists the attribute names missing from the file header.
	Absent []string
}

// MalformedEvidenceError reports a file that cannot serve as evidence:
// it is not readable DICOM, or an identity UID is missing.
type MalformedEvidenceError struct {
	Path    string
	Missing []string
	Cause   error
}

func (e *MalformedEvidenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed evidence %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("malformed evidence %s: missing %s", e.Path, strings.Join(e.Missing, ", "))
}

func (e *MalformedEvidenceError) Unwrap() error {
	return e.Cause
}

// IsAbsent reports whether the named attribute was missing from the header.
func (e Evidence) IsAbsent(name string) bool {
	return slices.Contains(e.Absent, name)
}

// WithTemplateDefaults returns a copy with the template-required optional
// attributes resolved: StudyID falls back to PatientID, the others to "".
func (e Evidence) WithTemplateDefaults() Evidence {
	out := e
	out.Absent = slices.Clone(e.Absent)
	if e.IsAbsent("StudyID") {
		out.StudyID = e.PatientID
	}
	if e.IsAbsent("PatientBirthDate") {
		out.PatientBirthDate = ""
	}
	if e.IsAbsent("PatientSex") {
		out.PatientSex = ""
	}
	if e.IsAbsent("StudyTime") {
		out.StudyTime = ""
	}
	return out
}

// LoadEvidence reads the header of the DICOM file at path and returns its
// Evidence with template defaults applied. Pixel data is not read.
func LoadEvidence(path string) (Evidence, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Evidence{}, &MalformedEvidenceError{Path: path, Cause: fmt.Errorf("parse dicom header: %w", err)}
	}
	ev, err := EvidenceFromDataset(path, ds)
	if err != nil {
		return Evidence{}, err
	}
	return ev.WithTemplateDefaults(), nil
}

// EvidenceFromDataset extracts Evidence from an already parsed dataset.
// No defaults are applied.
func EvidenceFromDataset(path string, ds dicom.Dataset) (Evidence, error) {
	ev := Evidence{FilePath: path}
	absent := func(name string) { ev.Absent = append(ev.Absent, name) }

	str := func(name string, t tag.Tag, dst *string) {
		v, ok := getString(ds, t)
		if !ok {
			absent(name)
			return
		}
		*dst = v
	}
	num := func(name string, t tag.Tag, dst *int) {
		v, ok := getInt(ds, t)
		if !ok {
			absent(name)
			return
		}
		*dst = v
	}

	str("SOPInstanceUID", tag.SOPInstanceUID, &ev.SOPInstanceUID)
	str("StudyInstanceUID", tag.StudyInstanceUID, &ev.StudyInstanceUID)
	str("SeriesInstanceUID", tag.SeriesInstanceUID, &ev.SeriesInstanceUID)
	str("SOPClassUID", tag.SOPClassUID, &ev.SOPClassUID)
	str("PatientID", tag.PatientID, &ev.PatientID)
	str("PatientName", tag.PatientName, &ev.PatientName)
	str("Modality", tag.Modality, &ev.Modality)
	num("InstanceNumber", tag.InstanceNumber, &ev.InstanceNumber)
	num("SeriesNumber", tag.SeriesNumber, &ev.SeriesNumber)

	str("PatientBirthDate", tag.PatientBirthDate, &ev.PatientBirthDate)
	str("PatientSex", tag.PatientSex, &ev.PatientSex)
	str("StudyTime", tag.StudyTime, &ev.StudyTime)
	str("StudyID", tag.StudyID, &ev.StudyID)

	str("StudyDate", tag.StudyDate, &ev.StudyDate)
	str("AccessionNumber", tag.AccessionNumber, &ev.AccessionNumber)
	str("ReferringPhysicianName", tag.ReferringPhysicianName, &ev.ReferringPhysicianName)

	if ev.SOPClassUID == "" {
		if v, ok := getString(ds, tag.MediaStorageSOPClassUID); ok {
			ev.SOPClassUID = v
		}
	}

	var missing []string
	for _, info := range util.TagsWithRole(util.RoleIdentity) {
		if v, _ := getString(ds, info.Tag); strings.TrimSpace(v) == "" {
			missing = append(missing, info.Name)
		}
	}
	if len(missing) > 0 {
		return Evidence{}, &MalformedEvidenceError{Path: path, Missing: missing}
	}
	return ev, nil
}
