package sr

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	internaldicom "github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/results"
	"github.com/mrsinham/cxrreport/internal/util"
)

// Defaults for the observation context.
const (
	DefaultObserverName = "observer"
	DefaultManufacturer = "cxrreport"
)

// Options tune the generated documents.
type Options struct {
	// ObserverName is the person observer recorded in every document.
	ObserverName string
	// DeviceName is the optional device observer name.
	DeviceName string
	// Manufacturer is written in the equipment module.
	Manufacturer string
	// FreshSOPInstanceUID makes the SR carry a newly minted SOP instance
	// UID instead of the evidence's one.
	FreshSOPInstanceUID bool
}

// Synthesizer turns (result, evidence) pairs into measurement reports.
// NewUID and Now are injectable so tests can pin the otherwise fresh parts.
type Synthesizer struct {
	Options Options
	NewUID  func() string
	Now     func() time.Time
}

// NewSynthesizer returns a Synthesizer using random UIDs and the wall clock.
func NewSynthesizer(opts Options) *Synthesizer {
	if opts.ObserverName == "" {
		opts.ObserverName = DefaultObserverName
	}
	if opts.Manufacturer == "" {
		opts.Manufacturer = DefaultManufacturer
	}
	return &Synthesizer{Options: opts, NewUID: util.NewUID, Now: time.Now}
}

// Synthesize builds the measurement report for one successful result.
//
// The record must carry scores and describe the same file as ev. Absent
// template attributes of ev are resolved on a copy first; a template
// attribute still missing after that is a TemplateViolationError.
func (s *Synthesizer) Synthesize(rec results.Record, ev internaldicom.Evidence) (*Document, error) {
	if rec.IsError() {
		return nil, &InvalidResultError{FilePath: rec.FilePath, Reason: "record carries an error: " + rec.Err.Message}
	}
	if err := rec.Validate(); err != nil {
		return nil, &InvalidResultError{FilePath: rec.FilePath, Reason: err.Error()}
	}
	if filepath.Clean(rec.FilePath) != filepath.Clean(ev.FilePath) {
		return nil, &TemplateViolationError{
			Attribute: "FilePath",
			Reason:    "result " + rec.FilePath + " does not describe evidence " + ev.FilePath,
		}
	}

	ev = ev.WithTemplateDefaults()
	if err := checkTemplate(ev); err != nil {
		return nil, err
	}

	newUID := s.NewUID
	if newUID == nil {
		newUID = util.NewUID
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	observer := s.Options.ObserverName
	if observer == "" {
		observer = DefaultObserverName
	}
	manufacturer := s.Options.Manufacturer
	if manufacturer == "" {
		manufacturer = DefaultManufacturer
	}

	trackingID := "Predictions" + strconv.Itoa(ev.InstanceNumber)
	groups := make([]MeasurementGroup, 0, len(rec.Scores))
	for _, sc := range rec.Scores {
		groups = append(groups, MeasurementGroup{
			ConceptName:        PathologyConcept(sc.Label),
			Value:              sc.Value,
			Unit:               CodeNoUnits,
			TrackingIdentifier: trackingID,
			TrackingUID:        newUID(),
		})
	}

	sopInstanceUID := ev.SOPInstanceUID
	if s.Options.FreshSOPInstanceUID {
		sopInstanceUID = newUID()
	}

	doc := &Document{
		SourcePath: ev.FilePath,
		Patient: Patient{
			Name:      ev.PatientName,
			ID:        ev.PatientID,
			BirthDate: ev.PatientBirthDate,
			Sex:       ev.PatientSex,
		},
		Study: Study{
			InstanceUID:            ev.StudyInstanceUID,
			ID:                     ev.StudyID,
			Date:                   ev.StudyDate,
			Time:                   ev.StudyTime,
			AccessionNumber:        ev.AccessionNumber,
			ReferringPhysicianName: ev.ReferringPhysicianName,
		},
		SeriesInstanceUID: newUID(),
		SeriesNumber:      ev.SeriesNumber,
		SOPInstanceUID:    sopInstanceUID,
		InstanceNumber:    ev.InstanceNumber,
		Manufacturer:      manufacturer,
		ContentTime:       now(),
		ObservationContext: ObservationContext{
			Person: PersonObserver{Name: observer},
			Device: DeviceObserver{UID: newUID(), Name: s.Options.DeviceName},
		},
		Report: MeasurementReport{
			Title:             CodeImagingMeasurementReport,
			Language:          CodeEnglish,
			ProcedureReported: CodeUnspecifiedBodyRegion,
			Groups:            groups,
		},
		Evidence: EvidenceRef{
			StudyInstanceUID:  ev.StudyInstanceUID,
			SeriesInstanceUID: ev.SeriesInstanceUID,
			SOPInstanceUID:    ev.SOPInstanceUID,
			SOPClassUID:       ev.SOPClassUID,
		},
	}
	return doc, nil
}

func checkTemplate(ev internaldicom.Evidence) error {
	required := []struct {
		name  string
		value string
	}{
		{"StudyInstanceUID", ev.StudyInstanceUID},
		{"SeriesInstanceUID", ev.SeriesInstanceUID},
		{"SOPInstanceUID", ev.SOPInstanceUID},
		{"SOPClassUID", ev.SOPClassUID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &TemplateViolationError{Attribute: r.name}
		}
	}
	for _, name := range []string{"InstanceNumber", "SeriesNumber"} {
		if ev.IsAbsent(name) {
			return &TemplateViolationError{Attribute: name}
		}
	}
	return nil
}
