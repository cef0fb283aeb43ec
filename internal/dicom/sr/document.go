package sr

import "time"

// Comprehensive SR Storage.
const ComprehensiveSRClassUID = "1.2.840.10008.5.1.4.1.1.88.33"

// MeasurementGroup holds one coded measurement (TID 1501).
type MeasurementGroup struct {
	ConceptName        CodedConcept
	Value              float64
	Unit               CodedConcept
	TrackingIdentifier string
	TrackingUID        string
}

// PersonObserver identifies the human observer (TID 1003).
type PersonObserver struct {
	Name string
}

// DeviceObserver identifies the scoring device (TID 1004).
type DeviceObserver struct {
	UID  string
	Name string // optional
}

// ObservationContext is the observer context of the report (TID 1002).
type ObservationContext struct {
	Person PersonObserver
	Device DeviceObserver
}

// MeasurementReport is the TID 1500 content tree.
type MeasurementReport struct {
	Title             CodedConcept
	Language          CodedConcept
	ProcedureReported CodedConcept
	Groups            []MeasurementGroup
}

// EvidenceRef references the image the measurements were derived from.
type EvidenceRef struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
	SOPClassUID       string
}

// Patient holds the attributes of the Patient module.
type Patient struct {
	Name      string
	ID        string
	BirthDate string
	Sex       string
}

// Study holds the attributes of the General Study module.
type Study struct {
	InstanceUID            string
	ID                     string
	Date                   string
	Time                   string
	AccessionNumber        string
	ReferringPhysicianName string
}

// Document is a measurement report SR for one evidence image. It holds
// identifiers only; the evidence dataset is never embedded.
type Document struct {
	SourcePath string

	Patient Patient
	Study   Study

	SeriesInstanceUID string
	SeriesNumber      int
	SOPInstanceUID    string
	InstanceNumber    int
	Manufacturer      string
	ContentTime       time.Time

	ObservationContext ObservationContext
	Report             MeasurementReport
	Evidence           EvidenceRef
}
