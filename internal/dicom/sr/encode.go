package sr

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

// SR content item attributes.
var (
	tagRelationshipType        = tag.Tag{Group: 0x0040, Element: 0xA010}
	tagValueType               = tag.Tag{Group: 0x0040, Element: 0xA040}
	tagConceptNameCodeSequence = tag.Tag{Group: 0x0040, Element: 0xA043}
	tagContinuityOfContent     = tag.Tag{Group: 0x0040, Element: 0xA050}
	tagPersonName              = tag.Tag{Group: 0x0040, Element: 0xA123}
	tagUID                     = tag.Tag{Group: 0x0040, Element: 0xA124}
	tagTextValue               = tag.Tag{Group: 0x0040, Element: 0xA160}
	tagConceptCodeSequence     = tag.Tag{Group: 0x0040, Element: 0xA168}
	tagMeasuredValueSequence   = tag.Tag{Group: 0x0040, Element: 0xA300}
	tagNumericValue            = tag.Tag{Group: 0x0040, Element: 0xA30A}
	tagMeasurementUnitsCode    = tag.Tag{Group: 0x0040, Element: 0x08EA}
	tagContentTemplateSequence = tag.Tag{Group: 0x0040, Element: 0xA504}
	tagTemplateIdentifier      = tag.Tag{Group: 0x0040, Element: 0xDB00}
	tagMappingResource         = tag.Tag{Group: 0x0008, Element: 0x0105}
	tagContentSequence         = tag.Tag{Group: 0x0040, Element: 0xA730}
	tagCompletionFlag          = tag.Tag{Group: 0x0040, Element: 0xA491}
	tagVerificationFlag        = tag.Tag{Group: 0x0040, Element: 0xA493}
	tagCurrentEvidenceSequence = tag.Tag{Group: 0x0040, Element: 0xA375}
)

// Relationship types.
const (
	relContains      = "CONTAINS"
	relHasObsContext = "HAS OBS CONTEXT"
	relHasConceptMod = "HAS CONCEPT MOD"
)

// Dataset encodes the document as a Comprehensive SR dataset. Elements
// are sorted by tag at every nesting level.
func (d *Document) Dataset() (dicom.Dataset, error) {
	if len(d.Report.Groups) == 0 {
		return dicom.Dataset{}, fmt.Errorf("measurement report has no measurement groups")
	}
	b := &builder{}

	// File meta.
	b.add(tag.TransferSyntaxUID, []string{explicitVRLittleEndian})
	b.add(tag.MediaStorageSOPClassUID, []string{ComprehensiveSRClassUID})
	b.add(tag.MediaStorageSOPInstanceUID, []string{d.SOPInstanceUID})

	// SOP common.
	b.add(tag.SpecificCharacterSet, []string{"ISO_IR 192"})
	b.add(tag.SOPClassUID, []string{ComprehensiveSRClassUID})
	b.add(tag.SOPInstanceUID, []string{d.SOPInstanceUID})

	// Patient.
	b.add(tag.PatientName, []string{d.Patient.Name})
	b.add(tag.PatientID, []string{d.Patient.ID})
	b.add(tag.PatientBirthDate, []string{d.Patient.BirthDate})
	b.add(tag.PatientSex, []string{d.Patient.Sex})

	// General study.
	b.add(tag.StudyInstanceUID, []string{d.Study.InstanceUID})
	b.add(tag.StudyID, []string{d.Study.ID})
	b.add(tag.StudyDate, []string{d.Study.Date})
	b.add(tag.StudyTime, []string{d.Study.Time})
	b.add(tag.AccessionNumber, []string{d.Study.AccessionNumber})
	b.add(tag.ReferringPhysicianName, []string{d.Study.ReferringPhysicianName})

	// SR document series and equipment.
	b.add(tag.Modality, []string{"SR"})
	b.add(tag.SeriesInstanceUID, []string{d.SeriesInstanceUID})
	b.add(tag.SeriesNumber, []string{strconv.Itoa(d.SeriesNumber)})
	b.add(tag.Manufacturer, []string{d.Manufacturer})

	// SR document general.
	b.add(tag.InstanceNumber, []string{strconv.Itoa(d.InstanceNumber)})
	b.add(tag.ContentDate, []string{d.ContentTime.Format("20060102")})
	b.add(tag.ContentTime, []string{d.ContentTime.Format("150405")})
	b.add(tagCompletionFlag, []string{"PARTIAL"})
	b.add(tagVerificationFlag, []string{"UNVERIFIED"})
	b.add(tagCurrentEvidenceSequence, [][]*dicom.Element{b.evidenceItem(d.Evidence)})

	// Root content item.
	b.add(tagValueType, []string{"CONTAINER"})
	b.add(tagConceptNameCodeSequence, [][]*dicom.Element{b.code(d.Report.Title)})
	b.add(tagContinuityOfContent, []string{"SEPARATE"})
	b.add(tagContentTemplateSequence, [][]*dicom.Element{b.template("1500")})
	b.add(tagContentSequence, b.rootContent(d))

	if b.err != nil {
		return dicom.Dataset{}, b.err
	}
	return dicom.Dataset{Elements: sortElements(b.elems)}, nil
}

// builder accumulates elements and keeps the first construction error.
type builder struct {
	elems []*dicom.Element
	err   error
}

func (b *builder) add(t tag.Tag, value any) {
	b.elems = append(b.elems, b.element(t, value))
}

func (b *builder) element(t tag.Tag, value any) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("build element %v: %w", t, err)
	}
	return elem
}

// item builds one sequence item from tag/value pairs.
func (b *builder) item(pairs ...any) []*dicom.Element {
	out := make([]*dicom.Element, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, b.element(pairs[i].(tag.Tag), pairs[i+1]))
	}
	return sortElements(out)
}

func (b *builder) code(c CodedConcept) []*dicom.Element {
	return b.item(
		tag.CodeValue, []string{c.Value},
		tag.CodingSchemeDesignator, []string{c.Scheme},
		tag.CodeMeaning, []string{c.Meaning},
	)
}

func (b *builder) template(id string) []*dicom.Element {
	return b.item(
		tagMappingResource, []string{"DCMR"},
		tagTemplateIdentifier, []string{id},
	)
}

func (b *builder) evidenceItem(ref EvidenceRef) []*dicom.Element {
	sop := b.item(
		tag.ReferencedSOPClassUID, []string{ref.SOPClassUID},
		tag.ReferencedSOPInstanceUID, []string{ref.SOPInstanceUID},
	)
	series := b.item(
		tag.SeriesInstanceUID, []string{ref.SeriesInstanceUID},
		tag.ReferencedSOPSequence, [][]*dicom.Element{sop},
	)
	return b.item(
		tag.StudyInstanceUID, []string{ref.StudyInstanceUID},
		tag.ReferencedSeriesSequence, [][]*dicom.Element{series},
	)
}

func (b *builder) rootContent(d *Document) [][]*dicom.Element {
	items := [][]*dicom.Element{
		b.codeItem(relHasConceptMod, CodeLanguageOfContent, d.Report.Language),
		b.codeItem(relHasObsContext, CodeObserverType, CodePerson),
		b.contentItem(relHasObsContext, "PNAME", CodePersonObserverName, tagPersonName, []string{d.ObservationContext.Person.Name}),
		b.codeItem(relHasObsContext, CodeObserverType, CodeDevice),
		b.contentItem(relHasObsContext, "UIDREF", CodeDeviceObserverUID, tagUID, []string{d.ObservationContext.Device.UID}),
	}
	if name := d.ObservationContext.Device.Name; name != "" {
		items = append(items, b.contentItem(relHasObsContext, "TEXT", CodeDeviceObserverName, tagTextValue, []string{name}))
	}
	items = append(items, b.codeItem(relHasConceptMod, CodeProcedureReported, d.Report.ProcedureReported))

	groups := make([][]*dicom.Element, 0, len(d.Report.Groups))
	for _, g := range d.Report.Groups {
		groups = append(groups, b.measurementGroup(g))
	}
	items = append(items, b.container(relContains, CodeImagingMeasurements, "", groups))
	return items
}

func (b *builder) measurementGroup(g MeasurementGroup) []*dicom.Element {
	measured := b.item(
		tagMeasurementUnitsCode, [][]*dicom.Element{b.code(g.Unit)},
		tagNumericValue, []string{floatToDS(g.Value)},
	)
	num := b.item(
		tagRelationshipType, []string{relContains},
		tagValueType, []string{"NUM"},
		tagConceptNameCodeSequence, [][]*dicom.Element{b.code(g.ConceptName)},
		tagMeasuredValueSequence, [][]*dicom.Element{measured},
	)
	children := [][]*dicom.Element{
		b.contentItem(relHasObsContext, "TEXT", CodeTrackingIdentifier, tagTextValue, []string{g.TrackingIdentifier}),
		b.contentItem(relHasObsContext, "UIDREF", CodeTrackingUID, tagUID, []string{g.TrackingUID}),
		num,
	}
	return b.container(relContains, CodeMeasurementGroup, "1501", children)
}

func (b *builder) container(rel string, name CodedConcept, templateID string, children [][]*dicom.Element) []*dicom.Element {
	pairs := []any{
		tagRelationshipType, []string{rel},
		tagValueType, []string{"CONTAINER"},
		tagConceptNameCodeSequence, [][]*dicom.Element{b.code(name)},
		tagContinuityOfContent, []string{"SEPARATE"},
	}
	if templateID != "" {
		pairs = append(pairs, tagContentTemplateSequence, [][]*dicom.Element{b.template(templateID)})
	}
	if len(children) > 0 {
		pairs = append(pairs, tagContentSequence, children)
	}
	return b.item(pairs...)
}

func (b *builder) codeItem(rel string, name, value CodedConcept) []*dicom.Element {
	return b.item(
		tagRelationshipType, []string{rel},
		tagValueType, []string{"CODE"},
		tagConceptNameCodeSequence, [][]*dicom.Element{b.code(name)},
		tagConceptCodeSequence, [][]*dicom.Element{b.code(value)},
	)
}

func (b *builder) contentItem(rel, valueType string, name CodedConcept, valueTag tag.Tag, value []string) []*dicom.Element {
	return b.item(
		tagRelationshipType, []string{rel},
		tagValueType, []string{valueType},
		tagConceptNameCodeSequence, [][]*dicom.Element{b.code(name)},
		valueTag, value,
	)
}

func sortElements(elems []*dicom.Element) []*dicom.Element {
	sort.Slice(elems, func(i, j int) bool {
		if elems[i].Tag.Group != elems[j].Tag.Group {
			return elems[i].Tag.Group < elems[j].Tag.Group
		}
		return elems[i].Tag.Element < elems[j].Tag.Element
	})
	return elems
}

// floatToDS formats a measurement as a Decimal String (at most 16 bytes),
// using the shortest form that round-trips and dropping precision only when
// that form does not fit.
func floatToDS(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for prec := 15; len(s) > maxDSLength && prec > 0; prec-- {
		s = strconv.FormatFloat(f, 'g', prec, 64)
	}
	return s
}

const maxDSLength = 16
