package sr

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/mrsinham/cxrreport/internal/results"
)

// CodedConcept is a (code value, coding scheme, meaning) triplet.
type CodedConcept struct {
	Value   string
	Scheme  string
	Meaning string
}

func (c CodedConcept) String() string {
	return fmt.Sprintf("(%s, %s, %q)", c.Value, c.Scheme, c.Meaning)
}

// PathologyScheme is the private coding scheme of pathology concepts.
const PathologyScheme = "99CXR"

// maxCodeValue is the SH limit of CodeValue.
const maxCodeValue = 16

// Codes used by the measurement report tree.
var (
	CodeImagingMeasurementReport = CodedConcept{"126000", "DCM", "Imaging Measurement Report"}
	CodeLanguageOfContent        = CodedConcept{"121049", "DCM", "Language of Content Item and Descendants"}
	CodeEnglish                  = CodedConcept{"eng", "RFC5646", "English"}
	CodeObserverType             = CodedConcept{"121005", "DCM", "Observer Type"}
	CodePerson                   = CodedConcept{"121006", "DCM", "Person"}
	CodeDevice                   = CodedConcept{"121007", "DCM", "Device"}
	CodePersonObserverName       = CodedConcept{"121008", "DCM", "Person Observer Name"}
	CodeDeviceObserverUID        = CodedConcept{"121012", "DCM", "Device Observer UID"}
	CodeDeviceObserverName       = CodedConcept{"121013", "DCM", "Device Observer Name"}
	CodeProcedureReported        = CodedConcept{"121058", "DCM", "Procedure reported"}
	CodeImagingMeasurements      = CodedConcept{"126010", "DCM", "Imaging Measurements"}
	CodeMeasurementGroup         = CodedConcept{"125007", "DCM", "Measurement Group"}
	CodeTrackingIdentifier       = CodedConcept{"112039", "DCM", "Tracking Identifier"}
	CodeTrackingUID              = CodedConcept{"112040", "DCM", "Tracking Unique Identifier"}
	CodeNoUnits                  = CodedConcept{"1", "UCUM", "no units"}

	// CodeUnspecifiedBodyRegion is the procedure reported by every document.
	CodeUnspecifiedBodyRegion = CodedConcept{"25045-6", "LN", "CT unspecified body region"}
)

var pathologyCodes = map[results.Pathology]string{
	results.Atelectasis:               "ATEL",
	results.Consolidation:             "CONS",
	results.Infiltration:              "INFL",
	results.Pneumothorax:              "PTX",
	results.Edema:                     "EDEMA",
	results.Emphysema:                 "EMPH",
	results.Fibrosis:                  "FIBR",
	results.Effusion:                  "EFF",
	results.Pneumonia:                 "PNA",
	results.PleuralThickening:         "PLTHICK",
	results.Cardiomegaly:              "CMEG",
	results.Nodule:                    "NOD",
	results.Mass:                      "MASS",
	results.Hernia:                    "HERN",
	results.LungLesion:                "LLES",
	results.Fracture:                  "FX",
	results.LungOpacity:               "LOPAC",
	results.EnlargedCardiomediastinum: "ECM",
}

// PathologyConcept returns the concept name of a pathology measurement.
// Unknown labels get a derived code: the uppercased alphanumerics of the
// label, cut to fit, plus a hash suffix so distinct labels stay distinct.
func PathologyConcept(label results.Pathology) CodedConcept {
	if code, ok := pathologyCodes[label]; ok {
		return CodedConcept{Value: code, Scheme: PathologyScheme, Meaning: string(label)}
	}
	return CodedConcept{Value: derivedCode(string(label)), Scheme: PathologyScheme, Meaning: string(label)}
}

func derivedCode(label string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(label) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	prefix := b.String()
	if len(prefix) > maxCodeValue-5 {
		prefix = prefix[:maxCodeValue-5]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	return fmt.Sprintf("%s-%04X", prefix, h.Sum32()&0xffff)
}
