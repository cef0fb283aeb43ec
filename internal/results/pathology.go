// Package results holds the per-image outcome model of a batch run and
// its persistence formats.
package results

import (
	"fmt"
	"math"
	"strings"
)

// Pathology is a label reported by the scoring model.
type Pathology string

// Default label vocabulary of the densenet121-res224-all weights, in model order.
const (
	Atelectasis               Pathology = "Atelectasis"
	Consolidation             Pathology = "Consolidation"
	Infiltration              Pathology = "Infiltration"
	Pneumothorax              Pathology = "Pneumothorax"
	Edema                     Pathology = "Edema"
	Emphysema                 Pathology = "Emphysema"
	Fibrosis                  Pathology = "Fibrosis"
	Effusion                  Pathology = "Effusion"
	Pneumonia                 Pathology = "Pneumonia"
	PleuralThickening         Pathology = "Pleural_Thickening"
	Cardiomegaly              Pathology = "Cardiomegaly"
	Nodule                    Pathology = "Nodule"
	Mass                      Pathology = "Mass"
	Hernia                    Pathology = "Hernia"
	LungLesion                Pathology = "Lung Lesion"
	Fracture                  Pathology = "Fracture"
	LungOpacity               Pathology = "Lung Opacity"
	EnlargedCardiomediastinum Pathology = "Enlarged Cardiomediastinum"
)

// DefaultPathologies returns the known vocabulary in model order.
func DefaultPathologies() []Pathology {
	return []Pathology{
		Atelectasis, Consolidation, Infiltration, Pneumothorax, Edema, Emphysema,
		Fibrosis, Effusion, Pneumonia, PleuralThickening, Cardiomegaly, Nodule,
		Mass, Hernia, LungLesion, Fracture, LungOpacity, EnlargedCardiomediastinum,
	}
}

// IsKnown reports whether p belongs to the default vocabulary.
func (p Pathology) IsKnown() bool {
	for _, known := range DefaultPathologies() {
		if known == p {
			return true
		}
	}
	return false
}

// Keys used by the flat persistence format. They can never be labels.
const (
	KeyFilePath    = "file_path"
	KeyError       = "error"
	KeyMessage     = "message"
	keyLegacyError = "Error"
)

// IsReserved reports whether name collides with a metadata key of the
// persistence format.
func IsReserved(name string) bool {
	switch name {
	case KeyFilePath, KeyError, KeyMessage, keyLegacyError:
		return true
	}
	return false
}

// Score is one (label, likelihood) pair.
type Score struct {
	Label Pathology
	Value float64
}

// Scores is an ordered label to likelihood mapping.
type Scores []Score

// Validate checks that the mapping is non-empty, that labels are unique,
// non-reserved and non-blank, and that values are finite.
func (s Scores) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("no scores")
	}
	seen := make(map[Pathology]bool, len(s))
	for _, sc := range s {
		label := string(sc.Label)
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("blank pathology label")
		}
		if IsReserved(label) {
			return fmt.Errorf("pathology label %q collides with a reserved key", label)
		}
		if seen[sc.Label] {
			return fmt.Errorf("duplicate pathology label %q", label)
		}
		seen[sc.Label] = true
		if math.IsNaN(sc.Value) || math.IsInf(sc.Value, 0) {
			return fmt.Errorf("pathology %q has non-finite score %v", label, sc.Value)
		}
	}
	return nil
}

// Get returns the score for label.
func (s Scores) Get(label Pathology) (float64, bool) {
	for _, sc := range s {
		if sc.Label == label {
			return sc.Value, true
		}
	}
	return 0, false
}

// Labels returns the labels in order.
func (s Scores) Labels() []Pathology {
	out := make([]Pathology, len(s))
	for i, sc := range s {
		out[i] = sc.Label
	}
	return out
}

// Clone returns a copy that shares no backing array with s.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	copy(out, s)
	return out
}
