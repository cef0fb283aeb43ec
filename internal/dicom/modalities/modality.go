// Package modalities provides projection radiography metadata generators.
package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
)

// Modality represents a DICOM imaging modality type.
type Modality string

const (
	CR Modality = "CR" // Computed Radiography
	DX Modality = "DX" // Digital Radiography
)

// AllModalities returns all supported modalities.
func AllModalities() []Modality {
	return []Modality{CR, DX}
}

// IsValid checks if a modality string is valid.
func IsValid(m string) bool {
	for _, valid := range AllModalities() {
		if string(valid) == m {
			return true
		}
	}
	return false
}

// Scanner represents an imaging device configuration.
type Scanner struct {
	Manufacturer string
	Model        string
	// Detector element pitch in mm
	DetectorPitch float64
}

// SeriesParams holds modality-specific parameters for a series.
type SeriesParams struct {
	Modality     Modality
	Scanner      Scanner
	WindowCenter float64
	WindowWidth  float64

	KVP                      float64 // Tube voltage (kV)
	Exposure                 int     // mAs
	ExposureTime             int     // ms
	ViewPosition             string  // PA, AP, LL
	DistanceSourceToDetector float64 // mm
	ImagerPixelSpacing       float64 // mm
	RescaleIntercept         float64
	RescaleSlope             float64
}

// PixelConfig holds pixel data configuration for a modality.
type PixelConfig struct {
	BitsAllocated       uint16
	BitsStored          uint16
	HighBit             uint16
	PixelRepresentation uint16 // 0 = unsigned, 1 = signed
	MinValue            int    // Minimum pixel value
	MaxValue            int    // Maximum pixel value
	BaseValue           int    // Base value for synthetic images
}

// Generator defines the interface for modality-specific generators.
type Generator interface {
	// Modality returns the modality type.
	Modality() Modality

	// SOPClassUID returns the SOP Class UID for this modality.
	SOPClassUID() string

	// PhotometricInterpretation returns the pixel polarity written to the file.
	PhotometricInterpretation() string

	// Scanners returns available scanner configurations.
	Scanners() []Scanner

	// GenerateSeriesParams generates modality-specific parameters for a series.
	GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams

	// PixelConfig returns pixel data configuration.
	PixelConfig() PixelConfig

	// AppendModalityElements appends modality-specific DICOM elements to a dataset.
	AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error
}

// GetGenerator returns the generator for the specified modality.
func GetGenerator(m Modality) Generator {
	switch m {
	case CR:
		return &CRGenerator{}
	case DX:
		fallthrough
	default:
		return &DXGenerator{}
	}
}

// chestViews are the projections drawn for a chest radiograph.
var chestViews = []string{"PA", "PA", "PA", "AP", "LL"}

// commonParams draws the exposure parameters shared by CR and DX chest films.
func commonParams(m Modality, scanner Scanner, rng *rand.Rand) SeriesParams {
	return SeriesParams{
		Modality:                 m,
		Scanner:                  scanner,
		KVP:                      float64(110 + rng.IntN(16)), // 110-125 kV
		Exposure:                 1 + rng.IntN(5),             // 1-5 mAs
		ExposureTime:             5 + rng.IntN(16),            // 5-20 ms
		ViewPosition:             chestViews[rng.IntN(len(chestViews))],
		DistanceSourceToDetector: 1800,
		ImagerPixelSpacing:       scanner.DetectorPitch,
		RescaleIntercept:         0,
		RescaleSlope:             1,
	}
}
