package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// DXGenerator generates DX (Digital Radiography) specific metadata.
type DXGenerator struct{}

// Modality returns the DX modality type.
func (g *DXGenerator) Modality() Modality {
	return DX
}

// SOPClassUID returns the Digital X-Ray Image Storage - For Presentation SOP Class UID.
func (g *DXGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.1.1"
}

// PhotometricInterpretation returns MONOCHROME2.
func (g *DXGenerator) PhotometricInterpretation() string {
	return "MONOCHROME2"
}

// Scanners returns available flat panel configurations.
func (g *DXGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "SIEMENS", Model: "Ysio Max", DetectorPitch: 0.148},
		{Manufacturer: "GE MEDICAL SYSTEMS", Model: "Definium 6000", DetectorPitch: 0.2},
		{Manufacturer: "PHILIPS", Model: "DigitalDiagnost C90", DetectorPitch: 0.148},
		{Manufacturer: "CANON", Model: "CXDI-710C", DetectorPitch: 0.125},
		{Manufacturer: "Carestream Health", Model: "DRX-Evolution Plus", DetectorPitch: 0.139},
	}
}

// GenerateSeriesParams generates DX-specific parameters for a series.
func (g *DXGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	params := commonParams(DX, scanner, rng)
	params.WindowCenter = float64(7000 + rng.IntN(2001))
	params.WindowWidth = float64(12000 + rng.IntN(4001))
	return params
}

// PixelConfig returns DX pixel data configuration.
func (g *DXGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated:       16,
		BitsStored:          14,
		HighBit:             13,
		PixelRepresentation: 0,
		MinValue:            0,
		MaxValue:            16383,
		BaseValue:           5000,
	}
}

// AppendModalityElements appends DX-specific DICOM elements to a dataset.
func (g *DXGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	ds.Elements = append(ds.Elements, projectionElements(params)...)
	ds.Elements = append(ds.Elements,
		mustNewElement(tag.PresentationIntentType, []string{"FOR PRESENTATION"}),
		mustNewElement(tag.DetectorType, []string{"SCINTILLATOR"}),
	)
	return nil
}
