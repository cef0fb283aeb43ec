package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// CRGenerator generates CR (Computed Radiography) specific metadata.
// Phosphor plate readers commonly store inverted polarity.
type CRGenerator struct{}

// Modality returns the CR modality type.
func (g *CRGenerator) Modality() Modality {
	return CR
}

// SOPClassUID returns the Computed Radiography Image Storage SOP Class UID.
func (g *CRGenerator) SOPClassUID() string {
	return "1.2.840.10008.5.1.4.1.1.1"
}

// PhotometricInterpretation returns MONOCHROME1: low values are white.
func (g *CRGenerator) PhotometricInterpretation() string {
	return "MONOCHROME1"
}

// Scanners returns available CR reader configurations.
func (g *CRGenerator) Scanners() []Scanner {
	return []Scanner{
		{Manufacturer: "FUJIFILM Corporation", Model: "FCR PROFECT CS", DetectorPitch: 0.1},
		{Manufacturer: "Carestream Health", Model: "DirectView CR 975", DetectorPitch: 0.168},
		{Manufacturer: "AGFA", Model: "CR 85-X", DetectorPitch: 0.1},
		{Manufacturer: "KONICA MINOLTA", Model: "REGIUS 190", DetectorPitch: 0.175},
	}
}

// GenerateSeriesParams generates CR-specific parameters for a series.
func (g *CRGenerator) GenerateSeriesParams(scanner Scanner, rng *rand.Rand) SeriesParams {
	params := commonParams(CR, scanner, rng)
	params.WindowCenter = 2048
	params.WindowWidth = 4096
	return params
}

// PixelConfig returns CR pixel data configuration.
func (g *CRGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated:       16,
		BitsStored:          12,
		HighBit:             11,
		PixelRepresentation: 0,
		MinValue:            0,
		MaxValue:            4095,
		BaseValue:           1200,
	}
}

// AppendModalityElements appends CR-specific DICOM elements to a dataset.
func (g *CRGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	ds.Elements = append(ds.Elements, projectionElements(params)...)
	ds.Elements = append(ds.Elements,
		mustNewElement(tag.PlateType, []string{"ST-VI"}),
	)
	return nil
}
