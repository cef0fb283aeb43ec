package modalities

import (
	"fmt"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// floatToDS converts a float64 to a DICOM Decimal String.
func floatToDS(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// intToIS converts an int to a DICOM Integer String.
func intToIS(i int) string {
	return strconv.Itoa(i)
}

// projectionElements are the X-ray acquisition attributes common to CR and DX.
func projectionElements(params SeriesParams) []*dicom.Element {
	return []*dicom.Element{
		mustNewElement(tag.KVP, []string{floatToDS(params.KVP)}),
		mustNewElement(tag.Exposure, []string{intToIS(params.Exposure)}),
		mustNewElement(tag.ExposureTime, []string{intToIS(params.ExposureTime)}),
		mustNewElement(tag.ViewPosition, []string{params.ViewPosition}),
		mustNewElement(tag.DistanceSourceToDetector, []string{floatToDS(params.DistanceSourceToDetector)}),
		mustNewElement(tag.ImagerPixelSpacing, []string{
			floatToDS(params.ImagerPixelSpacing),
			floatToDS(params.ImagerPixelSpacing),
		}),
		mustNewElement(tag.RescaleIntercept, []string{floatToDS(params.RescaleIntercept)}),
		mustNewElement(tag.RescaleSlope, []string{floatToDS(params.RescaleSlope)}),
	}
}
