package dicom

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/mrsinham/cxrreport/internal/imaging"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Normalized pixel range expected by the scoring model.
const (
	NormalizedMin = -1024.0
	NormalizedMax = 1024.0
)

// ErrNoPixelData is returned when a file carries no decodable frame.
var ErrNoPixelData = errors.New("no pixel data")

// DecodePixels reads the first frame of the DICOM file at path and returns
// it with photometric corrections applied: modality rescale, linear VOI
// window when one is present, MONOCHROME1 inversion, and a final linear
// mapping onto [NormalizedMin, NormalizedMax]. Color frames keep their
// channels as a [rows, cols, 3] array.
func DecodePixels(path string) (imaging.Pixels, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return imaging.Pixels{}, fmt.Errorf("parse dicom: %w", err)
	}
	return DecodeDataset(ds)
}

// DecodeDataset is DecodePixels for an already parsed dataset.
func DecodeDataset(ds dicom.Dataset) (imaging.Pixels, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return imaging.Pixels{}, ErrNoPixelData
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 || info.Frames[0] == nil {
		return imaging.Pixels{}, ErrNoPixelData
	}
	img, err := info.Frames[0].GetImage()
	if err != nil {
		return imaging.Pixels{}, fmt.Errorf("decode frame: %w", err)
	}

	px := imageToPixels(img)
	if px.Rank() == 2 {
		applyPhotometric(ds, px.Data)
	}
	imaging.NormalizeRange(px.Data, NormalizedMin, NormalizedMax)
	return px, nil
}

// imageToPixels copies raw sample values out of img. Grayscale images keep
// their stored values; anything else is expanded to RGB channels.
func imageToPixels(img image.Image) imaging.Pixels {
	b := img.Bounds()
	rows, cols := b.Dy(), b.Dx()

	switch g := img.(type) {
	case *image.Gray16:
		data := make([]float64, 0, rows*cols)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				data = append(data, float64(g.Gray16At(x, y).Y))
			}
		}
		return imaging.Pixels{Shape: []int{rows, cols}, Data: data}
	case *image.Gray:
		data := make([]float64, 0, rows*cols)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				data = append(data, float64(g.GrayAt(x, y).Y))
			}
		}
		return imaging.Pixels{Shape: []int{rows, cols}, Data: data}
	}

	data := make([]float64, 0, rows*cols*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data = append(data, float64(r), float64(g), float64(bl))
		}
	}
	return imaging.Pixels{Shape: []int{rows, cols, 3}, Data: data}
}

// applyPhotometric applies the rescale, VOI window and polarity fix in place.
func applyPhotometric(ds dicom.Dataset, data []float64) {
	slope, ok := getFloat(ds, tag.RescaleSlope)
	if !ok || slope == 0 {
		slope = 1
	}
	intercept, _ := getFloat(ds, tag.RescaleIntercept)
	if slope != 1 || intercept != 0 {
		for i, v := range data {
			data[i] = v*slope + intercept
		}
	}

	center, hasCenter := getFloat(ds, tag.WindowCenter)
	width, hasWidth := getFloat(ds, tag.WindowWidth)
	if hasCenter && hasWidth && width >= 1 {
		applyLinearWindow(data, center, width)
	}

	if pi, _ := getString(ds, tag.PhotometricInterpretation); strings.TrimSpace(pi) == "MONOCHROME1" {
		maxV := math.Inf(-1)
		for _, v := range data {
			maxV = math.Max(maxV, v)
		}
		for i, v := range data {
			data[i] = maxV - v
		}
	}
}

// applyLinearWindow maps values through the DICOM linear VOI function
// (PS3.3 C.11.2.1.2.1) onto [0, 1].
func applyLinearWindow(data []float64, center, width float64) {
	lower := center - 0.5 - (width-1)/2
	upper := center - 0.5 + (width-1)/2
	for i, v := range data {
		switch {
		case v <= lower:
			data[i] = 0
		case v > upper:
			data[i] = 1
		default:
			data[i] = ((v-(center-0.5))/(width-1) + 0.5)
		}
	}
}
