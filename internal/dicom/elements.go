package dicom

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

// writeDatasetToFile writes a DICOM dataset to a file
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := dicom.Write(f, ds, opts...); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// getString returns the first value of a string element and whether the
// element was present at all.
func getString(ds dicom.Dataset, t tag.Tag) (string, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return "", false
	}
	if elem.Value.ValueType() == dicom.Strings {
		values, ok := elem.Value.GetValue().([]string)
		if !ok || len(values) == 0 {
			return "", true
		}
		return strings.TrimRight(strings.TrimSpace(values[0]), "\x00"), true
	}
	return strings.Trim(elem.Value.String(), " []"), true
}

// getInt reads an integer from either a binary (US/UL) or an IS element.
func getInt(ds dicom.Dataset, t tag.Tag) (int, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return 0, false
	}
	if elem.Value.ValueType() == dicom.Ints {
		values, ok := elem.Value.GetValue().([]int)
		if !ok || len(values) == 0 {
			return 0, false
		}
		return values[0], true
	}
	s, _ := getString(ds, t)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// getFloat reads the first value of a DS element.
func getFloat(ds dicom.Dataset, t tag.Tag) (float64, bool) {
	s, ok := getString(ds, t)
	if !ok || s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, '\\'); i >= 0 {
		s = s[:i]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// floatToDS converts a float64 to a DICOM Decimal String.
func floatToDS(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
