package sr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
)

// FileName returns the SR file name for an evidence file: its stem with an
// "_SR.dcm" suffix.
func FileName(evidencePath string) string {
	base := filepath.Base(evidencePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_SR.dcm"
}

// WriteFile encodes doc and writes it to path.
func WriteFile(doc *Document, path string) error {
	ds, err := doc.Dataset()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create SR file: %w", err)
	}
	if err := dicom.Write(f, ds); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write SR %s: %w", path, err)
	}
	return f.Close()
}

// WriteNextTo writes doc in dir (or next to its evidence when dir is
// empty) and returns the written path.
func WriteNextTo(doc *Document, dir string) (string, error) {
	if dir == "" {
		dir = filepath.Dir(doc.SourcePath)
	}
	path := filepath.Join(dir, FileName(doc.SourcePath))
	if err := WriteFile(doc, path); err != nil {
		return "", err
	}
	return path, nil
}
