package corruption

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
)

// PatchOddPixelLength rewrites the PixelData (7FE0,0010) value length of a
// written file to an odd number, the classic "Length of element (7fe0,0010)
// is not a multiple of 2" defect.
func PatchOddPixelLength(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file for malformed patching: %w", err)
	}
	if !patchPixelDataOddLength(data) {
		return nil
	}
	return os.WriteFile(filePath, data, 0600)
}

// patchPixelDataOddLength finds the PixelData element and patches its value
// length to original - 1.
func patchPixelDataOddLength(data []byte) bool {
	// PixelData tag bytes: 0xE0, 0x7F, 0x10, 0x00 (Little Endian)
	for i := 0; i <= len(data)-12; i++ {
		if data[i] == 0xE0 && data[i+1] == 0x7F &&
			data[i+2] == 0x10 && data[i+3] == 0x00 {
			vrStr := string(data[i+4 : i+6])
			if vrStr == "OW" || vrStr == "OB" {
				// Long form: VR(2) + Reserved(2) + VL(4)
				currentVL := binary.LittleEndian.Uint32(data[i+8 : i+12])
				if currentVL > 1 && currentVL%2 == 0 {
					binary.LittleEndian.PutUint32(data[i+8:i+12], currentVL-1)
					return true
				}
			}
		}
	}
	return false
}

// truncateFile cuts the file to size bytes. 160 keeps the preamble, the
// DICM magic and a fragment of the file meta group.
func truncateFile(filePath string, size int64) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat file for truncation: %w", err)
	}
	if info.Size() <= size {
		return nil
	}
	if err := os.Truncate(filePath, size); err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}
	return nil
}

// overwriteWithGarbage keeps the preamble and the DICM magic but replaces
// everything after them with junk. The first junk element is a short-form
// element at (0008,0016) where the file meta group length must be, so
// readers fail fast instead of chasing a random value length.
func overwriteWithGarbage(filePath string, rng *rand.Rand) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat file for garbage: %w", err)
	}
	n := max(info.Size(), 256)
	buf := make([]byte, n)
	copy(buf[128:132], "DICM")
	junk := []byte{0x08, 0x00, 0x16, 0x00, 'Z', 'Z', 0x04, 0x00, 'J', 'U', 'N', 'K'}
	copy(buf[132:], junk)
	for i := 132 + len(junk); i < len(buf); i++ {
		buf[i] = byte('a' + rng.IntN(26))
	}
	return os.WriteFile(filePath, buf, 0600)
}
