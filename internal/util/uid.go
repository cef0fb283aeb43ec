package util

import (
	"math/big"

	"github.com/google/uuid"
)

// uidNamespace scopes deterministic UIDs to this tool.
var uidNamespace = uuid.MustParse("5b7c1f3e-2a4d-4c8e-9f61-0d3a8e2b7c44")

// NewUID returns a fresh DICOM UID in the 2.25 form (ISO/IEC 9834-8),
// i.e. "2.25." followed by the decimal value of a random UUID.
func NewUID() string {
	return uuidToUID(uuid.New())
}

// DeterministicUID derives a stable UID from seed. The same seed always
// yields the same UID, which keeps generated sample sets reproducible.
func DeterministicUID(seed string) string {
	return uuidToUID(uuid.NewSHA1(uidNamespace, []byte(seed)))
}

func uuidToUID(u uuid.UUID) string {
	n := new(big.Int).SetBytes(u[:])
	return "2.25." + n.String()
}

// IsValidUID reports whether s is a syntactically valid DICOM UID:
// at most 64 characters, dot-separated numeric components, no leading zeros.
func IsValidUID(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '.' {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
			continue
		}
		component := s[start:i]
		if component == "" {
			return false
		}
		if len(component) > 1 && component[0] == '0' {
			return false
		}
		start = i + 1
	}
	return true
}
