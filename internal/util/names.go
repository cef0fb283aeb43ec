package util

import (
	"math/rand/v2"
	"time"
)

var defaultRNG = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

var (
	maleFirstNames = []string{
		"James", "John", "Robert", "Michael", "William", "David", "Thomas", "Daniel",
		"Paul", "Andrew", "Kevin", "George", "Edward", "Henry", "Peter", "Samuel",
		"Lucas", "Hugo", "Louis", "Arthur", "Jules", "Nathan", "Pierre", "Antoine",
	}

	femaleFirstNames = []string{
		"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Susan", "Sarah", "Karen",
		"Emily", "Laura", "Anna", "Helen", "Grace", "Alice", "Julia", "Claire",
		"Camille", "Chloe", "Manon", "Lea", "Ines", "Juliette", "Louise", "Zoe",
	}

	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis", "Wilson",
		"Taylor", "Moore", "Martin", "Lee", "Clark", "Walker", "Young", "King",
		"Bernard", "Dubois", "Durand", "Lefebvre", "Moreau", "Laurent", "Simon", "Michel",
	}
)

// GeneratePatientName returns a synthetic patient name in DICOM PN form
// ("LASTNAME^FIRSTNAME"). Sex "M" picks a male first name; anything else
// picks a female one. A nil rng uses a shared time-seeded source.
func GeneratePatientName(sex string, rng *rand.Rand) string {
	if rng == nil {
		rng = defaultRNG
	}

	first := femaleFirstNames
	if sex == "M" {
		first = maleFirstNames
	}
	return lastNames[rng.IntN(len(lastNames))] + "^" + first[rng.IntN(len(first))]
}
