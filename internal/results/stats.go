package results

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LabelStats summarizes the scores of one label across a batch.
type LabelStats struct {
	Label  Pathology
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Labels returns every label seen in records: vocabulary labels first in
// model order, then extra labels by name.
func Labels(records []Record) []Pathology {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		for _, sc := range r.Scores {
			if !seen[string(sc.Label)] {
				seen[string(sc.Label)] = true
				names = append(names, string(sc.Label))
			}
		}
	}
	sortLabels(names)
	out := make([]Pathology, len(names))
	for i, n := range names {
		out[i] = Pathology(n)
	}
	return out
}

// Summarize computes per-label statistics over the scored records.
// Error records are ignored.
func Summarize(records []Record) []LabelStats {
	labels := Labels(records)
	out := make([]LabelStats, 0, len(labels))
	for _, label := range labels {
		var values []float64
		for _, r := range records {
			if v, ok := r.Scores.Get(label); ok {
				values = append(values, v)
			}
		}
		ls := LabelStats{
			Label: label,
			Count: len(values),
			Min:   floats.Min(values),
			Max:   floats.Max(values),
		}
		if len(values) > 1 {
			ls.Mean, ls.StdDev = stat.MeanStdDev(values, nil)
		} else {
			ls.Mean = values[0]
		}
		out = append(out, ls)
	}
	return out
}

// sortLabels orders known pathologies by model order, then unknown labels
// alphabetically.
func sortLabels(labels []string) {
	rank := make(map[string]int)
	for i, p := range DefaultPathologies() {
		rank[string(p)] = i
	}
	sort.SliceStable(labels, func(i, j int) bool {
		ri, iKnown := rank[labels[i]]
		rj, jKnown := rank[labels[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return labels[i] < labels[j]
		}
	})
}
