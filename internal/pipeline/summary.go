package pipeline

import (
	"errors"

	"github.com/mrsinham/cxrreport/internal/archive"
	internaldicom "github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/dicom/sr"
	"github.com/mrsinham/cxrreport/internal/results"
)

// Failure kinds reported in a Summary besides the record error kinds.
const (
	KindInvalidResult     = "invalid_result"
	KindTemplateViolation = "template_violation"
	KindWrite             = "write"
	KindUpload            = "upload"
	KindMirror            = "mirror"
)

// Failure is one failed item of a run.
type Failure struct {
	FilePath string
	Kind     string
	Message  string
}

// Summary is the user-facing outcome of a run.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
	Failures  []Failure
}

func (s *Summary) fail(path, kind string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{FilePath: path, Kind: kind, Message: err.Error()})
}

// SummarizeBatch builds the summary of an aggregation run.
func SummarizeBatch(b *Batch) Summary {
	s := Summary{Attempted: b.Processed}
	for _, rec := range b.Records {
		if !rec.IsError() {
			s.Succeeded++
			continue
		}
		if rec.Err.Kind == results.KindCanceled {
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, Failure{FilePath: rec.FilePath, Kind: string(rec.Err.Kind), Message: rec.Err.Message})
	}
	return s
}

// classify maps a report stage error to a failure kind.
func classify(err error) string {
	var (
		malformed *internaldicom.MalformedEvidenceError
		invalid   *sr.InvalidResultError
		violation *sr.TemplateViolationError
		upload    *archive.UploadError
	)
	switch {
	case errors.As(err, &malformed):
		return string(results.KindMalformedEvidence)
	case errors.As(err, &invalid):
		return KindInvalidResult
	case errors.As(err, &violation):
		return KindTemplateViolation
	case errors.As(err, &upload):
		return KindUpload
	}
	return KindWrite
}
