package results

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why an item produced no scores.
type ErrorKind string

const (
	KindMalformedEvidence ErrorKind = "malformed_evidence"
	KindInference         ErrorKind = "inference"
	KindCanceled          ErrorKind = "canceled"
)

// AllErrorKinds returns every known error kind.
func AllErrorKinds() []ErrorKind {
	return []ErrorKind{KindMalformedEvidence, KindInference, KindCanceled}
}

// ParseErrorKind parses a persisted kind. Unknown kinds map to KindInference,
// which is how records written by older tools are read back.
func ParseErrorKind(s string) ErrorKind {
	for _, k := range AllErrorKinds() {
		if string(k) == s {
			return k
		}
	}
	return KindInference
}

// ErrorDescriptor describes a failed item.
type ErrorDescriptor struct {
	Kind    ErrorKind
	Message string
}

// Record is the outcome of processing one evidence file. Exactly one of
// Scores and Err is populated. Build records with NewScoredRecord or
// NewErrorRecord; a Record is never modified after construction.
type Record struct {
	FilePath string
	Scores   Scores
	Err      *ErrorDescriptor
}

// NewScoredRecord builds a successful record. It rejects an empty or
// invalid score mapping, so a scored record always carries scores.
func NewScoredRecord(filePath string, scores Scores) (Record, error) {
	if strings.TrimSpace(filePath) == "" {
		return Record{}, errors.New("record without file path")
	}
	if err := scores.Validate(); err != nil {
		return Record{}, fmt.Errorf("invalid scores for %s: %w", filePath, err)
	}
	return Record{FilePath: filePath, Scores: scores.Clone()}, nil
}

// NewErrorRecord builds a failed record. An empty message is replaced by
// a generic one so the error side is never blank.
func NewErrorRecord(filePath string, kind ErrorKind, message string) Record {
	if kind == "" {
		kind = KindInference
	}
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("%s failure", kind)
	}
	return Record{FilePath: filePath, Err: &ErrorDescriptor{Kind: kind, Message: message}}
}

// IsError reports whether the record carries an error.
func (r Record) IsError() bool {
	return r.Err != nil
}

// Validate checks the exactly-one invariant.
func (r Record) Validate() error {
	hasScores := len(r.Scores) > 0
	hasErr := r.Err != nil && strings.TrimSpace(r.Err.Message) != ""
	switch {
	case hasScores && hasErr:
		return fmt.Errorf("record %s carries both scores and an error", r.FilePath)
	case !hasScores && !hasErr:
		return fmt.Errorf("record %s carries neither scores nor an error", r.FilePath)
	case hasScores:
		return r.Scores.Validate()
	}
	return nil
}
