package inference

import (
	"errors"
	"fmt"

	"github.com/mrsinham/cxrreport/internal/imaging"
)

// Shape failures, re-exported so callers need not import imaging.
var (
	ErrRank       = imaging.ErrRank
	ErrDegenerate = imaging.ErrDegenerate
	ErrShape      = imaging.ErrShape
)

// ErrIncomplete is returned when the service reply cannot be turned into a
// complete label to score mapping.
var ErrIncomplete = errors.New("incomplete prediction")

// Error is any failure of the scoring step: bad input shape, transport or
// service failure, or an unusable reply.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrap(err error) error {
	var ie *Error
	if errors.As(err, &ie) {
		return err
	}
	return &Error{Cause: err}
}
