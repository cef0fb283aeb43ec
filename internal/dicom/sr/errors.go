package sr

import "fmt"

// InvalidResultError is returned when a result record cannot back a report:
// it carries an error, or no valid scores.
type InvalidResultError struct {
	FilePath string
	Reason   string
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("invalid result for %s: %s", e.FilePath, e.Reason)
}

// TemplateViolationError is returned when a template-mandated attribute
// cannot be resolved, even after defaults.
type TemplateViolationError struct {
	Attribute string
	Reason    string
}

func (e *TemplateViolationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("template violation: %s is missing", e.Attribute)
	}
	return fmt.Sprintf("template violation: %s: %s", e.Attribute, e.Reason)
}
