package normalize

import "fmt"

// ValidationError reports input that fails a normalization precondition.
// It is caller-facing: the submission API surfaces Field and Reason
// directly so the submitter can correct the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
