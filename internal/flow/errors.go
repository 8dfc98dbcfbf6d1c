// Package flow drives one browser session through an employer's application
// form: detect fields, classify, resolve values, fill, solve challenges,
// advance, until a terminal state is reached.
package flow

import "fmt"

// Failure reasons surfaced in SubmissionResult.FailureReason. Structural
// failures are retryable; the worker decides terminality from attempts.
const (
	// ReasonNoProgress covers both a page with nothing actionable and the
	// step ceiling being hit; either way the form cannot be advanced.
	ReasonNoProgress   = "no progress possible"
	ReasonNavigation   = "navigation failed"
	ReasonNoTarget     = "job posting has no submission URL"
	ReasonFormRejected = "form reported a validation error"
)

// StepError represents a failure while executing one flow step.
type StepError struct {
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("flow step error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("flow step error: %s", e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
