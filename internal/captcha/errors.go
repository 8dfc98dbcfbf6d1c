// Package captcha detects bot-challenge widgets on a rendered page and
// defeats them through a third-party solving provider.
package captcha

import "fmt"

// SolveError represents a failure while solving a challenge.
type SolveError struct {
	Message string
	Cause   error
}

func (e *SolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("captcha solve error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("captcha solve error: %s", e.Message)
}

func (e *SolveError) Unwrap() error {
	return e.Cause
}

// TimeoutError indicates the provider did not return a token within the
// polling ceiling.
type TimeoutError struct {
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("captcha solve timed out after %s", e.Elapsed)
}
