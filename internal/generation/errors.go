package generation

import (
	"errors"
	"fmt"
)

// ErrMissingResume is returned when generation is attempted without a resume.
var ErrMissingResume = errors.New("resume is required")

// ErrMissingJobDescription is returned when the job description is blank.
var ErrMissingJobDescription = errors.New("job description is required")

// APICallError represents a failed model call
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents an error parsing the model response
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// GenerationError is the single error type returned by Generator methods.
// Message is safe to show to the applicant; Cause carries the detail.
type GenerationError struct {
	Op      string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Operations
const (
	OpCoverLetter = "cover_letter"
	OpEmail       = "email"
)

// User-facing failure messages
const (
	CoverLetterFailedMessage = "Failed to generate cover letter. Please try again."
	EmailFailedMessage       = "Failed to generate email message."
)

func letterError(cause error) error {
	return &GenerationError{Op: OpCoverLetter, Message: CoverLetterFailedMessage, Cause: cause}
}

func emailError(cause error) error {
	return &GenerationError{Op: OpEmail, Message: EmailFailedMessage, Cause: cause}
}
