package wizard

import (
	"errors"
	"fmt"

	"github.com/jonathan/smartapplicant/internal/types"
)

var (
	// ErrInvalidTransition is returned when an event does not apply to the current step.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrStaleResponse is returned for a response that was superseded or whose target was wiped.
	ErrStaleResponse = errors.New("stale response")
	// ErrNoResume is returned when an action needs a resume and none is selected.
	ErrNoResume = errors.New("please upload a resume first")
	// ErrNoJobDescription is returned when the job description is blank.
	ErrNoJobDescription = errors.New("please provide a job description")
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoLetter is returned when a letter is needed but none was generated.
	ErrNoLetter = errors.New("no cover letter has been generated")
	// ErrNoEmail is returned when an email is needed but none was generated.
	ErrNoEmail = errors.New("no email has been generated")
)

func invalid(action string, step types.Step) error {
	return fmt.Errorf("%w: cannot %s on step %s", ErrInvalidTransition, action, step)
}
