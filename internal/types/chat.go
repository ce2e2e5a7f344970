package types

import "fmt"

// Step is a wizard step. Exactly one step is active at a time.
type Step string

// Wizard steps
const (
	StepInput        Step = "input"
	StepLetterReview Step = "letter"
	StepEmailReview  Step = "email"
)

// ParseStep converts a string into a Step.
func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepInput, StepLetterReview, StepEmailReview:
		return Step(s), nil
	default:
		return "", fmt.Errorf("unknown step: %q", s)
	}
}

// Document returns the name of the document chat edits in this step.
func (s Step) Document() string {
	switch s {
	case StepLetterReview:
		return "cover letter"
	case StepEmailReview:
		return "email"
	default:
		return ""
	}
}

// Role identifies the author of a chat message.
type Role string

// Chat roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a chat transcript.
type ChatMessage struct {
	Role     Role   `json:"role"`
	Text     string `json:"text"`
	IsUpdate bool   `json:"is_update,omitempty"` // reply replaced the active document
}
