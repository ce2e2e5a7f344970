// Package wizard holds the letter/email wizard as an explicit state machine.
//
// State is a plain value and Transition is a pure function from (State, Event)
// to the next State. Controller owns one State for a session and runs the
// model calls that produce response events.
package wizard

import (
	"strings"

	"github.com/jonathan/smartapplicant/internal/types"
)

// Slot identifies a document slot that model responses are written into.
type Slot string

// Slots
const (
	SlotLetter Slot = "letter"
	SlotEmail  Slot = "email"
	SlotChat   Slot = "chat"
)

// Slots lists every slot in a fixed order.
var Slots = []Slot{SlotLetter, SlotEmail, SlotChat}

// State is the whole wizard for one applicant.
type State struct {
	Step           types.Step             `json:"step"`
	Resume         *types.ResumeFile      `json:"resume,omitempty"`
	JobDescription string                 `json:"job_description"`
	Letter         string                 `json:"letter"`
	Assessment     *types.MatchAssessment `json:"assessment,omitempty"`
	Email          string                 `json:"email"`
	Transcript     []types.ChatMessage    `json:"transcript"`
	Seq            map[Slot]uint64        `json:"seq"`
}

// NewState returns an empty wizard on the input step.
func NewState() State {
	return State{
		Step: types.StepInput,
		Seq:  map[Slot]uint64{},
	}
}

// Clone returns a copy that shares nothing mutable with s.
func (s State) Clone() State {
	c := s
	c.Assessment = s.Assessment.Clone()
	c.Transcript = append([]types.ChatMessage(nil), s.Transcript...)
	c.Seq = make(map[Slot]uint64, len(s.Seq))
	for k, v := range s.Seq {
		c.Seq[k] = v
	}
	if s.Resume != nil {
		r := *s.Resume
		c.Resume = &r
	}
	return c
}

// Begin reserves the next sequence number for slot. Only a response
// carrying the latest number for its slot is applied.
func (s State) Begin(slot Slot) (State, uint64) {
	next := s.Clone()
	next.Seq[slot]++
	return next, next.Seq[slot]
}

// Latest returns the newest sequence number issued for slot.
func (s State) Latest(slot Slot) uint64 {
	return s.Seq[slot]
}

// ActiveDocument returns the text chat edits in the current step.
func (s State) ActiveDocument() string {
	switch s.Step {
	case types.StepLetterReview:
		return s.Letter
	case types.StepEmailReview:
		return s.Email
	default:
		return ""
	}
}

// CanGenerateLetter reports why a letter cannot be generated, or nil.
func (s State) CanGenerateLetter() error {
	if s.Step != types.StepInput && s.Step != types.StepLetterReview {
		return invalid("generate letter", s.Step)
	}
	return s.checkInputs()
}

// CanGenerateEmail reports why an email cannot be generated, or nil.
func (s State) CanGenerateEmail() error {
	if s.Step != types.StepLetterReview && s.Step != types.StepEmailReview {
		return invalid("generate email", s.Step)
	}
	return s.checkInputs()
}

// CanChat reports why message cannot be sent, or nil.
func (s State) CanChat(message string) error {
	if s.Step != types.StepLetterReview && s.Step != types.StepEmailReview {
		return invalid("chat", s.Step)
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

func (s State) checkInputs() error {
	if s.Resume == nil {
		return ErrNoResume
	}
	if strings.TrimSpace(s.JobDescription) == "" {
		return ErrNoJobDescription
	}
	return nil
}

// bump invalidates in-flight responses for the given slots.
func (s *State) bump(slots ...Slot) {
	for _, slot := range slots {
		s.Seq[slot]++
	}
}
