package wizard

import (
	"fmt"

	"github.com/jonathan/smartapplicant/internal/chat"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/types"
)

// Event is an input to Transition.
type Event interface {
	Name() string
}

// ResumeSelected replaces the resume. Only valid on the input step.
type ResumeSelected struct{ File *types.ResumeFile }

// ResumeCleared removes the resume. Only valid on the input step.
type ResumeCleared struct{}

// JobDescriptionSet replaces the job text. Only valid on the input step.
type JobDescriptionSet struct{ Text string }

// LetterGenerated carries a finished cover letter call.
type LetterGenerated struct {
	Seq        uint64
	Assessment *types.MatchAssessment
	Letter     string
}

// EmailGenerated carries a finished email call.
type EmailGenerated struct {
	Seq   uint64
	Email string
}

// BackToLetter returns from the email step to the letter step.
type BackToLetter struct{}

// ChatSent appends the user's message before the call resolves.
type ChatSent struct{ Message string }

// ChatReplied carries a finished chat call. A nil UpdatedContent leaves the
// active document untouched.
type ChatReplied struct {
	Seq            uint64
	Reply          string
	UpdatedContent *string
}

// ChatFailed records a failed chat call as a fallback reply.
type ChatFailed struct{ Seq uint64 }

// ResetForNewJob returns to input keeping only the resume.
type ResetForNewJob struct{}

// FullReset returns to an empty input step.
type FullReset struct{}

func (ResumeSelected) Name() string    { return "resume_selected" }
func (ResumeCleared) Name() string     { return "resume_cleared" }
func (JobDescriptionSet) Name() string { return "job_description_set" }
func (LetterGenerated) Name() string   { return "letter_generated" }
func (EmailGenerated) Name() string    { return "email_generated" }
func (BackToLetter) Name() string      { return "back_to_letter" }
func (ChatSent) Name() string          { return "chat_sent" }
func (ChatReplied) Name() string       { return "chat_replied" }
func (ChatFailed) Name() string        { return "chat_failed" }
func (ResetForNewJob) Name() string    { return "reset_for_new_job" }
func (FullReset) Name() string         { return "full_reset" }

// Transition applies ev to s. On error the returned state is s unchanged.
// s itself is never modified.
func Transition(s State, ev Event) (State, error) {
	next := s.Clone()

	switch e := ev.(type) {
	case ResumeSelected:
		if s.Step != types.StepInput {
			return s, invalid("change resume", s.Step)
		}
		if e.File == nil {
			return s, ErrNoResume
		}
		if !ingestion.IsPDF(e.File.MIMEType) {
			return s, &ingestion.UnsupportedFileTypeError{Name: e.File.Name, MIMEType: e.File.MIMEType}
		}
		r := *e.File
		next.Resume = &r

	case ResumeCleared:
		if s.Step != types.StepInput {
			return s, invalid("clear resume", s.Step)
		}
		next.Resume = nil

	case JobDescriptionSet:
		if s.Step != types.StepInput {
			return s, invalid("change job description", s.Step)
		}
		next.JobDescription = e.Text

	case LetterGenerated:
		if e.Seq != s.Latest(SlotLetter) {
			return s, ErrStaleResponse
		}
		if s.Step != types.StepInput && s.Step != types.StepLetterReview {
			return s, invalid("apply letter", s.Step)
		}
		next.Step = types.StepLetterReview
		next.Assessment = e.Assessment.Clone()
		next.Letter = e.Letter
		next.Email = ""
		next.Transcript = nil
		next.bump(SlotEmail, SlotChat)

	case EmailGenerated:
		if e.Seq != s.Latest(SlotEmail) {
			return s, ErrStaleResponse
		}
		if s.Step != types.StepLetterReview && s.Step != types.StepEmailReview {
			return s, invalid("apply email", s.Step)
		}
		next.Step = types.StepEmailReview
		next.Email = e.Email
		next.Transcript = nil
		next.bump(SlotChat)

	case BackToLetter:
		if s.Step != types.StepEmailReview {
			return s, invalid("go back", s.Step)
		}
		next.Step = types.StepLetterReview
		next.Transcript = nil
		next.bump(SlotEmail, SlotChat)

	case ChatSent:
		if err := s.CanChat(e.Message); err != nil {
			return s, err
		}
		next.Transcript = append(next.Transcript, types.ChatMessage{Role: types.RoleUser, Text: e.Message})

	case ChatReplied:
		if e.Seq != s.Latest(SlotChat) {
			return s, ErrStaleResponse
		}
		if s.Step != types.StepLetterReview && s.Step != types.StepEmailReview {
			return s, invalid("apply chat reply", s.Step)
		}
		if e.UpdatedContent != nil {
			if s.Step == types.StepLetterReview {
				next.Letter = *e.UpdatedContent
			} else {
				next.Email = *e.UpdatedContent
			}
		}
		next.Transcript = append(next.Transcript, types.ChatMessage{
			Role:     types.RoleAssistant,
			Text:     e.Reply,
			IsUpdate: e.UpdatedContent != nil,
		})

	case ChatFailed:
		if e.Seq != s.Latest(SlotChat) {
			return s, ErrStaleResponse
		}
		next.Transcript = append(next.Transcript, types.ChatMessage{Role: types.RoleAssistant, Text: chat.FallbackReply})

	case ResetForNewJob:
		next.resetJob()

	case FullReset:
		next.resetJob()
		next.Resume = nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}

	return next, nil
}

func (s *State) resetJob() {
	s.Step = types.StepInput
	s.JobDescription = ""
	s.Letter = ""
	s.Assessment = nil
	s.Email = ""
	s.Transcript = nil
	s.bump(Slots...)
}
