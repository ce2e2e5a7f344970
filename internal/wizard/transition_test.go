package wizard

import (
	"testing"

	"github.com/jonathan/smartapplicant/internal/chat"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResume() *types.ResumeFile {
	return &types.ResumeFile{Name: "resume.pdf", MIMEType: "application/pdf", Data: "JVBERi0xLjQ="}
}

func testAssessment() *types.MatchAssessment {
	return &types.MatchAssessment{
		CompanyName:     "Acme",
		MatchPercentage: 82,
		MatchReason:     "Strong Go background",
		Strengths:       []string{"Go"},
		Weaknesses:      []string{"Kotlin"},
		Sources:         []types.Source{{Title: "Acme", URI: "https://acme.example"}},
	}
}

func mustApply(t *testing.T, s State, ev Event) State {
	t.Helper()
	next, err := Transition(s, ev)
	require.NoError(t, err, ev.Name())
	return next
}

// emailState walks a fresh state to the email step with a short transcript.
func emailState(t *testing.T) State {
	t.Helper()
	s := NewState()
	s = mustApply(t, s, ResumeSelected{File: testResume()})
	s = mustApply(t, s, JobDescriptionSet{Text: "Backend engineer at Acme"})

	s, seq := s.Begin(SlotLetter)
	s = mustApply(t, s, LetterGenerated{Seq: seq, Assessment: testAssessment(), Letter: "Dear team,\n\nBody.\n\nRegards"})

	s, seq = s.Begin(SlotEmail)
	s = mustApply(t, s, EmailGenerated{Seq: seq, Email: "Hi Acme"})

	s = mustApply(t, s, ChatSent{Message: "shorter please"})
	s, seq = s.Begin(SlotChat)
	s = mustApply(t, s, ChatReplied{Seq: seq, Reply: "Done"})
	return s
}

func TestNewState(t *testing.T) {
	s := NewState()
	assert.Equal(t, types.StepInput, s.Step)
	assert.Nil(t, s.Resume)
	assert.Empty(t, s.Transcript)
	assert.Error(t, s.CanGenerateLetter())
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s := emailState(t)
	before := s.Clone()

	_ = mustApply(t, s, ChatSent{Message: "more"})
	_ = mustApply(t, s, ResetForNewJob{})

	assert.Equal(t, before, s)
}

func TestTransition_HappyPath(t *testing.T) {
	s := emailState(t)

	assert.Equal(t, types.StepEmailReview, s.Step)
	assert.Equal(t, "Hi Acme", s.Email)
	assert.Equal(t, "Dear team,\n\nBody.\n\nRegards", s.Letter)
	require.Len(t, s.Transcript, 2)
	assert.Equal(t, types.RoleUser, s.Transcript[0].Role)
	assert.Equal(t, types.RoleAssistant, s.Transcript[1].Role)
	assert.False(t, s.Transcript[1].IsUpdate)
}

func TestTransition_LetterGeneratedClearsTranscriptAndEmail(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, BackToLetter{})
	s = mustApply(t, s, ChatSent{Message: "hi"})

	s, seq := s.Begin(SlotLetter)
	s = mustApply(t, s, LetterGenerated{Seq: seq, Assessment: testAssessment(), Letter: "new letter"})

	assert.Equal(t, types.StepLetterReview, s.Step)
	assert.Equal(t, "new letter", s.Letter)
	assert.Empty(t, s.Email)
	assert.Empty(t, s.Transcript)
}

func TestTransition_BackClearsTranscript(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, BackToLetter{})

	assert.Equal(t, types.StepLetterReview, s.Step)
	assert.Empty(t, s.Transcript)
	assert.Equal(t, "Hi Acme", s.Email, "email is kept when going back")
}

func TestTransition_ResetForNewJob(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, ResetForNewJob{})

	assert.Equal(t, types.StepInput, s.Step)
	assert.Equal(t, testResume(), s.Resume)
	assert.Empty(t, s.JobDescription)
	assert.Empty(t, s.Letter)
	assert.Nil(t, s.Assessment)
	assert.Empty(t, s.Email)
	assert.Empty(t, s.Transcript)
}

func TestTransition_FullReset(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, FullReset{})

	assert.Equal(t, types.StepInput, s.Step)
	assert.Nil(t, s.Resume)
	assert.Empty(t, s.JobDescription)
	assert.Empty(t, s.Letter)
	assert.Nil(t, s.Assessment)
	assert.Empty(t, s.Email)
	assert.Empty(t, s.Transcript)
}

func TestTransition_ResetsFromEveryStep(t *testing.T) {
	full := emailState(t)
	letter := mustApply(t, full, BackToLetter{})
	input := mustApply(t, full, ResetForNewJob{})

	for _, s := range []State{input, letter, full} {
		next := mustApply(t, s, ResetForNewJob{})
		assert.Equal(t, types.StepInput, next.Step)
		assert.NotNil(t, next.Resume)

		next = mustApply(t, s, FullReset{})
		assert.Equal(t, types.StepInput, next.Step)
		assert.Nil(t, next.Resume)
	}
}

func TestTransition_ChatReplyWithoutUpdateKeepsDocument(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, ChatSent{Message: "what do you think?"})
	s, seq := s.Begin(SlotChat)
	s = mustApply(t, s, ChatReplied{Seq: seq, Reply: "Looks good"})

	assert.Equal(t, "Hi Acme", s.Email)
	last := s.Transcript[len(s.Transcript)-1]
	assert.Equal(t, "Looks good", last.Text)
	assert.False(t, last.IsUpdate)
}

func TestTransition_ChatReplyReplacesActiveDocument(t *testing.T) {
	updated := "Hello Acme team"

	s := emailState(t)
	s = mustApply(t, s, ChatSent{Message: "friendlier"})
	s, seq := s.Begin(SlotChat)
	s = mustApply(t, s, ChatReplied{Seq: seq, Reply: "Updated", UpdatedContent: &updated})

	assert.Equal(t, updated, s.Email)
	assert.Equal(t, "Dear team,\n\nBody.\n\nRegards", s.Letter)
	assert.True(t, s.Transcript[len(s.Transcript)-1].IsUpdate)

	s = mustApply(t, s, BackToLetter{})
	s = mustApply(t, s, ChatSent{Message: "shorter"})
	s, seq = s.Begin(SlotChat)
	letter := "Dear team,\n\nShort.\n\nRegards"
	s = mustApply(t, s, ChatReplied{Seq: seq, Reply: "Updated", UpdatedContent: &letter})
	assert.Equal(t, letter, s.Letter)
	assert.Equal(t, updated, s.Email)
}

func TestTransition_ChatFailedAppendsFallback(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, ChatSent{Message: "again"})
	s, seq := s.Begin(SlotChat)
	s = mustApply(t, s, ChatFailed{Seq: seq})

	last := s.Transcript[len(s.Transcript)-1]
	assert.Equal(t, types.RoleAssistant, last.Role)
	assert.Equal(t, chat.FallbackReply, last.Text)
	assert.Equal(t, "Hi Acme", s.Email)
}

func TestTransition_StaleResponses(t *testing.T) {
	s := emailState(t)
	s, first := s.Begin(SlotChat)
	s, second := s.Begin(SlotChat)

	_, err := Transition(s, ChatReplied{Seq: first, Reply: "old"})
	assert.ErrorIs(t, err, ErrStaleResponse)

	_, err = Transition(s, ChatFailed{Seq: first})
	assert.ErrorIs(t, err, ErrStaleResponse)

	_, err = Transition(s, ChatReplied{Seq: second, Reply: "new"})
	assert.NoError(t, err)
}

func TestTransition_ResetMakesInFlightStale(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, BackToLetter{})
	s, letterSeq := s.Begin(SlotLetter)
	s, emailSeq := s.Begin(SlotEmail)
	s, chatSeq := s.Begin(SlotChat)

	s = mustApply(t, s, ResetForNewJob{})

	_, err := Transition(s, LetterGenerated{Seq: letterSeq, Letter: "late"})
	assert.ErrorIs(t, err, ErrStaleResponse)
	_, err = Transition(s, EmailGenerated{Seq: emailSeq, Email: "late"})
	assert.ErrorIs(t, err, ErrStaleResponse)
	_, err = Transition(s, ChatReplied{Seq: chatSeq, Reply: "late"})
	assert.ErrorIs(t, err, ErrStaleResponse)
}

func TestTransition_NewLetterMakesEmailStale(t *testing.T) {
	s := emailState(t)
	s = mustApply(t, s, BackToLetter{})
	s, emailSeq := s.Begin(SlotEmail)

	s, letterSeq := s.Begin(SlotLetter)
	s = mustApply(t, s, LetterGenerated{Seq: letterSeq, Letter: "v2"})

	_, err := Transition(s, EmailGenerated{Seq: emailSeq, Email: "for v1"})
	assert.ErrorIs(t, err, ErrStaleResponse)
}

func TestTransition_InvalidSteps(t *testing.T) {
	input := NewState()
	email := emailState(t)
	letter := mustApply(t, email, BackToLetter{})

	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"back from input", input, BackToLetter{}},
		{"back from letter", letter, BackToLetter{}},
		{"chat on input", input, ChatSent{Message: "hi"}},
		{"resume on letter", letter, ResumeSelected{File: testResume()}},
		{"clear resume on email", email, ResumeCleared{}},
		{"job text on letter", letter, JobDescriptionSet{Text: "x"}},
		{"email on input", input, EmailGenerated{Seq: 0, Email: "x"}},
		{"letter on email", email, LetterGenerated{Seq: email.Latest(SlotLetter), Letter: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.state, tt.event)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.state, next)
		})
	}
}

func TestTransition_NonPDFResumeKeepsPrevious(t *testing.T) {
	s := mustApply(t, NewState(), ResumeSelected{File: testResume()})

	next, err := Transition(s, ResumeSelected{File: &types.ResumeFile{Name: "cv.docx", MIMEType: "application/msword", Data: "eA=="}})
	var typeErr *ingestion.UnsupportedFileTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "cv.docx", typeErr.Name)
	assert.Equal(t, testResume(), next.Resume)
}

func TestTransition_EmptyChatMessage(t *testing.T) {
	s := emailState(t)
	_, err := Transition(s, ChatSent{Message: "  \n"})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestCanGenerate(t *testing.T) {
	s := NewState()
	assert.ErrorIs(t, s.CanGenerateLetter(), ErrNoResume)

	s = mustApply(t, s, ResumeSelected{File: testResume()})
	assert.ErrorIs(t, s.CanGenerateLetter(), ErrNoJobDescription)

	s = mustApply(t, s, JobDescriptionSet{Text: "   "})
	assert.ErrorIs(t, s.CanGenerateLetter(), ErrNoJobDescription)

	s = mustApply(t, s, JobDescriptionSet{Text: "Engineer"})
	assert.NoError(t, s.CanGenerateLetter())
	assert.ErrorIs(t, s.CanGenerateEmail(), ErrInvalidTransition)

	email := emailState(t)
	assert.NoError(t, email.CanGenerateEmail())
	assert.ErrorIs(t, email.CanGenerateLetter(), ErrInvalidTransition)
	assert.NoError(t, email.CanChat("hi"))
}

func TestActiveDocument(t *testing.T) {
	s := emailState(t)
	assert.Equal(t, s.Email, s.ActiveDocument())

	s = mustApply(t, s, BackToLetter{})
	assert.Equal(t, s.Letter, s.ActiveDocument())

	assert.Empty(t, NewState().ActiveDocument())
}
