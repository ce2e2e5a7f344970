package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/smartapplicant/internal/chat"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/types"
)

// Generator produces the letter and email documents.
type Generator interface {
	GenerateCoverLetter(ctx context.Context, resume *types.ResumeFile, jobDescription string) (*types.MatchAssessment, string, error)
	GenerateEmail(ctx context.Context, resume *types.ResumeFile, jobDescription, currentLetter string) (string, error)
}

// Refiner answers chat turns.
type Refiner interface {
	Refine(ctx context.Context, turn chat.Turn) (*chat.Result, error)
}

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	SessionID      string                 `json:"session_id"`
	Step           types.Step             `json:"step"`
	Resume         *types.ResumeSummary   `json:"resume,omitempty"`
	JobDescription string                 `json:"job_description"`
	Letter         string                 `json:"letter"`
	Assessment     *types.MatchAssessment `json:"assessment,omitempty"`
	MatchBand      types.MatchBand        `json:"match_band,omitempty"`
	Email          string                 `json:"email"`
	Transcript     []types.ChatMessage    `json:"transcript"`
	Busy           map[Slot]bool          `json:"busy"`
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Controller serializes all changes to one session's State and runs the
// model calls behind them. Starting a call on a slot cancels the call it
// supersedes, and responses that are no longer the latest for their slot are
// dropped.
type Controller struct {
	id        string
	generator Generator
	refiner   Refiner

	mu          sync.Mutex
	state       State
	inflight    map[Slot]inflight
	subscribers map[int]chan Snapshot
	nextSub     int
}

// NewController creates a controller for session id starting at state.
func NewController(id string, state State, generator Generator, refiner Refiner) *Controller {
	if state.Seq == nil {
		state.Seq = map[Slot]uint64{}
	}
	if state.Step == "" {
		state.Step = types.StepInput
	}
	return &Controller{
		id:          id,
		generator:   generator,
		refiner:     refiner,
		state:       state,
		inflight:    map[Slot]inflight{},
		subscribers: map[int]chan Snapshot{},
	}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Snapshot returns the client-facing view of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state.Clone()
	busy := make(map[Slot]bool, len(Slots))
	for _, slot := range Slots {
		_, ok := c.inflight[slot]
		busy[slot] = ok
	}
	snap := Snapshot{
		SessionID:      c.id,
		Step:           s.Step,
		Resume:         s.Resume.Summary(),
		JobDescription: s.JobDescription,
		Letter:         s.Letter,
		Assessment:     s.Assessment,
		Email:          s.Email,
		Transcript:     s.Transcript,
		Busy:           busy,
	}
	if s.Assessment != nil {
		snap.MatchBand = s.Assessment.Band()
	}
	if snap.Transcript == nil {
		snap.Transcript = []types.ChatMessage{}
	}
	return snap
}

// Subscribe returns a channel that receives the latest snapshot after every
// change. Slow readers only see the newest snapshot. Call the returned func
// to unsubscribe.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 1)
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(ch)
			}
		})
	}
}

// Close cancels every in-flight call and closes all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for slot, f := range c.inflight {
		f.cancel()
		delete(c.inflight, slot)
	}
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

// apply runs one transition under the lock and publishes the result.
func (c *Controller) apply(ev Event) error {
	c.mu.Lock()
	next, err := Transition(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.commitLocked(next)
	c.mu.Unlock()
	return nil
}

// commitLocked installs next, cancels calls it made stale and notifies
// listeners. The lock is held on entry and on return.
func (c *Controller) commitLocked(next State) {
	c.state = next
	for slot, f := range c.inflight {
		if f.seq != c.state.Latest(slot) {
			f.cancel()
			delete(c.inflight, slot)
		}
	}
	c.publishLocked()
}

func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// beginLocked reserves a sequence number on slot and returns the context for the call.
func (c *Controller) beginLocked(ctx context.Context, slot Slot) (context.Context, uint64) {
	next, seq := c.state.Begin(slot)
	callCtx, cancel := context.WithCancel(ctx)
	if prev, ok := c.inflight[slot]; ok {
		prev.cancel()
	}
	c.inflight[slot] = inflight{seq: seq, cancel: cancel}
	c.commitLocked(next)
	return callCtx, seq
}

func (c *Controller) finishLocked(slot Slot, seq uint64) {
	if f, ok := c.inflight[slot]; ok && f.seq == seq {
		f.cancel()
		delete(c.inflight, slot)
	}
}

// SetResume replaces the resume. A non-PDF file leaves the current resume in place.
func (c *Controller) SetResume(file *types.ResumeFile) error {
	return c.apply(ResumeSelected{File: file})
}

// ClearResume removes the resume.
func (c *Controller) ClearResume() error {
	return c.apply(ResumeCleared{})
}

// SetJobDescription replaces the job text.
func (c *Controller) SetJobDescription(text string) error {
	return c.apply(JobDescriptionSet{Text: text})
}

// Back returns from the email step to the letter step.
func (c *Controller) Back() error {
	return c.apply(BackToLetter{})
}

// ResetForNewJob clears everything but the resume.
func (c *Controller) ResetForNewJob() error {
	return c.apply(ResetForNewJob{})
}

// FullReset clears everything.
func (c *Controller) FullReset() error {
	return c.apply(FullReset{})
}

// GenerateLetter generates the cover letter and moves to the letter step.
// On failure the step does not change.
func (c *Controller) GenerateLetter(ctx context.Context) error {
	c.mu.Lock()
	if err := c.state.CanGenerateLetter(); err != nil {
		c.mu.Unlock()
		return err
	}
	callCtx, seq := c.beginLocked(ctx, SlotLetter)
	resume, job := c.state.Resume, c.state.JobDescription
	c.mu.Unlock()

	assessment, letter, err := c.generator.GenerateCoverLetter(callCtx, resume, job)

	c.mu.Lock()
	defer c.mu.Unlock()
	stale := seq != c.state.Latest(SlotLetter)
	c.finishLocked(SlotLetter, seq)
	if stale {
		c.publishLocked()
		return ErrStaleResponse
	}
	if err != nil {
		c.publishLocked()
		return err
	}

	next, err := Transition(c.state, LetterGenerated{Seq: seq, Assessment: assessment, Letter: letter})
	if err != nil {
		c.publishLocked()
		return err
	}
	c.commitLocked(next)
	return nil
}

// GenerateEmail generates the outreach email and moves to the email step.
// On failure the step does not change.
func (c *Controller) GenerateEmail(ctx context.Context) error {
	c.mu.Lock()
	if err := c.state.CanGenerateEmail(); err != nil {
		c.mu.Unlock()
		return err
	}
	callCtx, seq := c.beginLocked(ctx, SlotEmail)
	resume, job, letter := c.state.Resume, c.state.JobDescription, c.state.Letter
	c.mu.Unlock()

	email, err := c.generator.GenerateEmail(callCtx, resume, job, letter)

	c.mu.Lock()
	defer c.mu.Unlock()
	stale := seq != c.state.Latest(SlotEmail)
	c.finishLocked(SlotEmail, seq)
	if stale {
		c.publishLocked()
		return ErrStaleResponse
	}
	if err != nil {
		c.publishLocked()
		return err
	}

	next, err := Transition(c.state, EmailGenerated{Seq: seq, Email: email})
	if err != nil {
		c.publishLocked()
		return err
	}
	c.commitLocked(next)
	return nil
}

// Chat sends message about the active document and returns the assistant's
// reply as appended to the transcript. The user's message is appended
// before the call. A failed call appends the fallback reply instead of
// returning an error.
func (c *Controller) Chat(ctx context.Context, message string) (types.ChatMessage, error) {
	c.mu.Lock()
	history := append([]types.ChatMessage(nil), c.state.Transcript...)
	next, err := Transition(c.state, ChatSent{Message: message})
	if err != nil {
		c.mu.Unlock()
		return types.ChatMessage{}, err
	}
	c.commitLocked(next)
	callCtx, seq := c.beginLocked(ctx, SlotChat)
	turn := chat.Turn{
		Step:           c.state.Step,
		Resume:         c.state.Resume,
		JobDescription: c.state.JobDescription,
		Document:       c.state.ActiveDocument(),
		History:        history,
		Message:        message,
	}
	c.mu.Unlock()

	result, callErr := c.refiner.Refine(callCtx, turn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLocked(SlotChat, seq)

	var ev Event
	if callErr != nil {
		logging.FromContext(ctx).Warn().Err(callErr).Str("session_id", c.id).Msg("chat turn failed")
		ev = ChatFailed{Seq: seq}
	} else {
		ev = ChatReplied{Seq: seq, Reply: result.Reply, UpdatedContent: result.UpdatedContent}
	}

	next, err = Transition(c.state, ev)
	if err != nil {
		c.publishLocked()
		if errors.Is(err, ErrStaleResponse) {
			return types.ChatMessage{}, ErrStaleResponse
		}
		return types.ChatMessage{}, err
	}
	c.commitLocked(next)
	return next.Transcript[len(next.Transcript)-1], nil
}
