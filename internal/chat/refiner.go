// Package chat applies conversational edits to the active document.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/smartapplicant/internal/llm"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/prompts"
	"github.com/jonathan/smartapplicant/internal/schemas"
	"github.com/jonathan/smartapplicant/internal/types"
)

// FallbackReply is appended to the transcript when a chat turn fails.
const FallbackReply = "Sorry, I couldn't process that request. Please try again."

// Temperature is the sampling temperature for chat turns.
const Temperature = 0.7

// ErrNoDocument is returned when the step has no document to edit.
var ErrNoDocument = errors.New("no document to refine in this step")

// ErrEmptyMessage is returned for a blank user message.
var ErrEmptyMessage = errors.New("message is empty")

// Turn is everything one chat call needs.
type Turn struct {
	Step           types.Step
	Resume         *types.ResumeFile
	JobDescription string
	Document       string
	History        []types.ChatMessage
	Message        string
}

// Result is the model's answer to a turn.
// UpdatedContent is nil when the document should stay as it is.
type Result struct {
	Reply          string
	UpdatedContent *string
}

// Error wraps a failed chat call.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chat error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("chat error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type chatResponse struct {
	Reply          string  `json:"reply"`
	UpdatedContent *string `json:"updatedContent"`
}

func responseSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"reply":          {Type: llm.TypeString, Description: "Short conversational answer to the user."},
			"updatedContent": {Type: llm.TypeString, Description: "The complete revised document, only when a change was requested."},
		},
		Required: []string{"reply"},
	}
}

// Refiner runs chat turns against the model.
type Refiner struct {
	client    llm.Client
	validator *schemas.Validator
}

// NewRefiner creates a Refiner. A nil validator validates leniently.
func NewRefiner(client llm.Client, validator *schemas.Validator) *Refiner {
	if validator == nil {
		validator = schemas.NewValidator(false)
	}
	return &Refiner{client: client, validator: validator}
}

// Refine sends one user request with the prior transcript as history.
// A blank updatedContent in the answer counts as absent.
func (r *Refiner) Refine(ctx context.Context, turn Turn) (*Result, error) {
	if strings.TrimSpace(turn.Message) == "" {
		return nil, ErrEmptyMessage
	}

	key, err := promptKey(turn.Step)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.ChatFile, key, map[string]string{
		"JobDescription": turn.JobDescription,
		"Document":       turn.Document,
		"Message":        turn.Message,
	})
	if err != nil {
		return nil, &Error{Message: "failed to build prompt", Cause: err}
	}

	parts := []llm.Part{llm.TextPart(prompt)}
	if turn.Resume != nil {
		data, err := turn.Resume.Bytes()
		if err != nil {
			return nil, &Error{Message: "invalid resume payload", Cause: err}
		}
		parts = append([]llm.Part{llm.BlobPart(turn.Resume.MIMEType, data)}, parts...)
	}

	resp, err := r.client.Generate(ctx, llm.Request{
		Tier:           llm.TierStandard,
		Temperature:    Temperature,
		Parts:          parts,
		History:        history(turn.History),
		ResponseSchema: responseSchema(),
	})
	if err != nil {
		return nil, &Error{Message: "model call failed", Cause: err}
	}

	result, err := r.parse(resp.Text, turn.Step)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("step", string(turn.Step)).
		Bool("updated", result.UpdatedContent != nil).
		Msg("chat turn answered")
	return result, nil
}

func (r *Refiner) parse(text string, step types.Step) (*Result, error) {
	text = strings.TrimSpace(text)
	if err := r.validator.Validate(schemas.ChatResponse, text); err != nil {
		return nil, &Error{Message: "response failed validation", Cause: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &Error{Message: "failed to parse JSON response", Cause: err}
	}

	result := &Result{Reply: strings.TrimSpace(parsed.Reply)}
	if parsed.UpdatedContent != nil && strings.TrimSpace(*parsed.UpdatedContent) != "" {
		content := *parsed.UpdatedContent
		result.UpdatedContent = &content
	}
	if result.Reply == "" {
		if result.UpdatedContent != nil {
			result.Reply = fmt.Sprintf("I've updated the %s.", step.Document())
		} else {
			return nil, &Error{Message: "empty reply"}
		}
	}
	return result, nil
}

func promptKey(step types.Step) (string, error) {
	switch step {
	case types.StepLetterReview:
		return prompts.KeyRefineLetter, nil
	case types.StepEmailReview:
		return prompts.KeyRefineEmail, nil
	default:
		return "", ErrNoDocument
	}
}

// history maps the transcript to model turns.
func history(messages []types.ChatMessage) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Role == types.RoleAssistant {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{Role: role, Parts: []llm.Part{llm.TextPart(m.Text)}})
	}
	return turns
}
