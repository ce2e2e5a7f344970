// Package generation produces the cover letter, match assessment and
// outreach email from a resume and a job description.
package generation

import (
	"strings"

	"github.com/jonathan/smartapplicant/internal/llm"
	"github.com/jonathan/smartapplicant/internal/schemas"
	"github.com/jonathan/smartapplicant/internal/types"
)

// Generator issues the model calls for letters and emails.
type Generator struct {
	client    llm.Client
	validator *schemas.Validator
}

// NewGenerator creates a Generator. A nil validator validates leniently.
func NewGenerator(client llm.Client, validator *schemas.Validator) *Generator {
	if validator == nil {
		validator = schemas.NewValidator(false)
	}
	return &Generator{client: client, validator: validator}
}

// resumeParts returns the resume as an inline blob followed by the prompt.
func resumeParts(resume *types.ResumeFile, prompt string) ([]llm.Part, error) {
	data, err := resume.Bytes()
	if err != nil {
		return nil, err
	}
	return []llm.Part{
		llm.BlobPart(resume.MIMEType, data),
		llm.TextPart(prompt),
	}, nil
}

func checkInputs(resume *types.ResumeFile, jobDescription string) error {
	if resume == nil {
		return ErrMissingResume
	}
	if strings.TrimSpace(jobDescription) == "" {
		return ErrMissingJobDescription
	}
	return nil
}
