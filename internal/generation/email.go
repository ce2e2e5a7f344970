package generation

import (
	"context"
	"strings"

	"github.com/jonathan/smartapplicant/internal/llm"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/prompts"
	"github.com/jonathan/smartapplicant/internal/types"
)

// DefaultEmailText is used when the model returns no text.
const DefaultEmailText = "Failed to generate email message."

// EmailTemperature is the sampling temperature for outreach emails.
const EmailTemperature = 0.7

// GenerateEmail writes a short outreach message to the hiring manager.
// The current letter, when non-blank, is included so the two stay consistent.
func (g *Generator) GenerateEmail(ctx context.Context, resume *types.ResumeFile, jobDescription, currentLetter string) (string, error) {
	if err := checkInputs(resume, jobDescription); err != nil {
		return "", emailError(err)
	}

	letterSection := ""
	if strings.TrimSpace(currentLetter) != "" {
		section, err := prompts.Render(prompts.EmailFile, prompts.KeyCoverLetterSection, map[string]string{
			"CoverLetter": currentLetter,
		})
		if err != nil {
			return "", emailError(err)
		}
		letterSection = section
	}

	prompt, err := prompts.Render(prompts.EmailFile, prompts.KeyOutreachEmail, map[string]string{
		"JobDescription":     jobDescription,
		"CoverLetterSection": letterSection,
	})
	if err != nil {
		return "", emailError(err)
	}

	parts, err := resumeParts(resume, prompt)
	if err != nil {
		return "", emailError(err)
	}

	resp, err := g.client.Generate(ctx, llm.Request{
		Tier:        llm.TierStandard,
		Temperature: EmailTemperature,
		Parts:       parts,
	})
	if err != nil {
		return "", emailError(&APICallError{Message: "email request failed", Cause: err})
	}

	email := strings.TrimSpace(resp.Text)
	if email == "" {
		email = DefaultEmailText
	}

	logging.FromContext(ctx).Info().Int("chars", len(email)).Msg("outreach email generated")
	return email, nil
}
