package generation

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/jonathan/smartapplicant/internal/llm"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/prompts"
	"github.com/jonathan/smartapplicant/internal/schemas"
	"github.com/jonathan/smartapplicant/internal/types"
)

// Fallbacks applied when the model omits a field.
const (
	DefaultLetterText  = "Failed to generate cover letter."
	DefaultMatchReason = "Analysis unavailable"
	DefaultSourceTitle = "Source"
)

// LetterTemperature is the sampling temperature for cover letters.
const LetterTemperature = 0.5

// letterResponse is the JSON shape requested from the model.
type letterResponse struct {
	CompanyName     string   `json:"companyName"`
	MatchPercentage float64  `json:"matchPercentage"`
	MatchReason     string   `json:"matchReason"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	CoverLetterText string   `json:"coverLetterText"`
}

func letterSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"companyName":     {Type: llm.TypeString, Description: "The identified company name."},
			"matchPercentage": {Type: llm.TypeInteger, Description: "A score from 0 to 100 indicating how well the resume matches the job description."},
			"matchReason":     {Type: llm.TypeString, Description: "A short explanation (max 20 words) for the match score."},
			"strengths":       {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, Description: "Job requirements the resume clearly covers."},
			"weaknesses":      {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, Description: "Job requirements the resume does not show."},
			"coverLetterText": {Type: llm.TypeString, Description: "The full formatted cover letter text with newlines."},
		},
		Required: []string{"companyName", "matchPercentage", "matchReason", "coverLetterText"},
	}
}

// GenerateCoverLetter writes a tailored cover letter and scores the fit in one
// grounded call. Any failure is returned as a *GenerationError.
func (g *Generator) GenerateCoverLetter(ctx context.Context, resume *types.ResumeFile, jobDescription string) (*types.MatchAssessment, string, error) {
	if err := checkInputs(resume, jobDescription); err != nil {
		return nil, "", letterError(err)
	}

	prompt, err := prompts.Render(prompts.LetterFile, prompts.KeyCoverLetter, map[string]string{
		"JobDescription": jobDescription,
	})
	if err != nil {
		return nil, "", letterError(err)
	}

	parts, err := resumeParts(resume, prompt)
	if err != nil {
		return nil, "", letterError(err)
	}

	resp, err := g.client.Generate(ctx, llm.Request{
		Tier:             llm.TierAdvanced,
		Temperature:      LetterTemperature,
		Parts:            parts,
		ResponseSchema:   letterSchema(),
		GroundWithSearch: true,
	})
	if err != nil {
		return nil, "", letterError(&APICallError{Message: "cover letter request failed", Cause: err})
	}

	assessment, letter, err := g.parseLetterResponse(resp)
	if err != nil {
		return nil, "", letterError(err)
	}

	logging.FromContext(ctx).Info().
		Str("company", assessment.CompanyName).
		Int("match_percentage", assessment.MatchPercentage).
		Int("sources", len(assessment.Sources)).
		Msg("cover letter generated")

	return assessment, letter, nil
}

func (g *Generator) parseLetterResponse(resp *llm.Response) (*types.MatchAssessment, string, error) {
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		text = "{}"
	}

	if err := g.validator.Validate(schemas.CoverLetterResponse, text); err != nil {
		return nil, "", &ParseError{Message: "cover letter response failed validation", Cause: err}
	}

	var parsed letterResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, "", &ParseError{Message: "failed to parse JSON response", Cause: err}
	}

	letter := parsed.CoverLetterText
	if strings.TrimSpace(letter) == "" {
		letter = DefaultLetterText
	}
	reason := strings.TrimSpace(parsed.MatchReason)
	if reason == "" {
		reason = DefaultMatchReason
	}

	assessment := &types.MatchAssessment{
		CompanyName:     strings.TrimSpace(parsed.CompanyName),
		MatchPercentage: int(math.Round(parsed.MatchPercentage)),
		MatchReason:     reason,
		Strengths:       compact(parsed.Strengths),
		Weaknesses:      compact(parsed.Weaknesses),
		Sources:         sourcesFrom(resp.Citations),
	}
	return assessment, letter, nil
}

// sourcesFrom converts citations in order, defaulting missing titles.
func sourcesFrom(citations []llm.Citation) []types.Source {
	sources := make([]types.Source, 0, len(citations))
	for _, c := range citations {
		if c.URI == "" {
			continue
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = DefaultSourceTitle
		}
		sources = append(sources, types.Source{Title: title, URI: c.URI})
	}
	return sources
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
