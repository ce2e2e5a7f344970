package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"

	"github.com/jonathan/smartapplicant/internal/logging"
)

// Client is an abstraction over LLM providers
type Client interface {
	// Generate performs one model call
	Generate(ctx context.Context, req Request) (*Response, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
	sem    *semaphore.Weighted
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	return newGeminiClient(ctx, config, apiKey, genai.HTTPOptions{})
}

func newGeminiClient(ctx context.Context, config *Config, apiKey string, httpOptions genai.HTTPOptions) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
		sem:    semaphore.NewWeighted(config.maxConcurrent()),
	}, nil
}

// Generate performs one call. It blocks while MaxConcurrent calls are in flight
// and returns ctx.Err() if the context ends first.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", req.Tier)
	}
	if len(req.Parts) == 0 {
		return nil, fmt.Errorf("request has no content")
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	logger := logging.FromContext(ctx)
	start := time.Now()

	contents := append(toGenaiHistory(req.History), &genai.Content{Role: RoleUser, Parts: toGenaiParts(req.Parts)})
	resp, err := c.client.Models.GenerateContent(ctx, modelName, contents, generateConfig(req))

	logger.Debug().
		Str("model", modelName).
		Str("tier", string(req.Tier)).
		Dur("elapsed", time.Since(start)).
		Bool("grounded", req.GroundWithSearch).
		Err(err).
		Msg("model call finished")

	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}
	if req.JSON || req.ResponseSchema != nil {
		text = CleanJSONBlock(text)
	}

	return &Response{
		Text:      text,
		Citations: extractCitations(resp),
	}, nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client. The Gemini client holds no
// connections of its own.
func (c *GeminiClient) Close() error {
	return nil
}

// generateConfig maps a Request onto the call options. Grounded requests get
// the Google Search tool.
func generateConfig(req Request) *genai.GenerateContentConfig {
	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.JSON || req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.ResponseSchema != nil {
		cfg.ResponseSchema = toGenaiSchema(req.ResponseSchema)
	}
	if req.GroundWithSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data}})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

func toGenaiHistory(turns []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns)+1)
	for _, t := range turns {
		role := t.Role
		if role != RoleModel {
			role = RoleUser
		}
		out = append(out, &genai.Content{Role: role, Parts: toGenaiParts(t.Parts)})
	}
	return out
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func toGenaiType(t SchemaType) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeInteger:
		return genai.TypeInteger
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// extractTextFromResponse extracts text from Gemini API response.
// Thought parts are skipped.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		parts = append(parts, part.Text)
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// extractCitations collects the web sources of the first candidate's search
// grounding, in order, dropping entries without a URI and duplicates.
func extractCitations(resp *genai.GenerateContentResponse) []Citation {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	var out []Citation
	seen := make(map[string]bool)
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out = append(out, Citation{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}
