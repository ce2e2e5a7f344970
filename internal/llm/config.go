// Package llm provides the model configuration and client abstraction used by
// the generation and chat packages.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap short tasks
	TierLite ModelTier = "lite"
	// TierStandard is for the outreach email and chat refinement
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the grounded cover letter and match analysis
	TierAdvanced ModelTier = "advanced"
)

// DefaultMaxConcurrent caps simultaneous upstream calls per client.
const DefaultMaxConcurrent = 4

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the application
type Config struct {
	Provider      Provider
	Models        map[ModelTier]string
	MaxConcurrent int
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:      c.Provider,
		Models:        make(map[ModelTier]string),
		MaxConcurrent: c.MaxConcurrent,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// WithOverrides returns a copy of the config with non-empty tier overrides
// from a string-keyed map (as read from a config file) applied.
func (c *Config) WithOverrides(models map[string]string, maxConcurrent int) *Config {
	out := &Config{
		Provider:      c.Provider,
		Models:        make(map[ModelTier]string, len(c.Models)),
		MaxConcurrent: c.MaxConcurrent,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	for tier, model := range models {
		if model != "" {
			out.Models[ModelTier(tier)] = model
		}
	}
	if maxConcurrent > 0 {
		out.MaxConcurrent = maxConcurrent
	}
	return out
}

func (c *Config) maxConcurrent() int64 {
	if c.MaxConcurrent <= 0 {
		return DefaultMaxConcurrent
	}
	return int64(c.MaxConcurrent)
}
