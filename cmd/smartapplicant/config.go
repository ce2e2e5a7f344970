package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/smartapplicant/internal/chat"
	"github.com/jonathan/smartapplicant/internal/config"
	"github.com/jonathan/smartapplicant/internal/generation"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/llm"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/schemas"
)

// cfg is the resolved configuration, set before any command runs.
var cfg *config.Config

// setup resolves configuration and initializes logging.
func setup(cmd *cobra.Command, _ []string) error {
	resolved, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg = resolved
	logging.Init(cfg.Log, os.Stderr)
	return nil
}

// resolveConfig layers the config file, the environment and flags, then
// fills the gaps from the defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var c config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		c = *loaded
	}

	c.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		c.APIKey = apiKey
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("verbose") {
		c.Verbose = verbose
	}
	if c.Verbose && c.Log.Level == "" {
		c.Log.Level = "debug"
	}

	merged := c.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// services bundles the model-backed components.
type services struct {
	client    llm.Client
	generator *generation.Generator
	refiner   *chat.Refiner
}

func (s *services) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// newServices connects to the model API.
func newServices(ctx context.Context, c *config.Config) (*services, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	llmConfig := llm.DefaultConfig().WithOverrides(c.Models, c.MaxConcurrentCalls)
	client, err := llm.NewClient(ctx, llmConfig, c.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	validator := schemas.NewValidator(c.StrictValidation)
	return &services{
		client:    client,
		generator: generation.NewGenerator(client, validator),
		refiner:   chat.NewRefiner(client, validator),
	}, nil
}

// loadJob reads the job description from a file or fetches it from a URL.
func loadJob(ctx context.Context, path, url string, useBrowser bool) (string, error) {
	switch {
	case path != "" && url != "":
		return "", fmt.Errorf("--job and --job-url are mutually exclusive")
	case path != "":
		return ingestion.LoadJobFile(path)
	case url != "":
		text, meta, err := ingestion.IngestJobURL(ctx, url, &ingestion.JobOptions{UseBrowser: useBrowser})
		if err != nil {
			return "", err
		}
		if meta != nil {
			logging.FromContext(ctx).Debug().Str("url", url).Str("platform", meta.Platform).Msg("fetched job posting")
		}
		return text, nil
	default:
		return "", fmt.Errorf("either --job or --job-url must be provided")
	}
}

// nonEmpty reports whether s has visible text.
func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
