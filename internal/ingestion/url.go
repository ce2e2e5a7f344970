package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/smartapplicant/internal/fetch"
	"github.com/jonathan/smartapplicant/internal/logging"
)

var (
	// ErrHTTPRequestFailed is returned when the job page cannot be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text can be extracted
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// JobOptions configures IngestJobURL.
type JobOptions struct {
	// UseBrowser enables a headless render when the HTTP fetch yields too little text.
	UseBrowser bool
	// Fetch configures the plain HTTP fetch.
	Fetch *fetch.Options
	// Browser renders pages; defaults to fetch.RenderWithBrowser.
	Browser fetch.BrowserFunc
}

// IngestJobURL fetches a job posting, extracts its main text with
// platform-specific selectors and returns the cleaned description.
func IngestJobURL(ctx context.Context, urlStr string, opts *JobOptions) (string, *Metadata, error) {
	if opts == nil {
		opts = &JobOptions{}
	}
	logger := logging.FromContext(ctx)

	platform := fetch.DetectPlatform(urlStr)
	logger.Debug().Str("url", urlStr).Str("platform", string(platform)).Msg("ingesting job posting")

	result, err := fetch.URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	textContent, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	logger.Debug().Int("html_bytes", len(result.HTML)).Int("text_chars", len(textContent)).Msg("extracted job text")

	rendered := false
	if opts.UseBrowser && fetch.ShouldUseBrowser(textContent) {
		browser := opts.Browser
		if browser == nil {
			browser = fetch.RenderWithBrowser
		}
		logger.Debug().Int("text_chars", len(textContent)).Int("min", fetch.MinContentLength).Msg("content too short, rendering with browser")

		browserHTML, browserErr := browser(ctx, urlStr)
		switch {
		case browserErr != nil:
			// keep the HTTP text
			logger.Warn().Err(browserErr).Str("url", urlStr).Msg("browser rendering failed")
		default:
			browserText, extractErr := fetch.ExtractMainText(browserHTML, contentSelectors, noiseSelectors...)
			if extractErr != nil {
				logger.Warn().Err(extractErr).Msg("browser content extraction failed")
			} else if len(browserText) > len(textContent) {
				textContent = browserText
				rendered = true
			}
		}
	}

	cleanedText := CleanJobText(textContent)
	if cleanedText == "" {
		return "", nil, fmt.Errorf("%w: page %s has no readable text", ErrContentExtractionFailed, urlStr)
	}

	metadata := NewMetadata(cleanedText, urlStr)
	metadata.Title = result.Title
	metadata.Platform = string(platform)
	metadata.Rendered = rendered

	return cleanedText, metadata, nil
}
