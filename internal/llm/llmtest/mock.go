// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/smartapplicant/internal/llm"
)

// MockClient implements llm.Client with optional function fields.
// Every request is recorded.
type MockClient struct {
	GenerateFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)
	GetModelFunc func(tier llm.ModelTier) string
	CloseFunc    func() error

	mu       sync.Mutex
	requests []llm.Request
}

// Generate records the request and delegates to GenerateFunc.
func (m *MockClient) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &llm.Response{Text: "{}"}, nil
}

// GetModel returns the model name for a tier.
func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

// Close releases nothing unless CloseFunc is set.
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// LastRequest returns the most recent request, or a zero Request.
func (m *MockClient) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return llm.Request{}
	}
	return m.requests[len(m.requests)-1]
}

// Respond returns a GenerateFunc that always answers with text.
func Respond(text string, citations ...llm.Citation) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: text, Citations: citations}, nil
	}
}

// Fail returns a GenerateFunc that always fails with err.
func Fail(err error) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, err
	}
}

// Block returns a GenerateFunc that waits for release or ctx cancellation,
// then answers with text.
func Block(release <-chan struct{}, text string) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
		select {
		case <-release:
			return &llm.Response{Text: text}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
