package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"companyName\": \"Acme\"}\n```",
			expected: `{"companyName": "Acme"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"reply\": \"Done\"}\n```",
			expected: `{"reply": "Done"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"reply\": \"Done\"}\n```",
			expected: `{"reply": "Done"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"matchPercentage": 82}`,
			expected: `{"matchPercentage": 82}`,
		},
		{
			name:     "preamble before object",
			input:    "Here is the analysis:\n{\"companyName\": \"Acme\"}",
			expected: `{"companyName": "Acme"}`,
		},
		{
			name:     "trailing chatter",
			input:    "{\"reply\": \"Shortened it.\"}\n\nLet me know if you want more changes!",
			expected: `{"reply": "Shortened it."}`,
		},
		{
			name:     "preamble before array",
			input:    "Strengths:\n[\"Go\", \"Kubernetes\"]",
			expected: `["Go", "Kubernetes"]`,
		},
		{
			name:     "braces inside letter text",
			input:    "Result: {\"coverLetterText\": \"Dear {team}, \\\"hi\\\"\"}",
			expected: `{"coverLetterText": "Dear {team}, \"hi\""}`,
		},
		{
			name:     "no JSON at all",
			input:    "Sorry, I cannot help with that.",
			expected: "Sorry, I cannot help with that.",
		},
		{
			name:     "unbalanced object left as is",
			input:    "Partial: {\"reply\": ",
			expected: "Partial: {\"reply\": ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple object", `{"key": "value"}`, `{"key": "value"}`},
		{"nested objects", `{"outer": {"inner": "value"}}`, `{"outer": {"inner": "value"}}`},
		{"object with array", `{"strengths": ["a", "b"]}`, `{"strengths": ["a", "b"]}`},
		{"object with trailing text", `{"key": "value"} and more`, `{"key": "value"}`},
		{"string with braces inside", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"empty input", "", ""},
		{"not starting with brace", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple array", `["a", "b", "c"]`, `["a", "b", "c"]`},
		{"nested arrays", `[[1, 2], [3, 4]]`, `[[1, 2], [3, 4]]`},
		{"array of objects", `[{"id": 1}, {"id": 2}]`, `[{"id": 1}, {"id": 2}]`},
		{"array with trailing text", `[1, 2, 3] extra`, `[1, 2, 3]`},
		{"empty input", "", ""},
		{"not starting with bracket", "not array", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
