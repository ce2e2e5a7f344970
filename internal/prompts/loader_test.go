package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(LetterFile, KeyCoverLetter)
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.JobDescription}}")
	assert.Contains(t, prompt, "Warm regards,")
	assert.Contains(t, prompt, "115 words")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(LetterFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_AllPrompts(t *testing.T) {
	ClearCache()

	prompts := map[string][]string{
		LetterFile: {KeyCoverLetter},
		EmailFile:  {KeyOutreachEmail, KeyCoverLetterSection},
		ChatFile:   {KeyRefineLetter, KeyRefineEmail},
	}
	for file, keys := range prompts {
		for _, key := range keys {
			assert.NotPanics(t, func() {
				assert.NotEmpty(t, MustGet(file, key))
			}, "%s/%s", file, key)
		}
	}
}

func TestEmailPrompt_Constraints(t *testing.T) {
	prompt := MustGet(EmailFile, KeyOutreachEmail)
	assert.Contains(t, prompt, "70 words")
	assert.Contains(t, prompt, "underscores")
	assert.Contains(t, prompt, "company name")
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}!"
	data := map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	}

	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", Format(template, data))
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	assert.Equal(t, template, Format(template, map[string]string{"Key": "Value"}))
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"
	assert.Equal(t, template, Format(template, map[string]string{})) // Placeholder remains
}

func TestFormat_ValueContainingPlaceholder(t *testing.T) {
	template := "JOB:\n{{.JobDescription}}\nLETTER:\n{{.Document}}"
	data := map[string]string{
		"JobDescription": "Use {{.Document}} syntax in our templating team",
		"Document":       "Dear team",
	}

	result := Format(template, data)
	assert.Equal(t, "JOB:\nUse {{.Document}} syntax in our templating team\nLETTER:\nDear team", result)
}

func TestRender_MissingValues(t *testing.T) {
	ClearCache()

	_, err := Render(ChatFile, KeyRefineLetter, map[string]string{"Message": "shorter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Document, JobDescription")
}

func TestRender_Complete(t *testing.T) {
	ClearCache()

	out, err := Render(ChatFile, KeyRefineEmail, map[string]string{
		"JobDescription": "Backend engineer at Acme",
		"Document":       "Hi there",
		"Message":        "make it warmer",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Backend engineer at Acme")
	assert.Contains(t, out, "make it warmer")
	assert.Empty(t, Placeholders(out, nil))
}

func TestPlaceholders(t *testing.T) {
	missing := Placeholders("{{.B}} {{.A}} {{.B}} {{.C}}", map[string]string{"C": ""})
	assert.Equal(t, []string{"A", "B"}, missing)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(ChatFile)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyRefineEmail, KeyRefineLetter}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	prompt1, err := Get(EmailFile, KeyOutreachEmail)
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get(EmailFile, KeyOutreachEmail)
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
