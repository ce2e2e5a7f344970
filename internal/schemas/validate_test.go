package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CoverLetter_Lenient(t *testing.T) {
	v := NewValidator(false)

	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"complete", `{"companyName":"Acme","matchPercentage":82,"matchReason":"Strong Go","coverLetterText":"To,"}`, false},
		{"fields missing", `{"companyName":"Acme"}`, false},
		{"empty object", `{}`, false},
		{"score out of range accepted", `{"matchPercentage":140}`, false},
		{"wrong score type", `{"matchPercentage":"high"}`, true},
		{"letter not a string", `{"coverLetterText":42}`, true},
		{"strengths not a list", `{"strengths":"Go"}`, true},
		{"not an object", `["a"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(CoverLetterResponse, tt.json)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidator_CoverLetter_Strict(t *testing.T) {
	v := NewValidator(true)
	assert.True(t, v.Strict())

	err := v.Validate(CoverLetterResponse, `{"companyName":"Acme","matchPercentage":140,"matchReason":"x","coverLetterText":"To,"}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, CoverLetterResponse, validationErr.Schema)
	require.NotEmpty(t, validationErr.Errors)
	assert.Equal(t, "matchPercentage", validationErr.Errors[0].Field)

	err = v.Validate(CoverLetterResponse, `{"companyName":"Acme"}`)
	assert.Error(t, err, "strict mode requires all fields")

	err = v.Validate(CoverLetterResponse, `{"companyName":"Acme","matchPercentage":0,"matchReason":"weak fit","coverLetterText":"To,","strengths":[]}`)
	assert.NoError(t, err)
}

func TestValidator_ChatResponse(t *testing.T) {
	v := NewValidator(false)

	assert.NoError(t, v.Validate(ChatResponse, `{"reply":"Done"}`))
	assert.NoError(t, v.Validate(ChatResponse, `{"reply":"Done","updatedContent":"New text"}`))
	assert.NoError(t, v.Validate(ChatResponse, `{"reply":"Done","updatedContent":null}`))
	assert.Error(t, v.Validate(ChatResponse, `{"updatedContent":"New text"}`))

	// chat has no strict variant; strict falls back to the base schema
	assert.NoError(t, NewValidator(true).Validate(ChatResponse, `{"reply":"ok"}`))
}

func TestValidator_MalformedJSON(t *testing.T) {
	err := NewValidator(false).Validate(ChatResponse, `{ invalid json }`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Errors[0].Message, "malformed JSON")
}

func TestValidator_UnknownSchema(t *testing.T) {
	err := NewValidator(false).Validate("nope", `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "nope.schema.json")
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["reply"],"properties":{"reply":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"reply":"hi"}`))

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "(root)")
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{
		Schema: ChatResponse,
		Errors: []FieldError{{Field: "reply", Message: "is required"}},
	}
	assert.Equal(t, "chat_response validation failed:\n  1. reply: is required\n", err.Error())
}
