package types

import (
	"github.com/go-playground/validator/v10"
)

// JobDescriptionRequest sets the job text directly or by URL.
type JobDescriptionRequest struct {
	JobDescription string `json:"job_description" validate:"required_without=JobURL"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url"`
}

// ChatRequest is a single user chat turn.
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// ResetRequest resets the wizard. Full also drops the resume.
type ResetRequest struct {
	Full bool `json:"full"`
}

// Validate validates the JobDescriptionRequest using the validator.
func (r *JobDescriptionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ChatRequest using the validator.
func (r *ChatRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
