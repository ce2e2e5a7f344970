// Package types provides type definitions for structured data used throughout the smartapplicant system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/base64"
	"fmt"
)

// ResumeFile is an uploaded resume carried as a base64 payload.
// A ResumeFile is never edited in place; re-uploading replaces it.
type ResumeFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // standard base64
}

// Bytes decodes the base64 payload.
func (r *ResumeFile) Bytes() ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("resume is nil")
	}
	raw, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode resume payload: %w", err)
	}
	return raw, nil
}

// ResumeSummary is the resume as shown to clients. The payload is never echoed back.
type ResumeSummary struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
}

// Summary returns the client-facing view of the resume, or nil.
func (r *ResumeFile) Summary() *ResumeSummary {
	if r == nil {
		return nil
	}
	return &ResumeSummary{Name: r.Name, MIMEType: r.MIMEType}
}
