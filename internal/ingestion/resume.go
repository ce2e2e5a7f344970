// Package ingestion loads the applicant's resume and the job posting text.
package ingestion

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/smartapplicant/internal/types"
)

// PDFMIMEType is the only resume format accepted.
const PDFMIMEType = "application/pdf"

// MaxResumeBytes caps the size of an uploaded resume.
const MaxResumeBytes = 10 << 20

// UnsupportedFileTypeError is returned when a resume is not declared as a PDF.
type UnsupportedFileTypeError struct {
	Name     string
	MIMEType string
}

func (e *UnsupportedFileTypeError) Error() string {
	if e.MIMEType == "" {
		return fmt.Sprintf("unsupported file type for %s: please upload a PDF", e.Name)
	}
	return fmt.Sprintf("unsupported file type %s for %s: please upload a PDF", e.MIMEType, e.Name)
}

// FileTooLargeError is returned when a resume exceeds MaxResumeBytes.
type FileTooLargeError struct {
	Name  string
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s exceeds the %d byte limit", e.Name, e.Limit)
}

// IsPDF reports whether a declared content type names a PDF.
// Parameters such as "; name=x" are ignored.
func IsPDF(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, PDFMIMEType)
}

// LoadResume checks the declared type, then reads and encodes the file.
// A non-PDF declaration is rejected before r is touched. The content itself
// is never parsed.
func LoadResume(name, mimeType string, r io.Reader) (*types.ResumeFile, error) {
	if !IsPDF(mimeType) {
		return nil, &UnsupportedFileTypeError{Name: name, MIMEType: mimeType}
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxResumeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read resume %s: %w", name, err)
	}
	if int64(len(data)) > MaxResumeBytes {
		return nil, &FileTooLargeError{Name: name, Limit: MaxResumeBytes}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("resume %s is empty", name)
	}

	return &types.ResumeFile{
		Name:     name,
		MIMEType: PDFMIMEType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// LoadResumeFile loads a resume from disk. The declared type comes from the
// file extension, as a browser file picker would report it.
func LoadResumeFile(path string) (*types.ResumeFile, error) {
	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !IsPDF(mimeType) {
		return nil, &UnsupportedFileTypeError{Name: name, MIMEType: mimeType}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadResume(name, mimeType, f)
}
