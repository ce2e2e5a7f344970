//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeFile_Bytes(t *testing.T) {
	r := &ResumeFile{Name: "cv.pdf", MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))}

	raw, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))
}

func TestResumeFile_BytesInvalid(t *testing.T) {
	r := &ResumeFile{Data: "***"}
	_, err := r.Bytes()
	assert.Error(t, err)

	var none *ResumeFile
	_, err = none.Bytes()
	assert.Error(t, err)
}

func TestResumeFile_Summary(t *testing.T) {
	r := &ResumeFile{Name: "cv.pdf", MIMEType: "application/pdf", Data: "AAAA"}
	assert.Equal(t, &ResumeSummary{Name: "cv.pdf", MIMEType: "application/pdf"}, r.Summary())

	var none *ResumeFile
	assert.Nil(t, none.Summary())
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("letter")
	require.NoError(t, err)
	assert.Equal(t, StepLetterReview, s)
	assert.Equal(t, "cover letter", s.Document())
	assert.Equal(t, "email", StepEmailReview.Document())
	assert.Equal(t, "", StepInput.Document())

	_, err = ParseStep("done")
	assert.Error(t, err)
}
