//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFor(t *testing.T) {
	assert.Equal(t, MatchStrong, BandFor(100))
	assert.Equal(t, MatchStrong, BandFor(80))
	assert.Equal(t, MatchModerate, BandFor(79))
	assert.Equal(t, MatchModerate, BandFor(50))
	assert.Equal(t, MatchWeak, BandFor(49))
	assert.Equal(t, MatchWeak, BandFor(0))
}

func TestMatchAssessment_BandNil(t *testing.T) {
	var a *MatchAssessment
	assert.Equal(t, MatchWeak, a.Band())
}

func TestMatchAssessment_Clone(t *testing.T) {
	orig := &MatchAssessment{
		CompanyName:     "Acme",
		MatchPercentage: 72,
		Strengths:       []string{"Go"},
		Weaknesses:      []string{"Rust"},
		Sources:         []Source{{Title: "Acme careers", URI: "https://acme.example/careers"}},
	}

	c := orig.Clone()
	require.NotNil(t, c)
	assert.Equal(t, orig, c)

	c.Strengths[0] = "Python"
	c.Sources[0].Title = "changed"
	assert.Equal(t, "Go", orig.Strengths[0])
	assert.Equal(t, "Acme careers", orig.Sources[0].Title)

	var none *MatchAssessment
	assert.Nil(t, none.Clone())
}
