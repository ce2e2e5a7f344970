package types

// Source is a web reference the model reported using while writing.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// MatchAssessment is the fit analysis produced alongside a cover letter.
// It is produced by a single generation call and replaced as a whole.
type MatchAssessment struct {
	CompanyName     string   `json:"company_name"`
	MatchPercentage int      `json:"match_percentage"`
	MatchReason     string   `json:"match_reason"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Sources         []Source `json:"sources"`
}

// MatchBand buckets a match percentage for display.
type MatchBand string

// Match bands
const (
	MatchStrong   MatchBand = "strong"
	MatchModerate MatchBand = "moderate"
	MatchWeak     MatchBand = "weak"
)

// BandFor returns the display band for a percentage.
func BandFor(percentage int) MatchBand {
	switch {
	case percentage >= 80:
		return MatchStrong
	case percentage >= 50:
		return MatchModerate
	default:
		return MatchWeak
	}
}

// Band returns the display band of the assessment's score.
func (a *MatchAssessment) Band() MatchBand {
	if a == nil {
		return MatchWeak
	}
	return BandFor(a.MatchPercentage)
}

// Clone returns a deep copy of the assessment.
func (a *MatchAssessment) Clone() *MatchAssessment {
	if a == nil {
		return nil
	}
	c := *a
	c.Strengths = append([]string(nil), a.Strengths...)
	c.Weaknesses = append([]string(nil), a.Weaknesses...)
	c.Sources = append([]Source(nil), a.Sources...)
	return &c
}
