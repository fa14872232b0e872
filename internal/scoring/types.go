// Package scoring turns the violations of a page into a 0-100 quality
// score with a letter tier.
package scoring

// QualityScore represents the overall quality score for a page
type QualityScore struct {
	Overall int             `json:"overall"` // 0-100 total score
	Tier    string          `json:"tier"`    // A, B, C, D, F
	Details []ScoringMetric `json:"details"` // Per-category breakdown
}

// ScoringMetric represents a single scoring criterion
type ScoringMetric struct {
	Category  string `json:"category"`   // rule category
	Points    int    `json:"points"`     // Actual points earned
	MaxPoints int    `json:"max_points"` // Maximum possible points
	Passed    bool   `json:"passed"`     // No violations in this category
	Note      string `json:"note,omitempty"`
}

// TierFromScore returns the quality tier based on score
func TierFromScore(score int) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 50:
		return "C"
	case score >= 30:
		return "D"
	default:
		return "F"
	}
}

// NewQualityScore sums details into an overall score and tier.
func NewQualityScore(details []ScoringMetric) QualityScore {
	overall := 0
	for _, d := range details {
		overall += d.Points
	}
	return QualityScore{
		Overall: overall,
		Tier:    TierFromScore(overall),
		Details: details,
	}
}
