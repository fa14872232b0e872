package scoring

import (
	"fmt"

	"github.com/dotcommander/classlint/internal/types"
)

// Weight is the share of the score held by one rule category.
type Weight struct {
	Category string
	Points   int
}

// DefaultWeights split 100 points across the rule categories.
var DefaultWeights = []Weight{
	{Category: "naming", Points: 30},
	{Category: "property", Points: 20},
	{Category: "structure", Points: 20},
	{Category: "composition", Points: 15},
	{Category: "page", Points: 15},
}

// Penalty is the number of points one violation costs its category.
func Penalty(sev types.Severity) int {
	switch sev {
	case types.SeverityError:
		return 5
	case types.SeverityWarning:
		return 2
	case types.SeveritySuggestion:
		return 1
	default:
		return 0
	}
}

// PageScorer scores the violations of one page.
type PageScorer struct {
	weights    []Weight
	categoryOf func(ruleID string) string
}

// NewPageScorer returns a scorer using DefaultWeights. categoryOf maps a
// rule id to its category; violations of unknown categories are not scored.
func NewPageScorer(categoryOf func(ruleID string) string) *PageScorer {
	return &PageScorer{weights: DefaultWeights, categoryOf: categoryOf}
}

// Score computes the page score. A category never drops below zero.
func (s *PageScorer) Score(violations []types.Violation) QualityScore {
	lost := make(map[string]int, len(s.weights))
	count := make(map[string]int, len(s.weights))
	for _, v := range violations {
		c := s.categoryOf(v.RuleID)
		lost[c] += Penalty(v.Severity)
		count[c]++
	}

	details := make([]ScoringMetric, 0, len(s.weights))
	for _, w := range s.weights {
		points := max(0, w.Points-lost[w.Category])
		m := ScoringMetric{
			Category:  w.Category,
			Points:    points,
			MaxPoints: w.Points,
			Passed:    count[w.Category] == 0,
		}
		if n := count[w.Category]; n > 0 {
			m.Note = fmt.Sprintf("%d violations", n)
		}
		details = append(details, m)
	}
	return NewQualityScore(details)
}
