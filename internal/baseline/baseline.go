// Package baseline records accepted violations so that only new ones are reported.
package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/dotcommander/classlint/internal/types"
)

// DefaultPath is the baseline file name used when none is configured.
const DefaultPath = ".classlintbaseline.json"

// Issue is a violation located on a page.
type Issue struct {
	Page      string
	Violation types.Violation
}

// Baseline represents a snapshot of known issues that should be ignored
type Baseline struct {
	Version      string   `json:"version"`
	CreatedAt    string   `json:"created_at"`
	Fingerprints []string `json:"fingerprints"`
	index        map[string]bool // For fast lookup
}

// CreateBaseline creates a new baseline from a list of issues
func CreateBaseline(issues []Issue) *Baseline {
	fingerprints := make([]string, 0, len(issues))
	index := make(map[string]bool)

	for _, issue := range issues {
		fp := fingerprint(issue)
		if !index[fp] {
			fingerprints = append(fingerprints, fp)
			index[fp] = true
		}
	}

	// Sort for deterministic output
	sort.Strings(fingerprints)

	return &Baseline{
		Version:      "1.0",
		Fingerprints: fingerprints,
		index:        index,
	}
}

// LoadBaseline loads a baseline from a JSON file
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}

	b.index = make(map[string]bool, len(b.Fingerprints))
	for _, fp := range b.Fingerprints {
		b.index[fp] = true
	}

	return &b, nil
}

// SaveBaseline saves the baseline to a JSON file
func (b *Baseline) SaveBaseline(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}

	return nil
}

// IsKnown checks if an issue is in the baseline
func (b *Baseline) IsKnown(issue Issue) bool {
	if b == nil || b.index == nil {
		return false
	}
	return b.index[fingerprint(issue)]
}

// Filter drops the known violations of page, returning the rest and the
// number dropped.
func (b *Baseline) Filter(page string, violations []types.Violation) ([]types.Violation, int) {
	if b == nil {
		return violations, 0
	}
	kept := make([]types.Violation, 0, len(violations))
	ignored := 0
	for _, v := range violations {
		if b.IsKnown(Issue{Page: page, Violation: v}) {
			ignored++
			continue
		}
		kept = append(kept, v)
	}
	return kept, ignored
}

// fingerprint creates a stable hash of an issue for comparison.
// Severity is excluded so that reconfiguring a rule keeps it baselined.
func fingerprint(issue Issue) string {
	v := issue.Violation
	msg := normalizeMessage(v.Message)
	data := fmt.Sprintf("%s|%s|%s|%s|%s", issue.Page, v.RuleID, v.ElementID, v.ClassName, msg)

	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

var (
	doubleQuoted = regexp.MustCompile(`"[^"]+"`)
	singleQuoted = regexp.MustCompile(`(^|\s)'([^']+)'(\s|$)`)
	numbers      = regexp.MustCompile(`\b\d+\b`)
)

// normalizeMessage normalizes messages to create stable patterns
// Replaces specific values with placeholders to match similar issues
func normalizeMessage(msg string) string {
	msg = doubleQuoted.ReplaceAllString(msg, `"*"`)
	// Match only when surrounded by whitespace/start/end to avoid contractions
	msg = singleQuoted.ReplaceAllString(msg, `$1'*'$3`)
	msg = numbers.ReplaceAllString(msg, `N`)
	msg = strings.Join(strings.Fields(msg), " ")
	return msg
}
