package baseline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dotcommander/classlint/internal/types"
)

func issue(page, rule, element, class, msg string) Issue {
	return Issue{Page: page, Violation: types.Violation{
		RuleID:    rule,
		Message:   msg,
		Severity:  types.SeverityError,
		ClassName: class,
		ElementID: element,
	}}
}

func TestCreateBaseline(t *testing.T) {
	issues := []Issue{
		issue("home", "custom-class-format", "e1", "Hero", `Class "Hero" is not lowercase`),
		issue("home", "max-combo-classes", "e2", "is-dark", "Element has 3 combo classes; max is 2"),
		// Duplicate issue - should be deduplicated
		issue("home", "custom-class-format", "e1", "Hero", `Class "Hero" is not lowercase`),
	}

	baseline := CreateBaseline(issues)

	if baseline.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", baseline.Version)
	}
	if len(baseline.Fingerprints) != 2 {
		t.Errorf("Expected 2 unique fingerprints, got %d", len(baseline.Fingerprints))
	}
	if len(baseline.index) != 2 {
		t.Errorf("Expected index with 2 entries, got %d", len(baseline.index))
	}
}

func TestIsKnown(t *testing.T) {
	known := issue("home", "single-main", "", "", "Page has no main element")
	otherPage := issue("about", "single-main", "", "", "Page has no main element")

	baseline := CreateBaseline([]Issue{known})

	if !baseline.IsKnown(known) {
		t.Error("Expected issue to be known in baseline")
	}
	if baseline.IsKnown(otherPage) {
		t.Error("Expected issue on another page to not be known")
	}

	var nilBaseline *Baseline
	if nilBaseline.IsKnown(known) {
		t.Error("nil baseline should know nothing")
	}
}

func TestFilter(t *testing.T) {
	a := issue("home", "combo-requires-base", "e1", "is-dark", `Combo "is-dark" needs a base class`)
	b := issue("home", "combo-requires-base", "e2", "is-dark", `Combo "is-dark" needs a base class`)
	baseline := CreateBaseline([]Issue{a})

	kept, ignored := baseline.Filter("home", []types.Violation{a.Violation, b.Violation})
	if ignored != 1 {
		t.Errorf("ignored = %d, want 1", ignored)
	}
	if len(kept) != 1 || kept[0].ElementID != "e2" {
		t.Errorf("kept = %+v, want only e2", kept)
	}

	var nilBaseline *Baseline
	kept, ignored = nilBaseline.Filter("home", []types.Violation{a.Violation})
	if ignored != 0 || len(kept) != 1 {
		t.Errorf("nil baseline filtered %d", ignored)
	}
}

func TestSaveAndLoadBaseline(t *testing.T) {
	tmpDir := t.TempDir()
	baselinePath := filepath.Join(tmpDir, DefaultPath)

	issues := []Issue{issue("home", "class-order", "e1", "u-pad", "Some message")}

	original := CreateBaseline(issues)
	original.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := original.SaveBaseline(baselinePath); err != nil {
		t.Fatalf("Failed to save baseline: %v", err)
	}
	if _, err := os.Stat(baselinePath); err != nil {
		t.Fatalf("Baseline file not created: %v", err)
	}

	loaded, err := LoadBaseline(baselinePath)
	if err != nil {
		t.Fatalf("Failed to load baseline: %v", err)
	}
	if loaded.Version != original.Version {
		t.Errorf("Version mismatch: expected %s, got %s", original.Version, loaded.Version)
	}
	if len(loaded.index) != len(original.Fingerprints) {
		t.Errorf("Index not rebuilt: expected %d entries, got %d",
			len(original.Fingerprints), len(loaded.index))
	}
	if !loaded.IsKnown(issues[0]) {
		t.Error("Expected loaded baseline to recognize original issue")
	}
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			input:    `Class "Hero_Title" should be "hero_title"`,
			expected: `Class "*" should be "*"`,
		},
		{
			input:    "Element has 5 utility classes; max is 4",
			expected: "Element has N utility classes; max is N",
		},
		{
			input:    "Use 'u-pad' instead",
			expected: "Use '*' instead",
		},
		{
			input:    "Extra   whitespace   here",
			expected: "Extra whitespace here",
		},
	}

	for _, tt := range tests {
		result := normalizeMessage(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeMessage(%q)\nExpected: %q\nGot:      %q",
				tt.input, tt.expected, result)
		}
	}
}

func TestFingerprintStability(t *testing.T) {
	base := issue("home", "utility-max-properties", "e1", "u-big", "Utility declares 5 properties; max is 3")
	fp1 := fingerprint(base)

	// Severity shouldn't affect fingerprint
	changed := base
	changed.Violation.Severity = types.SeveritySuggestion
	if fingerprint(changed) != fp1 {
		t.Error("Fingerprint changed when only severity changed")
	}

	changed = base
	changed.Violation.Message = "Utility declares 6 properties; max is 3"
	if fingerprint(changed) != fp1 {
		t.Error("Fingerprint changed when only numbers in message changed (should normalize)")
	}

	changed = base
	changed.Violation.ElementID = "e2"
	if fingerprint(changed) == fp1 {
		t.Error("Fingerprint didn't change when element changed")
	}
}

func TestLoadNonexistentBaseline(t *testing.T) {
	if _, err := LoadBaseline("/nonexistent/path/" + DefaultPath); err == nil {
		t.Error("Expected error when loading nonexistent baseline")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	baselinePath := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(baselinePath, []byte("invalid json"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := LoadBaseline(baselinePath); err == nil {
		t.Error("Expected error when loading invalid JSON")
	}
}
