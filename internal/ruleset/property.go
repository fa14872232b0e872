package ruleset

import (
	"fmt"
	"strings"

	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/styleindex"
	"github.com/dotcommander/classlint/internal/types"
)

// Property rule ids.
const (
	UtilityDuplicateProperties = "utility-duplicate-properties"
	UtilityMaxProperties       = "utility-max-properties"
	CustomDuplicatesUtility    = "custom-duplicates-utility"
)

// Property returns the property rules.
func Property() []rules.Rule {
	return []rules.Rule{
		&rules.PropertyRule{
			Meta: rules.Meta{
				ID:               UtilityDuplicateProperties,
				Name:             "Duplicate utility properties",
				Description:      "A utility class should not repeat the exact property set of an older class.",
				Severity:         types.SeverityWarning,
				Enabled:          true,
				Category:         CategoryProperty,
				TargetClassTypes: []types.ClassKind{types.KindUtility},
				Example:          "u-hidden",
				Config: rules.Schema{
					"reportSharedProperties": {
						Type:        rules.SettingBoolean,
						Default:     false,
						Description: "Also report individual property:value pairs shared with other classes",
					},
				},
			},
			Analyze: analyzeUtilityDuplicates,
		},
		&rules.PropertyRule{
			Meta: rules.Meta{
				ID:               UtilityMaxProperties,
				Name:             "Utility property count",
				Description:      "Utility classes stay single-purpose by declaring few properties.",
				Severity:         types.SeveritySuggestion,
				Enabled:          true,
				Category:         CategoryProperty,
				TargetClassTypes: []types.ClassKind{types.KindUtility},
				Example:          "u-text-center",
				Config: rules.Schema{
					"maxProperties": {Type: rules.SettingNumber, Default: 3, Description: "Maximum declared properties"},
				},
			},
			Analyze: analyzeUtilityMaxProperties,
		},
		&rules.PropertyRule{
			Meta: rules.Meta{
				ID:               CustomDuplicatesUtility,
				Name:             "Custom class duplicates utility",
				Description:      "A custom class that sets a single property an existing utility already provides should use the utility.",
				Severity:         types.SeveritySuggestion,
				Enabled:          true,
				Category:         CategoryProperty,
				TargetClassTypes: []types.ClassKind{types.KindCustom},
				Example:          "u-hidden instead of card_hidden { display: none }",
			},
			Analyze: analyzeCustomDuplicatesUtility,
		},
	}
}

// properties returns the declared properties of the class, falling back to
// the site style of the same name.
func properties(class rules.ClassInput, rc *rules.RuleContext) map[string]any {
	if len(class.Properties) > 0 {
		return class.Properties
	}
	if rc == nil {
		return nil
	}
	if style, ok := rc.Style(class.Name); ok {
		return style.Properties
	}
	return nil
}

func analyzeUtilityDuplicates(class rules.ClassInput, rc *rules.RuleContext, settings rules.Settings) ([]types.Violation, error) {
	if rc == nil {
		return nil, nil
	}
	analysis := styleindex.Analyze(rc.Maps, class.Name, properties(class, rc))
	if analysis == nil {
		return nil, nil
	}

	if analysis.IsNewerDuplicate(class.Name) {
		return []types.Violation{{
			Message: fmt.Sprintf("Utility %q duplicates all properties of %q", class.Name, analysis.Canonical),
			Metadata: map[string]any{
				"canonical":    analysis.Canonical,
				"exactMatches": analysis.ExactMatches,
			},
			Fix: &types.Fix{
				Kind:        types.FixReplace,
				Description: fmt.Sprintf("Use %q instead", analysis.Canonical),
				Replacement: analysis.Canonical,
			},
		}}, nil
	}

	if analysis.IsExactMatch || !settings.Bool("reportSharedProperties", false) {
		return nil, nil
	}
	var out []types.Violation
	for _, d := range analysis.DuplicateProperties {
		out = append(out, types.Violation{
			Message: fmt.Sprintf("Utility %q shares %s with %s",
				class.Name, styleindex.FormatProperty(d.Property, d.Value), quoteList(d.Classes)),
			Metadata: map[string]any{"property": d.Property, "classes": d.Classes},
		})
	}
	return out, nil
}

func analyzeUtilityMaxProperties(class rules.ClassInput, rc *rules.RuleContext, settings rules.Settings) ([]types.Violation, error) {
	props := properties(class, rc)
	limit := settings.Int("maxProperties", 3)
	if limit < 1 || len(props) <= limit {
		return nil, nil
	}
	return []types.Violation{{
		Message:  fmt.Sprintf("Utility %q declares %d properties; utilities should declare %d or fewer", class.Name, len(props), limit),
		Metadata: map[string]any{"properties": len(props), "maxProperties": limit},
	}}, nil
}

func analyzeCustomDuplicatesUtility(class rules.ClassInput, rc *rules.RuleContext, _ rules.Settings) ([]types.Violation, error) {
	if rc == nil || rc.Grammar == nil {
		return nil, nil
	}
	analysis := styleindex.Analyze(rc.Maps, class.Name, properties(class, rc))
	if analysis == nil || analysis.FormattedProperty == "" || len(analysis.DuplicateProperties) == 0 {
		return nil, nil
	}
	// owners are oldest first
	for _, owner := range analysis.DuplicateProperties[0].Classes {
		if rc.Grammar.Parse(owner).Kind != types.KindUtility {
			continue
		}
		return []types.Violation{{
			Message: fmt.Sprintf("Custom class %q only sets %s, which utility %q already provides",
				class.Name, analysis.FormattedProperty, owner),
			Metadata: map[string]any{"utility": owner, "property": analysis.FormattedProperty},
			Fix: &types.Fix{
				Kind:        types.FixReplace,
				Description: fmt.Sprintf("Apply %q instead", owner),
				Replacement: owner,
			},
		}}, nil
	}
	return nil, nil
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
