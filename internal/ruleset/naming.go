package ruleset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dotcommander/classlint/internal/grammar"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

// Naming rule ids.
const (
	CustomClassFormat    = "custom-class-format"
	UtilityClassFormat   = "utility-class-format"
	ComboClassFormat     = "combo-class-format"
	ComponentClassFormat = "component-class-format"
	ClassNameCharacters  = "class-name-characters"
	CustomClassDepth     = "custom-class-depth"
)

// cssIdentifier is the conservative class name alphabet: no leading digit
// or dash, only letters, digits, dashes and underscores.
var cssIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Naming returns the naming rules.
func Naming() []rules.Rule {
	return []rules.Rule{
		&rules.NamingRule{
			Meta: rules.Meta{
				ID:               CustomClassFormat,
				Name:             "Custom class format",
				Description:      "Custom classes use lowercase type_element tokens.",
				Severity:         types.SeverityWarning,
				Enabled:          true,
				Category:         CategoryNaming,
				TargetClassTypes: []types.ClassKind{types.KindCustom},
				Example:          "hero_content-wrap",
			},
			Evaluate: evaluateCustomFormat,
		},
		&rules.NamingRule{
			Meta: rules.Meta{
				ID:               UtilityClassFormat,
				Name:             "Utility class format",
				Description:      "Utility classes are lowercase dash-separated words.",
				Severity:         types.SeverityWarning,
				Enabled:          true,
				Category:         CategoryNaming,
				TargetClassTypes: []types.ClassKind{types.KindUtility},
				Example:          "u-text-center",
			},
			Evaluate: evaluateUtilityFormat,
		},
		&rules.NamingRule{
			Meta: rules.Meta{
				ID:               ComboClassFormat,
				Name:             "Combo class format",
				Description:      "Combo classes name their variation in lowercase dash-separated words.",
				Severity:         types.SeverityWarning,
				Enabled:          true,
				Category:         CategoryNaming,
				TargetClassTypes: []types.ClassKind{types.KindCombo},
				Example:          "is-active",
			},
			Evaluate: evaluateComboFormat,
		},
		&rules.NamingRule{
			Meta: rules.Meta{
				ID:               ComponentClassFormat,
				Name:             "Component class format",
				Description:      "Component classes use a lowercase key and optional element token.",
				Severity:         types.SeverityWarning,
				Enabled:          true,
				Category:         CategoryNaming,
				TargetClassTypes: []types.ClassKind{types.KindComponent},
				Example:          "c-card_title",
			},
			Evaluate: evaluateComponentFormat,
		},
		&rules.NamingRule{
			Meta: rules.Meta{
				ID:          ClassNameCharacters,
				Name:        "Class name characters",
				Description: "Class names contain only letters, digits, dashes and underscores and do not start with a digit or dash.",
				Severity:    types.SeverityError,
				Enabled:     true,
				Category:    CategoryNaming,
				Example:     "card_title",
			},
			Test: func(className string, _ grammar.ParsedClass) bool {
				return cssIdentifier.MatchString(className)
			},
		},
		&rules.NamingRule{
			Meta: rules.Meta{
				ID:               CustomClassDepth,
				Name:             "Custom class depth",
				Description:      "Custom classes do not nest more than maxTokens tokens.",
				Severity:         types.SeveritySuggestion,
				Enabled:          true,
				Category:         CategoryNaming,
				TargetClassTypes: []types.ClassKind{types.KindCustom},
				Example:          "card_title",
				Config: rules.Schema{
					"maxTokens": {Type: rules.SettingNumber, Default: 4, Description: "Maximum class name tokens"},
				},
			},
			Evaluate: evaluateCustomDepth,
		},
	}
}

func renameFix(from, to string) *types.Fix {
	if to == "" || to == from {
		return nil
	}
	return &types.Fix{
		Kind:        types.FixRename,
		Description: fmt.Sprintf("Rename %q to %q", from, to),
		Replacement: to,
	}
}

func evaluateCustomFormat(className string, pc grammar.ParsedClass, _ rules.Settings) *types.Violation {
	if len(pc.Tokens) < 2 {
		return &types.Violation{
			Message: fmt.Sprintf("Custom class %q needs a type and an element token, like type_element", className),
		}
	}
	for _, tok := range pc.Tokens {
		if !lowerWords.MatchString(tok) {
			return &types.Violation{
				Message:  fmt.Sprintf("Custom class %q should use lowercase type_element format", className),
				Metadata: map[string]any{"token": tok},
				Fix:      renameFix(className, suggestCustom(className)),
			}
		}
	}
	if strings.Contains(className, "__") {
		return &types.Violation{
			Message: fmt.Sprintf("Custom class %q has an empty token", className),
			Fix:     renameFix(className, suggestCustom(className)),
		}
	}
	return nil
}

func evaluateUtilityFormat(className string, _ grammar.ParsedClass, _ rules.Settings) *types.Violation {
	if lowerWords.MatchString(className) {
		return nil
	}
	return &types.Violation{
		Message: fmt.Sprintf("Utility class %q should be lowercase words separated by dashes", className),
		Fix:     renameFix(className, suggestWords(className)),
	}
}

func evaluateComboFormat(className string, pc grammar.ParsedClass, _ rules.Settings) *types.Violation {
	if lowerWords.MatchString(pc.Variation) {
		return nil
	}
	prefix := strings.TrimSuffix(className, pc.Variation)
	return &types.Violation{
		Message: fmt.Sprintf("Combo class %q should name its variation in lowercase dash-separated words", className),
		Fix:     renameFix(className, prefix+suggestWords(pc.Variation)),
	}
}

func evaluateComponentFormat(className string, pc grammar.ParsedClass, _ rules.Settings) *types.Violation {
	keyOK := lowerWords.MatchString(pc.ComponentKey)
	elemOK := pc.ElementToken == "" || lowerWords.MatchString(pc.ElementToken)
	if keyOK && elemOK {
		return nil
	}
	rest := pc.ComponentKey
	if pc.ElementToken != "" {
		rest += "_" + pc.ElementToken
	}
	prefix := strings.TrimSuffix(className, rest)
	return &types.Violation{
		Message: fmt.Sprintf("Component class %q should use a lowercase component key and element token", className),
		Fix:     renameFix(className, prefix+suggestCustom(rest)),
	}
}

func evaluateCustomDepth(className string, pc grammar.ParsedClass, settings rules.Settings) *types.Violation {
	limit := settings.Int("maxTokens", 4)
	if limit < 1 || len(pc.Tokens) <= limit {
		return nil
	}
	return &types.Violation{
		Message:  fmt.Sprintf("Custom class %q nests %d tokens; keep it to %d or fewer", className, len(pc.Tokens), limit),
		Metadata: map[string]any{"tokens": len(pc.Tokens), "maxTokens": limit},
	}
}
