package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/classlint/internal/lint"
	"github.com/dotcommander/classlint/internal/rules"
	"github.com/dotcommander/classlint/internal/types"
)

var (
	rulesCategory string
	rulesType     string
	rulesFormat   string

	exportFormat string
	exportOutput string

	setEnabled  bool
	setSeverity string
	setSettings []string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List and configure rules",
	Long: `The rules command inspects the active preset's rules and edits the stored
rule configuration (.classlint-rules.json by default).

Subcommands:
  list     Show every rule with its effective configuration
  export   Write the configuration document as JSON or YAML
  import   Apply a configuration document and store it
  set      Change one rule's enabled state, severity or settings
  reset    Restore defaults for one rule or all rules`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules with their effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runOrExit(cmd, func(orch *lint.Orchestrator) error {
			return listRules(cmd.OutOrStdout(), orch.Registry())
		})
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the rule configuration document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runOrExit(cmd, func(orch *lint.Orchestrator) error {
			doc := orch.Registry().Export(orch.Preset().ID)
			doc.Stamp(time.Now())
			data, err := rules.MarshalDocument(doc, exportFormat)
			if err != nil {
				return err
			}
			if exportOutput == "" || exportOutput == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
				return fmt.Errorf("error writing %s: %w", exportOutput, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rules to %s\n", len(doc.RuleConfigs), exportOutput)
			return nil
		})
	},
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a rule configuration document (JSON or YAML)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(cmd, func(orch *lint.Orchestrator) error {
			doc, err := rules.NewStore(args[0], nil).Read()
			if err != nil {
				return err
			}
			reg := orch.Registry()
			skipped, err := reg.Import(doc)
			if err != nil {
				return err
			}
			if len(skipped) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped unknown rules: %s\n", strings.Join(skipped, ", "))
			}
			if err := orch.Store().Save(reg, orch.Preset().ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", filepath.Base(args[0]))
			return nil
		})
	},
}

var rulesSetCmd = &cobra.Command{
	Use:   "set <rule-id>",
	Short: "Update one rule's configuration",
	Long: `Update one rule's configuration and store it.

Setting values are decoded as JSON when possible and kept as strings otherwise:
  classlint rules set max-combo-classes --setting max=3
  classlint rules set custom-class-format --severity warning --enabled=false`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(cmd, func(orch *lint.Orchestrator) error {
			u, err := buildUpdate(cmd)
			if err != nil {
				return err
			}
			reg := orch.Registry()
			if rule, ok := reg.Rule(args[0]); ok && u.CustomSettings != nil {
				if err := rule.Info().Config.Check(u.CustomSettings); err != nil {
					return fmt.Errorf("rule %s: %w", args[0], err)
				}
			}
			if err := reg.UpdateRuleConfiguration(args[0], u); err != nil {
				return err
			}
			if err := orch.Store().Save(reg, orch.Preset().ID); err != nil {
				return err
			}
			cfg, _ := reg.Configuration(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (enabled: %t, severity: %s)\n", cfg.RuleID, cfg.Enabled, cfg.Severity)
			return nil
		})
	},
}

var rulesResetCmd = &cobra.Command{
	Use:   "reset [rule-id]",
	Short: "Restore default configuration",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(cmd, func(orch *lint.Orchestrator) error {
			reg := orch.Registry()
			if len(args) == 0 {
				if err := orch.Store().Reset(reg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reset all rules to defaults")
				return nil
			}
			if err := reg.ResetRule(args[0]); err != nil {
				return err
			}
			if err := orch.Store().Save(reg, orch.Preset().ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to defaults\n", args[0])
			return nil
		})
	},
}

func init() {
	rulesListCmd.Flags().StringVar(&rulesCategory, "category", "", "Only list rules in this category")
	rulesListCmd.Flags().StringVar(&rulesType, "type", "", "Only list rules of this type (naming|property|structure|composition|page)")
	rulesListCmd.Flags().StringVarP(&rulesFormat, "format", "f", "table", "Listing format (table|json)")

	rulesExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Document format (json|yaml)")
	rulesExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")

	rulesSetCmd.Flags().BoolVar(&setEnabled, "enabled", true, "Enable or disable the rule")
	rulesSetCmd.Flags().StringVar(&setSeverity, "severity", "", "Severity (error|warning|suggestion)")
	rulesSetCmd.Flags().StringArrayVar(&setSettings, "setting", nil, "Custom setting as key=value (repeatable)")

	rulesCmd.AddCommand(rulesListCmd, rulesExportCmd, rulesImportCmd, rulesSetCmd, rulesResetCmd)
	rootCmd.AddCommand(rulesCmd)
}

// runOrExit builds an orchestrator for the current project and runs fn,
// exiting with status 1 on error.
func runOrExit(cmd *cobra.Command, fn func(*lint.Orchestrator) error) {
	orch, err := projectOrchestrator(cmd, nil)
	if err == nil {
		err = fn(orch)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		exitFunc(1)
	}
}

// projectOrchestrator loads configuration anchored at args and returns an
// orchestrator with baselines disabled.
func projectOrchestrator(cmd *cobra.Command, args []string) (*lint.Orchestrator, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	return lint.NewOrchestrator(cfg, lint.OrchestratorConfig{
		Logger: newLogger(cfg),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
}

// ruleRow is one line of the rule listing.
type ruleRow struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     rules.Type     `json:"type"`
	Category string         `json:"category"`
	Enabled  bool           `json:"enabled"`
	Severity types.Severity `json:"severity"`
	Settings rules.Settings `json:"settings,omitempty"`
}

func selectRules(reg *rules.Registry) []ruleRow {
	var rows []ruleRow
	for _, rule := range reg.Rules() {
		meta := rule.Info()
		if rulesCategory != "" && meta.Category != rulesCategory {
			continue
		}
		if rulesType != "" && string(rule.Type()) != rulesType {
			continue
		}
		cfg, _ := reg.Configuration(meta.ID)
		rows = append(rows, ruleRow{
			ID:       meta.ID,
			Name:     meta.Name,
			Type:     rule.Type(),
			Category: meta.Category,
			Enabled:  cfg.Enabled,
			Severity: cfg.Severity,
			Settings: cfg.CustomSettings,
		})
	}
	return rows
}

func listRules(w io.Writer, reg *rules.Registry) error {
	rows := selectRules(reg)

	switch rulesFormat {
	case "json":
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling rules: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "", "table":
	default:
		return fmt.Errorf("unsupported listing format: %s", rulesFormat)
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Fprintln(w, header.Render(fmt.Sprintf("%-28s %-12s %-14s %-8s %-10s", "ID", "TYPE", "CATEGORY", "ENABLED", "SEVERITY")))
	for _, r := range rows {
		line := fmt.Sprintf("%-28s %-12s %-14s %-8t %-10s", r.ID, r.Type, r.Category, r.Enabled, r.Severity)
		if !r.Enabled {
			line = dim.Render(line)
		}
		fmt.Fprintln(w, line)
		if len(r.Settings) > 0 {
			fmt.Fprintln(w, dim.Render("  "+formatSettings(r.Settings)))
		}
	}
	fmt.Fprintf(w, "\n%d rules\n", len(rows))
	return nil
}

func formatSettings(s rules.Settings) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(s[k])
		if err != nil {
			v = []byte(fmt.Sprint(s[k]))
		}
		parts = append(parts, k+"="+string(v))
	}
	return strings.Join(parts, " ")
}

// buildUpdate turns the set flags into a partial update. Only flags the
// user passed are applied.
func buildUpdate(cmd *cobra.Command) (rules.Update, error) {
	var u rules.Update
	if cmd.Flags().Changed("enabled") {
		enabled := setEnabled
		u.Enabled = &enabled
	}
	if setSeverity != "" {
		sev, err := types.ParseSeverity(setSeverity)
		if err != nil {
			return u, err
		}
		u.Severity = &sev
	}
	if len(setSettings) > 0 {
		u.CustomSettings = make(map[string]any, len(setSettings))
		for _, kv := range setSettings {
			key, raw, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return u, fmt.Errorf("invalid setting %q: want key=value", kv)
			}
			u.CustomSettings[key] = parseSettingValue(raw)
		}
	}
	if u.Enabled == nil && u.Severity == nil && u.CustomSettings == nil {
		return u, fmt.Errorf("nothing to update: pass --enabled, --severity or --setting")
	}
	return u, nil
}

func parseSettingValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
