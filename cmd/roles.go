package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/classlint/internal/lintctx"
	"github.com/dotcommander/classlint/internal/roles"
)

var rolesFormat string

var rolesCmd = &cobra.Command{
	Use:   "roles <file>",
	Short: "Show the structural role detected for each element",
	Long: `The roles command scans one site export and prints the role assigned to
every element (main, section, componentRoot, childGroup, container, layout,
content or unknown) with the detector that won and its score.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRoles(cmd, args[0]); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rolesCmd.Flags().StringVarP(&rolesFormat, "format", "f", "table", "Listing format (table|json)")
	rootCmd.AddCommand(rolesCmd)
}

// roleRow is one element of the role listing.
type roleRow struct {
	ElementID string   `json:"elementId"`
	Tag       string   `json:"tag"`
	Role      string   `json:"role"`
	Score     float64  `json:"score"`
	Detector  string   `json:"detector,omitempty"`
	Classes   []string `json:"classes"`
}

func runRoles(cmd *cobra.Command, path string) error {
	orch, err := projectOrchestrator(cmd, []string{path})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, snap, err := orch.Scan(ctx, path)
	if err != nil {
		return err
	}
	return printRoles(cmd.OutOrStdout(), roleRows(snap))
}

func roleRows(snap *lintctx.Snapshot) []roleRow {
	if snap == nil {
		return nil
	}
	byID := make(map[string]roles.Assignment, len(snap.Assignments))
	for _, a := range snap.Assignments {
		byID[a.ElementID] = a
	}
	rows := make([]roleRow, 0, len(snap.Elements))
	for _, el := range snap.Elements {
		row := roleRow{
			ElementID: el.ID,
			Tag:       el.TagName,
			Role:      string(snap.Roles[el.ID]),
			Classes:   el.Classes,
		}
		if a, ok := byID[el.ID]; ok {
			row.Score = a.Score
			row.Detector = a.Detector
		}
		if row.Role == "" {
			row.Role = "unknown"
		}
		if row.Classes == nil {
			row.Classes = []string{}
		}
		rows = append(rows, row)
	}
	return rows
}

func printRoles(w io.Writer, rows []roleRow) error {
	switch rolesFormat {
	case "json":
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling roles: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "", "table":
	default:
		return fmt.Errorf("unsupported listing format: %s", rolesFormat)
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	fmt.Fprintln(w, header.Render(fmt.Sprintf("%-16s %-10s %-14s %-6s %-14s %s", "ELEMENT", "TAG", "ROLE", "SCORE", "DETECTOR", "CLASSES")))
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s %-10s %-14s %-6.2f %-14s %s\n", r.ElementID, r.Tag, r.Role, r.Score, r.Detector, strings.Join(r.Classes, " "))
	}
	return nil
}
