package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/classlint/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available naming system presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		w := cmd.OutOrStdout()
		name := lipgloss.NewStyle().Bold(true)
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		for _, id := range preset.IDs() {
			p, err := preset.Lookup(id)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				exitFunc(1)
				return
			}
			fmt.Fprintf(w, "%-14s %s (%d rules)\n", id, name.Render(p.Name), len(p.Rules))
			fmt.Fprintf(w, "%-14s %s\n", "", dim.Render(p.Description))
		}
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
