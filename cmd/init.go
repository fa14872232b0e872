package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dotcommander/classlint/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .classlintrc.json with the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		path, err := runInit()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitFunc(1)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}

func runInit() (string, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return "", err
	}
	path := filepath.Join(cfg.Root, config.FileNames[0])
	if _, err := os.Stat(path); err == nil && !initForce {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("error checking %s: %w", path, err)
	}

	// Root is implied by the file location.
	cfg.Root = ""
	if err := config.SaveConfig(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}
