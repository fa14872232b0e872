package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/classlint/internal/baseline"
	"github.com/dotcommander/classlint/internal/config"
	"github.com/dotcommander/classlint/internal/discovery"
	"github.com/dotcommander/classlint/internal/git"
	"github.com/dotcommander/classlint/internal/lint"
)

var (
	useBaseline    bool
	createBaseline bool
	baselinePath   string
	watchMode      bool
	stagedOnly     bool
	changedOnly    bool
)

func init() {
	f := rootCmd.Flags()
	f.BoolVar(&useBaseline, "baseline", false, "Ignore violations recorded in the baseline file")
	f.BoolVar(&createBaseline, "baseline-create", false, "Record current violations as the baseline and exit successfully")
	f.StringVar(&baselinePath, "baseline-path", baseline.DefaultPath, "Baseline file, relative to the root")
	f.BoolVarP(&watchMode, "watch", "w", false, "Re-lint when site exports or rule configuration change")
	f.BoolVar(&stagedOnly, "staged", false, "Only lint site exports staged in git")
	f.BoolVar(&changedOnly, "diff", false, "Only lint site exports with uncommitted changes in git")

	bindLintFlags()
}

func bindLintFlags() {
	f := rootCmd.Flags()
	_ = viper.BindPFlag("baseline", f.Lookup("baseline-path"))
	_ = viper.BindPFlag("watch", f.Lookup("watch"))
}

// runLint lints the project and reports whether the run should fail.
func runLint(cmd *cobra.Command, args []string) (bool, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return false, err
	}

	files, err := selectFiles(cfg, args)
	if err != nil {
		return false, err
	}
	if files != nil && len(files) == 0 && !cfg.Quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "No changed site exports to lint")
	}

	orch, err := lint.NewOrchestrator(cfg, lint.OrchestratorConfig{
		UseBaseline:    useBaseline,
		CreateBaseline: createBaseline,
		BaselinePath:   cfg.Baseline,
		Files:          files,
		Logger:         newLogger(cfg),
		Stdout:         cmd.OutOrStdout(),
		Stderr:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return false, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Watch {
		return false, runWatch(ctx, cmd, orch, cfg.Quiet)
	}

	result, err := orch.Run(ctx)
	if err != nil {
		return false, err
	}
	return result.HasFailures, nil
}

// selectFiles returns the exports named on the command line or reported by
// git. Nil means discover every export under the root.
func selectFiles(cfg *config.Config, args []string) ([]string, error) {
	if stagedOnly && changedOnly {
		return nil, fmt.Errorf("--staged and --diff are mutually exclusive")
	}
	if (stagedOnly || changedOnly) && len(args) > 0 {
		return nil, fmt.Errorf("file arguments cannot be combined with --staged or --diff")
	}
	if (stagedOnly || changedOnly) && cfg.Watch {
		return nil, fmt.Errorf("--watch cannot be combined with --staged or --diff")
	}

	match := discovery.NewFileDiscovery(cfg.Root, cfg.Include, cfg.Exclude, cfg.FollowSymlinks).Matches
	switch {
	case stagedOnly:
		return git.StagedFiles(cfg.Root, match)
	case changedOnly:
		return git.ChangedFiles(cfg.Root, match)
	case len(args) > 0:
		return args, nil
	default:
		return nil, nil
	}
}

// runWatch re-lints on change until interrupted.
func runWatch(ctx context.Context, cmd *cobra.Command, orch *lint.Orchestrator, quiet bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := lint.NewWatcher(orch)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(result *lint.Result, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		if result.HasFailures && !quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes... (lint failed)")
		}
	})
}
