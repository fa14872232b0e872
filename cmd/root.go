package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/classlint/internal/config"
	"github.com/dotcommander/classlint/internal/output"
	"github.com/dotcommander/classlint/internal/project"
)

// Version is set at build time.
var Version = "dev"

// exitFunc is swapped out by tests.
var exitFunc = os.Exit

var (
	rootPath     string
	quiet        bool
	verbose      bool
	outputFormat string
	outputFile   string
	failOn       string
	presetID     string
	breakpoint   string
	rulesFile    string
)

var rootCmd = &cobra.Command{
	Use:   "classlint [files...]",
	Short: "Class naming and structure linter for visual site builder exports",
	Long: `Classlint checks the classes applied to a page's elements against a naming
system (Lumos or Client-First) and reports naming, property, ordering,
composition and page structure violations with suggested fixes.

By default, classlint discovers every site export under the project root
(**/*.site.json, **/*.site.yaml, **/*.site.yml). Pass files to lint only those.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runLint(cmd, args)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if failed {
			exitFunc(1)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	rootCmd.Version = Version

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootPath, "root", "r", "", "Project root directory (auto-detected if not specified)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.StringVarP(&outputFormat, "format", "f", "console", "Output format for reports (console|json|markdown)")
	pf.StringVarP(&outputFile, "output", "o", "", "Output file for reports, '-' for stdout (requires --format)")
	pf.StringVarP(&failOn, "fail-on", "", "error", "Fail build on specified level (error|warning|suggestion)")
	pf.StringVarP(&presetID, "preset", "p", "lumos", "Naming system preset (lumos|client-first)")
	pf.StringVarP(&breakpoint, "breakpoint", "b", "main", "Breakpoint whose style properties are analyzed")
	pf.StringVarP(&rulesFile, "rules-file", "", ".classlint-rules.json", "Rule configuration file, relative to the root")

	bindRootFlags()

	output.Version = Version
}

// bindRootFlags binds the persistent flags to their configuration keys.
func bindRootFlags() {
	pf := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("format", pf.Lookup("format"))
	_ = viper.BindPFlag("output", pf.Lookup("output"))
	_ = viper.BindPFlag("failOn", pf.Lookup("fail-on"))
	_ = viper.BindPFlag("preset", pf.Lookup("preset"))
	_ = viper.BindPFlag("breakpoint", pf.Lookup("breakpoint"))
	_ = viper.BindPFlag("rulesFile", pf.Lookup("rules-file"))
}

// loadConfig resolves the project root and loads configuration. The
// first file argument anchors root detection when --root is not given.
func loadConfig(args []string) (*config.Config, error) {
	root := rootPath
	if root == "" {
		start := "."
		if len(args) > 0 {
			start = args[0]
		}
		detected, err := project.FindProjectRoot(start)
		if err != nil {
			return nil, fmt.Errorf("error detecting project root: %w", err)
		}
		root = detected
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

// newLogger returns the CLI logger: warnings by default, debug with
// --verbose and errors only with --quiet.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case cfg.Verbose:
		level = slog.LevelDebug
	case cfg.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
