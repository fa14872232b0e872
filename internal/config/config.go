// Package config loads classlint settings from .classlintrc files,
// CLASSLINT_ environment variables and bound command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileNames are the configuration files searched, in order.
var FileNames = []string{".classlintrc.json", ".classlintrc.yaml", ".classlintrc.yml"}

// Config represents the classlint configuration
type Config struct {
	Root           string        `mapstructure:"root" json:"root,omitempty"`
	Preset         string        `mapstructure:"preset" json:"preset"`
	Include        []string      `mapstructure:"include" json:"include"`
	Exclude        []string      `mapstructure:"exclude" json:"exclude"`
	FollowSymlinks bool          `mapstructure:"followSymlinks" json:"followSymlinks"`
	Format         string        `mapstructure:"format" json:"format"`
	Output         string        `mapstructure:"output" json:"output,omitempty"`
	FailOn         string        `mapstructure:"failOn" json:"failOn"`
	Quiet          bool          `mapstructure:"quiet" json:"quiet"`
	Verbose        bool          `mapstructure:"verbose" json:"verbose"`
	Breakpoint     string        `mapstructure:"breakpoint" json:"breakpoint"`
	Concurrency    int           `mapstructure:"concurrency" json:"concurrency"`
	RulesFile      string        `mapstructure:"rulesFile" json:"rulesFile"`
	Baseline       string        `mapstructure:"baseline" json:"baseline,omitempty"`
	Roles          RolesConfig   `mapstructure:"roles" json:"roles"`
	Watch          bool          `mapstructure:"watch" json:"watch"`
	Debounce       time.Duration `mapstructure:"debounce" json:"-"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// RolesConfig contains role detection settings
type RolesConfig struct {
	Threshold float64 `mapstructure:"threshold" json:"threshold"`
}

// setDefaults registers every key so that env lookups and Unmarshal see it.
func setDefaults() {
	viper.SetDefault("root", "")
	viper.SetDefault("preset", "lumos")
	viper.SetDefault("include", []string{"**/*.site.json", "**/*.site.yaml", "**/*.site.yml"})
	viper.SetDefault("exclude", []string{})
	viper.SetDefault("followSymlinks", false)
	viper.SetDefault("format", "console")
	viper.SetDefault("output", "")
	viper.SetDefault("failOn", "error")
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("breakpoint", "main")
	viper.SetDefault("concurrency", 8)
	viper.SetDefault("rulesFile", ".classlint-rules.json")
	viper.SetDefault("baseline", "")
	viper.SetDefault("roles.threshold", 0.6)
	viper.SetDefault("watch", false)
	viper.SetDefault("debounce", "200ms")
}

// LoadConfig loads configuration from various sources. Config files are
// searched in rootPath first, then in the working directory.
func LoadConfig(rootPath string) (*Config, error) {
	setDefaults()

	configFile := ""
	for _, dir := range searchDirs(rootPath) {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
			configFile = path
			break
		}
		if configFile != "" {
			break
		}
	}

	// Environment variables
	viper.SetEnvPrefix("CLASSLINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.ConfigFile = configFile

	if rootPath != "" {
		config.Root = rootPath
	}
	if config.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error resolving working directory: %w", err)
		}
		config.Root = wd
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func searchDirs(rootPath string) []string {
	if rootPath == "" || rootPath == "." {
		return []string{"."}
	}
	return []string{rootPath, "."}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	var errs []error

	if config.Format != "console" && config.Format != "json" && config.Format != "markdown" {
		errs = append(errs, fmt.Errorf("invalid format: %s. Must be 'console', 'json', or 'markdown'", config.Format))
	}

	if config.FailOn != "error" && config.FailOn != "warning" && config.FailOn != "suggestion" {
		errs = append(errs, fmt.Errorf("invalid fail-on level: %s. Must be 'error', 'warning', or 'suggestion'", config.FailOn))
	}

	if config.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}

	if config.Roles.Threshold <= 0 || config.Roles.Threshold > 1 {
		errs = append(errs, fmt.Errorf("roles.threshold must be in (0, 1], got %v", config.Roles.Threshold))
	}

	if config.Breakpoint == "" {
		errs = append(errs, errors.New("breakpoint must not be empty"))
	}

	if config.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", config.Debounce))
	}

	// "-" requests stdout explicitly
	if config.Format != "console" && config.Output == "" {
		errs = append(errs, errors.New("output file is required when format is not 'console' (use '-' for stdout)"))
	}

	return errors.Join(errs...)
}

// SaveConfig saves the configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	out := struct {
		*Config
		Debounce string `json:"debounce"`
	}{Config: config, Debounce: config.Debounce.String()}

	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, append(jsonData, '\n'), 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
