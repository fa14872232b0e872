package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dotcommander/classlint/internal/cue"
)

// Store persists a Registry's configuration as a Document on disk.
type Store struct {
	Path string
	// Validator checks versioned documents before import. Nil skips schema checks.
	Validator *cue.Validator
	Logger    *slog.Logger
	// Now is the clock used by Save. Nil means time.Now.
	Now func() time.Time
}

// NewStore returns a Store for path with the embedded schemas loaded.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{Path: path, Logger: logger}
	v := cue.NewValidator()
	if err := v.LoadSchemas(); err != nil {
		logger.Warn("rule config schema unavailable", "error", err)
	} else {
		s.Validator = v
	}
	return s
}

// Load imports the stored document into reg. A missing file leaves the
// defaults in place. A malformed or invalid file is logged and the
// registry is reset to defaults. Only read failures are returned.
func (s *Store) Load(reg *Registry) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading rule config %s: %w", s.Path, err)
	}

	doc, err := s.decode(data)
	if err != nil {
		s.logger().Warn("ignoring rule config", "path", s.Path, "error", err)
		reg.ResetToDefaults()
		return nil, nil
	}

	skipped, err := reg.Import(doc)
	if err != nil {
		s.logger().Warn("ignoring rule config", "path", s.Path, "error", err)
		reg.ResetToDefaults()
		return nil, nil
	}
	if len(skipped) > 0 {
		s.logger().Debug("skipped unknown rules", "path", s.Path, "rules", skipped)
	}
	return skipped, nil
}

// Read decodes the stored document without importing it. Unlike Load,
// every failure is returned.
func (s *Store) Read() (Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Document{}, fmt.Errorf("error reading rule config %s: %w", s.Path, err)
	}
	doc, err := s.decode(data)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", s.Path, err)
	}
	return doc, nil
}

func (s *Store) decode(data []byte) (Document, error) {
	if isYAML(s.Path) {
		return UnmarshalYAMLDocument(data)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return Document{}, err
	}
	// Legacy documents are upgraded in memory and carry no version on disk.
	if s.Validator != nil && strings.Contains(string(data), `"version"`) {
		verrs, err := s.Validator.ValidateJSON(cue.SchemaRuleConfig, data)
		if err != nil {
			return Document{}, err
		}
		if len(verrs) > 0 {
			return Document{}, verrs[0]
		}
	}
	return doc, nil
}

// Save exports reg, stamps it and writes it to Path.
func (s *Store) Save(reg *Registry, presetID string) error {
	doc := reg.Export(presetID)
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	doc.Stamp(now())

	format := "json"
	if isYAML(s.Path) {
		format = "yaml"
	}
	data, err := MarshalDocument(doc, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("error writing rule config %s: %w", s.Path, err)
	}
	return nil
}

// Reset removes the stored document and restores defaults in reg.
func (s *Store) Reset(reg *Registry) error {
	reg.ResetToDefaults()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error removing rule config %s: %w", s.Path, err)
	}
	return nil
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
