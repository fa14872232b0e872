// Package discovery finds site export files under a project root.
package discovery

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude are the patterns searched when none are configured.
var DefaultInclude = []string{"**/*.site.json", "**/*.site.yaml", "**/*.site.yml"}

// Format is the encoding of an export file.
type Format string

// Export formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat returns the format of path from its extension.
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case "":
		return "", fmt.Errorf("unsupported file: %s has no extension. classlint reads .json and .yaml exports only", filepath.Base(path))
	default:
		return "", fmt.Errorf("unsupported file type: %s. classlint reads .json and .yaml exports only", ext)
	}
}

// ValidateFilePath performs comprehensive validation of a file path for linting.
//
// This function checks all preconditions required before linting a file:
//   - File exists
//   - Path is a file (not directory)
//   - File is not empty
//   - File is not binary
//
// Returns descriptive errors for each failure mode to guide user action.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Lstat(absPath) // Lstat to detect symlinks
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		realPath, evalErr := filepath.EvalSymlinks(absPath)
		if evalErr != nil {
			return "", fmt.Errorf("cannot resolve symlink %s: %w", absPath, evalErr)
		}
		absPath = realPath
		info, err = os.Stat(absPath)
		if err != nil {
			return "", fmt.Errorf("symlink target inaccessible: %s: %w", absPath, err)
		}
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file is empty: %s", absPath)
	}
	if _, err := DetectFormat(absPath); err != nil {
		return "", err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	// Read first 512 bytes for binary detection
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

// File represents a discovered export file.
type File struct {
	Path    string
	RelPath string
	Size    int64
	Format  Format
}

// FileDiscovery manages file discovery operations
type FileDiscovery struct {
	rootPath       string
	include        []string
	exclude        []string
	followSymlinks bool
}

// NewFileDiscovery creates a FileDiscovery. Empty include means DefaultInclude.
func NewFileDiscovery(rootPath string, include, exclude []string, followSymlinks bool) *FileDiscovery {
	if len(include) == 0 {
		include = DefaultInclude
	}
	return &FileDiscovery{
		rootPath:       rootPath,
		include:        include,
		exclude:        exclude,
		followSymlinks: followSymlinks,
	}
}

// Root returns the discovery root.
func (fd *FileDiscovery) Root() string {
	return fd.rootPath
}

// DiscoverFiles finds every export under the root that matches an include
// pattern and no exclude pattern, sorted by relative path.
func (fd *FileDiscovery) DiscoverFiles() ([]File, error) {
	seen := make(map[string]bool)
	var files []File

	for _, pattern := range fd.include {
		// Use doublestar for glob matching with ** patterns
		matches, err := doublestar.Glob(os.DirFS(fd.rootPath), pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", pattern, err)
		}
		for _, match := range matches {
			if seen[match] || fd.excluded(match) {
				continue
			}
			if f, ok := fd.processMatch(match); ok {
				seen[match] = true
				files = append(files, f)
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Matches reports whether relPath would be discovered by the patterns.
func (fd *FileDiscovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if fd.excluded(relPath) {
		return false
	}
	for _, pattern := range fd.include {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

func (fd *FileDiscovery) excluded(relPath string) bool {
	for _, pattern := range fd.exclude {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// processMatch converts a glob match into a File, returning false if the match should be skipped.
func (fd *FileDiscovery) processMatch(match string) (File, bool) {
	fullPath := filepath.Join(fd.rootPath, match)

	info, err := os.Lstat(fullPath)
	if err != nil {
		return File{}, false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, resolvedInfo, ok := fd.resolveSymlink(fullPath)
		if !ok {
			return File{}, false
		}
		fullPath = resolved
		info = resolvedInfo
	}
	if info.IsDir() {
		return File{}, false
	}

	format, err := DetectFormat(fullPath)
	if err != nil {
		return File{}, false
	}

	return File{
		Path:    fullPath,
		RelPath: filepath.ToSlash(match),
		Size:    info.Size(),
		Format:  format,
	}, true
}

// resolveSymlink follows a symlink if configured, returning the resolved path and info.
// Returns false if the symlink should be skipped.
func (fd *FileDiscovery) resolveSymlink(fullPath string) (string, os.FileInfo, bool) {
	if !fd.followSymlinks {
		return "", nil, false
	}

	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return "", nil, false
	}

	root, err := filepath.EvalSymlinks(fd.rootPath)
	if err != nil {
		root = fd.rootPath
	}
	if !strings.HasPrefix(realPath, root) {
		return "", nil, false
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", nil, false
	}

	return realPath, info, true
}
