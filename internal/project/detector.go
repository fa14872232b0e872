// Package project locates the root of a classlint project.
package project

import (
	"os"
	"path/filepath"
)

// Markers identify a project root, checked in order.
var Markers = []string{
	".classlintrc.json",
	".classlintrc.yaml",
	".classlintrc.yml",
	".classlint-rules.json",
	".git",
	"package.json",
	"go.mod",
}

// Info contains information about the detected project.
// Named 'Info' instead of 'ProjectInfo' to avoid stuttering (project.Info vs project.ProjectInfo).
type Info struct {
	Root      string
	HasConfig bool
	HasRules  bool
	HasGit    bool
	Markers   []string
}

// FindProjectRoot searches for a project root starting from the given path
// and climbing up the directory tree if needed.
func FindProjectRoot(startPath string) (string, error) {
	if startPath == "" {
		startPath = "."
	}
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	// A file argument starts the search from its directory
	if info, statErr := os.Stat(absPath); statErr == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	currentDir := absPath
	for {
		if isProjectRoot(currentDir) {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			// Reached filesystem root
			break
		}
		currentDir = parent
	}

	// Default to the start directory if no project root found
	return absPath, nil
}

func isProjectRoot(path string) bool {
	return len(presentMarkers(path)) > 0
}

func presentMarkers(path string) []string {
	var found []string
	for _, m := range Markers {
		if _, err := os.Stat(filepath.Join(path, m)); err == nil {
			found = append(found, m)
		}
	}
	return found
}

// Detect detects project information at the given path.
// Named 'Detect' instead of 'DetectProjectInfo' to avoid stuttering.
func Detect(rootPath string) (*Info, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	info := &Info{Root: absPath, Markers: presentMarkers(absPath)}
	for _, m := range info.Markers {
		switch m {
		case ".classlintrc.json", ".classlintrc.yaml", ".classlintrc.yml":
			info.HasConfig = true
		case ".classlint-rules.json":
			info.HasRules = true
		case ".git":
			info.HasGit = true
		}
	}
	return info, nil
}
