// Package git lists site exports with uncommitted changes so that a run
// can be limited to what is about to be committed.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// MatchFunc reports whether a slash-separated path relative to the project
// root is a site export.
type MatchFunc func(relPath string) bool

// StagedFiles returns absolute paths of staged site exports under rootPath.
// Returns an empty slice if rootPath is not in a git repository.
func StagedFiles(rootPath string, match MatchFunc) ([]string, error) {
	if !IsRepo(rootPath) {
		return []string{}, nil
	}

	output, err := run(rootPath, "diff", "--name-only", "--relative", "--staged")
	if err != nil {
		return nil, err
	}
	return filterFiles(output, rootPath, match), nil
}

// ChangedFiles returns absolute paths of site exports with staged or
// unstaged changes. In a repository without commits every tracked export
// counts as changed. Returns an empty slice outside a git repository.
func ChangedFiles(rootPath string, match MatchFunc) ([]string, error) {
	if !IsRepo(rootPath) {
		return []string{}, nil
	}

	head := exec.Command("git", "rev-parse", "HEAD")
	head.Dir = rootPath
	if err := head.Run(); err != nil {
		output, err := run(rootPath, "ls-files")
		if err != nil {
			return nil, err
		}
		return filterFiles(output, rootPath, match), nil
	}

	output, err := run(rootPath, "diff", "--name-only", "--relative", "HEAD")
	if err != nil {
		return nil, err
	}
	return filterFiles(output, rootPath, match), nil
}

// IsRepo reports whether rootPath is inside a git work tree.
func IsRepo(rootPath string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = rootPath
	return cmd.Run() == nil
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, output)
	}
	return string(output), nil
}

// filterFiles keeps existing paths accepted by match and returns them as
// absolute paths. Deleted files are reported by git but skipped here.
func filterFiles(gitOutput, rootPath string, match MatchFunc) []string {
	files := []string{}
	for _, line := range strings.Split(strings.TrimSpace(gitOutput), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if match != nil && !match(filepath.ToSlash(line)) {
			continue
		}
		absPath := filepath.Join(rootPath, line)
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			continue
		}
		files = append(files, absPath)
	}
	return files
}
