package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func siteExport(rel string) bool {
	return strings.HasSuffix(rel, ".site.json") || strings.HasSuffix(rel, ".site.yaml")
}

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", p, err)
		}
		if err := os.WriteFile(full, []byte("{}"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
}

// initRepo creates a git repository in a temp dir, skipping when git is
// not installed.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available, skipping integration test")
	}
	dir := t.TempDir()
	gitRun(t, dir, "init")
	gitRun(t, dir, "config", "user.email", "test@test.com")
	gitRun(t, dir, "config", "user.name", "Test User")
	return dir
}

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v: %s", args, err, out)
	}
}

func TestFilterFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "pages/home.site.json", "pages/about.site.yaml", "README.md")

	gitOutput := "pages/home.site.json\npages/about.site.yaml\nREADME.md\npages/deleted.site.json\n"
	got := filterFiles(gitOutput, tmpDir, siteExport)

	want := []string{
		filepath.Join(tmpDir, "pages/home.site.json"),
		filepath.Join(tmpDir, "pages/about.site.yaml"),
	}
	if len(got) != len(want) {
		t.Fatalf("filterFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("filterFiles()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFilterFiles_EdgeCases(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "home.site.json")

	tests := []struct {
		name   string
		output string
		match  MatchFunc
		want   int
	}{
		{"empty output", "", siteExport, 0},
		{"blank lines", "\n\n  \n", siteExport, 0},
		{"surrounding whitespace", "  home.site.json  \n", siteExport, 1},
		{"nil matcher keeps everything", "home.site.json\n", nil, 1},
		{"matcher rejects", "home.site.json\n", func(string) bool { return false }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterFiles(tt.output, tmpDir, tt.match)
			if got == nil {
				t.Fatal("filterFiles() returned nil, want empty slice")
			}
			if len(got) != tt.want {
				t.Errorf("filterFiles() returned %d files, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestNonRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	if IsRepo(dir) {
		t.Skip("temp dir is inside a git work tree")
	}

	staged, err := StagedFiles(dir, siteExport)
	if err != nil || len(staged) != 0 {
		t.Errorf("StagedFiles() = %v, %v; want empty, nil", staged, err)
	}
	changed, err := ChangedFiles(dir, siteExport)
	if err != nil || len(changed) != 0 {
		t.Errorf("ChangedFiles() = %v, %v; want empty, nil", changed, err)
	}
}

func TestStagedFiles(t *testing.T) {
	dir := initRepo(t)
	writeFiles(t, dir, "pages/home.site.json", "pages/draft.site.json", "notes.md")
	gitRun(t, dir, "add", "pages/home.site.json", "notes.md")

	files, err := StagedFiles(dir, siteExport)
	if err != nil {
		t.Fatalf("StagedFiles() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "home.site.json" {
		t.Errorf("StagedFiles() = %v, want only home.site.json", files)
	}
}

func TestChangedFiles_NoCommits(t *testing.T) {
	dir := initRepo(t)
	writeFiles(t, dir, "home.site.json", "untracked.site.json")
	gitRun(t, dir, "add", "home.site.json")

	files, err := ChangedFiles(dir, siteExport)
	if err != nil {
		t.Fatalf("ChangedFiles() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "home.site.json" {
		t.Errorf("ChangedFiles() = %v, want tracked home.site.json", files)
	}
}

func TestChangedFiles_WithCommits(t *testing.T) {
	dir := initRepo(t)
	writeFiles(t, dir, "home.site.json", "about.site.json")
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-m", "Initial commit")

	if err := os.WriteFile(filepath.Join(dir, "about.site.json"), []byte(`{"page":"about"}`), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ChangedFiles(dir, siteExport)
	if err != nil {
		t.Fatalf("ChangedFiles() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "about.site.json" {
		t.Errorf("ChangedFiles() = %v, want only about.site.json", files)
	}
}

func TestChangedFiles_Subdirectory(t *testing.T) {
	dir := initRepo(t)
	writeFiles(t, dir, "site/home.site.json", "other/ignored.site.json")
	gitRun(t, dir, "add", ".")

	files, err := StagedFiles(filepath.Join(dir, "site"), siteExport)
	if err != nil {
		t.Fatalf("StagedFiles() error = %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(dir, "site", "home.site.json") {
		t.Errorf("StagedFiles() = %v, want site/home.site.json", files)
	}
}
