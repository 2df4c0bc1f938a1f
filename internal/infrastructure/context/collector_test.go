package contextcollector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/cmdsense/internal/domain"
)

func newTestCollector() *Collector {
	return NewCollector(domain.ContextSettings{
		MaxRecentCommands: 10,
		FileTypesLimit:    20,
		ProbeTimeoutMS:    2000,
	})
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCollectNonGitDirectoryIsNeutral(t *testing.T) {
	dir := t.TempDir()
	c := newTestCollector()

	got := c.Collect(context.Background(), domain.ContextRequest{CWD: dir})
	if got.Git.IsGitRepo {
		t.Fatalf("temp dir reported as git repo: %+v", got.Git)
	}
	if got.Git.Branch != "" || got.Git.HasUncommittedChanges {
		t.Fatalf("expected neutral git info, got %+v", got.Git)
	}
	if got.CWD != dir {
		t.Fatalf("cwd = %q, want %q", got.CWD, dir)
	}
	if got.CWDBasename != filepath.Base(dir) {
		t.Fatalf("basename = %q, want %q", got.CWDBasename, filepath.Base(dir))
	}
}

func TestCollectDirectoryTags(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "go.mod")
	touch(t, dir, "Dockerfile")
	touch(t, dir, "main.tf")

	got := newTestCollector().Collect(context.Background(), domain.ContextRequest{CWD: dir})

	want := map[string]bool{"go": true, "docker": true, "terraform": true}
	if len(got.DirectoryTags) != len(want) {
		t.Fatalf("tags = %#v, want %v", got.DirectoryTags, want)
	}
	for _, tag := range got.DirectoryTags {
		if !want[tag] {
			t.Fatalf("unexpected tag %q in %#v", tag, got.DirectoryTags)
		}
	}
}

func TestCollectFileTypeCensus(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.go")
	touch(t, dir, "b.go")
	touch(t, dir, "c.md")
	touch(t, dir, "Makefile")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, dir, filepath.Join("sub", "nested.py"))

	got := newTestCollector().Collect(context.Background(), domain.ContextRequest{CWD: dir})

	if got.FileTypes[".go"] != 2 {
		t.Fatalf(".go count = %d, want 2 (%#v)", got.FileTypes[".go"], got.FileTypes)
	}
	if got.FileTypes[".md"] != 1 {
		t.Fatalf(".md count = %d, want 1", got.FileTypes[".md"])
	}
	if got.FileTypes["no_extension"] != 1 {
		t.Fatalf("no_extension count = %d, want 1", got.FileTypes["no_extension"])
	}
	// The census is top-level only.
	if _, ok := got.FileTypes[".py"]; ok {
		t.Fatalf("nested file leaked into census: %#v", got.FileTypes)
	}
}

func TestCollectFileTypeCensusHonorsLimit(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.go")
	touch(t, dir, "b.go")
	touch(t, dir, "c.md")
	touch(t, dir, "d.txt")

	c := NewCollector(domain.ContextSettings{FileTypesLimit: 2, MaxRecentCommands: 10, ProbeTimeoutMS: 2000})
	got := c.Collect(context.Background(), domain.ContextRequest{CWD: dir})

	if len(got.FileTypes) != 2 {
		t.Fatalf("expected 2 extensions, got %#v", got.FileTypes)
	}
	if got.FileTypes[".go"] != 2 {
		t.Fatalf("most frequent extension missing: %#v", got.FileTypes)
	}
}

func TestCollectBoundsRecentCommands(t *testing.T) {
	c := NewCollector(domain.ContextSettings{MaxRecentCommands: 3, FileTypesLimit: 20, ProbeTimeoutMS: 2000})

	recent := []string{"one", "two", "three", "four", "five"}
	got := c.Collect(context.Background(), domain.ContextRequest{CWD: t.TempDir(), RecentCommands: recent})

	if len(got.RecentCommands) != 3 {
		t.Fatalf("recent = %#v, want last 3", got.RecentCommands)
	}
	// The tail is kept; the last entry stays the most recent.
	if got.RecentCommands[0] != "three" || got.RecentCommands[2] != "five" {
		t.Fatalf("recent = %#v, want [three four five]", got.RecentCommands)
	}
}

func TestCollectPassesThroughShellState(t *testing.T) {
	exitCode := 127
	got := newTestCollector().Collect(context.Background(), domain.ContextRequest{
		CWD:          t.TempDir(),
		LastCommand:  "rg pattern",
		LastExitCode: &exitCode,
	})
	if got.LastCommand != "rg pattern" {
		t.Fatalf("last command = %q", got.LastCommand)
	}
	if got.LastExitCode == nil || *got.LastExitCode != 127 {
		t.Fatalf("last exit code = %v", got.LastExitCode)
	}
}
