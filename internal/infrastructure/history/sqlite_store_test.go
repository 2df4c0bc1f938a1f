package history

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAppendAndCount(t *testing.T) {
	store := newTestStore(t)

	for _, cmd := range []string{"ls", "pwd", "ls"} {
		if err := store.Append(cmd, "capture"); err != nil {
			t.Fatalf("Append(%q) error: %v", cmd, err)
		}
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestStoreSkipsEmptyCommands(t *testing.T) {
	store := newTestStore(t)

	if err := store.Append("   ", "capture"); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestStoreCommandsDeduplicatesPreservingFirstSeen(t *testing.T) {
	store := newTestStore(t)

	for _, cmd := range []string{"ls", "pwd", "ls", "git status", "pwd"} {
		if err := store.Append(cmd, "capture"); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	commands, err := store.Commands(0)
	if err != nil {
		t.Fatalf("Commands error: %v", err)
	}
	want := []string{"ls", "pwd", "git status"}
	if len(commands) != len(want) {
		t.Fatalf("commands = %#v, want %v", commands, want)
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Fatalf("commands = %#v, want %v", commands, want)
		}
	}
}

func TestStoreCommandsHonorsLimit(t *testing.T) {
	store := newTestStore(t)

	for _, cmd := range []string{"one", "two", "three"} {
		if err := store.Append(cmd, "capture"); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	commands, err := store.Commands(2)
	if err != nil {
		t.Fatalf("Commands error: %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("commands = %#v, want 2 entries", commands)
	}
}

func TestImportFileParsesPlainAndZshFormats(t *testing.T) {
	store := newTestStore(t)

	historyFile := filepath.Join(t.TempDir(), "zsh_history")
	content := "ls -la\n" +
		": 1700000000:0;git status\n" +
		"\n" +
		"# a comment line\n" +
		"docker ps\n"
	if err := os.WriteFile(historyFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write history file: %v", err)
	}

	n, err := store.ImportFile(historyFile, "import")
	if err != nil {
		t.Fatalf("ImportFile error: %v", err)
	}
	if n != 3 {
		t.Fatalf("imported = %d, want 3", n)
	}

	commands, err := store.Commands(0)
	if err != nil {
		t.Fatalf("Commands error: %v", err)
	}
	want := []string{"ls -la", "git status", "docker ps"}
	for i := range want {
		if commands[i] != want[i] {
			t.Fatalf("commands = %#v, want %v", commands, want)
		}
	}
}

func TestImportFileSkipsLikelySecrets(t *testing.T) {
	store := newTestStore(t)

	historyFile := filepath.Join(t.TempDir(), "history")
	content := "ls\n" +
		"export GITHUB_TOKEN=ghp_abc123\n" +
		"curl -H 'Authorization: Bearer xyz' https://api.example.com\n" +
		"mysql -u root password=hunter2\n" +
		"pwd\n"
	if err := os.WriteFile(historyFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write history file: %v", err)
	}

	n, err := store.ImportFile(historyFile, "import")
	if err != nil {
		t.Fatalf("ImportFile error: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported = %d, want 2 (secrets skipped)", n)
	}

	commands, err := store.Commands(0)
	if err != nil {
		t.Fatalf("Commands error: %v", err)
	}
	for _, cmd := range commands {
		if cmd != "ls" && cmd != "pwd" {
			t.Fatalf("secret-bearing command imported: %q", cmd)
		}
	}
}
