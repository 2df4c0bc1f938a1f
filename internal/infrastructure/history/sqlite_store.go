// Package history persists captured shell commands and feeds index
// construction.
package history

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/cmdsense/internal/ports"
)

// SQLiteStore persists command history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		command TEXT NOT NULL,
		source TEXT
	);`)
	return err
}

// Append inserts a new command record.
func (s *SQLiteStore) Append(command, source string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO commands (timestamp, command, source) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), command, source,
	)
	return err
}

// Commands returns distinct commands, first occurrence order preserved.
// limit 0 means no limit.
func (s *SQLiteStore) Commands(limit int) ([]string, error) {
	query := `SELECT command FROM commands GROUP BY command ORDER BY MIN(id)`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, rows.Err()
}

// Count reports the total number of stored records.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM commands`).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// zsh extended history lines look like ": 1700000000:0;git status".
var zshExtendedPrefix = regexp.MustCompile(`^:\s*\d+:\d+;`)

// secretPattern flags commands that likely carry credentials; those are
// never imported.
var secretPattern = regexp.MustCompile(`(?i)(password|passwd|secret|token|api[_-]?key|authorization)\s*[=:]\s*\S|\bexport\s+\w*(KEY|TOKEN|SECRET|PASSWORD)\w*=`)

// ImportFile reads a shell history file (plain bash format or zsh
// extended format) and appends its commands. Blank lines, comments and
// likely-secret entries are skipped. Returns the number imported.
func (s *SQLiteStore) ImportFile(path, source string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	imported := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = zshExtendedPrefix.ReplaceAllString(line, "")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if secretPattern.MatchString(line) {
			continue
		}
		if err := s.Append(line, source); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, scanner.Err()
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
