// Package history keeps the user's command history: an in-memory list
// for recall navigation, optionally persisted across sessions in
// SQLite.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	cmd        TEXT    NOT NULL,
	entered_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commands_entered_at ON commands(entered_at);
`

// Store persists commands in SQLite. Safe for use from the session
// goroutine only.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
}

// OpenStore opens (or creates) the history database at path.
// Use ":memory:" for tests.
func OpenStore(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history db at %s: %w", path, err)
	}

	// SQLite supports one writer; the session is the only client anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO commands (cmd, entered_at) VALUES (?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing history insert: %w", err)
	}

	return &Store{db: db, stmtInsert: stmt}, nil
}

// Append records a command.
func (s *Store) Append(cmd string) error {
	if _, err := s.stmtInsert.Exec(cmd, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("inserting command: %w", err)
	}
	return nil
}

// Recent returns the n most recent commands, oldest first.
func (s *Store) Recent(n int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT cmd FROM (
			SELECT id, cmd FROM commands ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`, n)
	if err != nil {
		return nil, fmt.Errorf("querying recent commands: %w", err)
	}
	defer rows.Close()

	var cmds []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, fmt.Errorf("scanning command row: %w", err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

// Prune deletes everything but the keep most recent commands.
func (s *Store) Prune(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM commands WHERE id NOT IN (
			SELECT id FROM commands ORDER BY id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return nil
}

// Close shuts down the database.
func (s *Store) Close() error {
	if s.stmtInsert != nil {
		s.stmtInsert.Close()
	}
	return s.db.Close()
}
