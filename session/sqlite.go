package session

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage on a single-table SQLite database. Group
// writes run inside a transaction, which is what makes the four-key session
// mirror atomic.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the session database at the given path.
// Parent directories are created if needed.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "[NewSQLiteStorage] creating database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSQLiteStorage] opening database")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[NewSQLiteStorage] enabling WAL mode")
	}

	schema := `
		CREATE TABLE IF NOT EXISTS session_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[NewSQLiteStorage] creating schema")
	}

	return &SQLiteStorage{db: db}, nil
}

// Load returns every persisted key/value pair.
func (s *SQLiteStorage) Load() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM session_state")
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteStorage.Load] query")
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "[SQLiteStorage.Load] scan")
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[SQLiteStorage.Load] rows")
	}
	return values, nil
}

// Save replaces the whole key group in one transaction.
func (s *SQLiteStorage) Save(values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "[SQLiteStorage.Save] begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM session_state"); err != nil {
		return errors.Wrap(err, "[SQLiteStorage.Save] delete")
	}
	for k, v := range values {
		if _, err := tx.Exec("INSERT INTO session_state (key, value) VALUES (?, ?)", k, v); err != nil {
			return errors.Wrap(err, "[SQLiteStorage.Save] insert")
		}
	}

	return errors.Wrap(tx.Commit(), "[SQLiteStorage.Save] commit")
}

// Clear removes every persisted key.
func (s *SQLiteStorage) Clear() error {
	_, err := s.db.Exec("DELETE FROM session_state")
	return errors.Wrap(err, "[SQLiteStorage.Clear] delete")
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
