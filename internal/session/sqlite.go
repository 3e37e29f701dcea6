package session

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store and Prefs on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Prefs = (*SQLiteStore)(nil)
)

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("state db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	token TEXT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS view_prefs (
	view TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *SQLiteStore) Load() (Session, error) {
	var sess Session
	var saved string
	err := s.db.QueryRow(`SELECT token, username, email, saved_at FROM session WHERE id = 1;`).
		Scan(&sess.Token, &sess.Username, &sess.Email, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	if t, err := time.Parse(time.RFC3339, saved); err == nil {
		sess.SavedAt = t
	}
	return sess, nil
}

func (s *SQLiteStore) Save(sess Session) error {
	if sess.Token == "" {
		return errors.New("session token is empty")
	}
	if sess.SavedAt.IsZero() {
		sess.SavedAt = time.Now()
	}
	_, err := s.db.Exec(`
INSERT INTO session (id, token, username, email, saved_at) VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET token = excluded.token, username = excluded.username,
	email = excluded.email, saved_at = excluded.saved_at;`,
		sess.Token, sess.Username, sess.Email, sess.SavedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM session;`)
	return err
}

func (s *SQLiteStore) ViewState(view string) ([]byte, error) {
	var state string
	err := s.db.QueryRow(`SELECT state FROM view_prefs WHERE view = ?;`, view).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(state), nil
}

func (s *SQLiteStore) SaveViewState(view string, state []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
INSERT INTO view_prefs (view, state, updated_at) VALUES (?, ?, ?)
ON CONFLICT(view) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at;`,
		view, string(state), now)
	return err
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
