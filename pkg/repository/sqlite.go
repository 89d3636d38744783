package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLite stores the serialized history as a single row of a key/value table
type SQLite struct {
	conn *sql.DB
	path string
	key  string
}

var _ interfaces.HistoryRepository = (*SQLite)(nil)

// DefaultDataDir returns the data directory following the XDG spec.
// XDG_DATA_HOME is read at call time so tests can override it.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "emotion")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "history.db")
}

// NewSQLite opens or creates the database at path. key selects the row holding the history.
func NewSQLite(path, key string) (*SQLite, error) {
	if key == "" {
		key = DefaultKey
	}

	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("path", path))
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}
	// :memory: databases are per connection
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, goerr.Wrap(err, "failed to ping database", goerr.V("path", path))
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, goerr.Wrap(err, "failed to initialize schema", goerr.V("path", path))
	}

	return &SQLite{conn: conn, path: path, key: key}, nil
}

func (s *SQLite) LoadPredictions(ctx context.Context) ([]*model.Prediction, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []*model.Prediction{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query history", goerr.V("key", s.key))
	}

	return Decode([]byte(value))
}

func (s *SQLite) SavePredictions(ctx context.Context, preds []*model.Prediction) error {
	data, err := Encode(preds)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to save history", goerr.V("key", s.key))
	}
	return nil
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
