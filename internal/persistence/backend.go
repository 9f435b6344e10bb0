package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Backend stores one opaque save blob.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, blob []byte) error
}

// FileBackend persists the save as a JSON file in a data directory.
type FileBackend struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dataDir string) (*FileBackend, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &FileBackend{dataDir: dataDir}, nil
}

func (f *FileBackend) Path() string {
	return filepath.Join(f.dataDir, Key+".json")
}

func (f *FileBackend) Read(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSave
		}
		return nil, err
	}
	return data, nil
}

// Write replaces the save atomically.
func (f *FileBackend) Write(ctx context.Context, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.Path() + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path())
}

// SQLiteBackend keeps the save in a key/value table.
type SQLiteBackend struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &SQLiteBackend{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *SQLiteBackend) Close() error {
	return db.conn.Close()
}

// DB exposes the connection so other stores can share the file.
func (db *SQLiteBackend) DB() *sqlx.DB { return db.conn }

func (db *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := db.conn.GetContext(ctx, &payload, `SELECT payload FROM saves WHERE key = ?`, Key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return payload, nil
}

func (db *SQLiteBackend) Write(ctx context.Context, blob []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO saves (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		Key, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}
