package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend keeps slots as rows of a single table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		blob BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Load(ctx context.Context, slot string) ([]byte, error) {
	var blob []byte
	err := b.db.QueryRowContext(ctx, `SELECT blob FROM slots WHERE name = ?`, slot).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("query slot: %w", err)
	}
	return blob, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, slot string, blob []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO slots (name, blob, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated_at = CURRENT_TIMESTAMP`,
		slot, blob)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, slot string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, slot); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func sqlitePath(opts Options) (string, error) {
	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		return dsn, nil
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return "", fmt.Errorf("state dir is empty")
	}
	return filepath.Join(opts.Dir, "state.db"), nil
}
