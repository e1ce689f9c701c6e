package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cord/internal/domain"
	domainerrors "cord/pkg/domain-errors"
)

// categoryKey is the reserved row key for the category id. Logical channel
// keys never collide with it because layout keys are plain words.
const categoryKey = "__category__"

// SQLiteStore persists the topology record in a single small table. WAL
// mode plus a busy timeout keeps concurrent field updates from the
// reconciler's per-key goroutines safe without explicit locking.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the record database and initializes the
// schema, creating parent directories as needed.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topology (
		key        TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the whole record. Returns (nil, nil) when no row exists yet.
func (s *SQLiteStore) Load(ctx context.Context) (*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, channel_id FROM topology`)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load topology record")
	}
	defer rows.Close()

	record := NewRecord()
	found := false
	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "scan topology row")
		}
		found = true
		if key == categoryKey {
			record.CategoryID = domain.ChannelID(id)
		} else {
			record.Channels[key] = domain.ChannelID(id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "iterate topology rows")
	}
	if !found {
		return nil, nil
	}
	return record, nil
}

// SetCategoryID persists the canonical category id.
func (s *SQLiteStore) SetCategoryID(ctx context.Context, id domain.ChannelID) error {
	return s.upsert(ctx, categoryKey, id)
}

// SetChannelID persists the channel id for one logical key.
func (s *SQLiteStore) SetChannelID(ctx context.Context, key string, id domain.ChannelID) error {
	if key == "" || key == categoryKey {
		return domainerrors.New(domainerrors.CodeInvalidInput, "invalid channel key")
	}
	return s.upsert(ctx, key, id)
}

func (s *SQLiteStore) upsert(ctx context.Context, key string, id domain.ChannelID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topology (key, channel_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET channel_id = excluded.channel_id, updated_at = excluded.updated_at`,
		key, string(id), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "persist topology field")
	}
	return nil
}

var _ RecordStore = (*SQLiteStore)(nil)
