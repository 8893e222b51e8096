package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a single SQLite output database. Every write transaction takes an
// exclusive lock (_txlock=exclusive), so a flush never interleaves with
// another writer on the same file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000&_txlock=exclusive"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// OpenReadOnly opens an existing database at dbPath for reading. No schema is
// created and every write through the handle fails.
func OpenReadOnly(dbPath string) (*Store, error) {
	dsn := "file:" + dbPath + "?mode=ro&_busy_timeout=30000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for read-only inspection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate creates the metadata table plus the given schema. Idempotent.
func (s *Store) migrate(ddl string) error {
	if _, err := s.db.Exec(metadataDDL + ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const metadataDDL = `
CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);
`

// SetMetadata stores a key/value pair, replacing any previous value.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value for key, or "" if unset.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// CountRows returns the number of rows in table. table must be one of the
// store's own table names.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// execBatch runs query once per argument list inside a single transaction
// using one prepared statement.
func execBatch(ctx context.Context, tx *sql.Tx, query string, argsList [][]any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, args := range argsList {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
