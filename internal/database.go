package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createItemTableSQL = `
CREATE TABLE IF NOT EXISTS ItemTable (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// OpenDatabase opens (creating if needed) a SQLite database holding ItemTable
func OpenDatabase(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(createItemTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ItemTable: %w", err)
	}

	return db, nil
}

// QueryItemTable returns all non-null entries whose key starts with prefix
func QueryItemTable(db *sql.DB, prefix string) ([]KeyValuePair, error) {
	query := "SELECT key, value FROM ItemTable WHERE substr(key, 1, ?) = ? AND value IS NOT NULL ORDER BY key"
	rows, err := db.Query(query, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// SQLiteStore is a KVStore backed by ItemTable
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Op: "open", Key: path, Err: err}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an already opened database. The table must exist.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Path returns the database file path, empty for wrapped handles
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM ItemTable WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: key, Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

const upsertItemSQL = "INSERT INTO ItemTable (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"

func (s *SQLiteStore) Set(key, value string) error {
	if _, err := s.db.Exec(upsertItemSQL, key, value); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM ItemTable WHERE key = ?", key); err != nil {
		return &StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// WriteBatch applies all writes in a single transaction
func (s *SQLiteStore) WriteBatch(sets []KeyValuePair, removes []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "batch", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range sets {
		if _, err := tx.Exec(upsertItemSQL, p.Key, p.Value); err != nil {
			return &StorageError{Op: "batch", Key: p.Key, Err: err}
		}
	}
	for _, key := range removes {
		if _, err := tx.Exec("DELETE FROM ItemTable WHERE key = ?", key); err != nil {
			return &StorageError{Op: "batch", Key: key, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "batch", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	pairs, err := QueryItemTable(s.db, prefix)
	if err != nil {
		return nil, &StorageError{Op: "keys", Key: prefix, Err: err}
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.Key)
	}
	return keys, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
