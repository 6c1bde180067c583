package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const createItemTableSQL = `
CREATE TABLE IF NOT EXISTS ItemTable (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// CreateInMemoryDB creates an in-memory SQLite database with an empty ItemTable
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createItemTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create ItemTable: %v", err)
	}

	return db
}

// CreateTestDB creates an in-memory database with a session, one dialog and its messages
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	items := []struct {
		key   string
		value string
	}{
		{
			key:   "session:current",
			value: `{"id":"1","username":"alice","fullName":"Alice Smith","role":"employee","isAuthenticated":true}`,
		},
		{
			key:   "dialogs:1",
			value: `[{"id":"dialog1","title":"hello","userId":"1","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:01Z"}]`,
		},
		{
			key:   "messages:dialog1",
			value: `[{"id":"m1","dialogId":"dialog1","content":"hello","role":"user","timestamp":"2024-01-01T00:00:00Z"},{"id":"m2","dialogId":"dialog1","content":"hi","role":"assistant","timestamp":"2024-01-01T00:00:01Z"}]`,
		},
		{
			key:   "dialogs:2",
			value: `[]`,
		},
	}

	stmt, err := db.Prepare("INSERT INTO ItemTable (key, value) VALUES (?, ?)")
	if err != nil {
		db.Close()
		t.Fatalf("Failed to prepare insert statement: %v", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(item.key, item.value); err != nil {
			db.Close()
			t.Fatalf("Failed to insert %s: %v", item.key, err)
		}
	}

	return db
}

// InsertItem inserts a raw key/value row
func InsertItem(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO ItemTable (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
}
