package memory_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestSQLiteSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smoke.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("failed to enable WAL mode: %v", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected WAL mode, got %q", mode)
	}
}

func TestJSONEachSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "json.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE docs (id INTEGER PRIMARY KEY, tags TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO docs (tags) VALUES ('["llm","rag"]'), ('["quantum"]'), ('[]')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var n int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM docs WHERE EXISTS (SELECT 1 FROM json_each(docs.tags) WHERE json_each.value IN (?, ?))`,
		"rag", "quantum",
	).Scan(&n)
	if err != nil {
		t.Fatalf("json_each query: %v", err)
	}
	if n != 2 {
		t.Errorf("matched %d rows, want 2", n)
	}
}

func TestForeignKeyCascadeSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fk.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE parents (id INTEGER PRIMARY KEY);
		CREATE TABLE children (
			id        INTEGER PRIMARY KEY,
			parent_id INTEGER REFERENCES parents(id) ON DELETE CASCADE
		);
		INSERT INTO parents (id) VALUES (1), (2);
		INSERT INTO children (parent_id) VALUES (1), (1), (2);
	`)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM parents WHERE id = 1`); err != nil {
		t.Fatalf("delete parent: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM children`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("children left = %d, want 1", n)
	}
}
