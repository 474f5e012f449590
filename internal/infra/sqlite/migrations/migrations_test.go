package migrations_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"quiz-chatbot/internal/infra/sqlite/migrations"
)

func TestMigrationsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	for i := 0; i < 2; i++ {
		if err := migrations.Run(db); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", "leaderboard_entries").Scan(&name)
	if err != nil {
		t.Fatalf("leaderboard table not found: %v", err)
	}
}
