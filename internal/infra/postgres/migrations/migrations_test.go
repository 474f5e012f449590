package migrations

import (
	"strings"
	"testing"
)

func TestQuizTablesMigrationRegistered(t *testing.T) {
	sorted := Migrations.Sorted()
	if len(sorted) != 1 {
		t.Fatalf("expected one migration, got %d", len(sorted))
	}
	if sorted[0].Name != "2026101701" || sorted[0].Comment != "create_quiz_tables" {
		t.Fatalf("unexpected migration %s_%s", sorted[0].Name, sorted[0].Comment)
	}
	for _, table := range []string{"question_banks", "leaderboard_entries"} {
		if !strings.Contains(createQuizTablesSQL, table) {
			t.Fatalf("migration does not create %s", table)
		}
	}
}
