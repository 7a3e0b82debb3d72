package database

import (
	"strings"
	"testing"
)

// 埋め込まれたマイグレーションがup/downのペアで揃っていることを検証
func TestMigrationsFS_UpDownPairs(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one migration file")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file name: %s", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down counterpart", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %s has no up counterpart", base)
		}
	}
}

// 初期マイグレーションに必要なテーブルが含まれることを検証
func TestMigrations_ContainExpectedTables(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/000001_create_auth_tables.up.sql")
	if err != nil {
		t.Fatalf("failed to read auth migration: %v", err)
	}
	sqlText := string(data)
	for _, table := range []string{"users", "identities", "sessions"} {
		if !strings.Contains(sqlText, "CREATE TABLE "+table) {
			t.Errorf("auth migration should create table %s", table)
		}
	}

	data, err = migrationsFS.ReadFile("migrations/000002_create_notes.up.sql")
	if err != nil {
		t.Fatalf("failed to read notes migration: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE notes") {
		t.Error("notes migration should create table notes")
	}
}
