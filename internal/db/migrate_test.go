package db

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Name, m.Version, i+1)
		}
	}

	all := ""
	for _, m := range migrations {
		all += m.SQL
	}
	for _, table := range []string{"users", "patients", "doctors", "doctor_coverage_villages", "appointments", "encounters", "event_logs"} {
		if !strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("no migration creates %s", table)
		}
	}
}

func TestLoadMigrations_SortOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_late.sql":  {Data: []byte("SELECT 10;")},
		"m/002_mid.sql":   {Data: []byte("SELECT 2;")},
		"m/001_first.sql": {Data: []byte("SELECT 1;")},
		"m/README.md":     {Data: []byte("ignored")},
	}

	migrations, err := loadMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 10}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
	}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("position %d: got version %d, want %d", i, migrations[i].Version, v)
		}
	}
}

func TestLoadMigrations_Invalid(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no prefix":  {"m/schema.sql": {Data: []byte("")}},
		"bad prefix": {"m/one_schema.sql": {Data: []byte("")}},
		"duplicate":  {"m/001_a.sql": {Data: []byte("")}, "m/001_b.sql": {Data: []byte("")}},
	}
	for name, fsys := range tests {
		if _, err := loadMigrations(fsys, "m"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
