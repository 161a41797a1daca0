package migrate

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Add Quote Notes!", "add_quote_notes"},
		{"  products--index  ", "products_index"},
		{"café tags", "caf_tags"},
		{"2026 backfill", "2026_backfill"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateSQLMigrationRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "seed", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260301120000_seed.sql" {
		t.Fatalf("unexpected filename %s", path)
	}
	if _, err := createSQLMigration(dir, "seed", now); err == nil {
		t.Fatal("expected existing migration to be kept")
	}
}
