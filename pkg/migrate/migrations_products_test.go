package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-checkout/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCatalogMigrationsContainSchemas(t *testing.T) {
	tests := []struct {
		pattern string
		checks  []string
	}{
		{
			pattern: "*_create_products_table.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS products",
				"tags text[] NOT NULL",
				"max_direct_purchase_qty integer",
				"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku",
				"DROP TABLE IF EXISTS products",
			},
		},
		{
			pattern: "*_create_quotes_table.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS quotes",
				"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
				"CHECK (status IN ('pending', 'approved', 'rejected'))",
				"DROP TABLE IF EXISTS quotes",
			},
		},
	}

	for _, tt := range tests {
		content := readMigration(t, tt.pattern)
		for _, sub := range tt.checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", tt.pattern, sub)
			}
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Quote Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_quote_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}

	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for name that sanitizes to nothing")
	}
}

func TestValidateDirRejectsBrokenMigrations(t *testing.T) {
	cases := map[string]string{
		"20260101000000_no_down.sql":    "-- +goose Up\nSELECT 1;\n",
		"20260101000000_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 2;\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := migrate.ValidateDir(dir); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
