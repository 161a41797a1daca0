package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: queryLogger(nil)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db, DialectSQLite)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db, DialectSQLite)

	func() {
		defer func() { _ = recover() }()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "half"}).Error; err != nil {
				return err
			}
			panic("mid transaction")
		})
	}()

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic to roll back, got %d rows", count)
	}
}

func TestQueryLoggerReportsErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: buf})
	conn, err := gorm.Open(sqlite.Open("file:query_logger?mode=memory"), &gorm.Config{Logger: queryLogger(logg)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	_ = conn.Exec("SELECT * FROM missing_table").Error
	if !strings.Contains(buf.String(), "missing_table") {
		t.Fatalf("expected failed statement in log; entry=%s", buf.String())
	}

	buf.Reset()
	var row testModel
	_ = conn.AutoMigrate(&testModel{})
	_ = conn.First(&row).Error
	if buf.Len() != 0 {
		t.Fatalf("record not found should not be logged; entry=%s", buf.String())
	}
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t), DialectSQLite)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if client.Dialect() != DialectSQLite {
		t.Fatalf("unexpected dialect %s", client.Dialect())
	}
}

func TestNewRequiresDSNOrSQLite(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, false, logger.Nop()); err == nil {
		t.Fatal("expected error without DSN")
	}
	if _, err := New(context.Background(), config.DBConfig{}, true, logger.Nop()); err == nil {
		t.Fatal("expected error without sqlite path")
	}

	client, err := New(context.Background(), config.DBConfig{SQLitePath: "file:new_client?mode=memory"}, true, logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer client.Close()
	if client.Dialect() != DialectSQLite {
		t.Fatalf("unexpected dialect %s", client.Dialect())
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"}
	wrapped := fmt.Errorf("insert: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") || !IsUniqueViolation(wrapped, "products_sku_key") {
		t.Fatal("expected pg unique violation to match")
	}
	if IsUniqueViolation(wrapped, "other_key") {
		t.Fatal("constraint name should be compared")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: products.sku"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}

func TestMapError(t *testing.T) {
	if MapError(nil, "x") != nil {
		t.Fatal("nil should map to nil")
	}
	if !pkgerrors.HasCode(MapError(gorm.ErrRecordNotFound, "product not found"), pkgerrors.CodeNotFound) {
		t.Fatal("expected not found")
	}
	if !pkgerrors.HasCode(MapError(&pgconn.PgError{Code: "23505"}, "x"), pkgerrors.CodeConflict) {
		t.Fatal("expected conflict")
	}
	if !pkgerrors.HasCode(MapError(errors.New("connection refused"), "x"), pkgerrors.CodeDependency) {
		t.Fatal("expected dependency")
	}
}
