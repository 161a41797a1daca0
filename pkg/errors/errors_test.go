package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeAllocation, status: http.StatusUnprocessableEntity, publicMsg: "allocation rejected", detailsOK: true},
		{code: CodeCheckoutBlocked, status: http.StatusUnprocessableEntity, publicMsg: "checkout blocked", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "generate document")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: generate document: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestAsAndHasCodeFollowChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeAllocation, "too many"))
	if got := As(err); got == nil || got.Code() != CodeAllocation {
		t.Fatalf("As failed to return typed error")
	}
	if !HasCode(err, CodeAllocation) {
		t.Fatalf("expected HasCode to match allocation")
	}
	if HasCode(err, CodeValidation) {
		t.Fatalf("unexpected validation match")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCapturesChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("timeout"), "submit order")
	dump := Dump(err)
	if dump.Code != CodeDependency || !dump.Retryable {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
	fields := dump.Fields()
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("pg fields should be omitted without a postgres error")
	}
}

func TestStatusOfAndNewf(t *testing.T) {
	if got := StatusOf(Newf(CodeAllocation, "group %d over assigned", 2)); got != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", got)
	}
	if got := StatusOf(stdErrors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("untyped errors render as 500, got %d", got)
	}
	if got := StatusOf(nil); got != http.StatusOK {
		t.Fatalf("nil error is 200, got %d", got)
	}
	if HasCode(nil, "") {
		t.Fatal("nil error carries no code")
	}
	if msg := Newf(CodeValidation, "quantity %d", 0).Message(); msg != "quantity 0" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDumpReadsPostgresDetailFromBothDrivers(t *testing.T) {
	pgx := Dump(Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "quotes_pkey", TableName: "quotes"}, "save quote"))
	if pgx.Postgres == nil || pgx.Postgres.Constraint != "quotes_pkey" || pgx.Fields()["pg_table"] != "quotes" {
		t.Fatalf("unexpected pgx dump %+v", pgx.Postgres)
	}

	pqDump := Dump(fmt.Errorf("goose up: %w", &pq.Error{Code: "42P01", Table: "products"}))
	if pqDump.Postgres == nil || pqDump.Postgres.Code != "42P01" {
		t.Fatalf("unexpected pq dump %+v", pqDump.Postgres)
	}
	if pqDump.Code != "" || pqDump.Retryable {
		t.Fatalf("untyped chain should carry no code, got %+v", pqDump)
	}
}
