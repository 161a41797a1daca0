package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{"valid", `{"name":"router","quantity":2}`, false, ""},
		{"missing name", `{"quantity":2}`, true, "name"},
		{"zero quantity", `{"name":"router","quantity":0}`, true, "quantity"},
		{"unknown field", `{"name":"router","quantity":1,"price":1}`, true, ""},
		{"malformed", `{"name":`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest sampleBody
			err := DecodeJSONBody(req, &dest)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tt.field != "" {
				details, ok := typed.Details().(map[string]string)
				if !ok || details[tt.field] == "" {
					t.Fatalf("expected details for %s, got %v", tt.field, typed.Details())
				}
			}
		})
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("groupId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "groupId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(withParam("nope"), "groupId"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseUUIDParam(withParam(""), "groupId"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyShapes(t *testing.T) {
	type inner struct {
		City string `json:"city" validate:"required"`
	}
	type outer struct {
		Address inner `json:"address"`
	}

	cases := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{"empty", "", "request body is required", ""},
		{"trailing document", `{"address":{"city":"Pune"}} {}`, "request body must hold a single JSON object", ""},
		{"nested field", `{"address":{"city":""}}`, "validation failed", "address.city"},
		{"wrong type", `{"address":{"city":7}}`, "wrong JSON type", "address.city"},
		{"unknown", `{"zone":1}`, "unknown field", "zone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest outer
			typed := pkgerrors.As(DecodeJSONBody(req, &dest))
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", typed)
			}
			if typed.Message() != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, typed.Message())
			}
			if tc.field == "" {
				return
			}
			details, _ := typed.Details().(map[string]string)
			if details[tc.field] == "" {
				t.Fatalf("expected details for %s, got %v", tc.field, typed.Details())
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  abc  ", 2, "ab"},
		{" abc ", 0, "abc"},
		{"a\x00b\tc\n", 0, "abc"},
		{"ñandú", 3, "ñan"},
		{"ab cd", 3, "ab"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in, tc.max); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
