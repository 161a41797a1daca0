package postal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

func TestLookupRequest(t *testing.T) {
	const expectedURL = "http://postal.test/pincode/560001"
	respBody := `[{"Status":"Success","PostOffice":[{"District":"Bangalore","State":"Karnataka"},{"District":"Other","State":"Other"}]}]`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", req.Method)
		}
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client := NewClient(WithBaseURL("http://postal.test/"), WithHTTPClient(&http.Client{Transport: rt}))
	result, err := client.Lookup(context.Background(), " 560001 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if result.City != "Bangalore" || result.State != "Karnataka" || result.Code != "560001" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLookupUnknownCode(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[{"Status":"Error","PostOffice":null}]`), nil
	})

	client := NewClient(WithHTTPClient(&http.Client{Transport: rt}))
	_, err := client.Lookup(context.Background(), "000000")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupFailuresAreDependencyErrors(t *testing.T) {
	tests := map[string]roundTripFunc{
		"transport": func(*http.Request) (*http.Response, error) { return nil, errors.New("dial tcp: refused") },
		"status":    func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusBadGateway, "upstream down"), nil },
		"decode":    func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusOK, "{not json"), nil },
	}

	for name, rt := range tests {
		t.Run(name, func(t *testing.T) {
			client := NewClient(WithHTTPClient(&http.Client{Transport: rt}))
			_, err := client.Lookup(context.Background(), "560001")
			if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
				t.Fatalf("expected dependency error, got %v", err)
			}
		})
	}
}

func TestLookupRequiresCode(t *testing.T) {
	_, err := NewClient().Lookup(context.Background(), "  ")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var nilClient *Client
	if _, err := nilClient.Lookup(context.Background(), "560001"); !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error for nil client, got %v", err)
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
