package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

const (
	defaultBaseURL        = "https://api.postalpincode.in"
	statusSuccess         = "Success"
	responseBodyReadLimit = 1024
)

// Client resolves postal codes to their district and state.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the lookup base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the postal lookup client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Result is the locality a postal code belongs to.
type Result struct {
	Code  string `json:"code"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Lookup resolves a postal code. Unknown codes return CodeNotFound; transport failures CodeDependency.
func (c *Client) Lookup(ctx context.Context, code string) (Result, error) {
	if c == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, "postal client not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	}

	endpoint := fmt.Sprintf("%s/pincode/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build postal lookup request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute postal lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "postal lookup request failed")
	}

	var apiResp []struct {
		Status     string `json:"Status"`
		PostOffice []struct {
			District string `json:"District"`
			State    string `json:"State"`
		} `json:"PostOffice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode postal lookup response")
	}

	if len(apiResp) == 0 || apiResp[0].Status != statusSuccess || len(apiResp[0].PostOffice) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "postal code not found").WithDetails(map[string]any{
			"postal_code": trimmed,
		})
	}

	office := apiResp[0].PostOffice[0]
	return Result{Code: trimmed, City: office.District, State: office.State}, nil
}
