package ordersapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

const responseBodyReadLimit = 1024

var errBaseURLRequired = errors.New("orders api base url is required")

// Client talks to the order persistence API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
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

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the orders API client.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PaymentOrder is the provider-side payment intent opened for an order.
type PaymentOrder struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// CreateOrderResponse is returned by order creation. PaymentOrder is nil when the API omitted it.
type CreateOrderResponse struct {
	OrderHandle  string        `json:"order_handle"`
	PaymentOrder *PaymentOrder `json:"payment_order"`
}

// VerifyRequest confirms a completed payment against its order.
type VerifyRequest struct {
	OrderHandle string `json:"order_handle"`
	PaymentID   string `json:"payment_id"`
	Signature   string `json:"signature"`
}

// CreateOrder submits an order body. The idempotency key is forwarded so a retried submission is not duplicated upstream.
func (c *Client) CreateOrder(ctx context.Context, idempotencyKey string, body any) (*CreateOrderResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders api client not configured")
	}

	var out CreateOrderResponse
	if err := c.post(ctx, "/orders", idempotencyKey, body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.OrderHandle) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders api returned no order handle")
	}
	return &out, nil
}

// VerifyPayment asks the order API to validate the provider signature.
func (c *Client) VerifyPayment(ctx context.Context, req VerifyRequest) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "orders api client not configured")
	}
	if req.OrderHandle == "" || req.PaymentID == "" || req.Signature == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order handle, payment id and signature are required")
	}
	return c.post(ctx, "/orders/verify", "", req, nil)
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal orders api request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build orders api request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		httpReq.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute orders api request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "orders api request failed")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode orders api response")
	}
	return nil
}
