package order

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sokoni/duka-api/internal/checkout"
)

// ErrRejected indicates the order service refused the submission.
var ErrRejected = errors.New("order: submission rejected")

// Client submits orders to the external order/payment service. The service
// is opaque: it accepts shipping and payment details and answers with an
// order reference or a failure. No retry is performed here; resubmission is
// a user decision.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient constructs an order client with an instrumented HTTP transport.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// PlaceOrder implements checkout.OrderPlacer.
func (c *Client) PlaceOrder(ctx context.Context, req checkout.OrderRequest) (checkout.Receipt, error) {
	if c == nil || c.HTTP == nil {
		return checkout.Receipt{}, errors.New("order: client not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return checkout.Receipt{}, fmt.Errorf("order: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rest/v1/orders", bytes.NewReader(body))
	if err != nil {
		return checkout.Receipt{}, fmt.Errorf("order: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return checkout.Receipt{}, fmt.Errorf("order: request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return checkout.Receipt{}, fmt.Errorf("%w: upstream status %d", ErrRejected, resp.StatusCode)
	}
	var payload struct {
		Data checkout.Receipt `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return checkout.Receipt{}, fmt.Errorf("order: decode response: %w", err)
	}
	if payload.Data.OrderID == "" {
		return checkout.Receipt{}, fmt.Errorf("%w: missing order id", ErrRejected)
	}
	if payload.Data.PlacedAt.IsZero() {
		payload.Data.PlacedAt = time.Now()
	}
	return payload.Data, nil
}
