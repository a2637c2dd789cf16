package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNotFound indicates the requested product does not exist upstream.
var ErrNotFound = errors.New("catalog: product not found")

// Client reads products from the remote catalog service. The service owns
// all product persistence; this client only converts its untyped rows into
// validated Product values at the boundary.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient constructs a catalog client with an instrumented HTTP transport.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
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

// ListProducts fetches the full product set, dropping rows that fail schema
// validation. The dropped count is returned so callers can log it.
func (c *Client) ListProducts(ctx context.Context) ([]Product, int, error) {
	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, "/rest/v1/products?select=*", &payload); err != nil {
		return nil, 0, err
	}
	products, dropped := DecodeProducts(payload.Data)
	return products, dropped, nil
}

// Product fetches a single product by identifier.
func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	path := "/rest/v1/products/" + url.PathEscape(id)
	if err := c.get(ctx, path, &payload); err != nil {
		return Product{}, err
	}
	if len(payload.Data) == 0 {
		return Product{}, ErrNotFound
	}
	return DecodeProduct(payload.Data)
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	if c == nil || c.HTTP == nil {
		return errors.New("catalog: client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("catalog: upstream status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("catalog: decode response: %w", err)
	}
	return nil
}
