package auth

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
)

// Result is the outcome of a login or registration call against the
// identity service.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Client is the narrow contract the core consumes from the external
// identity service. Session issuance, password storage and recovery all
// live upstream; the core only gates checkout on a valid session.
type Client interface {
	Login(ctx context.Context, email, password string) (Result, error)
	Register(ctx context.Context, name, email, password string) (Result, error)
	Logout(ctx context.Context, token string) error
}

// HTTPClient implements Client over the identity service's REST surface.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewHTTPClient constructs an identity client with an instrumented transport.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Login implements Client.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (Result, error) {
	return c.post(ctx, "/auth/v1/token", map[string]string{
		"email":    email,
		"password": password,
	}, "")
}

// Register implements Client.
func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (Result, error) {
	return c.post(ctx, "/auth/v1/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")
}

// Logout implements Client.
func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.post(ctx, "/auth/v1/logout", map[string]string{}, token)
	return err
}

func (c *HTTPClient) post(ctx context.Context, path string, payload map[string]string, token string) (Result, error) {
	if c == nil || c.HTTP == nil {
		return Result{}, errors.New("auth: client not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("auth: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("auth: request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("auth: decode response: %w", err)
	}
	if resp.StatusCode >= 300 && out.Message == "" {
		out.Success = false
		out.Message = fmt.Sprintf("identity service returned status %d", resp.StatusCode)
	}
	return out, nil
}
