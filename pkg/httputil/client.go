package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client fetches JSON documents over HTTP with uniform status handling.
// All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client with the given request timeout and default
// headers. Pass nil for headers if none are needed.
func NewClient(timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		headers: headers,
	}
}

// GetJSON performs an HTTP GET and decodes the JSON response body into v.
// 404 maps to [ErrNotFound]; connection failures and 5xx responses are
// wrapped as retryable [ErrNetwork] so callers can use [Retry].
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
