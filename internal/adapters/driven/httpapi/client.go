package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends JSON requests to one provider. Every failure wraps Kind,
// except 429 which wraps domain.ErrRateLimited.
type Client struct {
	provider string
	baseURL  string
	kind     error
	http     *http.Client
	header   http.Header
}

// New creates a client for baseURL. kind is the domain error failures wrap,
// e.g. domain.ErrLLMUnavailable.
func New(provider, baseURL string, timeout time.Duration, kind error) *Client {
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		kind:     kind,
		http:     &http.Client{Timeout: timeout},
		header:   http.Header{},
	}
}

// SetHeader adds a header sent with every request, such as an API key.
func (c *Client) SetHeader(key, value string) *Client {
	c.header.Set(key, value)
	return c
}

// BaseURL returns the endpoint without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get decodes the response of GET path into out. A nil out discards the body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.provider, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	for key, values := range c.header {
		req.Header[key] = values
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Transport(c.provider, err, c.kind)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxBody))
		return FromStatus(c.provider, resp.StatusCode, text, c.kind)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", c.kind, c.provider, err)
	}
	return nil
}
