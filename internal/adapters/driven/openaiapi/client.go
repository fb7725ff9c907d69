// Package openaiapi builds go-openai clients for OpenAI-compatible endpoints
// and maps their errors onto the domain.
package openaiapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// NewClient returns a client for baseURL with a per-request timeout.
func NewClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(config)
}

// MapError wraps err in kind, or in domain.ErrRateLimited for a 429.
func MapError(provider string, err, kind error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s: %s", domain.ErrRateLimited, provider, apiErr.Message)
		}
		return fmt.Errorf("%w: %s (status %d): %s", kind, provider, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: %w", domain.ErrRateLimited, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, provider, err)
}
