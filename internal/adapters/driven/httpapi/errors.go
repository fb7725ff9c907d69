// Package httpapi is the JSON-over-HTTP plumbing shared by the provider
// adapters that do not have a client library: Anthropic and Ollama.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// maxBody bounds the response text included in an error.
const maxBody = 300

// FromStatus converts an unsuccessful response into an error wrapping kind.
// 429 maps to domain.ErrRateLimited instead.
func FromStatus(provider string, status int, body []byte, kind error) error {
	text := strings.TrimSpace(string(body))
	if len(text) > maxBody {
		text = text[:maxBody] + "..."
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrRateLimited, provider, status, text)
	}
	return fmt.Errorf("%w: %s (status %d): %s", kind, provider, status, text)
}

// Transport wraps a request that never produced a response.
// Context errors stay visible to errors.Is.
func Transport(provider string, err, kind error) error {
	return fmt.Errorf("%w: %s: %w", kind, provider, err)
}
