// Package groq provides an LLM service adapter for Groq's
// OpenAI-compatible chat completions API.
package groq

import (
	"time"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/llm/openai"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the Groq LLM service.
type Config struct {
	// APIKey is the Groq API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use.
	Model string

	// Timeout is the request timeout.
	Timeout time.Duration
}

// NewLLMService creates an LLM service that talks to Groq.
func NewLLMService(cfg Config) (*openai.LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return openai.NewLLMService(openai.LLMConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout,
		Provider: "groq",
	})
}
