package driven

import "context"

// LLMService runs single-shot completions for the router and advisor.
// Providers: Groq, OpenAI, Anthropic and a local Ollama.
type LLMService interface {
	// Complete sends one request and returns the model's text verbatim.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the configured model.
	ModelName() string

	// Ping checks credentials and reachability without running inference.
	Ping(ctx context.Context) error

	Close() error
}

// CompletionRequest is one prompt plus sampling settings.
// Zero values leave the provider defaults in place, except Temperature,
// which is always sent.
type CompletionRequest struct {
	// System is sent as the system instruction when set.
	System string

	// Prompt is the user message.
	Prompt string

	MaxTokens   int
	Temperature float64
	Stop        []string
}
