package domain

import "slices"

// AIProvider names a hosted or local model service.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderGroq      AIProvider = "groq"
)

// providerEntry describes what a provider offers. An empty embeddingModel
// means the provider has no embeddings endpoint.
type providerEntry struct {
	id             AIProvider
	description    string
	keyEnv         string
	embeddingModel string
	llmModel       string
}

// catalogue is in menu order; the default LLM provider comes first.
var catalogue = []providerEntry{
	{AIProviderGroq, "Groq (cloud)", "GROQ_API_KEY", "", "meta-llama/llama-4-scout-17b-16e-instruct"},
	{AIProviderOllama, "Ollama (local)", "", "all-minilm", "llama3.2"},
	{AIProviderOpenAI, "OpenAI (cloud)", "OPENAI_API_KEY", "text-embedding-3-small", "gpt-4o-mini"},
	{AIProviderAnthropic, "Anthropic (cloud)", "ANTHROPIC_API_KEY", "", "claude-3-5-sonnet-latest"},
}

func (p AIProvider) info() (providerEntry, bool) {
	i := slices.IndexFunc(catalogue, func(e providerEntry) bool { return e.id == p })
	if i < 0 {
		return providerEntry{}, false
	}
	return catalogue[i], true
}

func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey reports whether requests need a key; only Ollama runs without one.
func (p AIProvider) RequiresAPIKey() bool {
	return p.APIKeyEnv() != ""
}

// APIKeyEnv is the environment variable read for the key, or "" when none is needed.
func (p AIProvider) APIKeyEnv() string {
	info, _ := p.info()
	return info.keyEnv
}

// SupportsEmbeddings reports whether the provider can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	info, _ := p.info()
	return info.embeddingModel != ""
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the menu label, e.g. "Ollama (local)".
func (p AIProvider) Description() string {
	if info, ok := p.info(); ok {
		return info.description
	}
	return "Unknown"
}

// AllEmbeddingProviders lists the providers with an embeddings endpoint.
// The local provider comes first so indexing works without an account.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders lists every provider in menu order.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, len(catalogue))
	for i, e := range catalogue {
		out[i] = e.id
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its suggested model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := map[AIProvider]string{}
	for _, e := range catalogue {
		if e.embeddingModel != "" {
			out[e.id] = e.embeddingModel
		}
	}
	return out
}

// DefaultLLMModels maps each provider to its suggested chat model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(catalogue))
	for _, e := range catalogue {
		out[e.id] = e.llmModel
	}
	return out
}

// EmbeddingDimensions holds the vector size of well-known embedding models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-minilm":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
