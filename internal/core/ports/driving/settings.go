package driving

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// SettingsService backs the settings commands and the setup wizard.
// Validation failures wrap domain.ErrConfiguration.
type SettingsService interface {
	// Get returns the stored settings with environment overrides applied.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// Set writes one key from Keys, coercing value to the key's type.
	Set(key, value string) error
	Keys() []string

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate reports whether indexing and answering can run.
	Validate() error

	// ProbeEmbedding and ProbeLLM make one real call to the configured provider.
	ProbeEmbedding(ctx context.Context) error
	ProbeLLM(ctx context.Context) error
}
