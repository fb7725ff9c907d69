package driven

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// ProviderProbe checks that configured providers answer before they are relied on.
// Unconfigured settings are not an error.
type ProviderProbe interface {
	ProbeEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error
	ProbeLLM(ctx context.Context, settings *domain.LLMSettings) error
}
