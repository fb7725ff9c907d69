// Package ai turns provider settings into embedding and language model
// adapters, and probes them for the setup commands.
package ai

import (
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/taxadvisor/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/taxadvisor/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/taxadvisor/internal/adapters/driven/llm/anthropic"
	groqllm "github.com/custodia-labs/taxadvisor/internal/adapters/driven/llm/groq"
	ollamallm "github.com/custodia-labs/taxadvisor/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/taxadvisor/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

const (
	pingTimeout = 5 * time.Second
	fixHint     = "Run 'taxadvisor settings set' or edit ~/.taxadvisor/config.toml to fix"
)

type (
	embeddingBuilder func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmBuilder       func(*domain.LLMSettings) (driven.LLMService, error)
)

var embeddingBuilders = map[domain.AIProvider]embeddingBuilder{
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		dims := domain.EmbeddingDimensions()[s.Model]
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

var llmBuilders = map[domain.AIProvider]llmBuilder{
	domain.AIProviderGroq: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return groqllm.NewLLMService(groqllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// Services pairs the two adapters a pipeline needs.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// NewServices builds both adapters without contacting either provider.
// Errors wrap domain.ErrConfiguration.
func NewServices(settings *domain.AppSettings) (*Services, error) {
	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", domain.ErrConfiguration, err)
	}
	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		(&Services{Embedding: embedding}).Close()
		return nil, fmt.Errorf("%w: llm: %w", domain.ErrConfiguration, err)
	}
	return &Services{Embedding: embedding, LLM: llm}, nil
}

// CreateEmbeddingService returns nil, nil when settings are incomplete.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embeddingBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%s does not support embeddings, use ollama or openai", settings.Provider)
	}
	return build(settings)
}

// CreateLLMService returns nil, nil when settings are incomplete.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llmBuilders[settings.Provider]
	if !ok {
		return nil, errors.New("unsupported LLM provider: " + settings.Provider.String())
	}
	return build(settings)
}
