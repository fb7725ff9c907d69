package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "groq is valid", provider: AIProviderGroq, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGroq.RequiresAPIKey())
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "GROQ_API_KEY", AIProviderGroq.APIKeyEnv())
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Groq (cloud)", AIProviderGroq.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestVectorBackend_IsValid(t *testing.T) {
	assert.True(t, VectorBackendSQLite.IsValid())
	assert.True(t, VectorBackendMemory.IsValid())
	assert.True(t, VectorBackendQdrant.IsValid())
	assert.False(t, VectorBackend("chroma").IsValid())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 1000, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Equal(t, 5, s.TopK)
	assert.Equal(t, AIProviderGroq, s.LLM.Provider)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.Equal(t, VectorBackendSQLite, s.VectorStore.Backend)
	assert.Equal(t, "TaxDocument", s.VectorStore.Collection)
	assert.InDelta(t, 0.3, s.LLM.Temperature, 1e-9)
	assert.Empty(t, s.DocumentsPath)
}

func validSettings() AppSettings {
	s := DefaultAppSettings()
	s.DocumentsPath = "/docs"
	s.LLM.APIKey = "gsk-test"
	return s
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *AppSettings)
		wantErr string
	}{
		{name: "valid defaults with path and key", mutate: func(_ *AppSettings) {}},
		{
			name:    "missing documents path",
			mutate:  func(s *AppSettings) { s.DocumentsPath = "" },
			wantErr: "documents path",
		},
		{
			name:    "missing llm key",
			mutate:  func(s *AppSettings) { s.LLM.APIKey = "" },
			wantErr: "GROQ_API_KEY",
		},
		{
			name: "openai embedding without key",
			mutate: func(s *AppSettings) {
				s.Embedding.Provider = AIProviderOpenAI
			},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "anthropic cannot embed",
			mutate:  func(s *AppSettings) { s.Embedding.Provider = AIProviderAnthropic },
			wantErr: "does not provide embeddings",
		},
		{
			name:    "unknown llm provider",
			mutate:  func(s *AppSettings) { s.LLM.Provider = "mystery" },
			wantErr: "unknown LLM provider",
		},
		{
			name:    "unknown backend",
			mutate:  func(s *AppSettings) { s.VectorStore.Backend = "chroma" },
			wantErr: "unknown vector store backend",
		},
		{
			name: "qdrant without url",
			mutate: func(s *AppSettings) {
				s.VectorStore.Backend = VectorBackendQdrant
				s.VectorStore.URL = ""
			},
			wantErr: "vector_store.url",
		},
		{
			name:    "zero chunk size",
			mutate:  func(s *AppSettings) { s.Chunking.Size = 0 },
			wantErr: "chunk size",
		},
		{
			name:    "overlap equal to size",
			mutate:  func(s *AppSettings) { s.Chunking.Overlap = s.Chunking.Size },
			wantErr: "chunk overlap",
		},
		{
			name:    "negative overlap",
			mutate:  func(s *AppSettings) { s.Chunking.Overlap = -1 },
			wantErr: "chunk overlap",
		},
		{
			name:    "zero top k",
			mutate:  func(s *AppSettings) { s.TopK = 0 },
			wantErr: "top_k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 384, dims["all-minilm"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])
}

func TestAIProvider_SupportsEmbeddings(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.SupportsEmbeddings(), p)
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	assert.False(t, AIProviderGroq.SupportsEmbeddings())
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
	assert.False(t, AIProvider("x").SupportsEmbeddings())
}

func TestAllLLMProviders_HaveDefaults(t *testing.T) {
	providers := AllLLMProviders()
	require.Len(t, providers, 4)
	assert.Equal(t, AIProviderGroq, providers[0])
	for _, p := range providers {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
		assert.NotEqual(t, "Unknown", p.Description())
	}
}
