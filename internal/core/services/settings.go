package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDocumentsPath      = "documents.path"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyLLMTemperature     = "llm.temperature"
	keyVectorBackend      = "vector_store.backend"
	keyVectorPath         = "vector_store.path"
	keyVectorURL          = "vector_store.url"
	keyVectorCollection   = "vector_store.collection"
	keyVectorAPIKey       = "vector_store.api_key"
	keyChunkSize          = "chunking.size"
	keyChunkOverlap       = "chunking.overlap"
	keyTopK               = "retrieval.top_k"
	keyBatchSize          = "indexing.batch_size"
	keyWorkers            = "indexing.workers"
	keyBatchesPerSecond   = "indexing.batches_per_second"
	keyTimeoutRouter      = "timeouts.router"
	keyTimeoutEmbedding   = "timeouts.embedding"
	keyTimeoutSearch      = "timeouts.search"
	keyTimeoutAdvisor     = "timeouts.advisor"
	envDocumentsPath      = "DOCUMENTS_PATH"
	envVectorStorePath    = "VECTOR_STORE_PATH"
	envQdrantAPIKey       = "QDRANT_API_KEY"
	defaultOllamaEndpoint = "http://localhost:11434"
)

// keyKind describes how a config value is parsed by Set.
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindProvider
	kindBackend
)

// knownKeys lists every key accepted by Set.
var knownKeys = map[string]keyKind{
	keyDocumentsPath:    kindString,
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMTemperature:   kindFloat,
	keyVectorBackend:    kindBackend,
	keyVectorPath:       kindString,
	keyVectorURL:        kindString,
	keyVectorCollection: kindString,
	keyVectorAPIKey:     kindString,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyTopK:             kindInt,
	keyBatchSize:        kindInt,
	keyWorkers:          kindInt,
	keyBatchesPerSecond: kindFloat,
	keyTimeoutRouter:    kindInt,
	keyTimeoutEmbedding: kindInt,
	keyTimeoutSearch:    kindInt,
	keyTimeoutAdvisor:   kindInt,
}

// KnownKeys returns every configurable key in sorted order.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
// Values come from the config store, then the environment, then defaults.
type SettingsService struct {
	configStore driven.ConfigStore
	probe       driven.ProviderProbe
	getenv      func(string) string
	dataDir     string
}

// SettingsOption configures the settings service.
type SettingsOption func(*SettingsService)

// WithEnv sets the environment lookup used for overrides (typically os.Getenv).
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		s.getenv = getenv
	}
}

// WithDataDir sets the directory used when vector_store.path is not configured.
func WithDataDir(dir string) SettingsOption {
	return func(s *SettingsService) {
		s.dataDir = dir
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore,
	probe driven.ProviderProbe,
	opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		probe:       probe,
		getenv:      func(string) string { return "" },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
// DOCUMENTS_PATH and VECTOR_STORE_PATH override the config file. API keys
// missing from the config file are taken from the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		DocumentsPath: s.getString(keyDocumentsPath, ""),
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:    s.getBackend(defaults.VectorStore.Backend),
			Path:       s.getString(keyVectorPath, s.defaultDataDir()),
			URL:        s.getString(keyVectorURL, defaults.VectorStore.URL),
			Collection: s.getString(keyVectorCollection, defaults.VectorStore.Collection),
			APIKey:     s.configStore.GetString(keyVectorAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		TopK: s.getInt(keyTopK, defaults.TopK),
		Indexing: domain.IndexingSettings{
			BatchSize:        s.getInt(keyBatchSize, defaults.Indexing.BatchSize),
			Workers:          s.getInt(keyWorkers, defaults.Indexing.Workers),
			BatchesPerSecond: s.getFloat(keyBatchesPerSecond, defaults.Indexing.BatchesPerSecond),
		},
		Timeouts: domain.TimeoutSettings{
			Router:    s.getSeconds(keyTimeoutRouter, defaults.Timeouts.Router),
			Embedding: s.getSeconds(keyTimeoutEmbedding, defaults.Timeouts.Embedding),
			Search:    s.getSeconds(keyTimeoutSearch, defaults.Timeouts.Search),
			Advisor:   s.getSeconds(keyTimeoutAdvisor, defaults.Timeouts.Advisor),
		},
	}

	// Models default per provider, so switching provider without a model stays valid.
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaEndpoint
	}
	if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaEndpoint
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv fills settings from the environment.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v := s.getenv(envDocumentsPath); v != "" {
		settings.DocumentsPath = v
	}
	if v := s.getenv(envVectorStorePath); v != "" {
		settings.VectorStore.Path = v
	}
	if settings.Embedding.APIKey == "" {
		if env := settings.Embedding.Provider.APIKeyEnv(); env != "" {
			settings.Embedding.APIKey = s.getenv(env)
		}
	}
	if settings.LLM.APIKey == "" {
		if env := settings.LLM.Provider.APIKeyEnv(); env != "" {
			settings.LLM.APIKey = s.getenv(env)
		}
	}
	if settings.VectorStore.APIKey == "" {
		settings.VectorStore.APIKey = s.getenv(envQdrantAPIKey)
	}
}

// Save persists application settings.
// API keys are only written when set, so keys supplied by the environment stay out of the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyDocumentsPath:    settings.DocumentsPath,
		keyEmbedProvider:    settings.Embedding.Provider.String(),
		keyEmbedModel:       settings.Embedding.Model,
		keyEmbedBaseURL:     settings.Embedding.BaseURL,
		keyLLMProvider:      settings.LLM.Provider.String(),
		keyLLMModel:         settings.LLM.Model,
		keyLLMBaseURL:       settings.LLM.BaseURL,
		keyLLMTemperature:   settings.LLM.Temperature,
		keyVectorBackend:    settings.VectorStore.Backend.String(),
		keyVectorPath:       settings.VectorStore.Path,
		keyVectorURL:        settings.VectorStore.URL,
		keyVectorCollection: settings.VectorStore.Collection,
		keyChunkSize:        settings.Chunking.Size,
		keyChunkOverlap:     settings.Chunking.Overlap,
		keyTopK:             settings.TopK,
		keyBatchSize:        settings.Indexing.BatchSize,
		keyWorkers:          settings.Indexing.Workers,
		keyBatchesPerSecond: settings.Indexing.BatchesPerSecond,
		keyTimeoutRouter:    int(settings.Timeouts.Router / time.Second),
		keyTimeoutEmbedding: int(settings.Timeouts.Embedding / time.Second),
		keyTimeoutSearch:    int(settings.Timeouts.Search / time.Second),
		keyTimeoutAdvisor:   int(settings.Timeouts.Advisor / time.Second),
	}
	for key, secret := range map[string]string{
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyLLMAPIKey:    settings.LLM.APIKey,
		keyVectorAPIKey: settings.VectorStore.APIKey,
	} {
		if secret != "" {
			values[key] = secret
		}
	}

	if err := s.configStore.SetAll(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown vector store backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// Changing the model invalidates an existing index; the next query is refused
// until 'index --rebuild' runs.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	if err := s.configStore.Set(keyEmbedProvider, provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}

	// Cloud providers don't need a custom base URL
	if provider != domain.AIProviderOllama {
		if err := s.configStore.Set(keyEmbedBaseURL, ""); err != nil {
			return fmt.Errorf("save embedding base_url: %w", err)
		}
	}

	if apiKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	if err := s.configStore.Set(keyLLMProvider, provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if provider != domain.AIProviderOllama {
		if err := s.configStore.Set(keyLLMBaseURL, ""); err != nil {
			return fmt.Errorf("save llm base_url: %w", err)
		}
	}
	if apiKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, apiKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	return nil
}

// Keys lists every key accepted by Set.
func (s *SettingsService) Keys() []string {
	return KnownKeys()
}

// Validate checks the settings required to index and answer questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	defaults.VectorStore.Path = s.defaultDataDir()
	return defaults
}

// ProbeEmbedding checks that the configured embedding provider answers.
func (s *SettingsService) ProbeEmbedding(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeEmbedding(ctx, &settings.Embedding)
}

// ProbeLLM checks that the configured language model provider answers.
func (s *SettingsService) ProbeLLM(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeLLM(ctx, &settings.LLM)
}

func (s *SettingsService) defaultDataDir() string {
	if s.dataDir == "" {
		return ""
	}
	return filepath.Join(s.dataDir, "data")
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes an explicit 0 from a missing key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.configStore.GetInt(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	// Unknown providers are kept so Validate can report them.
	return domain.AIProvider(val)
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(keyVectorBackend)
	if val == "" {
		return defaultVal
	}
	return domain.VectorBackend(val)
}
