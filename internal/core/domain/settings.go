package domain

import (
	"fmt"
	"time"
)

// VectorBackend selects where chunk vectors are kept.
type VectorBackend string

const (
	// VectorBackendSQLite is a single database file under the config directory.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendMemory lives as long as the process; useful for trying things out.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendQdrant is a Qdrant server reached over REST.
	VectorBackendQdrant VectorBackend = "qdrant"
)

func (b VectorBackend) IsValid() bool {
	return b == VectorBackendSQLite || b == VectorBackendMemory || b == VectorBackendQdrant
}

func (b VectorBackend) String() string {
	return string(b)
}

// EmbeddingSettings configures the embedding provider. Model is recorded in
// the store metadata, so changing it requires a rebuild.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether the provider is known and has its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return ready(e.Provider, e.APIKey)
}

// LLMSettings configures the model used by both the router and the advisor.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
}

// IsConfigured reports whether the provider is known and has its key.
func (l LLMSettings) IsConfigured() bool {
	return ready(l.Provider, l.APIKey)
}

func ready(p AIProvider, apiKey string) bool {
	return p.IsValid() && (apiKey != "" || !p.RequiresAPIKey())
}

// VectorStoreSettings holds the connection for the chosen backend. Path
// applies to sqlite; URL, Collection and APIKey apply to qdrant.
type VectorStoreSettings struct {
	Backend    VectorBackend
	Path       string
	URL        string
	Collection string
	APIKey     string
}

// ChunkingSettings are measured in characters.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// IndexingSettings shape the embedding traffic of an index run.
type IndexingSettings struct {
	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Workers bounds concurrent embedding requests.
	Workers int

	// BatchesPerSecond paces requests across all workers. Zero disables pacing.
	BatchesPerSecond float64
}

// TimeoutSettings bound each external call of a turn.
type TimeoutSettings struct {
	Router    time.Duration
	Embedding time.Duration
	Search    time.Duration
	Advisor   time.Duration
}

// AppSettings is the whole configuration, resolved once at startup.
type AppSettings struct {
	// DocumentsPath is the directory of .txt and .md files to index.
	DocumentsPath string

	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
	Chunking    ChunkingSettings

	// TopK is the number of passages retrieved per question.
	TopK int

	Indexing IndexingSettings
	Timeouts TimeoutSettings
}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 5
	DefaultBatchSize    = 50
	DefaultWorkers      = 4
	DefaultCollection   = "TaxDocument"
)

// DefaultAppSettings leaves API keys and the documents path empty.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider:    AIProviderGroq,
			Model:       DefaultLLMModels()[AIProviderGroq],
			Temperature: 0.3,
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendSQLite,
			URL:        "http://localhost:6333",
			Collection: DefaultCollection,
		},
		Chunking: ChunkingSettings{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap},
		TopK:     DefaultTopK,
		Indexing: IndexingSettings{
			BatchSize:        DefaultBatchSize,
			Workers:          DefaultWorkers,
			BatchesPerSecond: 1,
		},
		Timeouts: TimeoutSettings{
			Router:    30 * time.Second,
			Embedding: 15 * time.Second,
			Search:    10 * time.Second,
			Advisor:   60 * time.Second,
		},
	}
}

// Validate reports the first problem that would stop indexing or answering.
// Every failure wraps ErrConfiguration.
func (s *AppSettings) Validate() error {
	emb, llm, store := s.Embedding.Provider, s.LLM.Provider, s.VectorStore

	switch {
	case s.DocumentsPath == "":
		return configErr("documents path is not set (documents.path or DOCUMENTS_PATH)")
	case !emb.IsValid():
		return configErr("unknown embedding provider %q", emb)
	case !emb.SupportsEmbeddings():
		return configErr("%s does not provide embeddings, use ollama or openai", emb)
	case !s.Embedding.IsConfigured():
		return configErr("embedding provider %s requires an API key (%s)", emb, emb.APIKeyEnv())
	case !llm.IsValid():
		return configErr("unknown LLM provider %q", llm)
	case !s.LLM.IsConfigured():
		return configErr("LLM provider %s requires an API key (%s)", llm, llm.APIKeyEnv())
	case !store.Backend.IsValid():
		return configErr("unknown vector store backend %q", store.Backend)
	case store.Backend == VectorBackendQdrant && store.URL == "":
		return configErr("qdrant backend requires vector_store.url")
	case s.Chunking.Size <= 0:
		return configErr("chunk size must be positive, got %d", s.Chunking.Size)
	case s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size:
		return configErr("chunk overlap must be in [0, %d), got %d", s.Chunking.Size, s.Chunking.Overlap)
	case s.TopK <= 0:
		return configErr("top_k must be positive, got %d", s.TopK)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
