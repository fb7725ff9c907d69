package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// mockAssistantService implements driving.AssistantService for testing.
type mockAssistantService struct {
	mu         sync.Mutex
	askFunc    func(ctx context.Context, query string) *domain.Turn
	searchFunc func(ctx context.Context, query string) (*domain.RetrievalResult, error)
	asked      []string
}

func (m *mockAssistantService) Ask(ctx context.Context, query string) *domain.Turn {
	m.mu.Lock()
	m.asked = append(m.asked, query)
	m.mu.Unlock()
	if m.askFunc != nil {
		return m.askFunc(ctx, query)
	}
	turn := domain.NewTurn("turn", query)
	turn.Retrieval = &domain.RetrievalResult{
		Query: query,
		Found: true,
		Passages: []domain.Passage{
			{Key: "k1", Source: "vat.md", ChunkIndex: 0, Text: "The standard VAT rate is 20%.", Score: 0.9},
		},
	}
	turn.Complete("Answer: " + query)
	return turn
}

func (m *mockAssistantService) Search(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	return &domain.RetrievalResult{
		Query: query,
		Found: true,
		Passages: []domain.Passage{
			{Key: "k1", Source: "vat.md", ChunkIndex: 0, Text: "The standard VAT rate is 20%.", Score: 0.9},
			{Key: "k2", Source: "income.txt", ChunkIndex: 3, Text: "Personal allowance.", Score: 0.7},
		},
	}, nil
}

func (m *mockAssistantService) Asked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.asked...)
}

// mockIndexService implements driving.IndexService for testing.
type mockIndexService struct {
	indexFunc  func(ctx context.Context, opts domain.IndexOptions) (*domain.IndexReport, error)
	statusFunc func(ctx context.Context) (*domain.IndexStatus, error)
	watchFunc  func(ctx context.Context, events chan<- domain.FileChange) error
	resetCalls int
	lastOpts   domain.IndexOptions
}

func (m *mockIndexService) Index(ctx context.Context, opts domain.IndexOptions) (*domain.IndexReport, error) {
	m.lastOpts = opts
	if m.indexFunc != nil {
		return m.indexFunc(ctx, opts)
	}
	return &domain.IndexReport{Indexed: []string{"vat.md"}, Chunks: 3}, nil
}

func (m *mockIndexService) IndexFile(context.Context, string) error {
	return nil
}

func (m *mockIndexService) Reset(context.Context) error {
	m.resetCalls++
	return nil
}

func (m *mockIndexService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return &domain.IndexStatus{Backend: "memory"}, nil
}

func (m *mockIndexService) Watch(ctx context.Context, events chan<- domain.FileChange) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, events)
	}
	return nil
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings     domain.AppSettings
	validateErr  error
	setErr       error
	pingErr      error
	set          map[string]string
	embeddingSet []string
	llmSet       []string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		set:      map[string]string{},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	if key == "documents.path" {
		m.settings.DocumentsPath = value
	}
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embeddingSet = []string{string(provider), model, apiKey}
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmSet = []string{string(provider), model, apiKey}
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) Keys() []string {
	return []string{"documents.path", "retrieval.top_k"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ProbeEmbedding(_ context.Context) error {
	return m.pingErr
}

func (m *mockSettingsService) ProbeLLM(_ context.Context) error {
	return m.pingErr
}

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	assistant *mockAssistantService
	index     *mockIndexService
	settings  *mockSettingsService
	out       *bytes.Buffer
}

// setupTestServices injects mocks, resets command flags and captures output.
// The returned cleanup restores package state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		assistant: &mockAssistantService{},
		index:     &mockIndexService{},
		settings:  newMockSettingsService(),
		out:       new(bytes.Buffer),
	}
	SetServices(&Services{
		Settings:  ts.settings,
		Assistant: ts.assistant,
		Index:     ts.index,
	})

	origTerminal := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }

	rootCmd.SetOut(ts.out)
	rootCmd.SetErr(ts.out)
	rootCmd.SetIn(strings.NewReader(""))

	return ts, func() {
		SetServices(&Services{})
		stdinIsTerminal = origTerminal
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

// resetFlags clears flag values that persist between Execute calls.
func resetFlags() {
	askShowSources = false
	searchJSON = false
	indexRebuild = false
	indexWatch = false
	resetYes = false
	versionShort = false
	mcpPort = 0
}

// execute runs the root command with args and returns its error.
func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// ioPipe returns a reader that blocks until the writer is closed.
func ioPipe() (*io.PipeReader, *io.PipeWriter) {
	return io.Pipe()
}
