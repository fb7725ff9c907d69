package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService. Replies come from respond, or reply when respond is nil.
type mockLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	respond func(ctx context.Context, prompt string) (string, error)
}

func (m *mockLLM) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	prompt := req.Prompt
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.respond != nil {
		return m.respond(ctx, prompt)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[i]
}

// blockingLLM waits for the context to end.
func blockingLLM() *mockLLM {
	return &mockLLM{respond: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
}

// bowEmbedder implements driven.EmbeddingService with a hashed bag of words,
// so texts sharing words score higher than texts that do not.
type bowEmbedder struct {
	mu         sync.Mutex
	model      string
	dims       int
	embeds     int
	batches    int
	batchTexts int
	err        error
	failAfter  int
}

func newBowEmbedder() *bowEmbedder {
	return &bowEmbedder{model: "bow-test", dims: 1024}
}

func (e *bowEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '%'
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(e.dims)]++
	}
	return v
}

func (e *bowEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.embeds++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *bowEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches++
	if e.err != nil && e.batches > e.failAfter {
		return nil, e.err
	}
	e.batchTexts += len(texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *bowEmbedder) Dimensions() int { return e.dims }

func (e *bowEmbedder) ModelName() string { return e.model }

func (e *bowEmbedder) Ping(_ context.Context) error { return nil }

func (e *bowEmbedder) Close() error { return nil }

func (e *bowEmbedder) counts() (embeds, batches, texts int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embeds, e.batches, e.batchTexts
}

// failingStore implements driven.VectorStore, failing every call with err.
type failingStore struct {
	err  error
	meta *domain.IndexMetadata
}

func (s *failingStore) Upsert(_ context.Context, _ []domain.IndexEntry) error { return s.err }

func (s *failingStore) Nearest(_ context.Context, _ []float32, _ int) ([]domain.ScoredEntry, error) {
	return nil, s.err
}

func (s *failingStore) DeleteSource(_ context.Context, _ string) error { return s.err }

func (s *failingStore) Sources(_ context.Context) (map[string]domain.SourceInfo, error) {
	return nil, s.err
}

func (s *failingStore) Metadata(_ context.Context) (*domain.IndexMetadata, error) {
	if s.meta != nil {
		return s.meta, nil
	}
	return nil, s.err
}

func (s *failingStore) SetMetadata(_ context.Context, _ domain.IndexMetadata) error { return s.err }

func (s *failingStore) Reset(_ context.Context) error { return s.err }

func (s *failingStore) Name() string { return "failing" }

func (s *failingStore) Close() error { return nil }

// mapPromptStore implements driven.PromptStore from a map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

var errBoom = errors.New("boom")
