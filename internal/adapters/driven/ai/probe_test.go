package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// ollamaServer answers /api/embed with vectors of the given size and /api/tags with an empty list.
func ollamaServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			embeddings := make([][]float64, len(req.Input))
			for i := range embeddings {
				embeddings[i] = make([]float64, dims)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func closedURL() string {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()
	return url
}

func TestProbe_Unconfigured(t *testing.T) {
	probe := NewProbe()

	assert.NoError(t, probe.ProbeEmbedding(context.Background(), nil))
	assert.NoError(t, probe.ProbeEmbedding(context.Background(), &domain.EmbeddingSettings{}))
	assert.NoError(t, probe.ProbeLLM(context.Background(), nil))
	assert.NoError(t, probe.ProbeLLM(context.Background(), &domain.LLMSettings{Provider: domain.AIProviderGroq}))
}

func TestProbe_Embedding(t *testing.T) {
	tests := []struct {
		name    string
		dims    int
		wantErr string
	}{
		{name: "matching dimensions", dims: 384},
		{name: "wrong dimensions", dims: 12, wantErr: "returned 12 dimensions, expected 384"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := ollamaServer(t, tt.dims)
			err := NewProbe().ProbeEmbedding(context.Background(), &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "all-minilm",
				BaseURL:  server.URL,
			})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProbe_EmbeddingUnreachable(t *testing.T) {
	err := NewProbe(WithProbeTimeout(time.Second)).ProbeEmbedding(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  closedURL(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Contains(t, err.Error(), "taxadvisor settings set")
}

func TestProbe_EmbeddingUnsupportedProvider(t *testing.T) {
	err := NewProbe().ProbeEmbedding(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderGroq,
		APIKey:   "gsk",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Contains(t, err.Error(), "does not support embeddings")
}

func TestProbe_LLM(t *testing.T) {
	server := ollamaServer(t, 0)
	probe := NewProbe()

	assert.NoError(t, probe.ProbeLLM(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}))

	err := probe.ProbeLLM(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  closedURL(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestWithProbeTimeout_IgnoresZero(t *testing.T) {
	assert.Equal(t, pingTimeout, NewProbe(WithProbeTimeout(0)).timeout)
	assert.Equal(t, time.Second, NewProbe(WithProbeTimeout(time.Second)).timeout)
}
