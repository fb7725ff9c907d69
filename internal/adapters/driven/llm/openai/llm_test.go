package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/chat/completions":
			if captured != nil {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
			}
		case "/v1/models":
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const okResponse = `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"The VAT rate is 15%."},"finish_reason":"stop"}]}`

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, "openai", svc.provider)
	assert.NoError(t, svc.Close())
}

func TestLLMService_Complete(t *testing.T) {
	var captured capturedRequest
	server := chatServer(t, http.StatusOK, okResponse, &captured)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	got, err := svc.Complete(context.Background(), driven.CompletionRequest{
		Prompt:      "What is the VAT rate?",
		MaxTokens:   200,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "The VAT rate is 15%.", got)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 200, captured.MaxTokens)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-6)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "What is the VAT rate?", captured.Messages[0].Content)
}

func TestLLMService_Complete_SystemMessage(t *testing.T) {
	var captured capturedRequest
	server := chatServer(t, http.StatusOK, okResponse, &captured)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{System: "You are a tax advisor.", Prompt: "Hi"})
	require.NoError(t, err)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "You are a tax advisor.", captured.Messages[0].Content)
}

func TestLLMService_Complete_RateLimited(t *testing.T) {
	server := chatServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, nil)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1", Provider: "groq"})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.Contains(t, err.Error(), "groq")
}

func TestLLMService_Complete_ServerError(t *testing.T) {
	server := chatServer(t, http.StatusInternalServerError,
		`{"error":{"message":"internal","type":"server_error"}}`, nil)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
	assert.False(t, errors.Is(err, domain.ErrRateLimited))
}

func TestLLMService_Complete_NoChoices(t *testing.T) {
	server := chatServer(t, http.StatusOK, `{"id":"c1","choices":[]}`, nil)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{Prompt: "q"})
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestLLMService_Complete_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Complete(ctx, driven.CompletionRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLLMService_Ping(t *testing.T) {
	server := chatServer(t, http.StatusOK, `{"object":"list","data":[]}`, nil)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
}
