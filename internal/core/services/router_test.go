package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantIn    bool
		wantQuery string
		wantWhy   string
		wantErr   bool
	}{
		{
			name:      "relevant",
			raw:       "RELEVANT: standard VAT rate South Africa",
			wantIn:    true,
			wantQuery: "standard VAT rate South Africa",
		},
		{
			name:    "irrelevant",
			raw:     "IRRELEVANT: Pizza recipes are not related to taxation.",
			wantWhy: "Pizza recipes are not related to taxation.",
		},
		{
			name:      "lowercase label",
			raw:       "relevant: income tax brackets",
			wantIn:    true,
			wantQuery: "income tax brackets",
		},
		{
			name:      "markdown emphasis and leading blank lines",
			raw:       "\n\n**RELEVANT:** capital gains exclusion\nextra commentary",
			wantIn:    true,
			wantQuery: "capital gains exclusion",
		},
		{
			name:      "quoted value",
			raw:       `RELEVANT: "provisional tax deadlines"`,
			wantIn:    true,
			wantQuery: "provisional tax deadlines",
		},
		{
			name:    "irrelevant without reason",
			raw:     "IRRELEVANT:",
			wantWhy: "",
		},
		{name: "empty rewrite", raw: "RELEVANT:   ", wantErr: true},
		{name: "no label", raw: "This is about tax.", wantErr: true},
		{name: "empty output", raw: "", wantErr: true},
		{name: "label later in text", raw: "Sure! RELEVANT: vat", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoute(tt.raw, "original")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrClassificationParse))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Parsed)
			assert.Equal(t, tt.wantIn, got.InDomain)
			assert.Equal(t, tt.wantQuery, got.Rewritten)
			assert.Equal(t, tt.wantWhy, got.Reason)
			assert.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestRouter_Route_InDomain(t *testing.T) {
	llm := &mockLLM{reply: "RELEVANT: standard VAT rate"}
	router := NewRouter(llm, nil, time.Second, 0.3)

	turn := domain.NewTurn("t1", "What's the VAT rate?")
	router.Route(context.Background(), turn)

	assert.Equal(t, domain.TurnRouted, turn.State)
	assert.Equal(t, "standard VAT rate", turn.RewrittenQuery)
	assert.True(t, turn.Route.InDomain)
	assert.True(t, turn.Route.Parsed)
	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompt(0), "What's the VAT rate?")
}

func TestRouter_Route_OutOfDomain(t *testing.T) {
	llm := &mockLLM{reply: "IRRELEVANT: This question is about cooking."}
	router := NewRouter(llm, nil, time.Second, 0.3)

	turn := domain.NewTurn("t1", "How do I make pizza?")
	router.Route(context.Background(), turn)

	assert.Equal(t, domain.TurnRejected, turn.State)
	assert.Equal(t, domain.RefusalMessage, turn.Answer)
	assert.Equal(t, "This question is about cooking.", turn.Route.Reason)
	assert.Empty(t, turn.RewrittenQuery)
	assert.False(t, turn.FinishedAt.IsZero())
}

func TestRouter_Route_FallbackOnParseFailure(t *testing.T) {
	llm := &mockLLM{reply: "I think this is a tax question."}
	router := NewRouter(llm, nil, time.Second, 0.3)

	turn := domain.NewTurn("t1", "How is interest taxed?")
	router.Route(context.Background(), turn)

	assert.Equal(t, domain.TurnRouted, turn.State)
	assert.Equal(t, "How is interest taxed?", turn.RewrittenQuery)
	assert.False(t, turn.Route.Parsed)
	assert.Equal(t, "I think this is a tax question.", turn.Route.Raw)
}

func TestRouter_Route_FallbackOnLLMError(t *testing.T) {
	llm := &mockLLM{err: errBoom}
	router := NewRouter(llm, nil, time.Second, 0.3)

	turn := domain.NewTurn("t1", "How is interest taxed?")
	router.Route(context.Background(), turn)

	assert.Equal(t, domain.TurnRouted, turn.State)
	assert.Equal(t, "How is interest taxed?", turn.RewrittenQuery)
	assert.Nil(t, turn.Err)
}

func TestRouter_Route_FallbackOnTimeout(t *testing.T) {
	router := NewRouter(blockingLLM(), nil, 20*time.Millisecond, 0.3)

	turn := domain.NewTurn("t1", "When is the filing deadline?")
	router.Route(context.Background(), turn)

	assert.Equal(t, domain.TurnRouted, turn.State)
	assert.Equal(t, "When is the filing deadline?", turn.RewrittenQuery)
}

func TestRouter_Route_NilLLM(t *testing.T) {
	router := NewRouter(nil, nil, time.Second, 0.3)

	turn := domain.NewTurn("t1", "VAT threshold")
	router.Route(context.Background(), turn)

	assert.Equal(t, domain.TurnRouted, turn.State)
	assert.Equal(t, "VAT threshold", turn.RewrittenQuery)
}

func TestRouter_classify_TimeoutKind(t *testing.T) {
	router := NewRouter(blockingLLM(), nil, 10*time.Millisecond, 0)

	decision, err := router.classify(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
	assert.True(t, decision.InDomain)
	assert.Equal(t, "q", decision.Rewritten)
}

func TestRouter_UsesPromptStore(t *testing.T) {
	llm := &mockLLM{reply: "RELEVANT: q"}
	prompts := mapPromptStore{driven.PromptRouter: "CUSTOM ROUTER %s"}
	router := NewRouter(llm, prompts, time.Second, 0)

	router.Route(context.Background(), domain.NewTurn("t1", "my question"))

	require.Equal(t, 1, llm.calls())
	assert.Equal(t, "CUSTOM ROUTER my question", llm.prompt(0))
}
