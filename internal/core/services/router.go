package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

// Router output labels.
const (
	labelRelevant   = "RELEVANT:"
	labelIrrelevant = "IRRELEVANT:"
)

// defaultRouterPrompt is the fallback prompt when no PromptStore is configured.
const defaultRouterPrompt = `You are a query router for a tax-law assistant. Analyse this question: '%s'

1. Decide whether it is about taxation, income tax, or tax law.
2. If it is NOT tax-related, reply with exactly one line: IRRELEVANT: <a brief, polite explanation why>
3. If it IS tax-related, rewrite it as a focused search query for a vector database. Reply with exactly one line: RELEVANT: <rewritten query>

Reply with nothing else.`

// Router classifies a question as tax-related and rewrites it for retrieval.
// It makes exactly one LLM call per turn and never fails the turn.
type Router struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	timeout     time.Duration
	temperature float64
}

// NewRouter creates a router.
func NewRouter(llm driven.LLMService, prompts driven.PromptStore, timeout time.Duration, temperature float64) *Router {
	return &Router{
		llm:         llm,
		prompts:     prompts,
		timeout:     timeout,
		temperature: temperature,
	}
}

// Route sets turn.Route and turn.RewrittenQuery.
// An LLM failure or unparseable output falls back to the original query.
func (r *Router) Route(ctx context.Context, turn *domain.Turn) {
	logger.Section("Router")
	defer logger.Timed("route")()

	decision, err := r.classify(ctx, turn.Query)
	if err != nil {
		logger.Warn("router fallback to original query: %v", err)
	}

	turn.Route = decision
	if decision.InDomain {
		turn.RewrittenQuery = decision.Rewritten
		turn.State = domain.TurnRouted
		logger.Debug("in domain, rewritten query: %q", decision.Rewritten)
		return
	}
	logger.Debug("out of domain: %s", decision.Reason)
	turn.Reject(decision.Reason)
}

func (r *Router) classify(ctx context.Context, query string) (domain.RouteDecision, error) {
	fallback := domain.RouteDecision{InDomain: true, Rewritten: query}

	if r.llm == nil {
		return fallback, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(loadPrompt(r.prompts, driven.PromptRouter, defaultRouterPrompt), query)

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.llm.Complete(callCtx, driven.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   200,
		Temperature: r.temperature,
	})
	if err != nil {
		return fallback, stageError(domain.ErrLLMUnavailable, "router call", err)
	}

	decision, err := ParseRoute(raw, query)
	if err != nil {
		fallback.Raw = raw
		return fallback, err
	}
	return decision, nil
}

// ParseRoute parses router output of the form "RELEVANT: <query>" or
// "IRRELEVANT: <reason>". Labels are matched case-insensitively on the first
// non-empty line, ignoring markdown emphasis.
func ParseRoute(raw, query string) (domain.RouteDecision, error) {
	line := firstLine(raw)
	line = strings.TrimLeft(line, "*_`\"' ")

	switch {
	case hasLabel(line, labelIrrelevant):
		return domain.RouteDecision{
			InDomain: false,
			Parsed:   true,
			Reason:   cleanLabelValue(line[len(labelIrrelevant):]),
			Raw:      raw,
		}, nil
	case hasLabel(line, labelRelevant):
		rewritten := cleanLabelValue(line[len(labelRelevant):])
		if rewritten == "" {
			return domain.RouteDecision{}, fmt.Errorf("%w: empty rewritten query", domain.ErrClassificationParse)
		}
		return domain.RouteDecision{
			InDomain:  true,
			Parsed:    true,
			Rewritten: rewritten,
			Raw:       raw,
		}, nil
	default:
		return domain.RouteDecision{}, fmt.Errorf("%w: %q", domain.ErrClassificationParse, truncate(raw, 80))
	}
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func cleanLabelValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), "*_`\"' ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}
