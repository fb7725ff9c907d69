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

// excerptSeparator joins numbered excerpts in the advisor prompt.
const excerptSeparator = "\n\n---\n\n"

// defaultAdvisorPrompt is the fallback prompt when no PromptStore is configured.
const defaultAdvisorPrompt = `You are a knowledgeable tax advisor. Answer the user's question using ONLY the numbered excerpts from official tax documents below.

Rules:
- Do not use any knowledge that is not in the excerpts.
- Cite the excerpt numbers you relied on, e.g. [1].
- If the excerpts do not contain enough information to answer, say so clearly.

Excerpts:
%s

Question: %s

Answer:`

// Advisor synthesises an answer grounded in retrieved passages.
type Advisor struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	timeout     time.Duration
	temperature float64
}

// NewAdvisor creates an advisor.
func NewAdvisor(llm driven.LLMService, prompts driven.PromptStore, timeout time.Duration, temperature float64) *Advisor {
	return &Advisor{
		llm:         llm,
		prompts:     prompts,
		timeout:     timeout,
		temperature: temperature,
	}
}

// Advise makes one LLM call and returns its output verbatim.
// Failures wrap domain.ErrSynthesis.
func (a *Advisor) Advise(ctx context.Context, query string, retrieval *domain.RetrievalResult) (string, error) {
	logger.Section("Advisor")
	defer logger.Timed("advise")()

	if a.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSynthesis, domain.ErrLLMUnavailable)
	}

	prompt := BuildAdvisorPrompt(loadPrompt(a.prompts, driven.PromptAdvisor, defaultAdvisorPrompt), query, retrieval)
	logger.Debug("prompt: %d characters", len(prompt))

	callCtx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	answer, err := a.llm.Complete(callCtx, driven.CompletionRequest{
		Prompt:      prompt,
		Temperature: a.temperature,
	})
	if err != nil {
		return "", stageError(domain.ErrSynthesis, "advisor call", err)
	}
	return answer, nil
}

// BuildAdvisorPrompt fills the advisor template with numbered excerpts and the question.
func BuildAdvisorPrompt(template, query string, retrieval *domain.RetrievalResult) string {
	var passages []domain.Passage
	if retrieval != nil {
		passages = retrieval.Passages
	}
	return fmt.Sprintf(template, FormatExcerpts(passages), query)
}

// FormatExcerpts numbers passages from 1 and labels each with its source.
func FormatExcerpts(passages []domain.Passage) string {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = fmt.Sprintf("[%d] Source: %s (chunk %d)\n%s", i+1, p.Source, p.ChunkIndex, p.Text)
	}
	return strings.Join(parts, excerptSeparator)
}
