package driving

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// AssistantService answers tax questions.
type AssistantService interface {
	// Ask runs one question-answer turn. Turn-level failures are reported
	// on the returned Turn (State failed, Err set) rather than as an error.
	Ask(ctx context.Context, query string) *domain.Turn

	// Search retrieves passages for a query without routing or synthesis.
	Search(ctx context.Context, query string) (*domain.RetrievalResult, error)
}
