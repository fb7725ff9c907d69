package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService runs question-answer turns through the Router, Researcher
// and Advisor stages in sequence.
type AssistantService struct {
	router     *Router
	researcher *Researcher
	advisor    *Advisor
}

// NewAssistantService creates an assistant from its three stages.
func NewAssistantService(router *Router, researcher *Researcher, advisor *Advisor) *AssistantService {
	return &AssistantService{
		router:     router,
		researcher: researcher,
		advisor:    advisor,
	}
}

// Ask runs one turn:
//
//	received -> routed -> retrieved -> synthesized -> returned
//	         \-> rejected
//
// Any stage error ends the turn in the failed state with a user-facing answer.
func (s *AssistantService) Ask(ctx context.Context, query string) *domain.Turn {
	turn := domain.NewTurn(uuid.NewString(), strings.TrimSpace(query))
	logger.Debug("turn %s: %q", turn.ID, turn.Query)

	if turn.Query == "" {
		turn.Fail(fmt.Errorf("%w: empty question", domain.ErrInvalidInput))
		return turn
	}

	s.router.Route(ctx, turn)
	if turn.State.IsTerminal() {
		return turn
	}

	retrieval, err := s.researcher.Retrieve(ctx, turn.RewrittenQuery)
	if err != nil {
		turn.Fail(err)
		return turn
	}
	turn.Retrieval = retrieval
	turn.State = domain.TurnRetrieved

	if !retrieval.Found {
		turn.Complete(domain.NoInformationMessage)
		return turn
	}

	answer, err := s.advisor.Advise(ctx, turn.Query, retrieval)
	if err != nil {
		turn.Fail(err)
		return turn
	}
	turn.State = domain.TurnSynthesized

	turn.Complete(answer)
	logger.Debug("turn %s finished in %s", turn.ID, turn.Duration())
	return turn
}

// Search retrieves passages for query without routing or synthesis.
func (s *AssistantService) Search(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	return s.researcher.Retrieve(ctx, query)
}
