package mcp

import (
	"context"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// mockAssistantService is a mock implementation of driving.AssistantService.
type mockAssistantService struct {
	turn      *domain.Turn
	retrieval *domain.RetrievalResult
	err       error
	questions []string
}

func (m *mockAssistantService) Ask(_ context.Context, query string) *domain.Turn {
	m.questions = append(m.questions, query)
	if m.turn != nil {
		return m.turn
	}
	turn := domain.NewTurn("t-1", query)
	turn.Complete("answer")
	return turn
}

func (m *mockAssistantService) Search(_ context.Context, query string) (*domain.RetrievalResult, error) {
	m.questions = append(m.questions, query)
	if m.err != nil {
		return nil, m.err
	}
	if m.retrieval != nil {
		return m.retrieval, nil
	}
	return &domain.RetrievalResult{Query: query}, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status *domain.IndexStatus
	err    error
}

func (m *mockIndexService) Index(_ context.Context, _ domain.IndexOptions) (*domain.IndexReport, error) {
	return &domain.IndexReport{}, m.err
}

func (m *mockIndexService) IndexFile(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexService) Reset(_ context.Context) error {
	return m.err
}

func (m *mockIndexService) Status(_ context.Context) (*domain.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockIndexService) Watch(_ context.Context, _ chan<- domain.FileChange) error {
	return m.err
}
