package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// AskInput is the input schema for the ask_tax_question tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the tax question to answer"`
}

// AskOutput is the output schema for the ask_tax_question tool.
type AskOutput struct {
	Answer         string          `json:"answer"`
	InDomain       bool            `json:"in_domain"`
	RewrittenQuery string          `json:"rewritten_query,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Sources        []PassageOutput `json:"sources,omitempty"`
}

// SearchInput is the input schema for the search_tax_documents tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find relevant passages for"`
}

// SearchOutput is the output schema for the search_tax_documents tool.
type SearchOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
	Message string          `json:"message,omitempty"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_tax_question",
		Description: "Answer a tax question from the indexed tax documents. Non-tax questions are refused.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_tax_documents",
		Description: "Return the passages from the indexed tax documents most similar to a query",
	}, s.handleSearch)
}

// handleAsk runs one question-answer turn.
// A failed turn is reported as a tool error carrying the user-facing message.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	turn := s.ports.Assistant.Ask(ctx, input.Question)
	if turn.State == domain.TurnFailed {
		return nil, AskOutput{}, fmt.Errorf("%s: %w", turn.Answer, turn.Err)
	}

	output := AskOutput{
		Answer:         turn.Answer,
		InDomain:       turn.State != domain.TurnRejected,
		RewrittenQuery: turn.RewrittenQuery,
		Reason:         turn.Route.Reason,
	}
	if turn.Retrieval != nil {
		output.Sources = passagesOutput(turn.Retrieval.Passages)
	}
	return nil, output, nil
}

// handleSearch retrieves passages without routing or synthesis.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.ports.Assistant.Search(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: passagesOutput(result.Passages),
		Count:   len(result.Passages),
	}
	if !result.Found {
		output.Message = domain.NoInformationMessage
	}
	return nil, output, nil
}

func passagesOutput(passages []domain.Passage) []PassageOutput {
	out := make([]PassageOutput, len(passages))
	for i, p := range passages {
		out[i] = PassageOutput{
			Source:     p.Source,
			ChunkIndex: p.ChunkIndex,
			Score:      p.Score,
			Text:       p.Text,
		}
	}
	return out
}
