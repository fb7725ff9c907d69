package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

const groundedAnswerPrompt = "grounded_answer"

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        groundedAnswerPrompt,
		Description: "Retrieve excerpts for a tax question and ask the client model to answer only from them",
		Arguments: []*mcp.PromptArgument{{
			Name:        "question",
			Description: "the tax question",
			Required:    true,
		}},
	}, s.handleGroundedAnswer)
}

// handleGroundedAnswer searches the documents and returns a single user
// message holding the numbered excerpts and the question. No LLM call is made.
func (s *Server) handleGroundedAnswer(
	ctx context.Context,
	req *mcp.GetPromptRequest,
) (*mcp.GetPromptResult, error) {
	question := strings.TrimSpace(req.Params.Arguments["question"])
	if question == "" {
		return nil, fmt.Errorf("question: %w", domain.ErrInvalidInput)
	}

	result, err := s.ports.Assistant.Search(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("%d excerpts for %q", len(result.Passages), question),
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: groundedText(question, result)},
		}},
	}, nil
}

func groundedText(question string, result *domain.RetrievalResult) string {
	var b strings.Builder
	if !result.Found || len(result.Passages) == 0 {
		fmt.Fprintf(&b, "The tax documents returned: %s\n\n", domain.NoInformationMessage)
		fmt.Fprintf(&b, "Tell the user you cannot answer this question from the documents: %s", question)
		return b.String()
	}

	b.WriteString("Answer the question using only these excerpts from tax documents. Cite excerpt numbers.\n\n")
	for i, p := range result.Passages {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "[%d] Source: %s (chunk %d)\n%s", i+1, p.Source, p.ChunkIndex, p.Text)
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s", question)
	return b.String()
}
