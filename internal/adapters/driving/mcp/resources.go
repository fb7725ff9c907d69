package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for taxadvisor resources.
	uriScheme = "taxadvisor://"
)

// indexInfo is the JSON body of the index resource.
type indexInfo struct {
	Backend        string       `json:"backend"`
	EmbeddingModel string       `json:"embedding_model,omitempty"`
	Dimensions     int          `json:"dimensions,omitempty"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
	Chunks         int          `json:"chunks"`
	Sources        []sourceInfo `json:"sources"`
}

type sourceInfo struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Embedding model, backend and indexed source documents",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{source}",
		Name:        "source",
		Description: "Chunk count of one indexed source document",
		MIMEType:    "application/json",
	}, s.handleSourceResource)
}

// handleIndexResource describes the current contents of the vector store.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return jsonResult(req.Params.URI, indexInfo{Sources: []sourceInfo{}})
	}

	status, err := s.ports.Index.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index status: %w", err)
	}

	info := indexInfo{
		Backend: status.Backend,
		Chunks:  status.TotalChunks(),
		Sources: make([]sourceInfo, 0, len(status.Sources)),
	}
	if status.Metadata != nil {
		info.EmbeddingModel = status.Metadata.EmbeddingModel
		info.Dimensions = status.Metadata.Dimensions
		updated := status.Metadata.UpdatedAt
		info.UpdatedAt = &updated
	}
	for _, src := range status.Sources {
		info.Sources = append(info.Sources, sourceInfo{Source: src.Source, Chunks: src.Chunks})
	}
	sort.Slice(info.Sources, func(i, j int) bool { return info.Sources[i].Source < info.Sources[j].Source })

	return jsonResult(req.Params.URI, info)
}

// handleSourceResource returns the stored summary of one source.
func (s *Server) handleSourceResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	source := extractSourcePath(req.Params.URI)
	if source == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Index.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index status: %w", err)
	}
	src, ok := status.Sources[source]
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResult(req.Params.URI, sourceInfo{Source: src.Source, Chunks: src.Chunks})
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSourcePath extracts the source path from a URI like taxadvisor://sources/{source}.
func extractSourcePath(uri string) string {
	const prefix = uriScheme + "sources/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
