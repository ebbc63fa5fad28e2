// Package mcpserver exposes the docrag query path over MCP stdio so
// LLM tooling can retrieve documentation context directly.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iobroker-community/docrag/internal/docrag"
)

// Server wraps the shared service context for MCP exposure.
type Server struct {
	svc     *docrag.Service
	version string
}

func New(svc *docrag.Service, version string) *Server {
	return &Server{svc: svc, version: version}
}

// Run starts the MCP stdio server and blocks until the transport closes.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "docrag",
		Title:   "ioBroker DocRAG",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "docrag_query",
		Description: `Semantic search over ioBroker documentation, adapter templates and API references.

Returns relevant documentation chunks as a ready-to-use context string plus
per-source provenance (file, section, type, relevance).

Filters:
- language: "en" or "de" (content locale)
- doc_type: "doc", "code", "api" or "config"`,
	}, s.queryTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "docrag_status",
		Description: "Check the document count and embedding model of the knowledge base.",
	}, s.statusTool)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) queryTool(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	if input.Question == "" {
		return nil, QueryOutput{}, fmt.Errorf("question is required")
	}
	if input.TopK < 0 || input.TopK > 20 {
		return nil, QueryOutput{}, fmt.Errorf("top_k must be between 1 and 20")
	}

	resp, err := s.svc.Query(ctx, docrag.QueryRequest{
		Question:      input.Question,
		TopK:          input.TopK,
		Language:      input.Language,
		DocType:       input.DocType,
		IncludePrompt: input.IncludePrompt,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}
	return nil, QueryOutput{
		Context:      resp.Context,
		Sources:      resp.Sources,
		Prompt:       resp.Prompt,
		QueryTimeMs:  resp.QueryTimeMs,
		TotalResults: resp.TotalResults,
	}, nil
}

func (s *Server) statusTool(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	count, err := s.svc.DocumentCount(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Status:     "ok",
		Documents:  count,
		Model:      s.svc.Config().EmbeddingModel,
		Collection: s.svc.Config().Collection,
	}, nil
}
