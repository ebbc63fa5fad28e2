package mcpserver

import "github.com/iobroker-community/docrag/internal/docrag"

// QueryInput defines inputs for the docrag_query MCP tool.
type QueryInput struct {
	Question      string `json:"question" jsonschema:"the question to search the knowledge base for"`
	TopK          int    `json:"top_k,omitempty" jsonschema:"number of results to return (1-20)"`
	Language      string `json:"language,omitempty" jsonschema:"filter by content language (en/de)"`
	DocType       string `json:"doc_type,omitempty" jsonschema:"filter by chunk type (doc/code/api/config)"`
	IncludePrompt bool   `json:"include_prompt,omitempty" jsonschema:"include a pre-built LLM prompt"`
}

// QueryOutput is the output for docrag_query.
type QueryOutput struct {
	Context      string          `json:"context"`
	Sources      []docrag.Source `json:"sources"`
	Prompt       string          `json:"prompt,omitempty"`
	QueryTimeMs  float64         `json:"query_time_ms"`
	TotalResults int             `json:"total_results"`
}

// StatusInput defines inputs for the docrag_status MCP tool.
type StatusInput struct{}

// StatusOutput reports collection health for docrag_status.
type StatusOutput struct {
	Status     string `json:"status"`
	Documents  int    `json:"documents"`
	Model      string `json:"model"`
	Collection string `json:"collection"`
}
