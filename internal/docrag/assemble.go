package docrag

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const noResultsContext = "No relevant documents found."

const contextSeparator = "\n\n---\n\n"

// Source describes the provenance of one retrieved chunk.
type Source struct {
	File      string  `json:"file"`
	Type      string  `json:"type"`
	Language  string  `json:"language"`
	Adapter   string  `json:"adapter"`
	Section   string  `json:"section"`
	Relevance float64 `json:"relevance"`
}

// QueryResponse is the assembled, prompt-ready retrieval bundle.
type QueryResponse struct {
	Context      string   `json:"context"`
	Sources      []Source `json:"sources"`
	Prompt       string   `json:"prompt,omitempty"`
	QueryTimeMs  float64  `json:"query_time_ms"`
	TotalResults int      `json:"total_results"`
}

// AssembleResponse converts raw nearest-neighbor results into the ranked
// context bundle. Result order is preserved (the store returns best
// first); distances convert to relevance as max(0, 1-d).
func AssembleResponse(question string, results []SearchResult, includePrompt bool, elapsed time.Duration) QueryResponse {
	queryTime := math.Round(elapsed.Seconds()*10000) / 10

	if len(results) == 0 {
		return QueryResponse{
			Context:      noResultsContext,
			Sources:      []Source{},
			QueryTimeMs:  queryTime,
			TotalResults: 0,
		}
	}

	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, res := range results {
		relevance := Relevance(res.Distance)

		file := metaKeyOr(res.Metadata, "source", "unknown")
		section := metaString(res.Metadata, "section")
		typ := metaKeyOr(res.Metadata, "type", "unknown")

		sources = append(sources, Source{
			File:      file,
			Type:      typ,
			Language:  metaKeyOr(res.Metadata, "language", "en"),
			Adapter:   metaKeyOr(res.Metadata, "adapter_name", "unknown"),
			Section:   section,
			Relevance: math.Round(relevance*1000) / 1000,
		})

		header := "[Source: " + file
		if section != "" {
			header += " § " + section
		}
		header += fmt.Sprintf(" | %s | relevance: %.2f]", typ, relevance)
		blocks = append(blocks, header+"\n"+res.Document)
	}

	resp := QueryResponse{
		Context:      strings.Join(blocks, contextSeparator),
		Sources:      sources,
		QueryTimeMs:  queryTime,
		TotalResults: len(results),
	}
	if includePrompt {
		resp.Prompt = buildPrompt(resp.Context, question)
	}
	return resp
}

// Relevance converts a cosine distance in [0,2] to a score in [0,1],
// clamping at zero for distances past 1.
func Relevance(distance float64) float64 {
	if rel := 1 - distance; rel > 0 {
		return rel
	}
	return 0
}

func buildPrompt(context, question string) string {
	return "Based on the following ioBroker documentation and code references:\n\n" +
		context +
		"\n\n---\n\n" +
		"Answer the following question accurately. " +
		"Reference specific files and code examples where applicable. " +
		"If the documentation doesn't fully cover the question, say so.\n\n" +
		"Question: " + question
}
