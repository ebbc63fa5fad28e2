package docrag

import (
	"strings"
	"testing"
	"time"
)

func TestRelevance(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.2, 0.8},
		{0.5, 0.5},
		{1, 0},
		{1.5, 0},
		{2, 0},
	}
	for _, tt := range tests {
		if got := Relevance(tt.distance); got != tt.want {
			t.Errorf("Relevance(%v) = %v, want %v", tt.distance, got, tt.want)
		}
	}
}

func TestAssembleResponseEmpty(t *testing.T) {
	resp := AssembleResponse("anything", nil, true, 1500*time.Microsecond)
	if resp.Context != "No relevant documents found." {
		t.Errorf("context = %q", resp.Context)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources = %v, want empty non-nil slice", resp.Sources)
	}
	if resp.TotalResults != 0 {
		t.Errorf("total = %d, want 0", resp.TotalResults)
	}
	if resp.Prompt != "" {
		t.Errorf("prompt should stay empty without results, got %q", resp.Prompt)
	}
	if resp.QueryTimeMs != 1.5 {
		t.Errorf("query time = %v, want 1.5", resp.QueryTimeMs)
	}
}

func TestAssembleResponse(t *testing.T) {
	results := []SearchResult{
		{
			ID:       "a",
			Document: "States are written with setState.",
			Metadata: map[string]any{
				"source":       "ioBroker.docs/docs/en/dev/adapterstates.md",
				"section":      "Writing states",
				"type":         "doc",
				"language":     "en",
				"adapter_name": "ioBroker.docs",
			},
			Distance: 0.2,
		},
		{
			ID:       "b",
			Document: "adapter.setState('x', 1);",
			Metadata: map[string]any{
				"source":   "ioBroker.template/main.js",
				"type":     "code",
				"language": "en",
			},
			Distance: 0.6,
		},
	}

	resp := AssembleResponse("how do I write states", results, true, time.Millisecond)

	wantHeader := "[Source: ioBroker.docs/docs/en/dev/adapterstates.md § Writing states | doc | relevance: 0.80]"
	if !strings.HasPrefix(resp.Context, wantHeader+"\nStates are written") {
		t.Errorf("context starts with %q, want %q", firstLine(resp.Context), wantHeader)
	}
	if !strings.Contains(resp.Context, "\n\n---\n\n[Source: ioBroker.template/main.js | code | relevance: 0.40]") {
		t.Errorf("second block header missing or wrong:\n%s", resp.Context)
	}

	if len(resp.Sources) != 2 || resp.TotalResults != 2 {
		t.Fatalf("sources = %d, total = %d, want 2", len(resp.Sources), resp.TotalResults)
	}
	first := resp.Sources[0]
	if first.File != "ioBroker.docs/docs/en/dev/adapterstates.md" || first.Relevance != 0.8 || first.Section != "Writing states" {
		t.Errorf("first source = %+v", first)
	}
	second := resp.Sources[1]
	if second.Adapter != "unknown" || second.Section != "" {
		t.Errorf("second source should default missing metadata: %+v", second)
	}

	if !strings.Contains(resp.Prompt, resp.Context) {
		t.Error("prompt should embed the assembled context")
	}
	if !strings.HasSuffix(resp.Prompt, "Question: how do I write states") {
		t.Errorf("prompt ends with %q", resp.Prompt[len(resp.Prompt)-40:])
	}
}

func TestAssembleResponseWithoutPrompt(t *testing.T) {
	results := []SearchResult{{ID: "a", Document: "text", Metadata: map[string]any{"source": "x.md", "type": "doc"}, Distance: 0.1}}
	resp := AssembleResponse("q", results, false, time.Millisecond)
	if resp.Prompt != "" {
		t.Errorf("prompt = %q, want empty", resp.Prompt)
	}
}

func TestAssembleResponseRoundsRelevance(t *testing.T) {
	results := []SearchResult{{ID: "a", Document: "text", Metadata: map[string]any{"source": "x.md", "type": "doc"}, Distance: 0.123456}}
	resp := AssembleResponse("q", results, false, 0)
	if resp.Sources[0].Relevance != 0.877 {
		t.Errorf("relevance = %v, want 0.877", resp.Sources[0].Relevance)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
