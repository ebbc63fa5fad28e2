package docrag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// fakeChroma implements just enough of the Chroma REST API to exercise
// the client's request shapes and response parsing.
func fakeChroma(t *testing.T, requests map[string]json.RawMessage) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("create collection body: %v", err)
		}
		if body["get_or_create"] != true {
			t.Errorf("get_or_create = %v, want true", body["get_or_create"])
		}
		_ = json.NewEncoder(w).Encode(chromaCollection{ID: "col-id-1", Name: body["name"].(string)})
	})
	mux.HandleFunc("POST /api/v1/collections/col-id-1/query", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(mustReadJSON(t, r))
		requests["query"] = raw
		_, _ = w.Write([]byte(`{
			"ids": [["abc_0", "def_1"]],
			"documents": [["first text", "second text"]],
			"metadatas": [[{"source": "a.md", "type": "doc"}, {"source": "b.js", "type": "code"}]],
			"distances": [[0.1, 0.4]]
		}`))
	})
	mux.HandleFunc("POST /api/v1/collections/col-id-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(mustReadJSON(t, r))
		requests["upsert"] = raw
		_, _ = w.Write([]byte(`true`))
	})
	mux.HandleFunc("GET /api/v1/collections/col-id-1/count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`42`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func mustReadJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return body
}

func TestChromaClientQuery(t *testing.T) {
	requests := make(map[string]json.RawMessage)
	server := fakeChroma(t, requests)
	client := NewChromaClient(server.URL)
	ctx := context.Background()

	if err := client.EnsureCollection(ctx, "iobroker_docs"); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	results, err := client.Query(ctx, "iobroker_docs", []float32{0.1, 0.2}, 2, Filter{"language": "en"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "abc_0" || results[0].Document != "first text" || results[0].Distance != 0.1 {
		t.Errorf("first result = %+v", results[0])
	}
	if got := metaString(results[1].Metadata, "source"); got != "b.js" {
		t.Errorf("second metadata source = %q", got)
	}

	var sent map[string]any
	if err := json.Unmarshal(requests["query"], &sent); err != nil {
		t.Fatal(err)
	}
	if sent["n_results"] != float64(2) {
		t.Errorf("n_results = %v", sent["n_results"])
	}
	if !reflect.DeepEqual(sent["where"], map[string]any{"language": "en"}) {
		t.Errorf("where = %v, want bare condition", sent["where"])
	}
}

func TestChromaClientUpsert(t *testing.T) {
	requests := make(map[string]json.RawMessage)
	server := fakeChroma(t, requests)
	client := NewChromaClient(server.URL)
	ctx := context.Background()

	if err := client.EnsureCollection(ctx, "iobroker_docs"); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	points := []VectorPoint{{
		ID:       "abc_0",
		Vector:   []float32{1, 2},
		Document: "text",
		Metadata: map[string]any{"source": "a.md"},
	}}
	if err := client.Upsert(ctx, "iobroker_docs", points); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var sent struct {
		IDs       []string         `json:"ids"`
		Documents []string         `json:"documents"`
		Metadatas []map[string]any `json:"metadatas"`
	}
	if err := json.Unmarshal(requests["upsert"], &sent); err != nil {
		t.Fatal(err)
	}
	if len(sent.IDs) != 1 || sent.IDs[0] != "abc_0" || sent.Documents[0] != "text" {
		t.Errorf("upsert payload = %+v", sent)
	}

	count, err := client.Count(ctx, "iobroker_docs")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
}

func TestChromaClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewChromaClient(server.URL)
	err := client.EnsureCollection(context.Background(), "x")
	if err == nil || !containsAll(err.Error(), "500", "boom") {
		t.Errorf("err = %v, want status and body surfaced", err)
	}
}

func TestChromaWhere(t *testing.T) {
	if got := chromaWhere(nil); got != nil {
		t.Errorf("empty filter = %v, want nil", got)
	}
	got := chromaWhere(Filter{"language": "de"})
	if !reflect.DeepEqual(got, map[string]any{"language": "de"}) {
		t.Errorf("single condition = %v", got)
	}
	got = chromaWhere(Filter{"language": "de", "type": "doc"})
	want := map[string]any{"$and": []map[string]any{
		{"language": "de"},
		{"type": "doc"},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("conjunction = %v, want %v", got, want)
	}
}
