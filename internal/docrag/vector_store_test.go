package docrag

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *LocalVectorStore {
	t.Helper()
	store, err := NewLocalVectorStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalVectorStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testPoints() []VectorPoint {
	return []VectorPoint{
		{
			ID:       "p1",
			Vector:   []float32{1, 0, 0},
			Document: "states doc",
			Metadata: map[string]any{"source": "a.md", "type": "doc", "language": "en", "adapter_name": "ioBroker.docs", "section": "States", "token_count": 2},
		},
		{
			ID:       "p2",
			Vector:   []float32{0, 1, 0},
			Document: "objekte doku",
			Metadata: map[string]any{"source": "b.md", "type": "doc", "language": "de", "adapter_name": "ioBroker.docs", "section": "", "token_count": 2},
		},
		{
			ID:       "p3",
			Vector:   []float32{0.9, 0.4, 0},
			Document: "setState example",
			Metadata: map[string]any{"source": "c.js", "type": "code", "language": "en", "adapter_name": "ioBroker.template", "section": "", "token_count": 2},
		},
	}
}

func TestLocalStoreQueryOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "col", testPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := store.Query(ctx, "col", []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "p1" || hits[1].ID != "p3" {
		t.Errorf("order = [%s %s], want [p1 p3]", hits[0].ID, hits[1].ID)
	}
	if hits[0].Distance > 1e-9 {
		t.Errorf("identical vector distance = %v, want ~0", hits[0].Distance)
	}
	if hits[1].Distance <= hits[0].Distance {
		t.Errorf("distances not ascending: %v <= %v", hits[1].Distance, hits[0].Distance)
	}
	if got := metaString(hits[0].Metadata, "source"); got != "a.md" {
		t.Errorf("metadata source = %q, want a.md", got)
	}
}

func TestLocalStoreQueryFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, "col", testPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := store.Query(ctx, "col", []float32{1, 0, 0}, 10, Filter{"language": "de"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "p2" {
		t.Fatalf("filtered hits = %+v, want only p2", hits)
	}

	hits, err = store.Query(ctx, "col", []float32{1, 0, 0}, 10, Filter{"language": "en", "type": "code"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "p3" {
		t.Fatalf("conjunctive filter hits = %+v, want only p3", hits)
	}

	if _, err := store.Query(ctx, "col", []float32{1, 0, 0}, 10, Filter{"bogus": "x"}); err == nil {
		t.Error("unsupported filter field should fail")
	}
}

func TestLocalStoreUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, "col", testPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	updated := testPoints()[0]
	updated.Document = "states doc v2"
	if err := store.Upsert(ctx, "col", []VectorPoint{updated}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	count, err := store.Count(ctx, "col")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3 (same ID replaces)", count)
	}

	hits, err := store.Query(ctx, "col", []float32{1, 0, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if hits[0].Document != "states doc v2" {
		t.Errorf("document = %q, want the replaced text", hits[0].Document)
	}
}

func TestLocalStoreCollectionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, "col_a", testPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Upsert(ctx, "col_b", testPoints()[:1]); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := store.DeleteCollection(ctx, "col_a"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	countA, _ := store.Count(ctx, "col_a")
	countB, _ := store.Count(ctx, "col_b")
	if countA != 0 || countB != 1 {
		t.Errorf("counts = (%d, %d), want (0, 1)", countA, countB)
	}
}

func TestLocalStorePeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, "col", testPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	metadatas, err := store.Peek(ctx, "col", 2)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if len(metadatas) != 2 {
		t.Fatalf("got %d metadatas, want 2", len(metadatas))
	}
	for _, meta := range metadatas {
		if metaString(meta, "source") == "" || metaString(meta, "type") == "" {
			t.Errorf("incomplete metadata: %v", meta)
		}
	}
}

func TestLocalStoreEmptyQueryVector(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Query(context.Background(), "col", nil, 5, nil); err == nil {
		t.Error("empty query vector should fail")
	}
}
