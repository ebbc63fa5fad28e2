package docrag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ChromaClient talks to a Chroma server over its REST API.
type ChromaClient struct {
	baseURL string
	client  *http.Client

	mu  sync.Mutex
	ids map[string]string // collection name -> collection id
}

func NewChromaClient(url string) *ChromaClient {
	return &ChromaClient{
		baseURL: strings.TrimRight(url, "/"),
		client:  &http.Client{Timeout: 20 * time.Second},
		ids:     make(map[string]string),
	}
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *ChromaClient) collectionID(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if id, ok := c.ids[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/collections/"+name, nil)
	if err != nil {
		return "", err
	}
	var col chromaCollection
	if err := json.Unmarshal(data, &col); err != nil {
		return "", err
	}
	if col.ID == "" {
		return "", fmt.Errorf("collection %s not found", name)
	}
	c.mu.Lock()
	c.ids[name] = col.ID
	c.mu.Unlock()
	return col.ID, nil
}

func (c *ChromaClient) EnsureCollection(ctx context.Context, name string) error {
	req := map[string]any{
		"name":          name,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
		"get_or_create": true,
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/collections", req)
	if err != nil {
		return err
	}
	var col chromaCollection
	if err := json.Unmarshal(data, &col); err != nil {
		return err
	}
	c.mu.Lock()
	c.ids[name] = col.ID
	c.mu.Unlock()
	return nil
}

func (c *ChromaClient) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/collections/"+name, nil)
	c.mu.Lock()
	delete(c.ids, name)
	c.mu.Unlock()
	return err
}

func (c *ChromaClient) Upsert(ctx context.Context, name string, points []VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(points))
	embeddings := make([][]float32, 0, len(points))
	documents := make([]string, 0, len(points))
	metadatas := make([]map[string]any, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.ID)
		embeddings = append(embeddings, p.Vector)
		documents = append(documents, p.Document)
		metadatas = append(metadatas, p.Metadata)
	}
	req := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/api/v1/collections/"+id+"/upsert", req)
	return err
}

func (c *ChromaClient) Query(ctx context.Context, name string, vector []float32, topK int, filter Filter) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if where := chromaWhere(filter); where != nil {
		req["where"] = where
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/collections/"+id+"/query", req)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.IDs) == 0 {
		return nil, nil
	}
	results := make([]SearchResult, 0, len(parsed.IDs[0]))
	for i := range parsed.IDs[0] {
		res := SearchResult{ID: parsed.IDs[0][i]}
		if len(parsed.Documents) > 0 && i < len(parsed.Documents[0]) {
			res.Document = parsed.Documents[0][i]
		}
		if len(parsed.Metadatas) > 0 && i < len(parsed.Metadatas[0]) {
			res.Metadata = parsed.Metadatas[0][i]
		}
		if len(parsed.Distances) > 0 && i < len(parsed.Distances[0]) {
			res.Distance = parsed.Distances[0][i]
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *ChromaClient) Count(ctx context.Context, name string) (int, error) {
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return 0, err
	}
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/collections/"+id+"/count", nil)
	if err != nil {
		return 0, err
	}
	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *ChromaClient) Peek(ctx context.Context, name string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 100
	}
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"limit":   limit,
		"include": []string{"metadatas"},
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/collections/"+id+"/get", req)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Metadatas []map[string]any `json:"metadatas"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return parsed.Metadatas, nil
}

func (c *ChromaClient) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chroma status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// chromaWhere renders an equality filter as a Chroma where clause: a bare
// condition for one field, a $and conjunction for several.
func chromaWhere(filter Filter) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]map[string]any, 0, len(filter))
	for _, key := range filter.sortedKeys() {
		conditions = append(conditions, map[string]any{key: filter[key]})
	}
	if len(conditions) == 1 {
		return conditions[0]
	}
	return map[string]any{"$and": conditions}
}
