package docrag

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Filter is a conjunction of equality conditions on metadata fields.
type Filter map[string]string

func (f Filter) sortedKeys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// VectorStore persists embedded chunks and answers nearest-neighbor
// queries. Distances are cosine distances (0 identical, 2 opposite).
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dims int) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []VectorPoint) error
	Query(ctx context.Context, collection string, vector []float32, topK int, filter Filter) ([]SearchResult, error)
	Count(ctx context.Context, collection string) (int, error)
	Peek(ctx context.Context, collection string, limit int) ([]map[string]any, error)
	Close() error
}

// ChromaStore adapts the Chroma REST client to the VectorStore interface.
type ChromaStore struct {
	client *ChromaClient
}

func NewChromaStore(url string) *ChromaStore {
	return &ChromaStore{client: NewChromaClient(url)}
}

func (s *ChromaStore) EnsureCollection(ctx context.Context, name string, dims int) error {
	return s.client.EnsureCollection(ctx, name)
}

func (s *ChromaStore) DeleteCollection(ctx context.Context, name string) error {
	return s.client.DeleteCollection(ctx, name)
}

func (s *ChromaStore) Upsert(ctx context.Context, collection string, points []VectorPoint) error {
	return s.client.Upsert(ctx, collection, points)
}

func (s *ChromaStore) Query(ctx context.Context, collection string, vector []float32, topK int, filter Filter) ([]SearchResult, error) {
	return s.client.Query(ctx, collection, vector, topK, filter)
}

func (s *ChromaStore) Count(ctx context.Context, collection string) (int, error) {
	return s.client.Count(ctx, collection)
}

func (s *ChromaStore) Peek(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	return s.client.Peek(ctx, collection, limit)
}

func (s *ChromaStore) Close() error { return nil }

// LocalVectorStore is a brute-force SQLite store for offline use and
// tests. Vectors are scanned linearly; fine for a corpus of this size.
type LocalVectorStore struct {
	db *sql.DB
	mu sync.Mutex
}

// filterColumns maps metadata filter keys to table columns.
var filterColumns = map[string]string{
	"source":       "source",
	"type":         "type",
	"language":     "language",
	"adapter_name": "adapter_name",
	"section":      "section",
}

func NewLocalVectorStore(path string) (*LocalVectorStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("local store path is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"/vectors.db")
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	store := &LocalVectorStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *LocalVectorStore) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT NOT NULL,
			collection TEXT NOT NULL,
			source TEXT,
			type TEXT,
			language TEXT,
			adapter_name TEXT,
			section TEXT,
			token_count INTEGER,
			document TEXT,
			vector TEXT,
			PRIMARY KEY (collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks (collection);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init vector db: %w", err)
		}
	}
	return nil
}

func (s *LocalVectorStore) EnsureCollection(ctx context.Context, name string, dims int) error {
	return s.initSchema()
}

func (s *LocalVectorStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name)
	return err
}

func (s *LocalVectorStore) Upsert(ctx context.Context, collection string, points []VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO chunks
		(id, collection, source, type, language, adapter_name, section, token_count, document, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		vectorJSON, err := encodeVector(p.Vector)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, collection,
			metaString(p.Metadata, "source"),
			metaString(p.Metadata, "type"),
			metaString(p.Metadata, "language"),
			metaString(p.Metadata, "adapter_name"),
			metaString(p.Metadata, "section"),
			metaInt64(p.Metadata, "token_count"),
			p.Document, vectorJSON,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *LocalVectorStore) Query(ctx context.Context, collection string, vector []float32, topK int, filter Filter) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	queryVec, queryNorm := toFloat64Vector(vector)
	if len(queryVec) == 0 || queryNorm == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	query := `SELECT id, source, type, language, adapter_name, section, token_count, document, vector
		FROM chunks WHERE collection = ?`
	args := []any{collection}
	for _, key := range filter.sortedKeys() {
		col, ok := filterColumns[key]
		if !ok {
			return nil, fmt.Errorf("unsupported filter field: %s", key)
		}
		query += fmt.Sprintf(" AND %s = ?", col)
		args = append(args, filter[key])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchResult
	for rows.Next() {
		var id, source, typ, language, adapter, section, document, vectorJSON string
		var tokenCount int64
		if err := rows.Scan(&id, &source, &typ, &language, &adapter, &section, &tokenCount, &document, &vectorJSON); err != nil {
			return nil, err
		}
		vec, err := decodeVector(vectorJSON)
		if err != nil {
			continue
		}
		sim := cosineSimilarity(queryVec, vec, queryNorm)
		hits = append(hits, SearchResult{
			ID:       id,
			Document: document,
			Metadata: map[string]any{
				"source":       source,
				"type":         typ,
				"language":     language,
				"adapter_name": adapter,
				"section":      section,
				"token_count":  tokenCount,
			},
			Distance: 1 - sim,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *LocalVectorStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, collection).Scan(&count)
	return count, err
}

func (s *LocalVectorStore) Peek(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, type, language, adapter_name, section, token_count FROM chunks WHERE collection = ? LIMIT ?`,
		collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metadatas []map[string]any
	for rows.Next() {
		var source, typ, language, adapter, section string
		var tokenCount int64
		if err := rows.Scan(&source, &typ, &language, &adapter, &section, &tokenCount); err != nil {
			return nil, err
		}
		metadatas = append(metadatas, map[string]any{
			"source":       source,
			"type":         typ,
			"language":     language,
			"adapter_name": adapter,
			"section":      section,
			"token_count":  tokenCount,
		})
	}
	return metadatas, rows.Err()
}

func (s *LocalVectorStore) Close() error {
	return s.db.Close()
}

func encodeVector(vec []float32) (string, error) {
	data := make([]float64, len(vec))
	for i, val := range vec {
		data[i] = float64(val)
	}
	out, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeVector(raw string) ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func toFloat64Vector(vec []float32) ([]float64, float64) {
	out := make([]float64, len(vec))
	var sum float64
	for i, val := range vec {
		v := float64(val)
		out[i] = v
		sum += v * v
	}
	return out, math.Sqrt(sum)
}

func cosineSimilarity(query []float64, vec []float64, queryNorm float64) float64 {
	if len(query) == 0 || len(query) != len(vec) || queryNorm == 0 {
		return 0
	}
	var dot float64
	var norm float64
	for i, val := range vec {
		dot += query[i] * val
		norm += val * val
	}
	if norm == 0 {
		return 0
	}
	return dot / (queryNorm * math.Sqrt(norm))
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	val, ok := meta[key]
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func metaInt64(meta map[string]any, key string) int64 {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	default:
		return 0
	}
}
