package docrag

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Service is the explicitly constructed context object holding the
// configured collaborators. Built once at process start; safe for
// concurrent queries (the store and embedder are read-only after
// construction).
type Service struct {
	cfg      Config
	store    VectorStore
	embedder Embedder
	chunker  *Chunker
}

// NewService wires the production collaborators from config: the
// cl100k_base tokenizer, the embedding client and either the Chroma
// store or the local SQLite store.
func NewService(cfg Config) (*Service, error) {
	tok, err := NewTiktokenTokenizer()
	if err != nil {
		return nil, err
	}
	embedder, err := NewEmbeddingClient(cfg)
	if err != nil {
		return nil, err
	}
	var store VectorStore
	if strings.TrimSpace(cfg.ChromaURL) != "" {
		store = NewChromaStore(cfg.ChromaURL)
	} else {
		store, err = NewLocalVectorStore(cfg.LocalStorePath)
		if err != nil {
			return nil, err
		}
	}
	return NewServiceWith(cfg, store, embedder, tok), nil
}

// NewServiceWith assembles a service from explicit collaborators. Tests
// inject fakes through this constructor.
func NewServiceWith(cfg Config, store VectorStore, embedder Embedder, tok Tokenizer) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		chunker:  NewChunker(tok, cfg.ChunkMaxTokens, cfg.ChunkOverlapTokens),
	}
}

func (s *Service) Config() Config { return s.cfg }

func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// QueryRequest is a semantic search request against the collection.
type QueryRequest struct {
	Question      string
	TopK          int
	Language      string
	DocType       string
	IncludePrompt bool
}

// Query embeds the question, runs the filtered nearest-neighbor search
// and assembles the ranked context bundle. A store failure is returned
// to the caller; zero matches is a normal empty response.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	start := time.Now()
	if strings.TrimSpace(req.Question) == "" {
		return QueryResponse{}, fmt.Errorf("question is required")
	}
	vectors, err := s.embedder.EmbedTexts(ctx, []string{req.Question})
	if err != nil {
		return QueryResponse{}, fmt.Errorf("embed question: %w", err)
	}
	filter := Filter{}
	if req.Language != "" {
		filter["language"] = req.Language
	}
	if req.DocType != "" {
		filter["type"] = req.DocType
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.QueryTopK
	}
	results, err := s.store.Query(ctx, s.cfg.Collection, vectors[0], topK, filter)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("vector query: %w", err)
	}
	return AssembleResponse(req.Question, results, req.IncludePrompt, time.Since(start)), nil
}

// DocumentCount reports the number of stored documents.
func (s *Service) DocumentCount(ctx context.Context) (int, error) {
	return s.store.Count(ctx, s.cfg.Collection)
}

// CollectionSample is an approximate distribution snapshot built from a
// bounded peek at stored metadata, not an exhaustive scan.
type CollectionSample struct {
	TotalDocuments int            `json:"total_documents"`
	Types          map[string]int `json:"sample_type_distribution"`
	Languages      map[string]int `json:"sample_language_distribution"`
	Adapters       map[string]int `json:"sample_adapter_distribution"`
}

func (s *Service) SampleStats(ctx context.Context, limit int) (CollectionSample, error) {
	count, err := s.store.Count(ctx, s.cfg.Collection)
	if err != nil {
		return CollectionSample{}, err
	}
	metadatas, err := s.store.Peek(ctx, s.cfg.Collection, limit)
	if err != nil {
		return CollectionSample{}, err
	}
	sample := CollectionSample{
		TotalDocuments: count,
		Types:          make(map[string]int),
		Languages:      make(map[string]int),
		Adapters:       make(map[string]int),
	}
	for _, meta := range metadatas {
		sample.Types[metaKeyOr(meta, "type", "unknown")]++
		sample.Languages[metaKeyOr(meta, "language", "unknown")]++
		sample.Adapters[metaKeyOr(meta, "adapter_name", "unknown")]++
	}
	return sample, nil
}

func metaKeyOr(meta map[string]any, key, fallback string) string {
	if val := metaString(meta, key); val != "" {
		return val
	}
	return fallback
}
