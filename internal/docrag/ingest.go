package docrag

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// IngestWarning aggregates per-file and per-batch failures that were
// isolated during a run. The run itself is still considered complete.
type IngestWarning struct {
	Count   int
	Samples []string
}

func (w *IngestWarning) Error() string {
	if w == nil {
		return ""
	}
	if len(w.Samples) > 0 {
		return fmt.Sprintf("ingest completed with %d errors: %s", w.Count, strings.Join(w.Samples, "; "))
	}
	return fmt.Sprintf("ingest completed with %d errors", w.Count)
}

type ingestErrorCollector struct {
	mu      sync.Mutex
	count   int
	samples []string
}

func (c *ingestErrorCollector) Add(unit string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if len(c.samples) < 5 {
		c.samples = append(c.samples, fmt.Sprintf("%s: %v", unit, err))
	}
}

func (c *ingestErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return nil
	}
	return &IngestWarning{Count: c.count, Samples: c.samples}
}

// ingestRecord pairs a chunk with the deterministic ID assigned from its
// intra-file position.
type ingestRecord struct {
	ID    string
	Chunk Chunk
}

// Ingest runs the full pipeline: collect files, chunk, classify, embed
// in batches, upsert into the vector store and the keyword index, then
// persist run statistics. With reset the collection is dropped first.
//
// Per-file and per-batch failures are logged and isolated; the returned
// error is either a fatal setup failure, the operator-facing
// "no chunks created" error, or an *IngestWarning alongside valid stats.
func (s *Service) Ingest(ctx context.Context, reset bool, reporter ProgressReporter) (RunStats, error) {
	start := time.Now()

	if reset {
		if err := s.store.DeleteCollection(ctx, s.cfg.Collection); err != nil {
			log.Printf("delete collection %s: %v", s.cfg.Collection, err)
		} else {
			log.Printf("deleted existing collection: %s", s.cfg.Collection)
		}
	}
	if err := s.store.EnsureCollection(ctx, s.cfg.Collection, s.cfg.EmbeddingDimensions); err != nil {
		return RunStats{}, fmt.Errorf("ensure collection: %w", err)
	}

	files := CollectFiles(s.cfg)
	log.Printf("found %d files to process", len(files))

	collector := &ingestErrorCollector{}
	var records []ingestRecord

	for _, file := range files {
		chunks, err := s.chunkFile(file)
		if err != nil {
			log.Printf("error processing %s: %v", file.DisplayPath, err)
			collector.Add(file.DisplayPath, err)
			continue
		}
		for idx, chunk := range chunks {
			records = append(records, ingestRecord{
				ID:    DocID(chunk.SourceFile, idx),
				Chunk: chunk,
			})
		}
	}
	log.Printf("created %d chunks from %d files", len(records), len(files))

	if len(records) == 0 {
		return RunStats{}, fmt.Errorf("no chunks created; check repo paths under %s", s.cfg.ReposDir)
	}

	typeCounts := make(map[string]int)
	langCounts := make(map[string]int)
	for _, rec := range records {
		typeCounts[rec.Chunk.Type]++
		langCounts[rec.Chunk.Language]++
	}
	log.Printf("chunk types: %v", typeCounts)
	log.Printf("languages: %v", langCounts)

	textIndex, err := CreateTextIndex(s.cfg.TextIndexDir)
	if err != nil {
		return RunStats{}, fmt.Errorf("create text index: %w", err)
	}
	defer textIndex.Close()

	if reporter != nil {
		reporter.Start(len(records))
	}
	stored := 0
	for batchStart := 0; batchStart < len(records); batchStart += s.cfg.BatchSize {
		batchEnd := batchStart + s.cfg.BatchSize
		if batchEnd > len(records) {
			batchEnd = len(records)
		}
		batch := records[batchStart:batchEnd]
		if err := s.storeBatch(ctx, batch, textIndex); err != nil {
			log.Printf("batch %d-%d failed: %v", batchStart, batchEnd, err)
			collector.Add(fmt.Sprintf("batch %d-%d", batchStart, batchEnd), err)
		} else {
			stored += len(batch)
		}
		if reporter != nil {
			for range batch {
				reporter.Increment()
			}
		}
	}
	if reporter != nil {
		reporter.Finish()
	}
	log.Printf("stored %d/%d chunks", stored, len(records))

	finalCount, err := s.store.Count(ctx, s.cfg.Collection)
	if err != nil {
		log.Printf("count collection: %v", err)
	}
	elapsed := time.Since(start)

	stats := RunStats{
		FilesProcessed:       len(files),
		ChunksCreated:        len(records),
		TotalInCollection:    finalCount,
		TypeDistribution:     typeCounts,
		LanguageDistribution: langCounts,
		ElapsedSeconds:       math.Round(elapsed.Seconds()*10) / 10,
	}
	if err := SaveRunStats(s.cfg.StatsPath, stats); err != nil {
		log.Printf("save run stats: %v", err)
		collector.Add("run stats", err)
	} else {
		log.Printf("stats saved to %s", s.cfg.StatsPath)
	}

	return stats, collector.Err()
}

// chunkFile reads one file and turns it into tagged chunks. Invalid
// UTF-8 is replaced, never fatal; empty files yield no chunks.
func (s *Service) chunkFile(file FileEntry) ([]Chunk, error) {
	raw, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return nil, err
	}
	content := decodeBestEffort(raw)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	ext := strings.ToLower(filepath.Ext(file.AbsPath))
	var chunks []Chunk
	if ext == ".md" {
		chunks = s.chunker.ChunkMarkdown(content, file.DisplayPath)
	} else {
		chunks = s.chunker.ChunkCode(content, file.DisplayPath)
	}

	fileType := DetectFileType(file.DisplayPath)
	language := DetectLanguage(file.DisplayPath)
	adapter := DetectAdapterName(file.DisplayPath)
	for i := range chunks {
		chunks[i].Language = language
		chunks[i].Adapter = adapter
		// Non-markdown chunks carry the file-level tag (code/api/config).
		// In markdown, fenced blocks stay code; prose in an API reference
		// document is retagged api.
		if ext != ".md" {
			chunks[i].Type = fileType
		} else if chunks[i].Type == TypeDoc && fileType == TypeAPI {
			chunks[i].Type = fileType
		}
	}
	return chunks, nil
}

func (s *Service) storeBatch(ctx context.Context, batch []ingestRecord, textIndex TextIndexer) error {
	texts := make([]string, 0, len(batch))
	for _, rec := range batch {
		texts = append(texts, rec.Chunk.Text)
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
	}

	points := make([]VectorPoint, 0, len(batch))
	for i, rec := range batch {
		points = append(points, VectorPoint{
			ID:       rec.ID,
			Vector:   vectors[i],
			Document: rec.Chunk.Text,
			Metadata: rec.Chunk.Metadata(),
		})
	}
	if err := s.store.Upsert(ctx, s.cfg.Collection, points); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	for _, rec := range batch {
		doc := TextDoc{
			Content:  rec.Chunk.Text,
			Source:   rec.Chunk.SourceFile,
			Section:  rec.Chunk.Section,
			Type:     rec.Chunk.Type,
			Language: rec.Chunk.Language,
			Adapter:  rec.Chunk.Adapter,
		}
		if err := textIndex.IndexChunk(rec.ID, doc); err != nil {
			log.Printf("text index %s: %v", rec.ID, err)
		}
	}
	return nil
}

// decodeBestEffort replaces invalid UTF-8 byte sequences instead of
// failing the file.
func decodeBestEffort(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
