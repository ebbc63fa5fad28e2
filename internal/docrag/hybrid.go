package docrag

import (
	"context"
	"fmt"
	"sort"
)

// MixedHit is one entry of a merged vector+keyword result list.
type MixedHit struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Section string  `json:"section,omitempty"`
	Type    string  `json:"type"`
	Score   float64 `json:"score"`
	Origin  string  `json:"origin"`
}

// SearchKeyword runs a keyword query against the bleve chunk index built
// during the last ingest run.
func (s *Service) SearchKeyword(query string, topK int) ([]TextHit, error) {
	index, err := OpenTextIndex(s.cfg.TextIndexDir)
	if err != nil {
		return nil, fmt.Errorf("open text index (run ingest first): %w", err)
	}
	defer index.Close()
	return SearchText(index, query, topK)
}

// SearchMixed merges vector and keyword hits: overlap is rewarded, the
// vector side dominates, keyword-only hits enter with a dampened score.
func (s *Service) SearchMixed(ctx context.Context, query string, topK int) ([]MixedHit, error) {
	vectorResults, err := s.vectorHits(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	textHits, err := s.SearchKeyword(query, topK)
	if err != nil {
		return nil, err
	}

	maxText := 0.0
	for _, hit := range textHits {
		if hit.Score > maxText {
			maxText = hit.Score
		}
	}

	hitMap := make(map[string]MixedHit)
	for _, res := range vectorResults {
		hitMap[res.ID] = MixedHit{
			ID:      res.ID,
			Source:  metaKeyOr(res.Metadata, "source", "unknown"),
			Section: metaString(res.Metadata, "section"),
			Type:    metaKeyOr(res.Metadata, "type", "unknown"),
			Score:   Relevance(res.Distance),
			Origin:  "vector",
		}
	}
	for _, hit := range textHits {
		normalized := 0.0
		if maxText > 0 {
			normalized = hit.Score / maxText
		}
		if existing, ok := hitMap[hit.ID]; ok {
			existing.Score += 0.5 * normalized
			existing.Origin = "mixed"
			hitMap[hit.ID] = existing
			continue
		}
		hitMap[hit.ID] = MixedHit{
			ID:      hit.ID,
			Source:  hit.Source,
			Section: hit.Section,
			Type:    hit.Type,
			Score:   0.6 * normalized,
			Origin:  "text",
		}
	}

	merged := make([]MixedHit, 0, len(hitMap))
	for _, hit := range hitMap {
		merged = append(merged, hit)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score == merged[j].Score {
			return merged[i].Source < merged[j].Source
		}
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

func (s *Service) vectorHits(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if topK <= 0 {
		topK = s.cfg.QueryTopK
	}
	return s.store.Query(ctx, s.cfg.Collection, vectors[0], topK, nil)
}
