package docrag

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// TextDoc is the keyword-index projection of a chunk.
type TextDoc struct {
	Content  string `json:"content"`
	Source   string `json:"source"`
	Section  string `json:"section"`
	Type     string `json:"type"`
	Language string `json:"language"`
	Adapter  string `json:"adapter_name"`
}

// TextHit is one keyword search result.
type TextHit struct {
	ID      string
	Source  string
	Section string
	Type    string
	Content string
	Score   float64
}

type TextIndexer interface {
	IndexChunk(id string, doc TextDoc) error
	Close() error
}

type BleveIndexer struct {
	index bleve.Index
}

// CreateTextIndex rebuilds the keyword index from scratch.
func CreateTextIndex(dir string) (TextIndexer, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset text index dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create text index dir: %w", err)
	}
	index, err := bleve.New(dir, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveIndexer{index: index}, nil
}

func OpenTextIndex(dir string) (bleve.Index, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return index, nil
}

func (b *BleveIndexer) IndexChunk(id string, doc TextDoc) error {
	return b.index.Index(id, doc)
}

func (b *BleveIndexer) Close() error {
	return b.index.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "content"

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = true
	contentField.Index = true
	docMapping.AddFieldMappingsAt("content", contentField)

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Store = true
	sourceField.Index = true
	docMapping.AddFieldMappingsAt("source", sourceField)

	sectionField := bleve.NewTextFieldMapping()
	sectionField.Store = true
	sectionField.Index = true
	docMapping.AddFieldMappingsAt("section", sectionField)

	for _, name := range []string{"type", "language", "adapter_name"} {
		field := bleve.NewTextFieldMapping()
		field.Store = true
		field.Index = true
		field.Analyzer = "keyword"
		docMapping.AddFieldMappingsAt(name, field)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// SearchText runs a keyword query over the chunk index; content matches
// are weighted below section and source matches.
func SearchText(index bleve.Index, query string, topK int) ([]TextHit, error) {
	if topK <= 0 {
		topK = 5
	}

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	contentQuery.SetBoost(1.0)
	sectionQuery := bleve.NewMatchQuery(query)
	sectionQuery.SetField("section")
	sectionQuery.SetBoost(2.0)
	sourceQuery := bleve.NewMatchQuery(query)
	sourceQuery.SetField("source")
	sourceQuery.SetBoost(1.5)

	disjunction := bleve.NewDisjunctionQuery([]blevequery.Query{contentQuery, sectionQuery, sourceQuery}...)

	req := bleve.NewSearchRequestOptions(disjunction, topK, 0, false)
	req.Fields = []string{"content", "source", "section", "type"}

	res, err := index.Search(req)
	if err != nil {
		return nil, err
	}

	var hits []TextHit
	for _, hit := range res.Hits {
		source, _ := hit.Fields["source"].(string)
		section, _ := hit.Fields["section"].(string)
		typ, _ := hit.Fields["type"].(string)
		content, _ := hit.Fields["content"].(string)
		hits = append(hits, TextHit{
			ID:      hit.ID,
			Source:  source,
			Section: section,
			Type:    typ,
			Content: content,
			Score:   hit.Score,
		})
	}
	return hits, nil
}
