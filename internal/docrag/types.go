package docrag

// Chunk type tags attached to every stored chunk.
const (
	TypeDoc    = "doc"
	TypeCode   = "code"
	TypeAPI    = "api"
	TypeConfig = "config"
)

// Chunk is the atomic unit of ingestion and retrieval: a bounded piece of
// text plus the provenance metadata stored alongside its vector.
type Chunk struct {
	Text       string
	SourceFile string
	Type       string
	Section    string
	Language   string
	Adapter    string
	TokenCount int
}

// Metadata returns the chunk's metadata in the wire form the vector store
// persists next to the document text.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		"source":       c.SourceFile,
		"type":         c.Type,
		"language":     c.Language,
		"adapter_name": c.Adapter,
		"section":      c.Section,
		"token_count":  c.TokenCount,
	}
}

// VectorPoint is one upsert unit: id, embedding, raw text and metadata.
type VectorPoint struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]any
}

// SearchResult is one ranked nearest-neighbor hit as reported by a store.
// Distance is cosine distance: 0 means identical, 2 means opposite.
type SearchResult struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float64
}

// RunStats is the snapshot record written once per ingestion run.
type RunStats struct {
	FilesProcessed       int            `json:"files_processed"`
	ChunksCreated        int            `json:"chunks_created"`
	TotalInCollection    int            `json:"total_in_collection"`
	TypeDistribution     map[string]int `json:"type_distribution"`
	LanguageDistribution map[string]int `json:"language_distribution"`
	ElapsedSeconds       float64        `json:"elapsed_seconds"`
}
