package docrag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives both the ingestion pipeline and the query service.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	ReposDir   string `yaml:"repos_dir"`
	Collection string `yaml:"collection"`

	// RepoPaths maps a repo checkout name to the subpaths indexed from it.
	RepoPaths   map[string][]string `yaml:"repo_paths"`
	Extensions  []string            `yaml:"extensions"`
	ExcludeDirs []string            `yaml:"exclude_dirs"`
	Exclude     []string            `yaml:"exclude"`

	ChunkMaxTokens     int `yaml:"chunk_max_tokens"`
	ChunkOverlapTokens int `yaml:"chunk_overlap_tokens"`
	BatchSize          int `yaml:"batch_size"`

	// ChromaURL selects the remote store; when empty the local SQLite
	// store under LocalStorePath is used instead.
	ChromaURL      string `yaml:"chroma_url"`
	LocalStorePath string `yaml:"local_store_path"`

	EmbeddingEndpoint   string        `yaml:"embedding_endpoint"`
	EmbeddingAPIKey     string        `yaml:"embedding_api_key"`
	EmbeddingModel      string        `yaml:"embedding_model"`
	EmbeddingDimensions int           `yaml:"embedding_dimensions"`
	EmbeddingTimeout    time.Duration `yaml:"embedding_timeout"`

	ListenAddr   string `yaml:"listen_addr"`
	StatsPath    string `yaml:"stats_path"`
	TextIndexDir string `yaml:"text_index_dir"`
	QueryTopK    int    `yaml:"query_top_k"`
}

var ErrConfigNotFound = errors.New("config not found")

func DefaultConfigPath() string {
	return expandUserPath("~/.docrag/config.yaml")
}

// LoadConfig reads the YAML config at path, falling back to the default
// location when path is empty.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfigOptional returns the defaults when no config file exists.
func LoadConfigOptional(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, ErrConfigNotFound) {
		cfg = DefaultConfig()
		cfg.applyDefaults()
		return cfg, nil
	}
	return Config{}, err
}

func DefaultConfig() Config {
	return Config{
		DataDir:    "~/.docrag",
		Collection: "iobroker_docs",
		RepoPaths: map[string][]string{
			"ioBroker.docs": {
				"docs/en/dev",
				"docs/en/basics",
				"docs/de/dev",
				"docs/de/basics",
				"docs/en/admin",
				"docs/de/admin",
			},
			"ioBroker.template":      {"."},
			"create-adapter":         {"src", "templates", "README.md"},
			"ioBroker.js-controller": {"lib", "doc", "README.md", "packages"},
			"ioBroker.javascript":    {"lib", "docs", "README.md"},
			"ioBroker.simple-api":    {"lib", "README.md"},
		},
		Extensions:  []string{".md", ".js", ".ts", ".jsx", ".tsx", ".json"},
		ExcludeDirs: []string{"node_modules", ".git", "dist", "build", "__pycache__", ".nyc_output", "test", "tests"},

		ChunkMaxTokens:     512,
		ChunkOverlapTokens: 50,
		BatchSize:          64,

		EmbeddingEndpoint:   "http://127.0.0.1:8080/v1/embeddings",
		EmbeddingModel:      "all-MiniLM-L6-v2",
		EmbeddingDimensions: 384,
		EmbeddingTimeout:    30 * time.Second,

		ListenAddr: "127.0.0.1:8321",
		QueryTopK:  5,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	c.DataDir = expandUserPath(c.DataDir)
	if c.ReposDir == "" {
		c.ReposDir = filepath.Join(c.DataDir, "repos")
	}
	c.ReposDir = expandUserPath(c.ReposDir)
	if c.Collection == "" {
		c.Collection = def.Collection
	}
	if len(c.RepoPaths) == 0 {
		c.RepoPaths = def.RepoPaths
	}
	if len(c.Extensions) == 0 {
		c.Extensions = def.Extensions
	}
	if len(c.ExcludeDirs) == 0 {
		c.ExcludeDirs = def.ExcludeDirs
	}
	if c.ChunkMaxTokens == 0 {
		c.ChunkMaxTokens = def.ChunkMaxTokens
	}
	if c.ChunkOverlapTokens == 0 {
		c.ChunkOverlapTokens = def.ChunkOverlapTokens
	}
	if c.BatchSize == 0 {
		c.BatchSize = def.BatchSize
	}
	if c.LocalStorePath == "" {
		c.LocalStorePath = filepath.Join(c.DataDir, "vectors")
	}
	c.LocalStorePath = expandUserPath(c.LocalStorePath)
	if c.EmbeddingEndpoint == "" {
		c.EmbeddingEndpoint = def.EmbeddingEndpoint
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = def.EmbeddingModel
	}
	if c.EmbeddingDimensions == 0 {
		c.EmbeddingDimensions = def.EmbeddingDimensions
	}
	if c.EmbeddingTimeout == 0 {
		c.EmbeddingTimeout = def.EmbeddingTimeout
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.StatsPath == "" {
		c.StatsPath = filepath.Join(c.DataDir, "ingest_stats.json")
	}
	c.StatsPath = expandUserPath(c.StatsPath)
	if c.TextIndexDir == "" {
		c.TextIndexDir = filepath.Join(c.DataDir, "text_index")
	}
	c.TextIndexDir = expandUserPath(c.TextIndexDir)
	if c.QueryTopK == 0 {
		c.QueryTopK = def.QueryTopK
	}
}

// WriteDefaultConfig creates the default config file unless one exists.
func WriteDefaultConfig() (string, error) {
	path := DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func expandUserPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if len(path) > 1 && (path[1] == '/' || path[1] == '\\') {
		return filepath.Join(home, path[2:])
	}
	return path
}
