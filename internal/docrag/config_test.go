package docrag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "data_dir: " + dir + "\n" +
		"collection: custom_docs\n" +
		"chunk_max_tokens: 256\n" +
		"chroma_url: http://localhost:8000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Collection != "custom_docs" || cfg.ChunkMaxTokens != 256 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ChromaURL != "http://localhost:8000" {
		t.Errorf("chroma_url = %q", cfg.ChromaURL)
	}
	// Unset fields fall back to defaults derived from data_dir.
	if cfg.ReposDir != filepath.Join(dir, "repos") {
		t.Errorf("repos_dir = %q", cfg.ReposDir)
	}
	if cfg.StatsPath != filepath.Join(dir, "ingest_stats.json") {
		t.Errorf("stats_path = %q", cfg.StatsPath)
	}
	if cfg.TextIndexDir != filepath.Join(dir, "text_index") {
		t.Errorf("text_index_dir = %q", cfg.TextIndexDir)
	}
	if cfg.ChunkOverlapTokens != 50 || cfg.BatchSize != 64 {
		t.Errorf("chunk defaults = (%d, %d)", cfg.ChunkOverlapTokens, cfg.BatchSize)
	}
	if len(cfg.RepoPaths) == 0 || len(cfg.Extensions) == 0 {
		t.Error("repo paths and extensions should default")
	}
}

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigOptionalFallsBack(t *testing.T) {
	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigOptional: %v", err)
	}
	if cfg.Collection != "iobroker_docs" || cfg.QueryTopK != 5 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("collection: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid yaml should fail")
	}
}

func TestExpandUserPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandUserPath("~/.docrag"); got != filepath.Join(home, ".docrag") {
		t.Errorf("expandUserPath(~/.docrag) = %q", got)
	}
	if got := expandUserPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := expandUserPath("~"); got != home {
		t.Errorf("expandUserPath(~) = %q", got)
	}
}
