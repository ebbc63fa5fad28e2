package docrag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveRunStats writes the run snapshot to path, overwriting any previous
// run's record.
func SaveRunStats(path string, stats RunStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadRunStats reads the last persisted run snapshot.
func LoadRunStats(path string) (RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunStats{}, err
	}
	var stats RunStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return RunStats{}, fmt.Errorf("parse run stats: %w", err)
	}
	return stats, nil
}
