package docrag

import (
	"path/filepath"
	"strings"
)

// DefaultAdapter is the owner tag for files that belong to no known
// adapter repo.
const DefaultAdapter = "iobroker-core"

// typeRule is one entry of the ordered classification table. Rules are
// evaluated top to bottom; the first rule whose extension set contains the
// file's extension and whose markers (if any) appear in the path wins.
type typeRule struct {
	exts    map[string]bool
	markers []string
	result  string
}

var typeRules = []typeRule{
	{exts: extSet(".md"), markers: []string{"api", "reference"}, result: TypeAPI},
	{exts: extSet(".md"), result: TypeDoc},
	{exts: extSet(".js", ".ts", ".jsx", ".tsx"), markers: []string{"adapter", "lib"}, result: TypeAPI},
	{exts: extSet(".js", ".ts", ".jsx", ".tsx"), result: TypeCode},
	{exts: extSet(".json"), result: TypeConfig},
}

func extSet(exts ...string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[ext] = true
	}
	return set
}

// DetectFileType maps a path to doc/code/api/config. Total: unknown
// extensions fall back to doc.
func DetectFileType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	lower := strings.ToLower(path)
	for _, rule := range typeRules {
		if !rule.exts[ext] {
			continue
		}
		if len(rule.markers) == 0 {
			return rule.result
		}
		for _, marker := range rule.markers {
			if strings.Contains(lower, marker) {
				return rule.result
			}
		}
	}
	return TypeDoc
}

// DetectLanguage reports the content locale of a path. This is the
// documentation language, not the programming language.
func DetectLanguage(path string) string {
	if strings.Contains(path, "/de/") || strings.Contains(path, `\de\`) {
		return "de"
	}
	return "en"
}

// DetectAdapterName extracts the owning repo from a path. The first
// segment matching the adapter naming convention wins.
func DetectAdapterName(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	for _, part := range strings.Split(normalized, "/") {
		if strings.HasPrefix(part, "ioBroker.") {
			return part
		}
		if part == "create-adapter" {
			return part
		}
	}
	return DefaultAdapter
}

// Classify runs all three path classifiers at once.
func Classify(path string) (typ, language, adapter string) {
	return DetectFileType(path), DetectLanguage(path), DetectAdapterName(path)
}
