package docrag

import "testing"

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"plain markdown", "ioBroker.docs/docs/en/dev/adapterstates.md", "doc"},
		{"api markdown", "ioBroker.js-controller/doc/API.md", "api"},
		{"reference markdown", "ioBroker.docs/docs/en/reference/states.md", "api"},
		{"adapter js", "ioBroker.javascript/lib/adapter.js", "api"},
		{"lib ts", "create-adapter/src/lib/core.ts", "api"},
		{"plain js", "ioBroker.template/main.js", "code"},
		{"tsx outside lib", "ioBroker.vis/src/main.tsx", "code"},
		{"adapter marker anywhere", "create-adapter/src/main.tsx", "api"},
		{"json config", "ioBroker.template/io-package.json", "config"},
		{"unknown extension", "ioBroker.docs/README.txt", "doc"},
		{"no extension", "ioBroker.docs/LICENSE", "doc"},
		{"empty path", "", "doc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFileType(tt.path); got != tt.expected {
				t.Errorf("DetectFileType(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"german docs", "ioBroker.docs/docs/de/dev/intro.md", "de"},
		{"english docs", "ioBroker.docs/docs/en/dev/intro.md", "en"},
		{"windows separators", `ioBroker.docs\docs\de\dev\intro.md`, "de"},
		{"de as filename part", "ioBroker.docs/docs/deploy.md", "en"},
		{"no locale segment", "create-adapter/README.md", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.expected {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestDetectAdapterName(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"adapter repo", "ioBroker.javascript/lib/sandbox.js", "ioBroker.javascript"},
		{"nested adapter segment", "repos/ioBroker.simple-api/lib/api.js", "ioBroker.simple-api"},
		{"create-adapter", "create-adapter/src/index.ts", "create-adapter"},
		{"windows separators", `ioBroker.docs\docs\en\intro.md`, "ioBroker.docs"},
		{"no match", "some/other/path.md", DefaultAdapter},
		{"first match wins", "ioBroker.docs/linked/ioBroker.javascript/x.md", "ioBroker.docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectAdapterName(tt.path); got != tt.expected {
				t.Errorf("DetectAdapterName(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	typ, lang, adapter := Classify("ioBroker.docs/docs/de/dev/api.md")
	if typ != TypeAPI || lang != "de" || adapter != "ioBroker.docs" {
		t.Errorf("Classify() = (%q, %q, %q), want (api, de, ioBroker.docs)", typ, lang, adapter)
	}
}
