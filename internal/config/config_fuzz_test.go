package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// FuzzLoad tests options loading with various malformed inputs
func FuzzLoad(f *testing.F) {
	f.Add(`{"inputFiles": ["a.md"], "outputFile": "a.html"}`)
	f.Add(`{"inputFiles": "a.md", "outputFile": "a.html"}`)
	f.Add(`{"variables": [{"key": "lang", "value": "en"}]}`)
	f.Add(`{"variables": [{"value": "en"}]}`)
	f.Add(`{"watchWait": -100}`)
	f.Add(`{"watchWait": "soon"}`)
	f.Add(`[1, 2, 3]`)
	f.Add(`"just a string"`)
	f.Add(`{`)
	f.Add(``)
	f.Add(`{"filters": [{"kind": "lua"}]}`)
	f.Add(`{"cssFiles": ["a.css", 42]}`)

	f.Fuzz(func(t *testing.T, content string) {
		if len(content) > 50000 {
			t.Skip("Options content too large")
		}

		tmpDir := t.TempDir()
		optionsFile := filepath.Join(tmpDir, "pandoc-spec.options.json")
		if err := os.WriteFile(optionsFile, []byte(content), 0644); err != nil {
			t.Skip("Could not write options file")
		}

		overlay := &options.Options{
			InputFiles: []string{"fallback.md"},
			OutputFile: options.StringPtr("fallback.html"),
		}

		// Must never panic; errors are fine
		resolved, err := Load(optionsFile, overlay)
		if err == nil && resolved == nil {
			t.Error("nil resolved options without error")
		}
	})
}
