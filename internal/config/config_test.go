package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

func writeOptionsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pandoc-spec.options.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileOnly(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html",
		"outputFormat": "html5",
		"numberSections": false
	}`)

	resolved, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"index.md"}, resolved.InputFiles)
	assert.Equal(t, "index.html", resolved.OutputFile)
	assert.Equal(t, "html5", resolved.OutputFormat)
	assert.False(t, resolved.NumberSections)
	// Untouched keys pick up defaults
	assert.Equal(t, "markdown", resolved.InputFormat)
	assert.True(t, resolved.GenerateTOC)
	assert.Equal(t, -1, resolved.ShiftHeadingLevelBy)
}

func TestLoadOverlayScalarWins(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html",
		"outputFormat": "html"
	}`)

	overlay := &options.Options{OutputFormat: options.StringPtr("pdf")}
	resolved, err := Load(path, overlay)
	require.NoError(t, err)

	assert.Equal(t, "pdf", resolved.OutputFormat)
}

func TestLoadArraysConcatenateFileFirst(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["intro.md"],
		"outputFile": "doc.html",
		"cssFiles": ["file.css"]
	}`)

	overlay := &options.Options{
		InputFiles: []string{"appendix.md"},
		CSSFiles:   []string{"param.css"},
	}
	resolved, err := Load(path, overlay)
	require.NoError(t, err)

	assert.Equal(t, []string{"intro.md", "appendix.md"}, resolved.InputFiles)
	assert.Equal(t, []string{"file.css", "param.css"}, resolved.CSSFiles)
}

func TestLoadVariablesDedupeAcrossLayers(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html",
		"variables": [
			{"key": "lang", "value": "de"},
			{"key": "mainfont", "value": "serif"}
		]
	}`)

	overlay := &options.Options{
		Variables: []options.Variable{
			{Key: "lang", Value: options.StringPtr("en")},
		},
	}
	resolved, err := Load(path, overlay)
	require.NoError(t, err)

	// lang keeps its file-layer position but carries the overlay value
	require.GreaterOrEqual(t, len(resolved.Variables), 2)
	assert.Equal(t, "lang", resolved.Variables[0].Key)
	assert.Equal(t, "en", *resolved.Variables[0].Value)
	assert.Equal(t, "mainfont", resolved.Variables[1].Key)
}

func TestLoadShapeConflict(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html",
		"cssFiles": "style.css"
	}`)

	overlay := &options.Options{CSSFiles: []string{"more.css"}}
	_, err := Load(path, overlay)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errors.ErrCodeMergeConflict, pe.Code)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), &options.Options{
		InputFiles: []string{"a.md"},
		OutputFile: options.StringPtr("a.html"),
	})
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errors.ErrCodeOptionsFileNotFound, pe.Code)
}

func TestLoadDefaultFileAbsentIsEmptyLayer(t *testing.T) {
	// No options file in the working directory: the overlay alone decides.
	resolved, err := Load("", &options.Options{
		InputFiles: []string{"a.md"},
		OutputFile: options.StringPtr("a.html"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, resolved.InputFiles)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeOptionsFile(t, `{"inputFiles": [`)

	_, err := Load(path, nil)
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errors.ErrCodeOptionsFileParse, pe.Code)
}

func TestLoadNonObjectJSON(t *testing.T) {
	path := writeOptionsFile(t, `["not", "an", "object"]`)

	_, err := Load(path, nil)
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, errors.ErrCodeOptionsFileShape, pe.Code)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html",
		"outputFormat": "html"
	}`)

	t.Setenv("PANDOC_SPEC_OUTPUTFORMAT", "docx")
	t.Setenv("PANDOC_SPEC_WATCHWAIT", "3500")

	resolved, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "docx", resolved.OutputFormat)
	assert.Equal(t, 3500*time.Millisecond, resolved.WatchWait)
}

func TestLoadEnvironmentArraySplit(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html"
	}`)

	t.Setenv("PANDOC_SPEC_CSSFILES", "one.css, two.css")

	overlay := &options.Options{CSSFiles: []string{"three.css"}}
	resolved, err := Load(path, overlay)
	require.NoError(t, err)

	assert.Equal(t, []string{"one.css", "two.css", "three.css"}, resolved.CSSFiles)
}

func TestLoadStructuredEntriesFromFile(t *testing.T) {
	path := writeOptionsFile(t, `{
		"inputFiles": ["index.md"],
		"outputFile": "index.html",
		"filters": [
			{"kind": "lua", "path": "emph.lua"},
			{"kind": "exec", "path": "./custom-filter"}
		],
		"styles": [
			{"name": "note", "className": "alert-info"}
		],
		"additionalWriterOptions": [
			{"option": "--highlight-style", "value": "pygments"},
			{"option": "--strip-comments"}
		]
	}`)

	resolved, err := Load(path, nil)
	require.NoError(t, err)

	require.Len(t, resolved.Filters, 2)
	assert.Equal(t, options.FilterKindLua, resolved.Filters[0].Kind)
	assert.Equal(t, "./custom-filter", resolved.Filters[1].Path)

	require.Len(t, resolved.Styles, 1)
	assert.Equal(t, "alert-info", resolved.Styles[0].ClassName)

	require.Len(t, resolved.AdditionalWriterOptions, 2)
	require.NotNil(t, resolved.AdditionalWriterOptions[0].Value)
	assert.Equal(t, "pygments", *resolved.AdditionalWriterOptions[0].Value)
	assert.Nil(t, resolved.AdditionalWriterOptions[1].Value)
}

func TestSettingsMapLowercasesKeys(t *testing.T) {
	m, err := settingsMap(&options.Options{
		OutputFile: options.StringPtr("doc.html"),
		WatchWait:  options.IntPtr(100),
	})
	require.NoError(t, err)

	assert.Contains(t, m, "outputfile")
	assert.Contains(t, m, "watchwait")
	assert.Len(t, m, 2)
}

func TestSettingsMapNilOverlay(t *testing.T) {
	m, err := settingsMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}
