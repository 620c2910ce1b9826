// Package assets carries the bundled pipeline collaterals: the two Lua
// include filters that always run ahead of user filters, plus the default
// HTML template. External tools cannot read Go embedded files, so the assets
// are materialized into a temporary directory for the duration of a run.
package assets

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/conneroisu/pandoc-spec/internal/errors"
)

//go:embed filters/*.lua
var filters embed.FS

//go:embed templates/*.html
var templates embed.FS

const (
	includeFilesName     = "filters/include-files.lua"
	includeCodeFilesName = "filters/include-code-files.lua"
	templateName         = "templates/spec.html"
)

// Bundled holds the on-disk locations of the materialized assets.
type Bundled struct {
	// IncludeFilesFilter and IncludeCodeFilesFilter are always passed to the
	// input stage, in that order, ahead of any user-declared Lua filter.
	IncludeFilesFilter     string
	IncludeCodeFilesFilter string

	// Template is the default template applied when the output format is an
	// HTML flavor and no explicit template is configured.
	Template string
}

// Materialize writes the embedded assets into a fresh temporary directory
// and returns their paths together with a cleanup that removes the
// directory. Every run materializes its own copy, so concurrent runs never
// share asset state.
func Materialize() (*Bundled, func(), error) {
	dir, err := os.MkdirTemp("", "pandoc-spec-assets-")
	if err != nil {
		return nil, nil, errors.NewIOError(errors.ErrCodeAssetMaterialize,
			"could not create asset directory", err)
	}

	cleanup := func() { _ = os.RemoveAll(dir) }

	write := func(fs embed.FS, name string) (string, error) {
		content, err := fs.ReadFile(name)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeAssetMaterialize,
				"bundled asset "+name+" missing", err)
		}
		dest := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(dest, content, 0644); err != nil {
			return "", errors.NewIOError(errors.ErrCodeAssetMaterialize,
				"could not write "+dest, err)
		}
		return dest, nil
	}

	bundled := &Bundled{}
	if bundled.IncludeFilesFilter, err = write(filters, includeFilesName); err != nil {
		cleanup()
		return nil, nil, err
	}
	if bundled.IncludeCodeFilesFilter, err = write(filters, includeCodeFilesName); err != nil {
		cleanup()
		return nil, nil, err
	}
	if bundled.Template, err = write(templates, templateName); err != nil {
		cleanup()
		return nil, nil, err
	}

	return bundled, cleanup, nil
}
