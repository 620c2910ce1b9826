// Package options defines the configuration schema for a pandoc-spec
// pipeline run.
//
// Options is a partial configuration layer: every field is optional, and nil
// (or empty, for the slice-valued fields) means "not set by this layer".
// Layers come from up to three places — the options file, environment
// variables, and caller-supplied values (command-line flags or a programmatic
// call) — and are combined by internal/config into a single Resolved record
// that the rest of the pipeline treats as immutable for the duration of a
// run.
//
// The package itself is pure: parsing compound flag values and deduplicating
// variables and styles never touches the filesystem.
package options

import (
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied during resolution when no layer sets the key.
const (
	DefaultInputFormat         = "markdown"
	DefaultOutputFormat        = "html"
	DefaultShiftHeadingLevelBy = -1
	DefaultWatchWait           = 2000 * time.Millisecond
	DefaultPreviewPort         = 8470

	// TOCHeaderVariable names the template variable holding the table of
	// contents heading. DefaultTOCHeader is synthesized for it when no
	// layer declares the variable.
	TOCHeaderVariable = "toc-header"
	DefaultTOCHeader  = "Table of Contents"
)

// FilterKind distinguishes how a declared filter participates in the
// pipeline.
type FilterKind string

const (
	// FilterKindLua filters run in-process inside the conversion engine via
	// --lua-filter; they never become pipeline stages of their own.
	FilterKindLua FilterKind = "lua"

	// FilterKindExec filters are spawned as separate pipeline stages that
	// read and write the engine's JSON document representation on their
	// standard streams.
	FilterKindExec FilterKind = "exec"
)

// Filter is one user-declared document transform.
type Filter struct {
	Kind FilterKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Path string     `json:"path" yaml:"path" mapstructure:"path"`
}

// Variable is a template variable passed to the output stage. A nil Value
// renders as a bare key.
type Variable struct {
	Key   string  `json:"key" yaml:"key" mapstructure:"key"`
	Value *string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
}

// Style maps a named document element to a CSS class. Styles are rendered as
// template variables named "<name>-style" whose value carries a leading
// space, because the template joins class tokens by plain concatenation.
type Style struct {
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
	ClassName string `json:"className" yaml:"className" mapstructure:"className"`
}

// AdditionalOption is a verbatim passthrough argument for one of the two
// engine stages. A nil Value renders as the bare option token.
type AdditionalOption struct {
	Option string  `json:"option" yaml:"option" mapstructure:"option"`
	Value  *string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
}

// Options is one partial configuration layer. Scalar fields use pointers so
// that "unset" and "zero" stay distinguishable across the merge; slice
// fields concatenate across layers instead of overwriting.
type Options struct {
	InputFormat         *string  `json:"inputFormat,omitempty" yaml:"inputFormat,omitempty" mapstructure:"inputFormat"`
	OutputFormat        *string  `json:"outputFormat,omitempty" yaml:"outputFormat,omitempty" mapstructure:"outputFormat"`
	ShiftHeadingLevelBy *int     `json:"shiftHeadingLevelBy,omitempty" yaml:"shiftHeadingLevelBy,omitempty" mapstructure:"shiftHeadingLevelBy"`
	NumberSections      *bool    `json:"numberSections,omitempty" yaml:"numberSections,omitempty" mapstructure:"numberSections"`
	GenerateTOC         *bool    `json:"generateToc,omitempty" yaml:"generateToc,omitempty" mapstructure:"generateToc"`
	MetadataDate        *bool    `json:"metadataDate,omitempty" yaml:"metadataDate,omitempty" mapstructure:"metadataDate"`
	Filters             []Filter `json:"filters,omitempty" yaml:"filters,omitempty" mapstructure:"filters"`

	TemplateFile *string    `json:"templateFile,omitempty" yaml:"templateFile,omitempty" mapstructure:"templateFile"`
	HeaderFile   *string    `json:"headerFile,omitempty" yaml:"headerFile,omitempty" mapstructure:"headerFile"`
	FooterFile   *string    `json:"footerFile,omitempty" yaml:"footerFile,omitempty" mapstructure:"footerFile"`
	Variables    []Variable `json:"variables,omitempty" yaml:"variables,omitempty" mapstructure:"variables"`
	Styles       []Style    `json:"styles,omitempty" yaml:"styles,omitempty" mapstructure:"styles"`

	InputDirectory  *string  `json:"inputDirectory,omitempty" yaml:"inputDirectory,omitempty" mapstructure:"inputDirectory"`
	OutputDirectory *string  `json:"outputDirectory,omitempty" yaml:"outputDirectory,omitempty" mapstructure:"outputDirectory"`
	InputFiles      []string `json:"inputFiles,omitempty" yaml:"inputFiles,omitempty" mapstructure:"inputFiles"`
	OutputFile      *string  `json:"outputFile,omitempty" yaml:"outputFile,omitempty" mapstructure:"outputFile"`
	CSSFiles        []string `json:"cssFiles,omitempty" yaml:"cssFiles,omitempty" mapstructure:"cssFiles"`
	ResourceFiles   []string `json:"resourceFiles,omitempty" yaml:"resourceFiles,omitempty" mapstructure:"resourceFiles"`

	AdditionalReaderOptions []AdditionalOption `json:"additionalReaderOptions,omitempty" yaml:"additionalReaderOptions,omitempty" mapstructure:"additionalReaderOptions"`
	AdditionalWriterOptions []AdditionalOption `json:"additionalWriterOptions,omitempty" yaml:"additionalWriterOptions,omitempty" mapstructure:"additionalWriterOptions"`

	Watch       *bool `json:"watch,omitempty" yaml:"watch,omitempty" mapstructure:"watch"`
	WatchWait   *int  `json:"watchWait,omitempty" yaml:"watchWait,omitempty" mapstructure:"watchWait"`
	Preview     *bool `json:"preview,omitempty" yaml:"preview,omitempty" mapstructure:"preview"`
	PreviewPort *int  `json:"previewPort,omitempty" yaml:"previewPort,omitempty" mapstructure:"previewPort"`
}

// Resolved is the authoritative configuration record for one pipeline run.
// All defaults have been applied, directories are absolute, variables and
// styles are deduplicated, and a toc-header variable is guaranteed to exist.
// It is constructed once per run and never mutated afterwards.
type Resolved struct {
	InputFormat         string   `json:"inputFormat" yaml:"inputFormat"`
	OutputFormat        string   `json:"outputFormat" yaml:"outputFormat"`
	ShiftHeadingLevelBy int      `json:"shiftHeadingLevelBy" yaml:"shiftHeadingLevelBy"`
	NumberSections      bool     `json:"numberSections" yaml:"numberSections"`
	GenerateTOC         bool     `json:"generateToc" yaml:"generateToc"`
	MetadataDate        bool     `json:"metadataDate" yaml:"metadataDate"`
	Filters             []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`

	// TemplateFile is empty when the bundled template should apply (HTML
	// output only); the argument builder fills the bundled path in.
	TemplateFile string     `json:"templateFile,omitempty" yaml:"templateFile,omitempty"`
	HeaderFile   string     `json:"headerFile,omitempty" yaml:"headerFile,omitempty"`
	FooterFile   string     `json:"footerFile,omitempty" yaml:"footerFile,omitempty"`
	Variables    []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
	Styles       []Style    `json:"styles,omitempty" yaml:"styles,omitempty"`

	InputDirectory  string   `json:"inputDirectory" yaml:"inputDirectory"`
	OutputDirectory string   `json:"outputDirectory" yaml:"outputDirectory"`
	InputFiles      []string `json:"inputFiles" yaml:"inputFiles"`
	OutputFile      string   `json:"outputFile" yaml:"outputFile"`
	CSSFiles        []string `json:"cssFiles,omitempty" yaml:"cssFiles,omitempty"`
	ResourceFiles   []string `json:"resourceFiles,omitempty" yaml:"resourceFiles,omitempty"`

	AdditionalReaderOptions []AdditionalOption `json:"additionalReaderOptions,omitempty" yaml:"additionalReaderOptions,omitempty"`
	AdditionalWriterOptions []AdditionalOption `json:"additionalWriterOptions,omitempty" yaml:"additionalWriterOptions,omitempty"`

	Watch       bool          `json:"watch" yaml:"watch"`
	WatchWait   time.Duration `json:"watchWait" yaml:"watchWait"`
	Preview     bool          `json:"preview" yaml:"preview"`
	PreviewPort int           `json:"previewPort" yaml:"previewPort"`
}

// OutputPath returns the absolute path the terminal stage writes to.
func (r *Resolved) OutputPath() string {
	if filepath.IsAbs(r.OutputFile) {
		return r.OutputFile
	}
	return filepath.Join(r.OutputDirectory, r.OutputFile)
}

// HTMLOutput reports whether the target format is an HTML flavor, which is
// what gates the bundled template default.
func (r *Resolved) HTMLOutput() bool {
	return r.OutputFormat == "html" || r.OutputFormat == "html5" || r.OutputFormat == "html4"
}

// IsRemote reports whether a CSS entry references a remote stylesheet
// rather than a local file. Remote entries are handed to the engine as-is
// and never copied or watched.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// String pointer helpers used by flag parsing and tests.

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
