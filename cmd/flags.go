package cmd

import (
	"github.com/conneroisu/pandoc-spec/pkg/options"
	"github.com/spf13/pflag"
)

// registerOptionFlags declares one flag per options attribute on the given
// flag set. List attributes are repeatable flags; booleans come in
// enable/disable pairs so flags can override an options file in either
// direction. Defaults shown in help text are applied during resolution, not
// here: an untouched flag must stay distinguishable from an explicit value.
func registerOptionFlags(fs *pflag.FlagSet) {
	fs.String("input-format", "", "Engine input format (default markdown)")
	fs.String("output-format", "", "Engine output format (default html)")
	fs.Int("shift-heading-level-by", 0, "Heading level shift for the engine (default -1)")
	registerBoolPair(fs, "number-sections", "Number sections in the output (default on)")
	registerBoolPair(fs, "generate-toc", "Generate a table of contents (default on)")
	registerBoolPair(fs, "metadata-date", "Stamp today's date into the document metadata")
	fs.StringArray("filters", nil, "Filter declaration kind:path, kind lua or exec (repeatable)")

	fs.String("template-file", "", "Template file for the engine (default bundled, html only)")
	fs.String("header-file", "", "File included before the document body")
	fs.String("footer-file", "", "File included after the document body")
	fs.StringArray("variables", nil, "Template variable key or key:value (repeatable)")
	fs.StringArray("styles", nil, "Style mapping name:className (repeatable)")

	fs.String("input-directory", "", "Directory holding the source documents (default .)")
	fs.String("output-directory", "", "Directory receiving the output (default input directory)")
	fs.StringArray("input-files", nil, "Source document, in order (repeatable)")
	fs.String("output-file", "", "Output document name")
	fs.StringArray("css-files", nil, "Stylesheet path or URL (repeatable)")
	fs.StringArray("resource-files", nil, "Resource path or glob to copy beside the output (repeatable)")

	fs.StringArray("additional-reader-options", nil, "Extra engine read option opt or opt:value (repeatable)")
	fs.StringArray("additional-writer-options", nil, "Extra engine write option opt or opt:value (repeatable)")

	registerBoolPair(fs, "watch", "Rebuild whenever watched files change")
	fs.Int("watch-wait", 0, "Quiet period before a rebuild, in milliseconds (default 2000)")
	registerBoolPair(fs, "preview", "Serve the output directory with live reload (watch mode)")
	fs.Int("preview-port", 0, "Preview server port (default 8470)")
}

func registerBoolPair(fs *pflag.FlagSet, name, usage string) {
	fs.Bool(name, false, usage)
	fs.Bool("no-"+name, false, "Disable --"+name)
}

// overlayFromFlags builds the configuration layer the flags describe. Only
// flags the user actually set end up in the overlay, so file and default
// values survive underneath untouched flags.
func overlayFromFlags(fs *pflag.FlagSet) (*options.Options, error) {
	o := &options.Options{
		InputFormat:         stringFlag(fs, "input-format"),
		OutputFormat:        stringFlag(fs, "output-format"),
		ShiftHeadingLevelBy: intFlag(fs, "shift-heading-level-by"),
		NumberSections:      boolPairFlag(fs, "number-sections"),
		GenerateTOC:         boolPairFlag(fs, "generate-toc"),
		MetadataDate:        boolPairFlag(fs, "metadata-date"),
		TemplateFile:        stringFlag(fs, "template-file"),
		HeaderFile:          stringFlag(fs, "header-file"),
		FooterFile:          stringFlag(fs, "footer-file"),
		InputDirectory:      stringFlag(fs, "input-directory"),
		OutputDirectory:     stringFlag(fs, "output-directory"),
		InputFiles:          arrayFlag(fs, "input-files"),
		OutputFile:          stringFlag(fs, "output-file"),
		CSSFiles:            arrayFlag(fs, "css-files"),
		ResourceFiles:       arrayFlag(fs, "resource-files"),
		Watch:               boolPairFlag(fs, "watch"),
		WatchWait:           intFlag(fs, "watch-wait"),
		Preview:             boolPairFlag(fs, "preview"),
		PreviewPort:         intFlag(fs, "preview-port"),
	}

	var err error
	if o.Filters, err = options.ParseFilters(arrayFlag(fs, "filters")); err != nil {
		return nil, err
	}
	if o.Variables, err = options.ParseVariables(arrayFlag(fs, "variables")); err != nil {
		return nil, err
	}
	if o.Styles, err = options.ParseStyles(arrayFlag(fs, "styles")); err != nil {
		return nil, err
	}
	if o.AdditionalReaderOptions, err = options.ParseAdditionalOptions(arrayFlag(fs, "additional-reader-options")); err != nil {
		return nil, err
	}
	if o.AdditionalWriterOptions, err = options.ParseAdditionalOptions(arrayFlag(fs, "additional-writer-options")); err != nil {
		return nil, err
	}
	return o, nil
}

func stringFlag(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetString(name)
	return options.StringPtr(v)
}

func intFlag(fs *pflag.FlagSet, name string) *int {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetInt(name)
	return options.IntPtr(v)
}

// boolPairFlag folds an enable/disable flag pair into a tri-state setting.
// The negated form wins when both are given.
func boolPairFlag(fs *pflag.FlagSet, name string) *bool {
	if fs.Changed("no-" + name) {
		return options.BoolPtr(false)
	}
	if fs.Changed(name) {
		v, _ := fs.GetBool(name)
		return options.BoolPtr(v)
	}
	return nil
}

func arrayFlag(fs *pflag.FlagSet, name string) []string {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetStringArray(name)
	return v
}
