package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// Resolve validates a merged options layer and produces the authoritative
// record for one run: defaults applied, directories absolute, variables and
// styles deduplicated, and the toc-header variable guaranteed to exist.
func Resolve(merged *options.Options) (*options.Resolved, error) {
	if err := validate(merged); err != nil {
		return nil, err
	}

	inputDir, err := filepath.Abs(strOr(merged.InputDirectory, "."))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidOption,
			"inputDirectory could not be made absolute", err)
	}

	outputDir := inputDir
	if merged.OutputDirectory != nil && *merged.OutputDirectory != "" {
		if filepath.IsAbs(*merged.OutputDirectory) {
			outputDir = filepath.Clean(*merged.OutputDirectory)
		} else {
			outputDir = filepath.Join(inputDir, *merged.OutputDirectory)
		}
	}

	watchWaitMS := intOr(merged.WatchWait, int(options.DefaultWatchWait/time.Millisecond))

	resolved := &options.Resolved{
		InputFormat:         strOr(merged.InputFormat, options.DefaultInputFormat),
		OutputFormat:        strOr(merged.OutputFormat, options.DefaultOutputFormat),
		ShiftHeadingLevelBy: intOr(merged.ShiftHeadingLevelBy, options.DefaultShiftHeadingLevelBy),
		NumberSections:      boolOr(merged.NumberSections, true),
		GenerateTOC:         boolOr(merged.GenerateTOC, true),
		MetadataDate:        boolOr(merged.MetadataDate, false),
		Filters:             append([]options.Filter(nil), merged.Filters...),

		TemplateFile: strOr(merged.TemplateFile, ""),
		HeaderFile:   strOr(merged.HeaderFile, ""),
		FooterFile:   strOr(merged.FooterFile, ""),
		Variables:    options.DedupeVariables(merged.Variables),
		Styles:       options.DedupeStyles(merged.Styles),

		InputDirectory:  inputDir,
		OutputDirectory: outputDir,
		InputFiles:      append([]string(nil), merged.InputFiles...),
		OutputFile:      strOr(merged.OutputFile, ""),
		CSSFiles:        append([]string(nil), merged.CSSFiles...),
		ResourceFiles:   append([]string(nil), merged.ResourceFiles...),

		AdditionalReaderOptions: append([]options.AdditionalOption(nil), merged.AdditionalReaderOptions...),
		AdditionalWriterOptions: append([]options.AdditionalOption(nil), merged.AdditionalWriterOptions...),

		Watch:       boolOr(merged.Watch, false),
		WatchWait:   time.Duration(watchWaitMS) * time.Millisecond,
		Preview:     boolOr(merged.Preview, false),
		PreviewPort: intOr(merged.PreviewPort, options.DefaultPreviewPort),
	}

	if !hasVariable(resolved.Variables, options.TOCHeaderVariable) {
		header := options.DefaultTOCHeader
		resolved.Variables = append(resolved.Variables, options.Variable{
			Key:   options.TOCHeaderVariable,
			Value: &header,
		})
	}

	return resolved, nil
}

// validate rejects a merged layer before any defaults apply.
func validate(merged *options.Options) error {
	if len(merged.InputFiles) == 0 {
		return errors.NewConfigError(errors.ErrCodeMissingInputFiles,
			"inputFiles is required and must not be empty")
	}
	if merged.OutputFile == nil || *merged.OutputFile == "" {
		return errors.NewConfigError(errors.ErrCodeMissingOutputFile,
			"outputFile is required")
	}

	for i, f := range merged.Filters {
		if f.Kind != options.FilterKindLua && f.Kind != options.FilterKindExec {
			return errors.NewConfigError(errors.ErrCodeInvalidOption,
				fmt.Sprintf("filters[%d]: unknown kind %q", i, f.Kind))
		}
		if f.Path == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidOption,
				fmt.Sprintf("filters[%d]: path is required", i))
		}
	}

	for i, v := range merged.Variables {
		if v.Key == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidOption,
				fmt.Sprintf("variables[%d]: key is required", i))
		}
	}

	for i, s := range merged.Styles {
		if s.Name == "" || s.ClassName == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidOption,
				fmt.Sprintf("styles[%d]: name and className are required", i))
		}
	}

	for i, o := range merged.AdditionalReaderOptions {
		if o.Option == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidOption,
				fmt.Sprintf("additionalReaderOptions[%d]: option is required", i))
		}
	}
	for i, o := range merged.AdditionalWriterOptions {
		if o.Option == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidOption,
				fmt.Sprintf("additionalWriterOptions[%d]: option is required", i))
		}
	}

	if merged.WatchWait != nil && *merged.WatchWait < 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidOption,
			fmt.Sprintf("watchWait must not be negative, got %d", *merged.WatchWait))
	}
	if merged.PreviewPort != nil && (*merged.PreviewPort < 1 || *merged.PreviewPort > 65535) {
		return errors.NewConfigError(errors.ErrCodeInvalidOption,
			fmt.Sprintf("previewPort must be between 1 and 65535, got %d", *merged.PreviewPort))
	}

	return nil
}

func hasVariable(vars []options.Variable, key string) bool {
	for _, v := range vars {
		if v.Key == key {
			return true
		}
	}
	return false
}

func strOr(p *string, def string) string {
	if p != nil && *p != "" {
		return *p
	}
	return def
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}
