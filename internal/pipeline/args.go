package pipeline

import (
	"fmt"
	"time"

	"github.com/conneroisu/pandoc-spec/internal/assets"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// metadataDateLayout is the ISO date stamped into document metadata when
// automatic dating is enabled.
const metadataDateLayout = "2006-01-02"

// Builder assembles the argument lists for the two engine stages from a
// resolved configuration. Assets supplies the bundled filter and template
// paths for the current run; Now supplies the metadata date and defaults to
// time.Now.
type Builder struct {
	Assets *assets.Bundled
	Now    func() time.Time
}

// arg renders one option per the three-way rule: when both value and
// fallback are absent nothing is emitted, a boolean emits the bare option
// name when true and nothing when false, and any other value becomes a
// single name=value token.
func arg[T any](name string, value, fallback *T) []string {
	chosen := value
	if chosen == nil {
		chosen = fallback
	}
	if chosen == nil {
		return nil
	}
	if b, ok := any(*chosen).(bool); ok {
		if !b {
			return nil
		}
		return []string{name}
	}
	return []string{fmt.Sprintf("%s=%v", name, *chosen)}
}

// InputArgs builds the parse stage invocation: source format, the JSON
// intermediate as target, optional metadata date, heading shift, the two
// bundled include filters ahead of user Lua filters, passthrough reader
// options, and finally the input files in declaration order.
func (b *Builder) InputArgs(o *options.Resolved) []string {
	args := make([]string, 0, len(o.Filters)+len(o.AdditionalReaderOptions)+len(o.InputFiles)+6)

	args = append(args, arg("--from", &o.InputFormat, nil)...)
	args = append(args, "--to=json")

	if o.MetadataDate {
		args = append(args, "--metadata=date:"+b.now().Format(metadataDateLayout))
	}

	shift := o.ShiftHeadingLevelBy
	args = append(args, arg("--shift-heading-level-by", &shift, nil)...)

	if b.Assets != nil {
		args = append(args, "--lua-filter="+b.Assets.IncludeFilesFilter)
		args = append(args, "--lua-filter="+b.Assets.IncludeCodeFilesFilter)
	}
	for _, f := range o.Filters {
		if f.Kind == options.FilterKindLua {
			args = append(args, "--lua-filter="+f.Path)
		}
	}

	for _, extra := range o.AdditionalReaderOptions {
		args = append(args, renderAdditional(extra))
	}

	args = append(args, o.InputFiles...)

	return args
}

// OutputArgs builds the render stage invocation: standalone output from the
// JSON intermediate, target format and path, numbering and TOC flags,
// template and body includes, every variable including the styles-derived
// ones, CSS references, and passthrough writer options.
func (b *Builder) OutputArgs(o *options.Resolved) []string {
	args := make([]string, 0, len(o.Variables)+len(o.Styles)+len(o.CSSFiles)+len(o.AdditionalWriterOptions)+10)

	args = append(args, "--standalone", "--from=json")
	args = append(args, arg("--to", &o.OutputFormat, nil)...)

	outputPath := o.OutputPath()
	args = append(args, arg("--output", &outputPath, nil)...)

	numberSections := o.NumberSections
	args = append(args, arg("--number-sections", &numberSections, nil)...)
	generateTOC := o.GenerateTOC
	args = append(args, arg("--toc", &generateTOC, nil)...)

	args = append(args, arg("--template", optional(o.TemplateFile), b.defaultTemplate(o))...)
	args = append(args, arg("--include-before-body", optional(o.HeaderFile), nil)...)
	args = append(args, arg("--include-after-body", optional(o.FooterFile), nil)...)

	for _, v := range o.Variables {
		args = append(args, renderVariable(v))
	}
	// Style variables carry a leading space so templates can concatenate
	// them directly onto a class list.
	for _, s := range o.Styles {
		value := " " + s.ClassName
		args = append(args, renderVariable(options.Variable{
			Key:   s.Name + "-style",
			Value: &value,
		}))
	}

	for _, css := range o.CSSFiles {
		args = append(args, "--css="+css)
	}

	for _, extra := range o.AdditionalWriterOptions {
		args = append(args, renderAdditional(extra))
	}

	return args
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// defaultTemplate returns the bundled template path, but only for HTML
// output; other formats use the engine's own default when no template is
// configured.
func (b *Builder) defaultTemplate(o *options.Resolved) *string {
	if b.Assets == nil || !o.HTMLOutput() {
		return nil
	}
	return &b.Assets.Template
}

// optional maps an empty string to an absent value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// renderVariable renders --variable=key, or --variable=key:value when a
// value is present.
func renderVariable(v options.Variable) string {
	if v.Value == nil {
		return "--variable=" + v.Key
	}
	return "--variable=" + v.Key + ":" + *v.Value
}

// renderAdditional renders a passthrough option verbatim: the bare option
// token, or option=value when a value is present.
func renderAdditional(o options.AdditionalOption) string {
	if o.Value == nil {
		return o.Option
	}
	return o.Option + "=" + *o.Value
}
