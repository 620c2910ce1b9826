package pipeline

import (
	"runtime"

	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// The diagram filter renders to SVG so the output stays crisp in HTML and
// scales in print formats.
const (
	mermaidFormatEnv = "MERMAID_FILTER_FORMAT"
	mermaidFormat    = "svg"
)

// Assemble builds the ordered stage list for one run: the parse stage, the
// cross reference filter, the diagram filter, any user exec filters in
// declaration order, and the render stage. Every filter stage receives the
// target format as its single argument, the way the engine itself invokes
// JSON filters.
func Assemble(o *options.Resolved, inputArgs, outputArgs []string) []Stage {
	return assembleForOS(o, inputArgs, outputArgs, runtime.GOOS)
}

// assembleForOS is Assemble with the platform made explicit for tests.
// Filter executables are often npm shims, so on Windows they run through
// the shell; the engine binary itself never needs that.
func assembleForOS(o *options.Resolved, inputArgs, outputArgs []string, goos string) []Stage {
	shell := goos == "windows"

	stages := make([]Stage, 0, len(o.Filters)+4)

	stages = append(stages, Stage{
		Name:       StageEngineInput,
		Command:    EngineCommand,
		Args:       inputArgs,
		PipeToNext: true,
	})

	stages = append(stages, Stage{
		Name:       StageCrossref,
		Command:    CrossrefCommand,
		Args:       []string{o.OutputFormat},
		UseShell:   shell,
		PipeToNext: true,
	})

	stages = append(stages, Stage{
		Name:       StageMermaid,
		Command:    MermaidCommand,
		Args:       []string{o.OutputFormat},
		UseShell:   shell,
		Env:        map[string]string{mermaidFormatEnv: mermaidFormat},
		PipeToNext: true,
	})

	for _, f := range o.Filters {
		if f.Kind != options.FilterKindExec {
			continue
		}
		stages = append(stages, Stage{
			Name:       f.Path,
			Command:    f.Path,
			Args:       []string{o.OutputFormat},
			UseShell:   shell,
			PipeToNext: true,
		})
	}

	stages = append(stages, Stage{
		Name:    StageEngineOutput,
		Command: EngineCommand,
		Args:    outputArgs,
	})

	return stages
}
