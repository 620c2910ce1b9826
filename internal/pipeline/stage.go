// Package pipeline turns a resolved configuration into an ordered chain of
// external processes and supervises their execution. The chain always runs
// the conversion engine twice, first parsing the sources into the engine's
// JSON document representation and last rendering it, with the cross
// reference filter, the diagram filter, and any user-declared exec filters
// connected between them through OS pipes.
package pipeline

import "strings"

// Stage names used for logging.
const (
	StageEngineInput  = "engine-input"
	StageCrossref     = "crossref"
	StageMermaid      = "mermaid"
	StageEngineOutput = "engine-output"
)

// External commands the pipeline drives. The engine binary does both the
// parse and the render; the two filters run between them on every run.
const (
	EngineCommand   = "pandoc"
	CrossrefCommand = "pandoc-crossref"
	MermaidCommand  = "mermaid-filter"
)

// Stage describes one external process in a pipeline run.
type Stage struct {
	// Name identifies the stage in logs and errors.
	Name string

	// Command and Args form the invocation. When UseShell is set the
	// command line is handed to the platform shell instead, which resolves
	// script-based filters on Windows.
	Command  string
	Args     []string
	UseShell bool

	// Env entries are appended to the inherited environment as KEY=VALUE.
	Env map[string]string

	// PipeToNext connects this stage's stdout to the next stage's stdin.
	// The terminal stage writes to the run's stdout instead.
	PipeToNext bool
}

// DisplayCommand renders the invocation for error messages.
func (s Stage) DisplayCommand() string {
	if len(s.Args) == 0 {
		return s.Command
	}
	return s.Command + " " + strings.Join(s.Args, " ")
}
