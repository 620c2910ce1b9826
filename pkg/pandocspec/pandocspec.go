// Package pandocspec embeds the document pipeline into other Go programs.
//
// The facade mirrors the command line: the same options file discovery, the
// same layering rules, the same pipeline. Instead of exiting, every call
// returns the run's outcome as an error, with predicates to classify it and
// ExitStatus to map it onto a process exit code when the host program wants
// the CLI contract.
//
//	err := pandocspec.Run(ctx, &options.Options{
//		InputFiles: []string{"spec.md"},
//		OutputFile: options.StringPtr("spec.html"),
//	})
package pandocspec

import (
	"context"
	"io"

	"github.com/conneroisu/pandoc-spec/internal/config"
	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/internal/logging"
	"github.com/conneroisu/pandoc-spec/internal/runner"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// Config controls a library invocation beyond the options themselves. The
// zero value is usable: default options file discovery, quiet logging, and
// the process stdio streams.
type Config struct {
	// OptionsFile overrides the options file path. Empty means discover
	// config.DefaultOptionsFile in the working directory, absence being
	// fine; a named file must exist.
	OptionsFile string

	// Options is the caller layer, merged over the options file the same
	// way command-line flags are.
	Options *options.Options

	// LogLevel and LogFormat configure diagnostics on Stderr. Levels are
	// debug, info, warn, and error; formats are text and json. Library
	// calls default to the error level so they stay quiet.
	LogLevel  string
	LogFormat string

	// Stdin feeds the first pipeline stage; Stdout and Stderr receive the
	// terminal stage's streams. Nil values mean the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the pipeline once with the given options layered over the
// options file, like the build subcommand.
func Run(ctx context.Context, opts *options.Options) error {
	return (&Config{Options: opts}).Run(ctx)
}

// Watch runs the pipeline and reruns it on every debounced source change
// until the context is cancelled, like the watch subcommand. Unlike the
// CLI, Watch never consults the CI environment; calling it is the decision.
func Watch(ctx context.Context, opts *options.Options) error {
	return (&Config{Options: opts}).Watch(ctx)
}

// Resolve loads, merges, and validates the configuration without running
// anything, returning the exact record a run would use.
func Resolve(optionsFile string, opts *options.Options) (*options.Resolved, error) {
	return config.Load(optionsFile, opts)
}

// Run executes the pipeline once.
func (c *Config) Run(ctx context.Context) error {
	_, err := c.runner().RunOnce(ctx)
	return err
}

// Watch runs once and keeps rebuilding on changes until ctx ends. The
// initial configuration must resolve; later runs may fail without ending
// the watch, the next change always gets another chance.
func (c *Config) Watch(ctx context.Context) error {
	return c.runner().Watch(ctx)
}

func (c *Config) runner() *runner.Runner {
	level := logging.LevelError
	if c.LogLevel != "" {
		level = logging.ParseLevel(c.LogLevel)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	if c.LogFormat != "" {
		logCfg.Format = c.LogFormat
	}
	if c.Stderr != nil {
		logCfg.Output = c.Stderr
	}

	return &runner.Runner{
		OptionsFile: c.OptionsFile,
		Overlay:     c.Options,
		Logger:      logging.NewLogger(logCfg),
		Stdin:       c.Stdin,
		Stdout:      c.Stdout,
		Stderr:      c.Stderr,
	}
}

// Error classification, re-exported so callers outside the module can
// branch on the failure kind.

// IsConfigError reports whether err is a configuration problem: missing
// required options, a malformed options file, or conflicting layers.
func IsConfigError(err error) bool { return errors.IsConfigError(err) }

// IsStageError reports whether err came from a pipeline stage, whether it
// exited nonzero, was terminated by a signal, or never started.
func IsStageError(err error) bool { return errors.IsStageError(err) }

// IsSignalError reports whether err records a stage terminated by a
// signal, as opposed to a nonzero exit.
func IsSignalError(err error) bool { return errors.IsSignalError(err) }

// ExitStatus maps a run outcome onto a process exit code: 0 for nil, the
// failing stage's own exit code when one is recorded, and 1 otherwise.
func ExitStatus(err error) int { return errors.ExitStatus(err) }
