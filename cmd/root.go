package cmd

import (
	"context"
	"fmt"

	"github.com/conneroisu/pandoc-spec/internal/config"
	"github.com/conneroisu/pandoc-spec/internal/logging"
	"github.com/conneroisu/pandoc-spec/internal/runner"
	"github.com/conneroisu/pandoc-spec/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pandoc-spec",
	Short: "Build specification documents through a pandoc filter pipeline",
	Long: `pandoc-spec drives a multi-stage document pipeline: pandoc parses the
sources, pandoc-crossref resolves cross-references, mermaid-filter renders
diagrams, any declared filters run in between, and pandoc writes the final
document. Configuration comes from an options file, environment variables,
and flags.

Running pandoc-spec with no subcommand builds the configured document. When
the resolved options enable watch mode (and the process is not running in
CI), it keeps rebuilding on every source change.

Examples:
  pandoc-spec                          # Build per pandoc-spec.options.json
  pandoc-spec --watch --preview        # Rebuild on change, live preview
  pandoc-spec --options-file doc.json  # Use an alternate options file
  pandoc-spec config show              # Inspect the resolved options`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var (
	optionsFile string
	logLevel    string
	logFormat   string
	logDir      string
)

// Execute runs the root command with the given context. The context ends
// watch mode; one-shot runs finish on their own.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Version = version.GetShortVersion()

	rootCmd.PersistentFlags().StringVar(&optionsFile, "options-file", "",
		fmt.Sprintf("Options file path (default %s)", config.DefaultOptionsFile))
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Write logs to a dated file in this directory instead of stderr")

	registerOptionFlags(rootCmd.Flags())
}

func runRoot(cmd *cobra.Command, args []string) error {
	log, closeLog, err := buildLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	overlay, err := overlayFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	run := &runner.Runner{
		OptionsFile: optionsFile,
		Overlay:     overlay,
		Logger:      log,
	}

	timer := log.StartOperation("pipeline")
	if err := run.Run(cmd.Context()); err != nil {
		timer.EndWithError(cmd.Context(), err)
		return err
	}
	timer.End(cmd.Context())
	return nil
}

// buildLogger constructs the process logger from the persistent flags. The
// returned closer flushes the log file when one is in use.
func buildLogger() (*logging.PipelineLogger, func(), error) {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(logLevel)
	cfg.Format = logFormat

	if logDir == "" {
		return logging.NewLogger(cfg), func() {}, nil
	}

	fileLogger, err := logging.NewFileLogger(cfg, logDir)
	if err != nil {
		return nil, nil, err
	}
	return fileLogger.PipelineLogger, func() { _ = fileLogger.Close() }, nil
}
