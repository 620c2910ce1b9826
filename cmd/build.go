package cmd

import (
	"github.com/conneroisu/pandoc-spec/internal/runner"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the pipeline exactly once",
	Long: `Run the document pipeline exactly once and exit, whatever the watch
setting in the options file says. This is the command to call from scripts
and CI jobs.

Examples:
  pandoc-spec build                                  # Build per the options file
  pandoc-spec build --output-format docx             # Override the output format
  pandoc-spec build --variables mathjax --variables lang:en-US`,
	RunE: runBuildOnce,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	registerOptionFlags(buildCmd.Flags())
}

func runBuildOnce(cmd *cobra.Command, args []string) error {
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

	timer := log.StartOperation("build")
	_, runErr := run.RunOnce(cmd.Context())
	if runErr != nil {
		timer.EndWithError(cmd.Context(), runErr)
		return runErr
	}
	timer.End(cmd.Context())
	return nil
}
