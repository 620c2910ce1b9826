package cmd

import (
	"github.com/conneroisu/pandoc-spec/internal/runner"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the document on every source change",
	Long: `Run the pipeline once, then watch the input directory and every
declared external resource, rebuilding after each debounced batch of
changes. Changes arriving during a rebuild coalesce into one follow-up
run. Watching continues until interrupted, even across failing builds.

With --preview the output directory is served over HTTP and connected
browser tabs reload after every successful rebuild.

Examples:
  pandoc-spec watch                    # Watch with options-file settings
  pandoc-spec watch --preview          # Watch with a live-reloading preview
  pandoc-spec watch --watch-wait 500   # Rebuild after half a second of quiet`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	registerOptionFlags(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	if runner.IsCI() {
		log.Info(cmd.Context(), "CI environment detected, watch suppressed")
		_, runErr := run.RunOnce(cmd.Context())
		return runErr
	}
	return run.Watch(cmd.Context())
}
