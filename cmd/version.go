package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/conneroisu/pandoc-spec/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information including the semantic version, git commit,
build timestamp, Go version, and target platform.

Examples:
  pandoc-spec version                # Human-readable version
  pandoc-spec version --short        # Just the version string
  pandoc-spec version --format json  # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	switch versionFormat {
	case "json":
		out, err := json.MarshalIndent(version.GetBuildInfo(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	case "text":
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
			return nil
		}
		info := version.GetBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "pandoc-spec %s", info.Version)
		if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
			fmt.Fprintf(cmd.OutOrStdout(), " (%s)", info.GitCommit[:7])
		}
		fmt.Fprintln(cmd.OutOrStdout())
		if !info.BuildTime.IsZero() {
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", info.BuildTime.Format("2006-01-02 15:04:05 UTC"))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.GoVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", info.Platform)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
