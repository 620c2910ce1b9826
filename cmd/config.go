package cmd

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"os"

	"github.com/conneroisu/pandoc-spec/internal/config"
	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the pipeline configuration",
	Long: `Inspect the pipeline configuration.

Examples:
  pandoc-spec config show              # Show the fully resolved options
  pandoc-spec config show --format json
  pandoc-spec config validate          # Check the options file and overrides`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved options",
	Long: `Display the options the pipeline would actually run with, after merging
the options file, environment variables, and flags, applying defaults, and
deduplicating lists.

Examples:
  pandoc-spec config show                        # Resolved options as YAML
  pandoc-spec config show --format json          # Resolved options as JSON
  pandoc-spec config show --output-format docx   # See a flag's effect`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the options file and overrides",
	Long: `Load and resolve the configuration exactly as a build would, reporting
the first problem found with its error code. Nothing is executed.

Examples:
  pandoc-spec config validate
  pandoc-spec config validate --options-file doc.json`,
	RunE: runConfigValidate,
}

var configShowFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().StringVarP(&configShowFormat, "format", "f", "yaml",
		"Output format (yaml, json)")
	registerOptionFlags(configShowCmd.Flags())
	registerOptionFlags(configValidateCmd.Flags())
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	overlay, err := overlayFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	resolved, err := config.Load(optionsFile, overlay)
	if err != nil {
		return err
	}

	switch configShowFormat {
	case "yaml":
		out, err := yaml.Marshal(resolved)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
	case "json":
		out, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configShowFormat)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	overlay, err := overlayFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	resolved, err := config.Load(optionsFile, overlay)
	if err != nil {
		var perr *errors.PipelineError
		if goerrors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "invalid: [%s] %s\n", perr.Code, perr.Message)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %d input file(s) -> %s\n",
		len(resolved.InputFiles), resolved.OutputPath())
	return nil
}
