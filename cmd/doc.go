// Package cmd provides the command-line interface for pandoc-spec.
//
// This package implements all CLI commands using the Cobra framework,
// wrapping the document pipeline in a small set of focused tools.
//
// # Available Commands
//
//   - (root): run the pipeline once, or keep watching when configured
//   - build: run the pipeline exactly once, ignoring the watch setting
//   - watch: run the pipeline and rerun it on every source change
//   - config: show the resolved options or validate the options file
//   - doctor: diagnose the environment and the external tool chain
//   - init: scaffold a starter options file and an example document
//   - version: show build information
//
// # Command Examples
//
//	// Build the document described by pandoc-spec.options.json
//	pandoc-spec
//
//	// Build once with an explicit input and output
//	pandoc-spec build --input-files spec.md --output-file spec.html
//
//	// Rebuild on change with a live-reloading preview
//	pandoc-spec watch --preview
//
//	// Inspect what the merged configuration resolves to
//	pandoc-spec config show --format yaml
//
//	// Check that pandoc and the bundled filters are installed
//	pandoc-spec doctor
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of
// precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (PANDOC_SPEC_*)
//  3. Options file (pandoc-spec.options.json)
//  4. Default values (lowest priority)
package cmd
