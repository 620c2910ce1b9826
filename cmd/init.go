package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/pandoc-spec/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold an options file and an example document",
	Long: `Create a starter options file and an example source document. With no
argument the current directory is used; otherwise the named directory is
created first.

Existing files are never overwritten unless --force is given.

Examples:
  pandoc-spec init             # Scaffold into the current directory
  pandoc-spec init docs        # Scaffold into ./docs
  pandoc-spec init --force     # Replace an existing scaffold`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

const starterOptions = `{
  "inputFiles": ["index.md"],
  "outputFile": "index.html",
  "cssFiles": [
    "https://cdn.jsdelivr.net/gh/kimeiga/bahunya/dist/bahunya.min.css"
  ],
  "variables": [
    {"key": "mathjax"}
  ]
}
`

const starterDocument = `---
title: Example Specification
---

# Introduction

Edit this document and run ` + "`pandoc-spec`" + ` to rebuild it, or
` + "`pandoc-spec watch --preview`" + ` to rebuild on every save.

## Cross-references

Sections are numbered and can be referenced with pandoc-crossref, for
example [@sec:introduction].

## Diagrams

Fenced code blocks with the ` + "`mermaid`" + ` class render as diagrams:

` + "```mermaid" + `
graph LR
  A[Edit] --> B[Save]
  B --> C[Rebuild]
  C --> A
` + "```" + `
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create project directory: %w", err)
		}
	}

	files := []struct {
		name    string
		content string
	}{
		{config.DefaultOptionsFile, starterOptions},
		{"index.md", starterDocument},
	}

	// Check every target before writing any, so --force is never needed to
	// recover from a half-written scaffold.
	if !initForce {
		for _, file := range files {
			path := filepath.Join(dir, file.name)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, pass --force to overwrite", path)
			}
		}
	}

	for _, file := range files {
		path := filepath.Join(dir, file.name)
		if err := os.WriteFile(path, []byte(file.content), 0644); err != nil {
			return fmt.Errorf("could not write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nNext: run 'pandoc-spec' to build, or 'pandoc-spec watch --preview' to develop.")
	return nil
}
