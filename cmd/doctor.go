package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/conneroisu/pandoc-spec/internal/config"
	"github.com/conneroisu/pandoc-spec/internal/runner"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the environment and the external tool chain",
	Long: `Diagnose the environment the pipeline runs in. The doctor checks:

- pandoc, pandoc-crossref, and mermaid-filter availability and versions
- Options file presence and well-formedness
- Input and output directory state
- CI detection, which suppresses watch mode

Examples:
  pandoc-spec doctor                  # Full environment diagnosis
  pandoc-spec doctor --format json    # Output as JSON for tooling
  pandoc-spec doctor --format yaml    # Output as YAML`,
	RunE: runDoctor,
}

var doctorFormat string

// DiagnosticResult is the outcome of one diagnostic check.
type DiagnosticResult struct {
	Name       string            `json:"name" yaml:"name"`
	Category   string            `json:"category" yaml:"category"`
	Status     string            `json:"status" yaml:"status"` // "ok", "warning", "error", "info"
	Message    string            `json:"message" yaml:"message"`
	Suggestion string            `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Details    map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// DoctorReport is the complete diagnostic report.
type DoctorReport struct {
	Timestamp   time.Time          `json:"timestamp" yaml:"timestamp"`
	Environment map[string]string  `json:"environment" yaml:"environment"`
	Results     []DiagnosticResult `json:"results" yaml:"results"`
	Summary     ReportSummary      `json:"summary" yaml:"summary"`
}

// ReportSummary counts diagnostic results by status.
type ReportSummary struct {
	Total    int `json:"total" yaml:"total"`
	OK       int `json:"ok" yaml:"ok"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Errors   int `json:"errors" yaml:"errors"`
	Info     int `json:"info" yaml:"info"`
}

// requiredTools are the external binaries every pipeline run spawns, in
// chain order.
var requiredTools = []string{"pandoc", "pandoc-crossref", "mermaid-filter"}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "text",
		"Output format (text, json, yaml)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := buildDoctorReport(cmd.Context())

	switch doctorFormat {
	case "text":
		displayDoctorReport(cmd, report)
		return nil
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", doctorFormat)
	}
}

func buildDoctorReport(ctx context.Context) *DoctorReport {
	report := &DoctorReport{
		Timestamp:   time.Now(),
		Environment: gatherEnvironmentInfo(),
		Results:     []DiagnosticResult{},
	}

	for _, tool := range requiredTools {
		report.Results = append(report.Results, checkTool(ctx, tool))
	}
	report.Results = append(report.Results, checkOptionsFile())
	report.Results = append(report.Results, checkDirectories()...)
	report.Results = append(report.Results, checkCIContext())

	report.Summary = summarizeResults(report.Results)
	return report
}

func gatherEnvironmentInfo() map[string]string {
	env := map[string]string{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"go_version": runtime.Version(),
	}
	if wd, err := os.Getwd(); err == nil {
		env["working_dir"] = wd
	}
	return env
}

// checkTool verifies one external binary is reachable and asks it for a
// version. A tool that resolves but will not answer a version probe still
// counts as found.
func checkTool(ctx context.Context, tool string) DiagnosticResult {
	result := DiagnosticResult{
		Name:     displayName(tool),
		Category: "Tools",
		Status:   "ok",
	}

	path, err := exec.LookPath(tool)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s not found on PATH", tool)
		result.Suggestion = fmt.Sprintf("Install %s; every pipeline run spawns it", tool)
		return result
	}

	result.Message = fmt.Sprintf("found at %s", path)
	result.Details = map[string]string{"path": path}

	if version := probeVersion(ctx, tool); version != "" {
		result.Details["version"] = version
		result.Message = fmt.Sprintf("found at %s (%s)", path, version)
	}
	return result
}

// probeVersion runs "<tool> --version" and keeps the first output line.
// Empty means the probe failed or said nothing.
func probeVersion(ctx context.Context, tool string) string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, tool, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

func checkOptionsFile() DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Options File",
		Category: "Configuration",
		Status:   "ok",
	}

	path := optionsFile
	if path == "" {
		path = config.DefaultOptionsFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		result.Status = "info"
		result.Message = fmt.Sprintf("%s not found, defaults and flags apply", path)
		result.Suggestion = "Run 'pandoc-spec init' to scaffold one"
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s is unreadable: %v", path, err)
		return result
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s is not valid JSON: %v", path, err)
		result.Suggestion = "Fix the syntax error or regenerate the file with 'pandoc-spec init --force'"
		return result
	}

	result.Message = fmt.Sprintf("%s is well-formed (%d setting(s))", path, len(settings))
	return result
}

// checkDirectories resolves the configuration and inspects the directories
// a run would touch. An unresolvable configuration is itself the finding.
func checkDirectories() []DiagnosticResult {
	resolved, err := config.Load(optionsFile, nil)
	if err != nil {
		return []DiagnosticResult{{
			Name:       "Configuration",
			Category:   "Configuration",
			Status:     "error",
			Message:    fmt.Sprintf("configuration does not resolve: %v", err),
			Suggestion: "Run 'pandoc-spec config validate' for the failing setting",
		}}
	}

	results := []DiagnosticResult{{
		Name:     "Input Directory",
		Category: "Directories",
		Status:   "ok",
		Message:  resolved.InputDirectory,
	}}
	if info, err := os.Stat(resolved.InputDirectory); err != nil || !info.IsDir() {
		results[0].Status = "error"
		results[0].Message = fmt.Sprintf("%s does not exist", resolved.InputDirectory)
	}

	outDir := DiagnosticResult{
		Name:     "Output Directory",
		Category: "Directories",
		Status:   "ok",
		Message:  resolved.OutputDirectory,
	}
	if _, err := os.Stat(resolved.OutputDirectory); err != nil {
		outDir.Status = "info"
		outDir.Message = fmt.Sprintf("%s does not exist yet, builds create it", resolved.OutputDirectory)
	}
	return append(results, outDir)
}

func checkCIContext() DiagnosticResult {
	result := DiagnosticResult{
		Name:     "CI Context",
		Category: "Environment",
		Status:   "ok",
		Message:  "not running in CI",
	}
	if runner.IsCI() {
		result.Status = "info"
		result.Message = "CI environment detected, watch mode is suppressed"
	}
	return result
}

func summarizeResults(results []DiagnosticResult) ReportSummary {
	summary := ReportSummary{Total: len(results)}
	for _, result := range results {
		switch result.Status {
		case "ok":
			summary.OK++
		case "warning":
			summary.Warnings++
		case "error":
			summary.Errors++
		case "info":
			summary.Info++
		}
	}
	return summary
}

func displayDoctorReport(cmd *cobra.Command, report *DoctorReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "pandoc-spec environment doctor")
	fmt.Fprintln(out, "==============================")
	fmt.Fprintln(out)

	for _, result := range report.Results {
		fmt.Fprintf(out, "%s [%s] %s: %s\n",
			statusIcon(result.Status), strings.ToUpper(result.Category), result.Name, result.Message)
		if result.Suggestion != "" {
			fmt.Fprintf(out, "   %s\n", result.Suggestion)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Checks: %d  ok: %d  warnings: %d  errors: %d  info: %d\n",
		report.Summary.Total, report.Summary.OK, report.Summary.Warnings,
		report.Summary.Errors, report.Summary.Info)

	if report.Summary.Errors > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Builds will fail until the errors above are fixed.")
	}
}

func statusIcon(status string) string {
	switch status {
	case "ok":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	case "info":
		return "ℹ️"
	default:
		return "•"
	}
}

// displayName renders a tool name for the report ("pandoc-crossref" shows
// as "Pandoc-Crossref").
func displayName(tool string) string {
	return cases.Title(language.English).String(tool)
}
