// Package runner executes complete pipeline runs: configuration load,
// asset materialization, chain assembly and supervision, the finalizer,
// and the post-success resource copy. It also drives the watch loop that
// reruns the pipeline on debounced filesystem changes.
package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/pandoc-spec/internal/assets"
	"github.com/conneroisu/pandoc-spec/internal/config"
	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/internal/logging"
	"github.com/conneroisu/pandoc-spec/internal/pipeline"
	"github.com/conneroisu/pandoc-spec/internal/preview"
	"github.com/conneroisu/pandoc-spec/internal/watcher"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// Runner holds everything one invocation needs. The zero value plus an
// Overlay is usable; Logger and the stdio writers default to the process
// streams.
type Runner struct {
	// OptionsFile overrides the options file path. Empty means discover
	// the default file in the working directory, absent being fine.
	OptionsFile string

	// Overlay is the caller-supplied configuration layer, merged over the
	// file per the layering rules.
	Overlay *options.Options

	Logger logging.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunOnce executes one full pipeline run. The resolved configuration is
// returned whenever resolution succeeded, even if the run itself failed,
// so callers like the watch loop can keep going on stage failures.
func (r *Runner) RunOnce(ctx context.Context) (*options.Resolved, error) {
	resolved, err := config.Load(r.OptionsFile, r.Overlay)
	if err != nil {
		return nil, err
	}
	return resolved, r.execute(ctx, resolved)
}

// Run executes once and, when the resolved options ask for it, keeps
// watching. Recognized CI environments never watch, whatever the options
// say.
func (r *Runner) Run(ctx context.Context) error {
	resolved, runErr := r.RunOnce(ctx)
	if resolved == nil {
		return runErr
	}
	if !resolved.Watch {
		return runErr
	}
	if IsCI() {
		r.logger().WithComponent("watch").Info(ctx,
			"CI environment detected, watch suppressed")
		return runErr
	}
	return r.watchAfter(ctx, resolved, runErr)
}

func (r *Runner) execute(ctx context.Context, resolved *options.Resolved) error {
	log := r.logger().WithComponent("runner")
	start := time.Now()

	bundled, cleanup, err := assets.Materialize()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := os.MkdirAll(resolved.OutputDirectory, 0755); err != nil {
		return errors.NewIOError(errors.ErrCodeOutputDir,
			"could not create "+resolved.OutputDirectory, err)
	}

	builder := &pipeline.Builder{Assets: bundled}
	stages := pipeline.Assemble(resolved,
		builder.InputArgs(resolved), builder.OutputArgs(resolved))

	log.Debug(ctx, "Assembled pipeline", "stages", len(stages))

	guard, err := pipeline.PrepareSandbox(resolved.InputDirectory)
	if err != nil {
		return err
	}

	runErr := pipeline.RunChain(ctx, log, resolved.InputDirectory, stages, pipeline.ChainIO{
		Stdin:  r.stdin(),
		Stdout: r.stdout(),
		Stderr: r.stderr(),
	})

	// The finalizer always runs, before the copy step and regardless of
	// how the chain ended, and never masks the run's own outcome.
	if err := guard.Restore(); err != nil {
		log.Warn(ctx, err, "Sandbox restore failed")
	}
	pipeline.CleanupErrorLog(resolved.InputDirectory)

	if runErr != nil {
		return runErr
	}

	if err := pipeline.CopyResources(ctx, log, resolved); err != nil {
		return err
	}

	log.Info(ctx, "Pipeline complete",
		"output", resolved.OutputPath(),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Watch runs the pipeline once, then reruns it on every debounced change
// batch until the context ends. Triggers arriving while a run is active
// coalesce into a single follow-up run. A failing initial configuration is
// fatal; failing runs keep the loop alive so the next edit can fix them.
func (r *Runner) Watch(ctx context.Context) error {
	resolved, runErr := r.RunOnce(ctx)
	if resolved == nil {
		return runErr
	}
	return r.watchAfter(ctx, resolved, runErr)
}

func (r *Runner) watchAfter(ctx context.Context, resolved *options.Resolved, runErr error) error {
	log := r.logger().WithComponent("watch")

	if runErr != nil {
		log.Error(ctx, runErr, "Initial run failed, watching for fixes")
	}

	fw, err := watcher.NewFileWatcher(resolved.WatchWait, log)
	if err != nil {
		return err
	}
	defer fw.Stop()

	r.configureWatch(ctx, log, fw, resolved)

	// Single-slot trigger: a change during an active run marks exactly one
	// follow-up run, however many batches arrive meanwhile.
	triggers := make(chan struct{}, 1)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		log.Info(context.Background(), "Change detected", "what", watcher.Describe(events))
		select {
		case triggers <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	fw.Start(ctx)

	var previewServer *preview.Server
	if resolved.Preview {
		previewServer = preview.NewServer(&preview.Config{
			Port:            resolved.PreviewPort,
			Dir:             resolved.OutputDirectory,
			DefaultDocument: defaultDocument(resolved),
			Logger:          r.logger(),
		})
		go func() {
			if err := previewServer.Start(); err != nil {
				log.Error(ctx, err, "Preview server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = previewServer.Shutdown(shutdownCtx)
		}()
	}

	log.Info(ctx, "Watching for changes",
		"dir", resolved.InputDirectory,
		"quiet", resolved.WatchWait.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-triggers:
			if _, err := r.RunOnce(ctx); err != nil {
				log.Error(ctx, err, "Rerun failed")
				continue
			}
			if previewServer != nil {
				previewServer.NotifyReload()
			}
		}
	}
}

// configureWatch wires the ignore rules and watch targets: the input tree
// recursively, plus declared resources and the template when they live
// elsewhere.
func (r *Runner) configureWatch(ctx context.Context, log logging.Logger, fw *watcher.FileWatcher, o *options.Resolved) {
	ignores := []string{
		pipeline.SandboxFileName,
		pipeline.MermaidErrorLog,
		r.optionsFileName(),
	}
	if o.OutputDirectory == o.InputDirectory {
		// Rendering next to the sources must not retrigger the watch.
		ignores = append(ignores, filepath.Base(o.OutputPath()))
	}
	fw.AddFilter(watcher.IgnoreArtifacts(ignores...))
	fw.AddFilter(watcher.IgnoreHidden(o.InputDirectory))
	if o.OutputDirectory != o.InputDirectory && insideTree(o.InputDirectory, o.OutputDirectory) {
		fw.AddFilter(watcher.IgnoreTree(o.OutputDirectory))
	}

	if err := fw.AddRecursive(o.InputDirectory); err != nil {
		log.Warn(ctx, err, "Could not watch input directory", "dir", o.InputDirectory)
	}
	for _, extra := range watchExtras(o) {
		if err := fw.Add(extra); err != nil {
			log.Warn(ctx, err, "Could not watch resource", "path", extra)
		}
	}
}

// watchExtras lists the absolute-path resources outside the input tree.
// Relative entries resolve inside the input directory, which the recursive
// watch already covers.
func watchExtras(o *options.Resolved) []string {
	var extras []string
	add := func(entry string) {
		if entry == "" || !filepath.IsAbs(entry) {
			return
		}
		matches, err := filepath.Glob(entry)
		if err != nil {
			return
		}
		extras = append(extras, matches...)
	}

	for _, css := range o.CSSFiles {
		if !options.IsRemote(css) {
			add(css)
		}
	}
	for _, res := range o.ResourceFiles {
		add(res)
	}
	add(o.TemplateFile)

	return extras
}

// defaultDocument maps the output file into the preview server's root.
func defaultDocument(o *options.Resolved) string {
	rel, err := filepath.Rel(o.OutputDirectory, o.OutputPath())
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return rel
}

func insideTree(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsCI reports whether a recognized CI environment is active, which
// suppresses watch mode.
func IsCI() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CI")))
	return v != "" && v != "0" && v != "false"
}

func (r *Runner) optionsFileName() string {
	if r.OptionsFile != "" {
		return filepath.Base(r.OptionsFile)
	}
	return config.DefaultOptionsFile
}

func (r *Runner) logger() logging.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.NewLogger(nil)
}

func (r *Runner) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
