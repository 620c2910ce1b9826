// Package internal contains the core implementation packages for
// pandoc-spec.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing all
// the machinery behind the pandoc-spec CLI and the pkg/pandocspec facade.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - assets: bundled Lua include filters and the default HTML template
//   - config: options file loading, layer merging, and resolution
//   - errors: the pipeline error taxonomy and exit status mapping
//   - logging: structured logging shared by every component
//   - pipeline: argument building, stage assembly, and chain supervision
//   - preview: live-reloading HTTP preview of the rendered output
//   - runner: whole-run orchestration and the watch loop
//   - version: build metadata stamped at link time
//   - watcher: filesystem monitoring with trailing-edge debouncing
//
// # Data Flow
//
// A run flows through the packages in one direction: config resolves the
// options record, pipeline turns it into an ordered chain of external
// processes and supervises them, and runner sequences the whole thing,
// including the sandbox finalizer and the post-success resource copy. In
// watch mode, watcher feeds debounced change batches back into runner,
// which re-resolves the configuration before every rerun.
package internal
