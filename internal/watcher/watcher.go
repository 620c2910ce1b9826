// Package watcher turns raw filesystem notifications into debounced change
// batches. Rapid bursts of events, such as an editor writing a swap file and
// then the real file, collapse into a single batch once the configured quiet
// period elapses.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/internal/logging"
)

// FileWatcher watches a document tree and delivers debounced change batches
// to its handlers.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	logger    logging.Logger
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
}

// ChangeEvent is one deduplicated file change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType classifies a file change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a changed path is relevant. A path is dropped
// as soon as any filter rejects it.
type FileFilter func(path string) bool

// ChangeHandler consumes one debounced batch.
type ChangeHandler func(events []ChangeEvent) error

// debouncer coalesces events until the quiet period elapses, then emits the
// pending batch at once. Each new event cancels and replaces the running
// timer, so the batch fires on the trailing edge.
type debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// NewFileWatcher creates a watcher that fires after quiet periods of the
// given length. A nil logger disables watcher diagnostics.
func NewFileWatcher(quiet time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewWatchError(errors.ErrCodeWatchSetup,
			"could not create filesystem watcher", err)
	}

	if logger == nil {
		logger = logging.NewTestLogger()
	}

	return &FileWatcher{
		watcher: w,
		logger:  logger,
		debouncer: &debouncer{
			delay:   quiet,
			events:  make(chan ChangeEvent, 100),
			output:  make(chan []ChangeEvent, 10),
			pending: make([]ChangeEvent, 0),
		},
	}, nil
}

// AddFilter registers a relevance filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler registers a batch handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// Add watches one extra path, typically a resource living outside the
// input tree.
func (fw *FileWatcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.NewWatchError(errors.ErrCodeWatchSetup,
			"could not resolve "+path, err)
	}
	if err := fw.watcher.Add(abs); err != nil {
		return errors.NewWatchError(errors.ErrCodeWatchSetup,
			"could not watch "+path, err)
	}
	return nil
}

// AddRecursive watches root and every directory below it. Directories
// created later are picked up as their create events arrive.
func (fw *FileWatcher) AddRecursive(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.NewWatchError(errors.ErrCodeWatchSetup,
			"could not resolve "+root, err)
	}

	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return errors.NewWatchError(errors.ErrCodeWatchSetup,
			"could not watch "+root, err)
	}
	return nil
}

// Start launches the watch, debounce, and dispatch loops. All of them end
// when the context does.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.run(ctx)
	go fw.dispatch(ctx)
	go fw.watchLoop(ctx)
}

// Stop cancels any pending batch and releases the filesystem watcher.
func (fw *FileWatcher) Stop() error {
	fw.debouncer.stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "Filesystem watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var modTime time.Time
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
		// New directories join the watch so the recursive view stays
		// complete.
		if info.IsDir() && event.Op.Has(fsnotify.Create) {
			if err := fw.watcher.Add(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "Could not watch new directory", "path", event.Name)
			}
			return
		}
	}

	change := ChangeEvent{
		Type:    classify(event.Op),
		Path:    event.Name,
		ModTime: modTime,
	}

	select {
	case fw.debouncer.events <- change:
	default:
		// Burst overflow: the batch already carries enough to trigger a
		// rerun, dropping extras is harmless.
	}
}

func classify(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					fw.logger.Error(ctx, err, "Change handler failed")
				}
			}
		}
	}
}

func (d *debouncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.stop()
			return
		case event := <-d.events:
			d.add(event)
		}
	}
}

func (d *debouncer) add(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	// Cancel and replace: only silence of the full quiet period flushes.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// One event per path, keeping the latest.
	byPath := make(map[string]ChangeEvent, len(d.pending))
	for _, event := range d.pending {
		byPath[event.Path] = event
	}
	events := make([]ChangeEvent, 0, len(byPath))
	for _, event := range byPath {
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
	}

	d.pending = d.pending[:0]
}

// IgnoreArtifacts rejects the files the pipeline itself writes into the
// watched tree, which would otherwise retrigger runs forever.
func IgnoreArtifacts(names ...string) FileFilter {
	return func(path string) bool {
		base := filepath.Base(path)
		for _, name := range names {
			if base == name {
				return false
			}
		}
		return true
	}
}

// IgnoreTree rejects everything under root, used to keep an output
// directory nested inside the input tree from feeding back into the watch.
func IgnoreTree(root string) FileFilter {
	clean := filepath.Clean(root)
	prefix := clean + string(filepath.Separator)
	return func(path string) bool {
		p := filepath.Clean(path)
		return p != clean && !strings.HasPrefix(p, prefix)
	}
}

// IgnoreHidden rejects dotfiles and anything inside dot directories, such
// as version control metadata.
func IgnoreHidden(root string) FileFilter {
	clean := filepath.Clean(root)
	return func(path string) bool {
		rel, err := filepath.Rel(clean, path)
		if err != nil {
			return true
		}
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if len(part) > 1 && part[0] == '.' {
				return false
			}
		}
		return true
	}
}

// Describe renders a batch for logs.
func Describe(events []ChangeEvent) string {
	if len(events) == 1 {
		return fmt.Sprintf("%s %s", events[0].Type, filepath.Base(events[0].Path))
	}
	return fmt.Sprintf("%d files changed", len(events))
}
