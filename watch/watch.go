// Package watch regenerates the report whenever the decomposition outputs
// change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Generator produces the report once. It is invoked from the watch loop
// after each debounced batch of filesystem changes.
type Generator func() error

// Watcher observes an output directory and its figures subdirectory and
// reruns the generator once per debounced change batch.
type Watcher struct {
	outDir   string
	prefix   string
	debounce time.Duration
	generate Generator
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	// Debouncing: collect changed paths before regenerating.
	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// New creates a watcher over outDir. The generator is not called until Run.
func New(outDir, prefix string, debounce time.Duration, generate Generator, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		outDir:   outDir,
		prefix:   prefix,
		debounce: debounce,
		generate: generate,
		logger:   logger,
		watcher:  fsw,
		pending:  make(map[string]struct{}),
	}, nil
}

// Run generates the report once, then blocks regenerating on changes until
// the context is cancelled. The initial generation failing is fatal; later
// failures are logged and watching continues, so a half-edited input does
// not kill the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.outDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.outDir, err)
	}
	figuresDir := filepath.Join(w.outDir, "figures")
	if info, err := os.Stat(figuresDir); err == nil && info.IsDir() {
		if err := w.watcher.Add(figuresDir); err != nil {
			w.logger.Warn("Failed to watch figures directory",
				"path", figuresDir,
				"error", err)
		}
	}

	if err := w.generate(); err != nil {
		return err
	}

	w.logger.Info("Watching for changes",
		"out_dir", w.outDir,
		"debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, figuresDir)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleEvent accumulates one filesystem event into the pending batch.
func (w *Watcher) handleEvent(event fsnotify.Event, figuresDir string) {
	path := event.Name
	base := filepath.Base(path)

	// Writing the report would retrigger the watch; skip our own outputs
	// along with editor temp files.
	if w.isOwnOutput(base) || strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return
	}

	// A figures directory appearing later gets a watch of its own.
	if event.Has(fsnotify.Create) && path == figuresDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch figures directory",
					"path", path,
					"error", err)
			}
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("Input change detected",
		"path", base,
		"op", event.Op.String())
}

// flushPending regenerates once for the accumulated batch, if any.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	n := len(w.pending)
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if n == 0 {
		return
	}

	w.logger.Info("Inputs changed, regenerating", "changed_files", n)
	if err := w.generate(); err != nil {
		w.logger.Error("Regeneration failed", "error", err)
	}
}

// isOwnOutput reports whether base is a file the generator itself writes.
func (w *Watcher) isOwnOutput(base string) bool {
	return base == w.prefix+"tedana_report.html" || base == w.prefix+"tedana_report.md"
}
