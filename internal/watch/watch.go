// Package watch feeds a directory of binary glTF files into the pipeline and writes the
// resulting screenshots next to each other in an output directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/export"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is read.
const DefaultDebounce = 500 * time.Millisecond

var ErrNotDirectory = errors.New("watch path is not a directory")

type Watcher struct {
	controller *pipeline.Controller
	dir        string
	outDir     string
	debounce   time.Duration
	logger     *slog.Logger

	mu      *sync.Mutex
	timers  map[string]*time.Timer
	owned   map[string]string
	started chan struct{}
}

// New creates a Watcher that enqueues files from dir and writes screenshots to outDir.
//
// Parameters:
//   - controller: the pipeline receiving the files
//   - dir: the directory to watch
//   - outDir: where screenshots are written, created when missing
//   - options: functional options to configure the watcher
//
// Returns:
//   - *Watcher: the configured watcher
func New(controller *pipeline.Controller, dir, outDir string, options ...WatcherOption) *Watcher {
	w := &Watcher{
		controller: controller,
		dir:        dir,
		outDir:     outDir,
		debounce:   DefaultDebounce,
		logger:     slog.Default(),
		mu:         &sync.Mutex{},
		timers:     make(map[string]*time.Timer),
		owned:      make(map[string]string),
		started:    make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// WatcherOption is a functional option for configuring a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a created or rewritten file is read.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Started is closed once the directory is being watched.
func (w *Watcher) Started() <-chan struct{} {
	return w.started
}

// Run watches the directory until ctx is done or the pipeline's event stream ends.
// Only models enqueued by this watcher have their screenshots written.
//
// Parameters:
//   - ctx: stops the watcher
//
// Returns:
//   - error: setup failures; nil on a clean stop
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, w.dir)
	}
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	events, unsubscribe := w.controller.Subscribe()
	defer unsubscribe()
	defer w.stopTimers()

	settled := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	close(w.started)
	w.logger.Info("Watching for models", "dir", w.dir, "out", w.outDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name, settled, stop)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "err", err)
		case path := <-settled:
			w.enqueue(path)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		}
	}
}

// schedule restarts the quiet period of path.
func (w *Watcher) schedule(path string, settled chan<- string, stop <-chan struct{}) {
	if !strings.EqualFold(filepath.Ext(path), intake.Extension) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case settled <- path:
		case <-stop:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) enqueue(path string) {
	f, err := intake.ReadFile(path)
	if err != nil {
		// a partially written file is picked up again by its next write event
		w.logger.Warn("Skipping model file", "path", path, "err", err)
		return
	}
	for _, rec := range w.controller.Enqueue(f) {
		w.mu.Lock()
		w.owned[rec.ID] = path
		w.mu.Unlock()
		w.logger.Info("Model queued from watch directory", "model", rec.ID, "path", path)
	}
}

// handleEvent settles every owned model whose record reached a final state. Any event
// triggers the check, so a dropped ready or failed event is picked up by the next one.
func (w *Watcher) handleEvent(pipeline.Event) {
	w.mu.Lock()
	ids := make([]string, 0, len(w.owned))
	for id := range w.owned {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	for _, id := range ids {
		w.settle(id)
	}
}

func (w *Watcher) settle(id string) {
	rec, ok := w.controller.Record(id)
	if ok && !rec.Status.Terminal() {
		return
	}
	w.mu.Lock()
	path := w.owned[id]
	delete(w.owned, id)
	w.mu.Unlock()

	switch {
	case !ok:
		w.logger.Debug("Model removed before capture", "model", id, "path", path)
	case rec.Status == pipeline.StatusReady:
		out, err := w.writeScreenshot(rec)
		if err != nil {
			w.logger.Error("Failed to write screenshot", "model", id, "path", path, "err", err)
			return
		}
		w.logger.Info("Screenshot written", "model", id, "path", path, "out", out)
	default:
		w.logger.Warn("Model failed", "model", id, "path", path, "err", rec.Error)
	}
}

func (w *Watcher) writeScreenshot(rec pipeline.ModelRecord) (string, error) {
	if !rec.HasScreenshot() {
		return "", fmt.Errorf("no screenshot for model %s", rec.ID)
	}
	out := filepath.Join(w.outDir, export.ScreenshotName(rec.Name))
	if err := os.WriteFile(out, rec.Screenshot.PNG, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
