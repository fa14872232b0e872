package lint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when the configured debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatchUnsupported is returned when watch mode is combined with options
// that end the run, such as baseline creation.
var ErrWatchUnsupported = errors.New("watch mode cannot be combined with --baseline-create")

// Watcher reruns an Orchestrator when exports or rule configuration change.
type Watcher struct {
	orch     *Orchestrator
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// NewWatcher creates a watcher for o's project root.
func NewWatcher(o *Orchestrator) (*Watcher, error) {
	if o.opts.CreateBaseline {
		return nil, ErrWatchUnsupported
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file watcher: %w", err)
	}
	debounce := o.cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		orch:     o,
		fsw:      fsw,
		debounce: debounce,
		logger:   o.logger,
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Run lints once, then again after each debounced batch of relevant
// changes, calling report with each outcome. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, report func(*Result, error)) error {
	defer w.fsw.Close()

	if err := w.addWatchesRecursive(w.orch.cfg.Root); err != nil {
		return err
	}
	w.logger.Info("watching for changes", "root", w.orch.cfg.Root, "debounce", w.debounce)

	report(w.orch.Run(ctx))

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ticker.C:
			changed := w.takePending()
			if len(changed) == 0 {
				continue
			}
			if w.rulesChanged(changed) {
				if err := w.orch.ReloadRules(); err != nil {
					report(nil, err)
					continue
				}
			}
			if ctx.Err() != nil {
				return nil
			}
			report(w.orch.Run(ctx))
		}
	}
}

// addWatchesRecursive adds watches to all directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

// handleFSEvent records a change if it can affect a lint run.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDir(filepath.Base(event.Name)) {
				if err := w.addWatchesRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}
	if event.Op == fsnotify.Chmod || !w.relevant(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = event.Op
	w.pendingMu.Unlock()
	w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
}

func (w *Watcher) relevant(path string) bool {
	if path == w.orch.store.Path {
		return true
	}
	rel, err := filepath.Rel(w.orch.cfg.Root, path)
	if err != nil {
		return false
	}
	return w.orch.discovery.Matches(rel)
}

func (w *Watcher) rulesChanged(changed map[string]fsnotify.Op) bool {
	_, ok := changed[w.orch.store.Path]
	return ok
}

func (w *Watcher) takePending() map[string]fsnotify.Op {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := w.pending
	w.pending = make(map[string]fsnotify.Op)
	return out
}
