package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semproposal/proposal"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads the store when the snapshot file is changed by another
// process. The parent directory is watched so atomic renames are seen.
// Writes this process made through the same FileBackend are ignored.
type Watcher struct {
	backend  *FileBackend
	store    Snapshotter
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	started bool
	pending bool
	reloads int

	done chan struct{}
}

// NewWatcher creates a watcher for backend's file. A non-positive debounce
// selects DefaultDebounce.
func NewWatcher(backend *FileBackend, store Snapshotter, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		backend:  backend,
		store:    store,
		logger:   logger,
		debounce: debounce,
		watcher:  fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Events are processed until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.backend.Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents(ctx)

	w.logger.Info("Snapshot watcher started", "path", w.backend.Path(), "debounce", w.debounce)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
	return err
}

// Reloads returns how many times the store was reloaded from disk.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	target := filepath.Clean(w.backend.Path())
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = true
				w.mu.Unlock()
				w.logger.Debug("Snapshot change detected", "op", event.Op.String())
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// flushPending reloads the store once per debounce window if the file
// changed to content this process did not write.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	data, err := os.ReadFile(w.backend.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("Failed to read snapshot", "path", w.backend.Path(), "error", err)
		}
		return
	}
	if w.backend.IsCurrent(data) {
		return
	}

	snap, err := proposal.UnmarshalSnapshot(data)
	if err != nil {
		w.logger.Warn("Ignoring unreadable snapshot", "path", w.backend.Path(), "error", err)
		return
	}
	w.backend.remember(data)
	w.store.Restore(snap)

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logger.Info("Reloaded proposals from snapshot", "path", w.backend.Path(), "proposals", len(snap.Proposals))
}
