package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/semproposal/proposal"
)

// DefaultSaveTimeout bounds a single autosave.
const DefaultSaveTimeout = 10 * time.Second

// Autosaver writes a fresh snapshot to a backend after every store mutation.
// Save failures are logged and counted; they never fail the mutation.
type Autosaver struct {
	store   Snapshotter
	backend Backend
	logger  *slog.Logger
	timeout time.Duration

	// saveMu serializes snapshot and write so a later snapshot is never
	// overwritten by an earlier one.
	saveMu sync.Mutex

	mu          sync.Mutex
	unsubscribe func()
	saves       int
	failures    int
	lastErr     error
}

// NewAutosaver creates an autosaver. Call Start to begin saving.
func NewAutosaver(store Snapshotter, backend Backend, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autosaver{
		store:   store,
		backend: backend,
		logger:  logger,
		timeout: DefaultSaveTimeout,
	}
}

// Start subscribes to store events. Calling Start twice is a no-op.
func (a *Autosaver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsubscribe != nil {
		return
	}
	a.unsubscribe = a.store.Subscribe(a.handle)
}

// Stop unsubscribes from the store.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// handle saves after each mutation. Restores come from the backend's own
// data and are not written back.
func (a *Autosaver) handle(ev proposal.Event) {
	if ev.Op == proposal.OpRestore {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.Save(ctx); err != nil {
		a.logger.Error("Autosave failed", "op", ev.Op, "proposal_id", ev.ProposalID, "error", err)
	}
}

// Save writes the current store snapshot now.
func (a *Autosaver) Save(ctx context.Context) error {
	a.saveMu.Lock()
	err := a.backend.Save(ctx, a.store.Snapshot())
	a.saveMu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.failures++
		a.lastErr = err
		return err
	}
	a.saves++
	a.lastErr = nil
	return nil
}

// Stats reports successful saves, failures, and the most recent error.
func (a *Autosaver) Stats() (saves, failures int, lastErr error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves, a.failures, a.lastErr
}
