package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/pkg/retry"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semproposal/config"
	"github.com/c360studio/semproposal/copilot"
	"github.com/c360studio/semproposal/metrics"
	"github.com/c360studio/semproposal/proposal"
	"github.com/c360studio/semproposal/source"
	"github.com/c360studio/semproposal/storage"
)

// App wires the store to its persistence backend and the optional
// watcher and metrics endpoint.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *proposal.Store
	selectors *proposal.Selectors

	// NATS
	natsConn *nats.Conn
	js       jetstream.JetStream

	// Storage
	backend   storage.Backend
	autosaver *storage.Autosaver
	watcher   *storage.Watcher

	// Metrics
	collector *metrics.Collector
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	store := proposal.NewStore(
		proposal.WithLogger(logger),
		proposal.WithStrictApprovals(cfg.Workflow.StrictApprovals),
	)
	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		selectors: proposal.NewSelectors(store),
	}
}

// Start opens the configured backend, loads the saved snapshot, and saves
// after every mutation from then on.
func (a *App) Start(ctx context.Context) error {
	backend, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	a.backend = backend
	if backend == nil {
		a.logger.Debug("Using in-memory storage")
		return nil
	}

	loaded, err := storage.LoadInto(ctx, backend, a.store)
	if err != nil {
		return err
	}
	a.logger.Debug("Storage ready",
		"backend", a.cfg.Storage.Backend,
		"loaded", loaded,
		"proposals", len(a.store.GetAllProposals()))

	a.autosaver = storage.NewAutosaver(a.store, backend, a.logger)
	a.autosaver.Start()
	return nil
}

func (a *App) openBackend(ctx context.Context) (storage.Backend, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return nil, nil
	case config.BackendNATS:
		if err := a.connectNATS(); err != nil {
			return nil, err
		}
		kvCtx, cancel := context.WithTimeout(ctx, a.cfg.NATS.Timeout)
		defer cancel()
		kv, err := storage.NewKVBackend(kvCtx, a.js, a.cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("initialize storage: %w", err)
		}
		return kv, nil
	default:
		return storage.NewFileBackend(a.cfg.Storage.Path), nil
	}
}

func (a *App) connectNATS() error {
	a.logger.Debug("Connecting to NATS", "url", a.cfg.NATS.URL)
	conn, err := nats.Connect(a.cfg.NATS.URL,
		nats.Name(appName),
		nats.Timeout(a.cfg.NATS.Timeout),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.natsConn = conn
	a.js = js
	return nil
}

// StartWatcher reloads the store when the snapshot file changes. It is a
// no-op for non-file backends.
func (a *App) StartWatcher(ctx context.Context) error {
	fb, ok := a.backend.(*storage.FileBackend)
	if !ok {
		a.logger.Warn("Snapshot watching needs the file backend", "backend", a.cfg.Storage.Backend)
		return nil
	}
	w, err := storage.NewWatcher(fb, a.store, storage.DefaultDebounce, a.logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// StartMetrics serves /metrics on addr until ctx is cancelled. Serve
// errors are logged.
func (a *App) StartMetrics(ctx context.Context, addr string) (*metrics.Server, error) {
	var opts []metrics.Option
	if a.autosaver != nil {
		opts = append(opts, metrics.WithSaveStats(a.autosaver.Stats))
	}
	a.collector = metrics.NewCollector(a.store, opts...)
	a.collector.Start()

	reg, err := metrics.NewRegistry(a.collector)
	if err != nil {
		return nil, err
	}
	srv, err := metrics.Listen(addr, reg, a.logger)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv, nil
}

// Assistant returns a copilot bound to the store and configured owner.
func (a *App) Assistant() *copilot.Assistant {
	return copilot.NewAssistant(a.store,
		copilot.WithOwner(a.owner()),
		copilot.WithDueInDays(a.cfg.Workflow.DueInDays),
		copilot.WithLogger(a.logger),
	)
}

// Ingester returns a web source ingester using the configured limits.
func (a *App) Ingester() *source.Ingester {
	fetcher := source.NewFetcher(a.cfg.Sources.Timeout, a.cfg.Sources.UserAgent, a.cfg.Sources.MaxContentSize)
	return source.NewIngester(fetcher, source.NewConverter(), a.logger)
}

func (a *App) owner() proposal.Person {
	return proposal.Person{
		ID:        a.cfg.Owner.ID,
		Name:      a.cfg.Owner.Name,
		Email:     a.cfg.Owner.Email,
		AvatarURL: a.cfg.Owner.AvatarURL,
	}
}

// ResolveProposal returns the proposal named by id, or the active proposal
// when id is empty.
func (a *App) ResolveProposal(id string) (*proposal.Proposal, error) {
	if id == "" {
		p, ok := a.store.GetActiveProposal()
		if !ok {
			return nil, errors.New("no active proposal; pass a proposal id")
		}
		return p, nil
	}
	p, ok := a.store.GetProposal(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", proposal.ErrProposalNotFound, id)
	}
	return p, nil
}

// Shutdown stops background work and closes connections.
func (a *App) Shutdown(timeout time.Duration) {
	if a.collector != nil {
		a.collector.Stop()
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("Failed to stop watcher", "error", err)
		}
	}
	if a.autosaver != nil {
		a.autosaver.Stop()
		if _, failures, lastErr := a.autosaver.Stats(); failures > 0 && lastErr != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err := retry.Do(ctx, retry.DefaultConfig(), func() error {
				return a.autosaver.Save(ctx)
			})
			cancel()
			if err != nil {
				a.logger.Error("Final save failed", "error", err)
			}
		}
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.natsConn.Close()
		}
	}
}
