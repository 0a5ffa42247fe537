package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/service"
)

const watchInterval = 2 * time.Second

// pageWatcher polls the store for pages that have an open editor session,
// detecting external modifications (e.g. a second MCP process writing the
// same database) so clean sessions pick them up.
type pageWatcher struct {
	sessions *service.SessionManager
	emitter  service.EventEmitter
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func newPageWatcher(sessions *service.SessionManager, emitter service.EventEmitter, logger *slog.Logger, interval time.Duration) *pageWatcher {
	return &pageWatcher{sessions: sessions, emitter: emitter, logger: logger, interval: interval}
}

// Start begins the polling loop. Calling it twice is a no-op.
func (w *pageWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		return
	}
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.pollLoop(ctx, w.stopCh, w.done)
}

// Stop terminates the polling loop and waits for a running check.
func (w *pageWatcher) Stop() {
	w.mu.Lock()
	stopCh, done := w.stopCh, w.done
	w.stopCh, w.done = nil, nil
	w.mu.Unlock()
	if stopCh != nil {
		close(stopCh)
		<-done
	}
}

func (w *pageWatcher) pollLoop(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// check reloads every clean session whose stored content changed and drops
// sessions whose page was deleted.
func (w *pageWatcher) check(ctx context.Context) {
	for _, id := range w.sessions.Active() {
		s, ok := w.sessions.Get(id)
		if !ok {
			continue
		}
		reloaded, err := s.ReloadIfClean(ctx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			w.sessions.Discard(id)
			w.logger.Info("[Watcher] page deleted elsewhere, session closed", "pageId", id)
			w.emitter.Emit(ctx, service.EventPageDeleted, map[string]string{"pageId": id})
		case errors.Is(err, editor.ErrSessionClosed):
		case err != nil:
			w.logger.Warn("[Watcher] check failed", "pageId", id, "error", err)
		case reloaded:
			w.logger.Info("[Watcher] page changed elsewhere, reloaded", "pageId", id)
			w.emitter.Emit(ctx, service.EventPageReloaded, map[string]string{"pageId": id})
		}
	}
}
