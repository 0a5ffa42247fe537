package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
)

// ─────────────────────────────────────────────────────────────
// Session Manager: one editor session per open page
// ─────────────────────────────────────────────────────────────

// SessionManager owns the live editor sessions. Opening a page twice
// returns the same session.
type SessionManager struct {
	store   domain.PageStore
	docs    *document.Engine
	emitter EventEmitter
	logger  *slog.Logger
	opts    []editor.Option
	guard   pageGuard

	mu       sync.Mutex
	sessions map[string]*editor.Session
}

// NewSessionManager creates a manager. opts apply to every session it opens.
func NewSessionManager(store domain.PageStore, docs *document.Engine, emitter EventEmitter, logger *slog.Logger, opts ...editor.Option) *SessionManager {
	return &SessionManager{
		store:    store,
		docs:     docs,
		emitter:  emitter,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*editor.Session),
	}
}

// Open returns the session of pageID, loading the stored document the
// first time.
func (m *SessionManager) Open(ctx context.Context, pageID string) (*editor.Session, error) {
	if s, ok := m.Get(pageID); ok {
		return s, nil
	}

	opts := append([]editor.Option{
		editor.WithEmitter(m.emitter),
		editor.WithLogger(m.logger),
	}, m.opts...)
	s := editor.NewSession(pageID, m.docs, m.store, opts...)
	if err := s.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[pageID]; ok {
		s.Close()
		return existing, nil
	}
	m.sessions[pageID] = s
	m.logger.Debug("[Sessions] opened", "pageId", pageID)
	return s, nil
}

func (m *SessionManager) Get(pageID string) (*editor.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[pageID]
	return s, ok
}

// Active returns the page IDs with an open session, sorted.
func (m *SessionManager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Publish saves and publishes pageID through its session. While it runs,
// other publishes and closes of the same page fail with ErrPageBusy.
func (m *SessionManager) Publish(ctx context.Context, pageID string) error {
	release, err := m.guard.Acquire(pageID, "publish")
	if err != nil {
		return err
	}
	defer release()

	s, err := m.Open(ctx, pageID)
	if err != nil {
		return err
	}
	return s.Publish(ctx)
}

// Close waits for an in-flight autosave, saves what it did not cover and
// closes the session of pageID. A failed save is returned and the session
// stays open so nothing is lost.
func (m *SessionManager) Close(ctx context.Context, pageID string) error {
	s, ok := m.Get(pageID)
	if !ok {
		return nil
	}
	release, err := m.guard.Acquire(pageID, "close")
	if err != nil {
		return err
	}
	defer release()

	if err := s.Flush(ctx); err != nil {
		return err
	}
	m.Discard(pageID)
	return nil
}

// Discard closes the session of pageID without saving.
func (m *SessionManager) Discard(pageID string) {
	m.mu.Lock()
	s, ok := m.sessions[pageID]
	delete(m.sessions, pageID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll waits for running publishes, then flushes and closes every
// session. Save failures are logged.
func (m *SessionManager) CloseAll(ctx context.Context) {
	m.guard.Drain(ctx)
	for _, id := range m.Active() {
		if err := m.Close(ctx, id); err != nil {
			m.logger.Error("[Sessions] flush failed, discarding", "pageId", id, "error", err)
			m.Discard(id)
		}
	}
}
