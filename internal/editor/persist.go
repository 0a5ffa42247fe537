package editor

import (
	"context"
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/serializer"
)

// Save persists the exported document. At most one save runs at a time; a
// second call while one is in flight returns ErrSaveInProgress. On failure
// the session goes back to dirty with the document untouched.
func (s *Session) Save(ctx context.Context) error {
	return s.save(ctx, false)
}

func (s *Session) save(ctx context.Context, automatic bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	text, err := s.ser.Export(s.doc)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.stopTimerLocked()
	s.saving = true
	s.saveDone = make(chan struct{})
	s.editedDuringSave = false
	s.lifecycle = LifecycleSaving
	s.mu.Unlock()

	savedAt, err := s.store.SaveContent(ctx, s.pageID, text)

	s.mu.Lock()
	s.saving = false
	close(s.saveDone)
	if err != nil {
		perr := &domain.PersistenceError{Op: "save", PageID: s.pageID, Err: err}
		s.lastErr = perr
		s.lifecycle = LifecycleDirty
		s.mu.Unlock()
		s.emitter.Emit(ctx, EventSaveFailed, SaveEvent{PageID: s.pageID, Automatic: automatic, Error: err.Error()})
		return perr
	}
	s.lastSaved = savedAt
	s.lastErr = nil
	switch {
	case !s.editedDuringSave:
		s.lifecycle = LifecycleSaved
	case s.closed:
		s.lifecycle = LifecycleDirty
	default:
		s.lifecycle = LifecycleDirty
		s.armLocked()
	}
	s.mu.Unlock()

	s.logger.Debug("[Editor] saved", "automatic", automatic, "savedAt", savedAt)
	s.emitter.Emit(ctx, EventSaved, SaveEvent{PageID: s.pageID, SavedAt: savedAt, Automatic: automatic})
	return nil
}

// Flush waits for an in-flight save and then saves the edits it did not
// cover. A session with nothing unsaved returns nil without writing.
func (s *Session) Flush(ctx context.Context) error {
	return s.saveAfterInflight(ctx, true)
}

// saveAfterInflight saves once no other save is running. With onlyDirty it
// skips the write when the in-flight save already persisted everything.
func (s *Session) saveAfterInflight(ctx context.Context, onlyDirty bool) error {
	for {
		if err := s.waitForSave(ctx); err != nil {
			return err
		}
		if onlyDirty && !s.Dirty() {
			return nil
		}
		// an autosave may win the race between the wait and our save
		if err := s.save(ctx, false); !errors.Is(err, ErrSaveInProgress) {
			return err
		}
	}
}

// waitForSave blocks until no save is in flight or ctx ends.
func (s *Session) waitForSave(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.saving {
			s.mu.Unlock()
			return nil
		}
		done := s.saveDone
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Publish saves, refuses to go live when any block fails field validation,
// then asks the store to publish. A save already in flight is waited for
// first. A failed publish keeps the save.
func (s *Session) Publish(ctx context.Context) error {
	if err := s.saveAfterInflight(ctx, false); err != nil {
		return err
	}
	if invalid := s.Validate(); len(invalid) > 0 {
		return &domain.InvalidBlocksError{Blocks: invalid}
	}
	if err := s.store.Publish(ctx, s.pageID); err != nil {
		perr := &domain.PersistenceError{Op: "publish", PageID: s.pageID, Err: err}
		s.mu.Lock()
		s.lastErr = perr
		s.mu.Unlock()
		s.emitter.Emit(ctx, EventPublishFailed, PublishEvent{PageID: s.pageID, Error: err.Error()})
		return perr
	}
	s.logger.Info("[Editor] published")
	s.emitter.Emit(ctx, EventPublished, PublishEvent{PageID: s.pageID})
	return nil
}

// Load replaces the document with the stored one. Content that does not
// decode returns an *domain.ImportError and content that decodes but breaks
// the order or identity rules returns a *domain.StructuralError; in both
// cases the session keeps its current document.
func (s *Session) Load(ctx context.Context) error {
	doc, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.saving {
		return ErrSaveInProgress
	}
	s.replaceLocked(doc)
	return nil
}

// ReloadIfClean picks up content another writer stored for the page. It
// only replaces the document when the session has no unsaved edits and the
// stored content differs from it, and reports whether it did.
func (s *Session) ReloadIfClean(ctx context.Context) (bool, error) {
	doc, err := s.fetch(ctx)
	if err != nil {
		return false, err
	}
	incoming, err := s.ser.Export(doc)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	if s.saving || s.lifecycle == LifecycleDirty {
		return false, nil
	}
	if current, err := s.ser.Export(s.doc); err == nil && current == incoming {
		return false, nil
	}
	s.replaceLocked(doc)
	return true, nil
}

func (s *Session) fetch(ctx context.Context) (domain.PageContent, error) {
	text, err := s.store.LoadContent(ctx, s.pageID)
	if err != nil {
		return domain.PageContent{}, &domain.PersistenceError{Op: "load", PageID: s.pageID, Err: err}
	}
	doc, err := s.ser.Import(text)
	if err != nil {
		return domain.PageContent{}, fmt.Errorf("load page %s: %w", s.pageID, err)
	}
	if err := serializer.CheckStructure(doc); err != nil {
		return domain.PageContent{}, fmt.Errorf("load page %s: %w", s.pageID, err)
	}
	return doc, nil
}

func (s *Session) replaceLocked(doc domain.PageContent) {
	s.stopTimerLocked()
	s.doc = doc
	s.lifecycle = LifecycleIdle
	s.selected = ""
	s.lastErr = nil
}
