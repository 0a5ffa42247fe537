// Package editor holds the editing session of one page: the current document,
// its save lifecycle, the block selection and the preview flags.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/serializer"
	"pagebuilder/internal/templates"
	"pagebuilder/internal/validate"
)

// DefaultAutosaveDelay is how long a session waits after the last edit
// before saving on its own.
const DefaultAutosaveDelay = 30 * time.Second

var (
	ErrSaveInProgress = errors.New("save already in progress")
	ErrSessionClosed  = errors.New("session closed")
)

type Lifecycle string

const (
	LifecycleIdle   Lifecycle = "idle"
	LifecycleDirty  Lifecycle = "dirty"
	LifecycleSaving Lifecycle = "saving"
	LifecycleSaved  Lifecycle = "saved"
)

type PreviewDevice string

const (
	DeviceDesktop PreviewDevice = "desktop"
	DeviceTablet  PreviewDevice = "tablet"
	DeviceMobile  PreviewDevice = "mobile"
)

func (d PreviewDevice) Valid() bool {
	switch d {
	case DeviceDesktop, DeviceTablet, DeviceMobile:
		return true
	}
	return false
}

// Persistence stores exported documents. domain.PageStore satisfies it.
type Persistence interface {
	SaveContent(ctx context.Context, pageID, content string) (time.Time, error)
	LoadContent(ctx context.Context, pageID string) (string, error)
	Publish(ctx context.Context, pageID string) error
}

// Emitter receives session notifications. service.EventEmitter satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

// Event names emitted by a session.
const (
	EventSaved         = "editor:saved"
	EventSaveFailed    = "editor:save-failed"
	EventPublished     = "editor:published"
	EventPublishFailed = "editor:publish-failed"
)

// SaveEvent is the payload of EventSaved and EventSaveFailed. Automatic is
// set for debounce-triggered saves so a UI can stay quiet about them.
type SaveEvent struct {
	PageID    string    `json:"pageId"`
	SavedAt   time.Time `json:"savedAt,omitempty"`
	Automatic bool      `json:"automatic"`
	Error     string    `json:"error,omitempty"`
}

// PublishEvent is the payload of EventPublished and EventPublishFailed.
type PublishEvent struct {
	PageID string `json:"pageId"`
	Error  string `json:"error,omitempty"`
}

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	PageID          string             `json:"pageId"`
	Document        domain.PageContent `json:"document"`
	Lifecycle       Lifecycle          `json:"lifecycle"`
	SelectedBlockID string             `json:"selectedBlockId,omitempty"`
	PreviewMode     bool               `json:"isPreviewMode"`
	PreviewDevice   PreviewDevice      `json:"previewDevice"`
	LastSaved       *time.Time         `json:"lastSaved,omitempty"`
	LastError       string             `json:"lastError,omitempty"`
}

// ─────────────────────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────────────────────

// Session edits one page. All methods are safe for concurrent use; the
// autosave timer fires on its own goroutine.
type Session struct {
	pageID string

	docs      *document.Engine
	tmpl      *templates.Engine
	validator *validate.Validator
	ser       *serializer.Serializer
	store     Persistence

	delay   time.Duration
	sched   Scheduler
	now     func() time.Time
	emitter Emitter
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu               sync.Mutex
	doc              domain.PageContent
	lifecycle        Lifecycle
	selected         string
	previewMode      bool
	device           PreviewDevice
	lastSaved        time.Time
	lastErr          error
	saving           bool
	saveDone         chan struct{}
	editedDuringSave bool
	timer            Timer
	gen              uint64
	closed           bool
}

type Option func(*Session)

// WithAutosaveDelay sets the debounce delay. Zero or negative disables autosave.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

func WithScheduler(sc Scheduler) Option {
	return func(s *Session) { s.sched = sc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithEmitter(e Emitter) Option {
	return func(s *Session) { s.emitter = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDocument seeds the session with doc instead of an empty document.
func WithDocument(doc domain.PageContent) Option {
	return func(s *Session) { s.doc = doc.Clone() }
}

// NewSession opens an idle session for pageID. Validation and serialization
// use the registry of docs.
func NewSession(pageID string, docs *document.Engine, store Persistence, opts ...Option) *Session {
	s := &Session{
		pageID:    pageID,
		docs:      docs,
		store:     store,
		delay:     DefaultAutosaveDelay,
		sched:     wallClock{},
		now:       domain.Now,
		emitter:   nopEmitter{},
		logger:    slog.Default(),
		lifecycle: LifecycleIdle,
		device:    DeviceDesktop,
	}
	for _, o := range opts {
		o(s)
	}
	if s.doc.Blocks == nil {
		s.doc = domain.NewPageContent(s.now())
	}
	s.validator = validate.New(docs.Registry())
	s.ser = serializer.New(serializer.WithClock(s.now))
	s.tmpl = templates.NewEngine(docs, templates.WithClock(s.now))
	s.logger = s.logger.With("pageId", pageID)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

func (s *Session) PageID() string { return s.pageID }

// Document returns a copy of the current document.
func (s *Session) Document() domain.PageContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Session) Lifecycle() Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle
}

// Dirty reports whether the document has changes no save has persisted yet.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle == LifecycleDirty || (s.saving && s.editedDuringSave)
}

func (s *Session) SelectedBlockID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) IsPreviewMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewMode
}

func (s *Session) PreviewDevice() PreviewDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// LastSaved returns the time of the last successful save, zero if none.
func (s *Session) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// LastError returns the error of the last failed save or publish. A later
// success clears it.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		PageID:          s.pageID,
		Document:        s.doc.Clone(),
		Lifecycle:       s.lifecycle,
		SelectedBlockID: s.selected,
		PreviewMode:     s.previewMode,
		PreviewDevice:   s.device,
	}
	if !s.lastSaved.IsZero() {
		t := s.lastSaved
		snap.LastSaved = &t
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Validate returns the field errors of every invalid block.
func (s *Session) Validate() map[string]domain.ValidationErrors {
	return s.validator.ValidateDocument(s.Document())
}

// Close cancels a pending autosave and any in-flight save, dropping unsaved
// edits. Call Flush first to keep them. Later calls that change the
// document return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ─────────────────────────────────────────────────────────────
// Debounce
// ─────────────────────────────────────────────────────────────

// markDirtyLocked records an edit. While a save is in flight the edit is
// remembered and the lifecycle is settled when the save returns.
func (s *Session) markDirtyLocked() {
	if s.saving {
		s.editedDuringSave = true
		return
	}
	s.lifecycle = LifecycleDirty
	s.armLocked()
}

func (s *Session) armLocked() {
	s.stopTimerLocked()
	if s.delay <= 0 {
		return
	}
	s.gen++
	gen := s.gen
	s.timer = s.sched.AfterFunc(s.delay, func() { s.autosave(gen) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// a timer that already fired sees a newer generation and does nothing
	s.gen++
}

func (s *Session) autosave(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.lifecycle != LifecycleDirty {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if err := s.save(s.ctx, true); err != nil && !errors.Is(err, ErrSaveInProgress) {
		s.logger.Warn("[Editor] autosave failed", "error", err)
	}
}
