package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/serializer"
	"pagebuilder/internal/templates"
)

var ErrInvalidInput = errors.New("invalid input")

// ─────────────────────────────────────────────────────────────
// Page Service: page records, templates and revisions
// ─────────────────────────────────────────────────────────────

// PageService manages page records around the block documents they hold.
// Editing a document goes through SessionManager; this service covers
// everything that does not need a live session.
type PageService struct {
	store   domain.PageStore
	docs    *document.Engine
	tmpl    *templates.Engine
	catalog templates.Catalog
	ser     *serializer.Serializer
	emitter EventEmitter
	logger  *slog.Logger
}

func NewPageService(store domain.PageStore, docs *document.Engine, catalog templates.Catalog, emitter EventEmitter, logger *slog.Logger) *PageService {
	return &PageService{
		store:   store,
		docs:    docs,
		tmpl:    templates.NewEngine(docs),
		catalog: catalog,
		ser:     serializer.New(),
		emitter: emitter,
		logger:  logger,
	}
}

type CreatePageInput struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	TemplateID string `json:"templateId"`
}

// CreatePage stores a new draft page. Its document is empty, or a fresh
// instance of the template named by TemplateID. The slug defaults to one
// derived from the title.
func (s *PageService) CreatePage(ctx context.Context, in CreatePageInput) (*domain.Page, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: cannot derive a slug from %q", ErrInvalidInput, title)
	}

	doc := domain.NewPageContent(domain.Now())
	if in.TemplateID != "" {
		t, err := s.catalog.Get(in.TemplateID)
		if err != nil {
			return nil, err
		}
		doc = s.tmpl.Instantiate(t)
	}
	content, err := s.ser.Export(doc)
	if err != nil {
		return nil, err
	}

	p := &domain.Page{ID: uuid.New().String(), Slug: slug, Title: title, Content: content}
	if err := s.store.CreatePage(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("[Pages] created", "pageId", p.ID, "slug", slug, "template", in.TemplateID)
	s.emitter.Emit(ctx, EventPageCreated, map[string]string{"pageId": p.ID, "slug": slug})
	return p, nil
}

func (s *PageService) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	return s.store.GetPage(ctx, id)
}

func (s *PageService) GetPageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	return s.store.GetPageBySlug(ctx, slug)
}

func (s *PageService) ListPages(ctx context.Context) ([]domain.Page, error) {
	return s.store.ListPages(ctx)
}

// RenamePage changes the title and slug. An empty slug keeps the current one.
func (s *PageService) RenamePage(ctx context.Context, id, title, slug string) error {
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return err
	}
	if t := strings.TrimSpace(title); t != "" {
		p.Title = t
	}
	if sl := Slugify(slug); sl != "" {
		p.Slug = sl
	}
	if err := s.store.RenamePage(ctx, id, p.Title, p.Slug); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventPageUpdated, map[string]string{"pageId": id})
	return nil
}

func (s *PageService) DeletePage(ctx context.Context, id string) error {
	if err := s.store.DeletePage(ctx, id); err != nil {
		return err
	}
	s.logger.Info("[Pages] deleted", "pageId", id)
	s.emitter.Emit(ctx, EventPageDeleted, map[string]string{"pageId": id})
	return nil
}

// Content returns the stored document of a page, checked for structural
// validity.
func (s *PageService) Content(ctx context.Context, id string) (domain.PageContent, error) {
	text, err := s.store.LoadContent(ctx, id)
	if err != nil {
		return domain.PageContent{}, err
	}
	return s.decode(text)
}

func (s *PageService) decode(text string) (domain.PageContent, error) {
	doc, err := s.ser.Import(text)
	if err != nil {
		return domain.PageContent{}, err
	}
	if err := serializer.CheckStructure(doc); err != nil {
		return domain.PageContent{}, err
	}
	return doc, nil
}

// Templates lists the catalog.
func (s *PageService) Templates() []domain.Template {
	return s.catalog.List()
}

func (s *PageService) Template(id string) (domain.Template, error) {
	return s.catalog.Get(id)
}

// ── Revisions ──────────────────────────────────────────────

func (s *PageService) ListRevisions(ctx context.Context, pageID string) ([]domain.Revision, error) {
	return s.store.ListRevisions(ctx, pageID)
}

func (s *PageService) RevisionContent(ctx context.Context, revisionID string) (domain.PageContent, error) {
	rev, err := s.store.GetRevision(ctx, revisionID)
	if err != nil {
		return domain.PageContent{}, err
	}
	return s.decode(rev.Content)
}

// DiffRevisions compares two stored revisions. An empty toID compares
// against the current content of the page fromID belongs to.
func (s *PageService) DiffRevisions(ctx context.Context, fromID, toID string) (serializer.Diff, error) {
	from, err := s.store.GetRevision(ctx, fromID)
	if err != nil {
		return serializer.Diff{}, err
	}
	oldDoc, err := s.decode(from.Content)
	if err != nil {
		return serializer.Diff{}, fmt.Errorf("revision %s: %w", fromID, err)
	}

	var newDoc domain.PageContent
	if toID == "" {
		newDoc, err = s.Content(ctx, from.PageID)
	} else {
		newDoc, err = s.RevisionContent(ctx, toID)
	}
	if err != nil {
		return serializer.Diff{}, err
	}
	return serializer.DiffDocuments(oldDoc, newDoc), nil
}

// Slugify lowercases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return sb.String()
}
