package domain

import (
	"context"
	"time"
)

type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// Page is the persisted record of a service page. Content holds the exported
// document exactly as the serializer produced it.
type Page struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Status      PageStatus `json:"status"`
	Revision    int        `json:"revision"`
	Content     string     `json:"content"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Revision is the snapshot written by one save.
type Revision struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Revision  int       `json:"revision"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type PageStore interface {
	CreatePage(ctx context.Context, p *Page) error
	GetPage(ctx context.Context, id string) (*Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*Page, error)
	ListPages(ctx context.Context) ([]Page, error)
	RenamePage(ctx context.Context, id, title, slug string) error
	DeletePage(ctx context.Context, id string) error

	SaveContent(ctx context.Context, pageID, content string) (time.Time, error)
	LoadContent(ctx context.Context, pageID string) (string, error)
	Publish(ctx context.Context, pageID string) error

	ListRevisions(ctx context.Context, pageID string) ([]Revision, error)
	GetRevision(ctx context.Context, id string) (*Revision, error)
	PruneRevisions(ctx context.Context, keep int) (int, error)

	Close() error
}
