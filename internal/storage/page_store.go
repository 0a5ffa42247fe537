package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
)

// PageStore implements domain.PageStore on a SQL database.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, slug, title, status, revision, content, published_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*domain.Page, error) {
	p := &domain.Page{}
	var published sql.NullTime
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Status, &p.Revision, &p.Content, &published, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if published.Valid {
		t := published.Time.UTC()
		p.PublishedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *PageStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.conn.ExecContext(ctx, s.db.rebind(query), args...)
}

func (s *PageStore) CreatePage(ctx context.Context, p *domain.Page) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = domain.PageStatusDraft
	}
	now := domain.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.exec(ctx,
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Status, p.Revision, p.Content, p.PublishedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

func (s *PageStore) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PageStore) GetPageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	return s.getBy(ctx, "slug", slug)
}

func (s *PageStore) getBy(ctx context.Context, column, value string) (*domain.Page, error) {
	row := s.db.conn.QueryRowContext(ctx, s.db.rebind(`SELECT `+pageColumns+` FROM pages WHERE `+column+` = ?`), value)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get page %s: %w", value, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *PageStore) ListPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func (s *PageStore) RenamePage(ctx context.Context, id, title, slug string) error {
	res, err := s.exec(ctx,
		`UPDATE pages SET title = ?, slug = ?, updated_at = ? WHERE id = ?`,
		title, slug, domain.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	return requireRow(res, id)
}

func (s *PageStore) DeletePage(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM page_revisions WHERE page_id = ?`), id); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM pages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveContent replaces the page content, bumps its revision and records
// the snapshot in page_revisions, all in one transaction.
func (s *PageStore) SaveContent(ctx context.Context, pageID, content string) (time.Time, error) {
	now := domain.Now()
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.db.rebind(
		`UPDATE pages SET content = ?, revision = revision + 1, updated_at = ? WHERE id = ?`),
		content, now, pageID,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("save content: %w", err)
	}
	if err := requireRow(res, pageID); err != nil {
		return time.Time{}, err
	}

	var revision int
	if err := tx.QueryRowContext(ctx, s.db.rebind(`SELECT revision FROM pages WHERE id = ?`), pageID).Scan(&revision); err != nil {
		return time.Time{}, fmt.Errorf("read revision: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`INSERT INTO page_revisions (id, page_id, revision, content, created_at) VALUES (?, ?, ?, ?, ?)`),
		uuid.New().String(), pageID, revision, content, now,
	); err != nil {
		return time.Time{}, fmt.Errorf("insert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("commit: %w", err)
	}
	return now, nil
}

func (s *PageStore) LoadContent(ctx context.Context, pageID string) (string, error) {
	var content string
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(`SELECT content FROM pages WHERE id = ?`), pageID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("load page %s: %w", pageID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load content: %w", err)
	}
	return content, nil
}

func (s *PageStore) Publish(ctx context.Context, pageID string) error {
	now := domain.Now()
	res, err := s.exec(ctx,
		`UPDATE pages SET status = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		domain.PageStatusPublished, now, now, pageID,
	)
	if err != nil {
		return fmt.Errorf("publish page: %w", err)
	}
	return requireRow(res, pageID)
}

// ListRevisions returns the revisions of a page, newest first.
func (s *PageStore) ListRevisions(ctx context.Context, pageID string) ([]domain.Revision, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, page_id, revision, content, created_at FROM page_revisions
		 WHERE page_id = ? ORDER BY revision DESC`), pageID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []domain.Revision
	for rows.Next() {
		var r domain.Revision
		if err := rows.Scan(&r.ID, &r.PageID, &r.Revision, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

func (s *PageStore) GetRevision(ctx context.Context, id string) (*domain.Revision, error) {
	r := &domain.Revision{}
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT id, page_id, revision, content, created_at FROM page_revisions WHERE id = ?`), id,
	).Scan(&r.ID, &r.PageID, &r.Revision, &r.Content, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

// PruneRevisions keeps the newest keep revisions of every page and deletes
// the rest. keep <= 0 disables pruning.
func (s *PageStore) PruneRevisions(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.exec(ctx,
		`DELETE FROM page_revisions
		 WHERE revision <= (SELECT p.revision FROM pages p WHERE p.id = page_revisions.page_id) - ?`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *PageStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
